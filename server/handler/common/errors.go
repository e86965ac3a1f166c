package common

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/indieinfra/inkwell/server/resp"
	"github.com/indieinfra/inkwell/server/util"
	"github.com/indieinfra/inkwell/storage/posts"
)

// LogAndWriteError logs an error with request context and maps known conditions to client responses.
func LogAndWriteError(w http.ResponseWriter, r *http.Request, op string, err error) {
	rl := util.FromContext(r.Context())
	if rl == nil {
		rl = util.WithRequest(log.Default(), r, "")
	}
	rl.Errorf("micropub %s failed: %v", op, err)

	switch {
	case errors.Is(err, posts.ErrNotFound):
		resp.WriteNotFound(w, "not found")
	default:
		resp.WriteInternalServerError(w, fmt.Sprintf("%s failed", op))
	}
}
