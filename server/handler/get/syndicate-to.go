package get

import (
	"net/http"

	"github.com/indieinfra/inkwell/server/resp"
	"github.com/indieinfra/inkwell/server/state"
)

func HandleSyndicateTo(st *state.InkwellState, w http.ResponseWriter, r *http.Request) {
	resp.WriteOK(w, map[string]any{
		"syndicate-to": []any{},
	})
}
