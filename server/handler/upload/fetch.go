package upload

import (
	"io"
	"log"
	"net/http"

	"github.com/indieinfra/inkwell/server/handler/common"
	"github.com/indieinfra/inkwell/server/resp"
	"github.com/indieinfra/inkwell/server/state"
	"github.com/indieinfra/inkwell/server/util"
)

// HandleMediaFetch streams a stored blob back. Lookup goes through the media
// table first, so unknown digests 404 without hitting blob storage.
func HandleMediaFetch(st *state.InkwellState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		digest := r.PathValue("digest")
		if digest == "" {
			resp.WriteInvalidRequest(w, "media digest is required")
			return
		}

		record, err := st.Posts.GetMediaUpload(r.Context(), digest)
		if err != nil {
			common.LogAndWriteError(w, r, "fetch media", err)
			return
		}

		blob, err := st.Media.Get(r.Context(), record.HexDigest)
		if err != nil {
			common.LogAndWriteError(w, r, "fetch media", err)
			return
		}
		defer blob.Close()

		if record.ContentType != nil {
			w.Header().Set("Content-Type", *record.ContentType)
		}

		if _, err := io.Copy(w, blob); err != nil {
			rl := util.FromContext(r.Context())
			if rl == nil {
				rl = util.WithRequest(log.Default(), r, "")
			}
			rl.Errorf("media stream interrupted: %v", err)
		}
	}
}
