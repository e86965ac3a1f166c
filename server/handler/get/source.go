package get

import (
	"net/http"

	"github.com/indieinfra/inkwell/mf2"
	"github.com/indieinfra/inkwell/server/handler/common"
	"github.com/indieinfra/inkwell/server/resp"
	"github.com/indieinfra/inkwell/server/state"
	"github.com/indieinfra/inkwell/server/util"
)

func HandleSource(st *state.InkwellState, w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	url := q.Get("url")
	if url == "" {
		resp.WriteInvalidRequest(w, "source requires a url")
		return
	}

	slug, err := util.SlugFromPostURL(st.Cfg.Server.PublicUrl, url)
	if err != nil {
		resp.WriteInvalidRequest(w, "url does not belong to this site")
		return
	}

	stored, err := st.Posts.GetBySlug(r.Context(), slug)
	if err != nil {
		common.LogAndWriteError(w, r, "get post", err)
		return
	}

	if stored.Post.Deleted {
		resp.WriteNotFound(w, "post has been deleted")
		return
	}

	entry := stored.Entry()
	resp.WriteOK(w, mf2.Encode(&entry, stored.Categories, stored.Photos))
}
