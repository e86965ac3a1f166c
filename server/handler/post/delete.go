package post

import (
	"fmt"
	"net/http"

	"github.com/indieinfra/inkwell/server/auth"
	"github.com/indieinfra/inkwell/server/handler/common"
	"github.com/indieinfra/inkwell/server/resp"
	"github.com/indieinfra/inkwell/server/state"
	"github.com/indieinfra/inkwell/server/util"
)

func Delete(st *state.InkwellState, w http.ResponseWriter, r *http.Request, data map[string]any, isUndelete bool) {
	urlRaw, ok := data["url"]
	if !ok {
		resp.WriteInvalidRequest(w, "URL to (un)delete must be specified")
		return
	}

	url, ok := urlRaw.(string)
	if !ok || url == "" {
		resp.WriteInvalidRequest(w, "URL to (un)delete must be a string")
		return
	}

	requiredScope := auth.ScopeDelete
	op := "delete post"
	if isUndelete {
		requiredScope = auth.ScopeUndelete
		op = "undelete post"
	}

	if !auth.RequestHasScope(r, requiredScope) {
		resp.WriteInsufficientScope(w, fmt.Sprintf("no %s scope", requiredScope))
		return
	}

	slug, err := util.SlugFromPostURL(st.Cfg.Server.PublicUrl, url)
	if err != nil {
		resp.WriteInvalidRequest(w, "url does not belong to this site")
		return
	}

	if err := st.Posts.SetDeleted(r.Context(), slug, !isUndelete); err != nil {
		common.LogAndWriteError(w, r, op, err)
		return
	}

	if isUndelete {
		republishAfterUndelete(st, w, r, slug)
		return
	}

	removeFromMirror(st, r, slug, fmt.Sprintf("inkwell(delete): %s", slug))
	resp.WriteNoContent(w)
}

// republishAfterUndelete pushes the restored post back to the mirror so it
// reappears in generated output.
func republishAfterUndelete(st *state.InkwellState, w http.ResponseWriter, r *http.Request, slug string) {
	stored, err := st.Posts.GetBySlug(r.Context(), slug)
	if err != nil {
		common.LogAndWriteError(w, r, "undelete post", err)
		return
	}

	entry := stored.Entry()
	publishToMirror(st, r, &entry, stored.Categories, stored.Photos, mirrorSubject("undelete", &entry))

	resp.WriteNoContent(w)
}
