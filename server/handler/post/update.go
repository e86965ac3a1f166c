package post

import (
	"errors"
	"net/http"
	"time"

	"github.com/indieinfra/inkwell/mf2"
	"github.com/indieinfra/inkwell/server/auth"
	"github.com/indieinfra/inkwell/server/handler/common"
	"github.com/indieinfra/inkwell/server/resp"
	"github.com/indieinfra/inkwell/server/state"
	"github.com/indieinfra/inkwell/storage/posts"
)

func Update(st *state.InkwellState, w http.ResponseWriter, r *http.Request, data map[string]any) {
	if !auth.RequestHasScope(r, auth.ScopeUpdate) {
		resp.WriteInsufficientScope(w, "no update scope")
		return
	}

	directive, err := mf2.ParseUpdate(data, st.Cfg.Server.PublicUrl)
	if err != nil {
		var protocol *mf2.ProtocolError
		if errors.As(err, &protocol) {
			resp.WriteInvalidRequest(w, protocol.Error())
		} else {
			resp.WriteInvalidRequest(w, err.Error())
		}
		return
	}

	stored, err := st.Posts.GetBySlug(r.Context(), directive.TargetSlug)
	if err != nil {
		common.LogAndWriteError(w, r, "update post", err)
		return
	}

	current := stored.Entry()
	updated, diff, err := mf2.ApplyUpdate(current, directive)
	if err != nil {
		resp.WriteInvalidRequest(w, err.Error())
		return
	}

	stamp := time.Now().UTC().Format(timestampLayout)
	updated.UpdatedAt = &stamp

	row := posts.Post{
		Slug:       stored.Post.Slug,
		EntryType:  stored.Post.EntryType,
		Name:       updated.Name,
		Content:    updated.Content,
		CreatedAt:  stored.Post.CreatedAt,
		UpdatedAt:  stamp,
		BookmarkOf: updated.BookmarkOf,
	}
	if updated.ContentFormat != mf2.FormatPlain {
		format := updated.ContentFormat
		row.ContentType = &format
	}

	if err := st.Posts.Update(r.Context(), row, diff); err != nil {
		common.LogAndWriteError(w, r, "update post", err)
		return
	}

	publishToMirror(st, r, &updated, updated.Categories, updated.Photos, mirrorSubject("update", &updated))

	resp.WriteNoContent(w)
}
