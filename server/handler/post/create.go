package post

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/indieinfra/inkwell/mf2"
	"github.com/indieinfra/inkwell/server/auth"
	"github.com/indieinfra/inkwell/server/handler/common"
	"github.com/indieinfra/inkwell/server/resp"
	"github.com/indieinfra/inkwell/server/state"
	"github.com/indieinfra/inkwell/server/util"
	"github.com/indieinfra/inkwell/storage/posts"
	storageutil "github.com/indieinfra/inkwell/storage/util"
)

const timestampLayout = "2006-01-02 15:04:05"

func Create(st *state.InkwellState, w http.ResponseWriter, r *http.Request, contentType string, body []byte) {
	if !auth.RequestHasScope(r, auth.ScopeCreate) {
		resp.WriteInsufficientScope(w, "no create scope")
		return
	}

	var entry *mf2.Entry
	var err error
	if contentType == "application/json" {
		entry, err = mf2.DecodeJSON(body)
	} else {
		entry, err = mf2.DecodeForm(body)
	}

	if err != nil {
		var missing *mf2.MissingFieldError
		if errors.As(err, &missing) {
			resp.WriteInvalidRequest(w, fmt.Sprintf("missing required property %q", missing.Field))
		} else {
			resp.WriteInvalidRequest(w, err.Error())
		}
		return
	}

	now := time.Now().UTC()
	stamp := now.Format(timestampLayout)
	if entry.CreatedAt == nil {
		entry.CreatedAt = &stamp
	}
	if entry.UpdatedAt == nil {
		entry.UpdatedAt = &stamp
	}

	slug := util.AssignSlug(entry.Slug, entry.Name, now)

	exists, err := st.Posts.ExistsBySlug(r.Context(), slug)
	if err != nil {
		common.LogAndWriteError(w, r, "create post", err)
		return
	}
	if exists {
		// Keep the readable part and disambiguate with a UUID suffix.
		slug = fmt.Sprintf("%s-%s", slug, uuid.New().String())
	}

	entry.Slug = &slug

	post := posts.Post{
		Slug:       slug,
		EntryType:  entry.Kind,
		Name:       entry.Name,
		Content:    entry.Content,
		CreatedAt:  *entry.CreatedAt,
		UpdatedAt:  *entry.UpdatedAt,
		BookmarkOf: entry.BookmarkOf,
	}
	if entry.ContentFormat != mf2.FormatPlain {
		format := entry.ContentFormat
		post.ContentType = &format
	}
	if token := auth.GetToken(r.Context()); token != nil && token.ClientId != "" {
		clientId := token.ClientId
		post.ClientID = &clientId
	}

	if err := st.Posts.Create(r.Context(), post, entry.Categories, entry.Photos, body); err != nil {
		common.LogAndWriteError(w, r, "create post", err)
		return
	}

	publishToMirror(st, r, entry, entry.Categories, entry.Photos, mirrorSubject("add", entry))

	resp.WriteCreated(w, storageutil.NormalizeBaseURL(st.Cfg.Server.PublicUrl)+slug)
}
