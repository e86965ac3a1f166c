package post

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/indieinfra/inkwell/mf2"
	"github.com/indieinfra/inkwell/server/state"
	"github.com/indieinfra/inkwell/server/util"
)

// mirrorSubject builds a commit subject such as
// "inkwell(add): 2020/10/24/testing (Hello World)". Untitled posts get a
// short text excerpt of their content instead of a title.
func mirrorSubject(action string, entry *mf2.Entry) string {
	slug := ""
	if entry.Slug != nil {
		slug = *entry.Slug
	}

	summary := ""
	switch {
	case entry.Name != nil:
		summary = *entry.Name
	case entry.ContentFormat == mf2.FormatHTML:
		summary = util.HtmlToText(entry.Content, 8)
	}

	if summary == "" {
		return fmt.Sprintf("inkwell(%s): %s", action, slug)
	}
	return fmt.Sprintf("inkwell(%s): %s (%s)", action, slug, summary)
}

// publishToMirror pushes the canonical document to the configured mirror.
// The primary store has already committed, so mirror failures are logged and
// swallowed rather than surfaced to the client.
func publishToMirror(st *state.InkwellState, r *http.Request, entry *mf2.Entry, categories []string, photos []mf2.Photo, subject string) {
	if entry.Slug == nil {
		return
	}

	doc, err := json.MarshalIndent(mf2.Encode(entry, categories, photos), "", "  ")
	if err != nil {
		logMirrorFailure(r, err)
		return
	}

	if err := st.Mirror.Publish(r.Context(), *entry.Slug, doc, subject); err != nil {
		logMirrorFailure(r, err)
	}
}

func removeFromMirror(st *state.InkwellState, r *http.Request, slug string, subject string) {
	if err := st.Mirror.Remove(r.Context(), slug, subject); err != nil {
		logMirrorFailure(r, err)
	}
}

func logMirrorFailure(r *http.Request, err error) {
	rl := util.FromContext(r.Context())
	if rl == nil {
		rl = util.WithRequest(log.Default(), r, "")
	}
	rl.Errorf("mirror sync failed (content store already updated): %v", err)
}
