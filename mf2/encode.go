package mf2

// Document is the wire shape of an mf2 JSON document, used for source
// query read-back.
type Document struct {
	Type       []string         `json:"type"`
	Properties map[string][]any `json:"properties"`
}

// Encode renders an Entry, augmented with its stored categories and photos,
// back into canonical mf2 JSON. Decode accepts many shapes per property;
// Encode always picks one canonical shape, which makes decode(encode(x))
// the identity on the fields this engine owns.
func Encode(e *Entry, categories []string, photos []Photo) Document {
	props := make(map[string][]any)

	if e.Slug != nil {
		props["mp-slug"] = []any{*e.Slug}
	}

	cats := make([]any, len(categories))
	for i, c := range categories {
		cats[i] = c
	}
	props["category"] = cats

	if e.CreatedAt != nil {
		props["published"] = []any{*e.CreatedAt}
	}
	if e.UpdatedAt != nil {
		props["updated"] = []any{*e.UpdatedAt}
	}

	switch e.ContentFormat {
	case FormatHTML:
		props["content"] = []any{map[string]any{"html": e.Content}}
	case FormatMarkdown:
		// Raw, unrendered markdown. Wrapping it keeps the format tag
		// intact through a decode round trip.
		props["content"] = []any{map[string]any{"markdown": e.Content}}
	default:
		props["content"] = []any{e.Content}
	}

	if e.Name != nil {
		props["name"] = []any{*e.Name}
	}
	if e.BookmarkOf != nil {
		props["bookmark-of"] = []any{*e.BookmarkOf}
	}

	if len(photos) > 0 {
		out := make([]any, len(photos))
		for i, p := range photos {
			obj := map[string]any{"value": p.URL}
			if p.Alt != nil {
				obj["alt"] = *p.Alt
			}
			out[i] = obj
		}
		props["photo"] = out
	}

	return Document{
		Type:       []string{"h-" + e.Kind},
		Properties: props,
	}
}
