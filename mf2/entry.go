package mf2

// Content formats an Entry can carry. The zero value means plain text.
const (
	FormatPlain    = ""
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
)

// Photo is one photo attached to an entry. Alt is nil when the client did
// not provide alternative text.
type Photo struct {
	URL string
	Alt *string
}

// Entry is the canonical in-memory form of a post, independent of the wire
// shape it arrived in. Content and Kind are always present after a
// successful decode; every other field is optional and nil/empty means the
// client did not send it.
type Entry struct {
	// Kind is the mf2 type with the "h-" prefix stripped ("entry", "food").
	Kind string

	Content       string
	ContentFormat string

	// Name is the title of the entry. Notes have none.
	Name *string

	// Categories preserves submission order and duplicates.
	Categories []string

	CreatedAt *string
	UpdatedAt *string

	// Slug is the caller-supplied desired path segment, if any.
	Slug *string

	BookmarkOf *string

	Photos []Photo

	// AccessToken may arrive inline in form-encoded bodies in place of an
	// Authorization header.
	AccessToken *string
}

// Clone returns a deep copy. Updates mutate a copy of the stored entry so a
// failed directive leaves the original untouched.
func (e *Entry) Clone() Entry {
	out := *e
	if e.Categories != nil {
		out.Categories = append([]string(nil), e.Categories...)
	}
	if e.Photos != nil {
		out.Photos = append([]Photo(nil), e.Photos...)
	}
	return out
}

func strPtr(s string) *string { return &s }
