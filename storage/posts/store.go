package posts

import (
	"context"

	"github.com/indieinfra/inkwell/mf2"
)

// Post is one stored post row.
type Post struct {
	ID          int64
	Slug        string
	EntryType   string
	Name        *string
	Content     string
	ContentType *string
	ClientID    *string
	CreatedAt   string
	UpdatedAt   string
	BookmarkOf  *string
	Deleted     bool
}

// StoredPost is a post row together with its category and photo rows.
type StoredPost struct {
	Post       Post
	Categories []string
	Photos     []mf2.Photo
}

// MediaUpload records one uploaded media blob.
type MediaUpload struct {
	HexDigest   string
	Filename    *string
	ContentType *string
}

// Store persists posts and their satellite rows. Every write method is a
// single atomic transaction: a mid-sequence failure must leave the stored
// state untouched.
type Store interface {
	// Create stores a new post row plus its categories, photos and the raw
	// submitted body, all or nothing.
	Create(ctx context.Context, post Post, categories []string, photos []mf2.Photo, rawBody []byte) error

	// GetBySlug returns the post and its satellite rows. Deleted posts are
	// returned with the flag set; presentation is the caller's call.
	GetBySlug(ctx context.Context, slug string) (*StoredPost, error)

	ExistsBySlug(ctx context.Context, slug string) (bool, error)

	// Update writes the post-directive row state and applies the category
	// diff, archiving the pre-update row into the history table inside the
	// same transaction.
	Update(ctx context.Context, updated Post, diff mf2.CategoryDiff) error

	SetDeleted(ctx context.Context, slug string, deleted bool) error

	RecordMediaUpload(ctx context.Context, upload MediaUpload) error

	GetMediaUpload(ctx context.Context, hexDigest string) (*MediaUpload, error)
}

// Entry converts the stored row into the canonical mf2 form.
func (sp *StoredPost) Entry() mf2.Entry {
	e := mf2.Entry{
		Kind:       sp.Post.EntryType,
		Content:    sp.Post.Content,
		Name:       sp.Post.Name,
		Categories: sp.Categories,
		CreatedAt:  &sp.Post.CreatedAt,
		UpdatedAt:  &sp.Post.UpdatedAt,
		Slug:       &sp.Post.Slug,
		BookmarkOf: sp.Post.BookmarkOf,
		Photos:     sp.Photos,
	}
	if sp.Post.ContentType != nil {
		e.ContentFormat = *sp.Post.ContentType
	}
	if e.Categories == nil {
		e.Categories = []string{}
	}
	return e
}
