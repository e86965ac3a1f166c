package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/indieinfra/inkwell/config"
	"github.com/indieinfra/inkwell/mf2"
	storageutil "github.com/indieinfra/inkwell/storage/util"
)

type placeholderStyle int

const (
	placeholderQuestion placeholderStyle = iota
	placeholderDollar
)

type sqlTables struct {
	posts         string
	categories    string
	photos        string
	originalBlobs string
	history       string
	media         string
}

type SQLStore struct {
	cfg         *config.SQLContentStrategy
	db          *sql.DB
	driverName  string
	tables      sqlTables
	placeholder placeholderStyle
}

func NewSQLStore(cfg *config.SQLContentStrategy) (*SQLStore, error) {
	store, err := newSQLStoreWithDB(cfg, nil)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(store.driverName, cfg.DSN)
	if err != nil {
		return nil, err
	}

	store.db = db

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func newSQLStoreWithDB(cfg *config.SQLContentStrategy, db *sql.DB) (*SQLStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("content sql config is nil")
	}

	driverName, err := resolveSQLDriverName(cfg.Driver)
	if err != nil {
		return nil, err
	}

	prefix := "inkwell"
	if cfg.TablePrefix != nil {
		prefix = *cfg.TablePrefix
	}

	placeholder := placeholderQuestion
	if driverName == "pgx" {
		placeholder = placeholderDollar
	}

	return &SQLStore{
		cfg:        cfg,
		db:         db,
		driverName: driverName,
		tables: sqlTables{
			posts:         storageutil.DeriveTableName(prefix, "posts"),
			categories:    storageutil.DeriveTableName(prefix, "categories"),
			photos:        storageutil.DeriveTableName(prefix, "photos"),
			originalBlobs: storageutil.DeriveTableName(prefix, "original_blobs"),
			history:       storageutil.DeriveTableName(prefix, "post_history"),
			media:         storageutil.DeriveTableName(prefix, "media"),
		},
		placeholder: placeholder,
	}, nil
}

func resolveSQLDriverName(driver string) (string, error) {
	switch strings.ToLower(driver) {
	case "postgres":
		return "pgx", nil
	case "mysql":
		return "mysql", nil
	default:
		return "", fmt.Errorf("unsupported sql driver %q", driver)
	}
}

func (ps *SQLStore) initSchema(ctx context.Context) error {
	for _, query := range ps.schemaQueries() {
		if _, err := ps.db.ExecContext(ctx, query); err != nil {
			return err
		}
	}

	return nil
}

func (ps *SQLStore) schemaQueries() []string {
	idColumn := "BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY"
	if ps.placeholder == placeholderDollar {
		idColumn = "BIGSERIAL PRIMARY KEY"
	}

	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
id %s,
slug VARCHAR(255) NOT NULL UNIQUE,
entry_type VARCHAR(64) NOT NULL,
name TEXT,
content TEXT NOT NULL,
content_type VARCHAR(32),
client_id TEXT,
created_at VARCHAR(32) NOT NULL,
updated_at VARCHAR(32) NOT NULL,
bookmark_of TEXT,
deleted BOOLEAN NOT NULL DEFAULT FALSE
)`, ps.tables.posts, idColumn),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
post_id BIGINT NOT NULL,
category VARCHAR(255) NOT NULL
)`, ps.tables.categories),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
post_id BIGINT NOT NULL,
url TEXT NOT NULL,
alt TEXT
)`, ps.tables.photos),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
post_id BIGINT NOT NULL,
body TEXT NOT NULL
)`, ps.tables.originalBlobs),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
post_id BIGINT NOT NULL,
slug VARCHAR(255) NOT NULL,
entry_type VARCHAR(64) NOT NULL,
name TEXT,
content TEXT NOT NULL,
content_type VARCHAR(32),
created_at VARCHAR(32) NOT NULL,
updated_at VARCHAR(32) NOT NULL,
bookmark_of TEXT
)`, ps.tables.history),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
hex_digest VARCHAR(64) PRIMARY KEY,
filename TEXT,
content_type VARCHAR(255)
)`, ps.tables.media),
	}
}

func (ps *SQLStore) Create(ctx context.Context, post Post, categories []string, photos []mf2.Photo, rawBody []byte) error {
	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer rollbackQuietly(tx, "Create")

	postID, err := ps.insertPost(ctx, tx, post)
	if err != nil {
		return err
	}

	for _, category := range categories {
		if _, err := tx.ExecContext(ctx, ps.insertCategoryQuery(), postID, category); err != nil {
			return err
		}
	}

	for _, photo := range photos {
		if _, err := tx.ExecContext(ctx, ps.insertPhotoQuery(), postID, photo.URL, photo.Alt); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, ps.insertOriginalBlobQuery(), postID, string(rawBody)); err != nil {
		return err
	}

	return tx.Commit()
}

// insertPost returns the generated row id. Postgres has no LastInsertId, so
// the insert runs as a RETURNING query there.
func (ps *SQLStore) insertPost(ctx context.Context, tx *sql.Tx, post Post) (int64, error) {
	args := []any{
		post.Slug, post.EntryType, post.Name, post.Content, post.ContentType,
		post.ClientID, post.CreatedAt, post.UpdatedAt, post.BookmarkOf, post.Deleted,
	}

	if ps.placeholder == placeholderDollar {
		var id int64
		if err := tx.QueryRowContext(ctx, ps.insertPostReturningQuery(), args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	res, err := tx.ExecContext(ctx, ps.insertPostQuery(), args...)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (ps *SQLStore) GetBySlug(ctx context.Context, slug string) (*StoredPost, error) {
	row := ps.db.QueryRowContext(ctx, ps.selectPostQuery(), slug)

	var post Post
	err := row.Scan(
		&post.ID, &post.Slug, &post.EntryType, &post.Name, &post.Content,
		&post.ContentType, &post.ClientID, &post.CreatedAt, &post.UpdatedAt,
		&post.BookmarkOf, &post.Deleted,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	categories, err := ps.selectCategories(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	photos, err := ps.selectPhotos(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	return &StoredPost{Post: post, Categories: categories, Photos: photos}, nil
}

func (ps *SQLStore) selectCategories(ctx context.Context, postID int64) ([]string, error) {
	rows, err := ps.db.QueryContext(ctx, ps.selectCategoriesQuery(), postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}

	return categories, rows.Err()
}

func (ps *SQLStore) selectPhotos(ctx context.Context, postID int64) ([]mf2.Photo, error) {
	rows, err := ps.db.QueryContext(ctx, ps.selectPhotosQuery(), postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	photos := []mf2.Photo{}
	for rows.Next() {
		var photo mf2.Photo
		if err := rows.Scan(&photo.URL, &photo.Alt); err != nil {
			return nil, err
		}
		photos = append(photos, photo)
	}

	return photos, rows.Err()
}

func (ps *SQLStore) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	row := ps.db.QueryRowContext(ctx, ps.existsQuery(), slug)

	var found int
	if err := row.Scan(&found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (ps *SQLStore) Update(ctx context.Context, updated Post, diff mf2.CategoryDiff) error {
	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer rollbackQuietly(tx, "Update")

	// Archive the current row before touching it. A failure anywhere below
	// rolls the snapshot back along with the mutation.
	var current Post
	row := tx.QueryRowContext(ctx, ps.selectPostQuery(), updated.Slug)
	err = row.Scan(
		&current.ID, &current.Slug, &current.EntryType, &current.Name, &current.Content,
		&current.ContentType, &current.ClientID, &current.CreatedAt, &current.UpdatedAt,
		&current.BookmarkOf, &current.Deleted,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	_, err = tx.ExecContext(ctx, ps.insertHistoryQuery(),
		current.ID, current.Slug, current.EntryType, current.Name, current.Content,
		current.ContentType, current.CreatedAt, current.UpdatedAt, current.BookmarkOf,
	)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, ps.updatePostQuery(),
		updated.Name, updated.Content, updated.ContentType, updated.UpdatedAt,
		updated.BookmarkOf, current.ID,
	)
	if err != nil {
		return err
	}

	if err := ps.applyCategoryDiff(ctx, tx, current.ID, diff); err != nil {
		return err
	}

	return tx.Commit()
}

func (ps *SQLStore) applyCategoryDiff(ctx context.Context, tx *sql.Tx, postID int64, diff mf2.CategoryDiff) error {
	if diff.ReplaceAll || diff.RemoveAll {
		if _, err := tx.ExecContext(ctx, ps.deleteCategoriesQuery(), postID); err != nil {
			return err
		}
	}

	for _, category := range diff.Set {
		if _, err := tx.ExecContext(ctx, ps.insertCategoryQuery(), postID, category); err != nil {
			return err
		}
	}

	for _, category := range diff.Add {
		if _, err := tx.ExecContext(ctx, ps.insertCategoryQuery(), postID, category); err != nil {
			return err
		}
	}

	for _, category := range diff.Remove {
		if _, err := tx.ExecContext(ctx, ps.deleteCategoryValueQuery(), postID, category); err != nil {
			return err
		}
	}

	return nil
}

func (ps *SQLStore) SetDeleted(ctx context.Context, slug string, deleted bool) error {
	res, err := ps.db.ExecContext(ctx, ps.setDeletedQuery(), deleted, slug)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

func (ps *SQLStore) RecordMediaUpload(ctx context.Context, upload MediaUpload) error {
	_, err := ps.db.ExecContext(ctx, ps.insertMediaQuery(), upload.HexDigest, upload.Filename, upload.ContentType)
	return err
}

func (ps *SQLStore) GetMediaUpload(ctx context.Context, hexDigest string) (*MediaUpload, error) {
	row := ps.db.QueryRowContext(ctx, ps.selectMediaQuery(), hexDigest)

	var upload MediaUpload
	if err := row.Scan(&upload.HexDigest, &upload.Filename, &upload.ContentType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &upload, nil
}

func rollbackQuietly(tx *sql.Tx, op string) {
	// Rollback is safe to call after Commit; it will return sql.ErrTxDone
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		log.Printf("unexpected error during transaction rollback in %s: %v", op, err)
	}
}

const postColumns = "id, slug, entry_type, name, content, content_type, client_id, created_at, updated_at, bookmark_of, deleted"

func (ps *SQLStore) insertPostQuery() string {
	return fmt.Sprintf(
		"INSERT INTO %s (slug, entry_type, name, content, content_type, client_id, created_at, updated_at, bookmark_of, deleted) VALUES (%s)",
		ps.tables.posts,
		ps.placeholderList(10),
	)
}

func (ps *SQLStore) insertPostReturningQuery() string {
	return ps.insertPostQuery() + " RETURNING id"
}

func (ps *SQLStore) insertCategoryQuery() string {
	return fmt.Sprintf(
		"INSERT INTO %s (post_id, category) VALUES (%s)",
		ps.tables.categories,
		ps.placeholderList(2),
	)
}

func (ps *SQLStore) insertPhotoQuery() string {
	return fmt.Sprintf(
		"INSERT INTO %s (post_id, url, alt) VALUES (%s)",
		ps.tables.photos,
		ps.placeholderList(3),
	)
}

func (ps *SQLStore) insertOriginalBlobQuery() string {
	return fmt.Sprintf(
		"INSERT INTO %s (post_id, body) VALUES (%s)",
		ps.tables.originalBlobs,
		ps.placeholderList(2),
	)
}

func (ps *SQLStore) insertHistoryQuery() string {
	return fmt.Sprintf(
		"INSERT INTO %s (post_id, slug, entry_type, name, content, content_type, created_at, updated_at, bookmark_of) VALUES (%s)",
		ps.tables.history,
		ps.placeholderList(9),
	)
}

func (ps *SQLStore) insertMediaQuery() string {
	return fmt.Sprintf(
		"INSERT INTO %s (hex_digest, filename, content_type) VALUES (%s)",
		ps.tables.media,
		ps.placeholderList(3),
	)
}

func (ps *SQLStore) selectPostQuery() string {
	return fmt.Sprintf(
		"SELECT %s FROM %s WHERE slug = %s",
		postColumns,
		ps.tables.posts,
		ps.placeholderFor(1),
	)
}

func (ps *SQLStore) selectCategoriesQuery() string {
	return fmt.Sprintf(
		"SELECT category FROM %s WHERE post_id = %s",
		ps.tables.categories,
		ps.placeholderFor(1),
	)
}

func (ps *SQLStore) selectPhotosQuery() string {
	return fmt.Sprintf(
		"SELECT url, alt FROM %s WHERE post_id = %s",
		ps.tables.photos,
		ps.placeholderFor(1),
	)
}

func (ps *SQLStore) selectMediaQuery() string {
	return fmt.Sprintf(
		"SELECT hex_digest, filename, content_type FROM %s WHERE hex_digest = %s",
		ps.tables.media,
		ps.placeholderFor(1),
	)
}

func (ps *SQLStore) existsQuery() string {
	return fmt.Sprintf(
		"SELECT 1 FROM %s WHERE slug = %s",
		ps.tables.posts,
		ps.placeholderFor(1),
	)
}

func (ps *SQLStore) updatePostQuery() string {
	return fmt.Sprintf(
		"UPDATE %s SET name = %s, content = %s, content_type = %s, updated_at = %s, bookmark_of = %s WHERE id = %s",
		ps.tables.posts,
		ps.placeholderFor(1),
		ps.placeholderFor(2),
		ps.placeholderFor(3),
		ps.placeholderFor(4),
		ps.placeholderFor(5),
		ps.placeholderFor(6),
	)
}

func (ps *SQLStore) setDeletedQuery() string {
	return fmt.Sprintf(
		"UPDATE %s SET deleted = %s WHERE slug = %s",
		ps.tables.posts,
		ps.placeholderFor(1),
		ps.placeholderFor(2),
	)
}

func (ps *SQLStore) deleteCategoriesQuery() string {
	return fmt.Sprintf(
		"DELETE FROM %s WHERE post_id = %s",
		ps.tables.categories,
		ps.placeholderFor(1),
	)
}

func (ps *SQLStore) deleteCategoryValueQuery() string {
	return fmt.Sprintf(
		"DELETE FROM %s WHERE post_id = %s AND category = %s",
		ps.tables.categories,
		ps.placeholderFor(1),
		ps.placeholderFor(2),
	)
}

func (ps *SQLStore) placeholderList(count int) string {
	parts := make([]string, count)
	for i := range parts {
		parts[i] = ps.placeholderFor(i + 1)
	}

	return strings.Join(parts, ", ")
}

func (ps *SQLStore) placeholderFor(index int) string {
	if ps.placeholder == placeholderDollar {
		return fmt.Sprintf("$%d", index)
	}

	return "?"
}
