package post

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/indieinfra/inkwell/config"
	"github.com/indieinfra/inkwell/mf2"
	"github.com/indieinfra/inkwell/server/auth"
	"github.com/indieinfra/inkwell/server/state"
	"github.com/indieinfra/inkwell/storage/posts"
)

type stubPostStore struct {
	existing map[string]*posts.StoredPost

	createCalled   bool
	lastCreated    posts.Post
	lastCategories []string
	lastPhotos     []mf2.Photo
	lastRawBody    []byte

	updateCalled bool
	lastUpdated  posts.Post
	lastDiff     mf2.CategoryDiff

	deletedSlug    string
	deletedValue   bool
	setDeletedErr  error
	forbidMutation bool
}

func (s *stubPostStore) Create(_ context.Context, post posts.Post, categories []string, photos []mf2.Photo, rawBody []byte) error {
	if s.forbidMutation {
		panic("Create should not be called")
	}
	s.createCalled = true
	s.lastCreated = post
	s.lastCategories = categories
	s.lastPhotos = photos
	s.lastRawBody = rawBody
	return nil
}

func (s *stubPostStore) GetBySlug(_ context.Context, slug string) (*posts.StoredPost, error) {
	if sp, ok := s.existing[slug]; ok {
		return sp, nil
	}
	return nil, posts.ErrNotFound
}

func (s *stubPostStore) ExistsBySlug(_ context.Context, slug string) (bool, error) {
	_, ok := s.existing[slug]
	return ok, nil
}

func (s *stubPostStore) Update(_ context.Context, updated posts.Post, diff mf2.CategoryDiff) error {
	if s.forbidMutation {
		panic("Update should not be called")
	}
	s.updateCalled = true
	s.lastUpdated = updated
	s.lastDiff = diff
	return nil
}

func (s *stubPostStore) SetDeleted(_ context.Context, slug string, deleted bool) error {
	if s.setDeletedErr != nil {
		return s.setDeletedErr
	}
	if _, ok := s.existing[slug]; !ok {
		return posts.ErrNotFound
	}
	s.deletedSlug = slug
	s.deletedValue = deleted
	return nil
}

func (s *stubPostStore) RecordMediaUpload(context.Context, posts.MediaUpload) error { return nil }

func (s *stubPostStore) GetMediaUpload(context.Context, string) (*posts.MediaUpload, error) {
	return nil, posts.ErrNotFound
}

type stubMirror struct {
	published []string
	removed   []string
}

func (m *stubMirror) Publish(_ context.Context, slug string, _ []byte, _ string) error {
	m.published = append(m.published, slug)
	return nil
}

func (m *stubMirror) Remove(_ context.Context, slug string, _ string) error {
	m.removed = append(m.removed, slug)
	return nil
}

func newState(store *stubPostStore) *state.InkwellState {
	return &state.InkwellState{
		Cfg: &config.Config{
			Server: config.Server{
				PublicUrl: "https://example.org",
				Limits:    config.ServerLimits{MaxPayloadSize: 2_000_000, MaxFileSize: 1_000_000},
			},
			Micropub: config.Micropub{MeUrl: "https://example.org"},
		},
		Posts:  store,
		Mirror: &stubMirror{},
	}
}

func authorized(req *http.Request, scope string) *http.Request {
	tok := &auth.TokenDetails{Me: "https://example.org", ClientId: "https://quill.p3k.io/", Scope: scope}
	return req.WithContext(auth.AddToken(req.Context(), tok))
}

func TestDispatchPost_CreateJSONSuccess(t *testing.T) {
	store := &stubPostStore{}
	st := newState(store)

	payload := map[string]any{
		"type": []any{"h-entry"},
		"properties": map[string]any{
			"name":     []any{"Hello World"},
			"content":  []any{"the body"},
			"category": []any{"a", "b"},
		},
	}
	b, _ := json.Marshal(payload)
	req := authorized(httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(b)), "create")
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	DispatchPost(st).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rr.Code, rr.Body.String())
	}

	location := rr.Header().Get("Location")
	if !strings.HasPrefix(location, "https://example.org/") || !strings.HasSuffix(location, "/hello-world") {
		t.Fatalf("unexpected location %q", location)
	}

	if !store.createCalled {
		t.Fatal("expected store create")
	}
	if store.lastCreated.Name == nil || *store.lastCreated.Name != "Hello World" {
		t.Fatalf("unexpected stored name %+v", store.lastCreated.Name)
	}
	if len(store.lastCategories) != 2 {
		t.Fatalf("unexpected categories %v", store.lastCategories)
	}
	if !bytes.Equal(store.lastRawBody, b) {
		t.Fatal("expected original body to be archived verbatim")
	}
	if store.lastCreated.ClientID == nil || *store.lastCreated.ClientID != "https://quill.p3k.io/" {
		t.Fatalf("expected client id from token, got %+v", store.lastCreated.ClientID)
	}

	mirror := st.Mirror.(*stubMirror)
	if len(mirror.published) != 1 {
		t.Fatalf("expected one mirror publish, got %v", mirror.published)
	}
}

func TestDispatchPost_CreateRequiresScope(t *testing.T) {
	store := &stubPostStore{forbidMutation: true}
	st := newState(store)

	req := authorized(httptest.NewRequest(http.MethodPost, "/", strings.NewReader("h=entry&content=hi")), "media")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rr := httptest.NewRecorder()
	DispatchPost(st).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "insufficient_scope") {
		t.Fatalf("expected insufficient_scope, got %s", rr.Body.String())
	}
}

func TestDispatchPost_CreateFormWithSuppliedSlug(t *testing.T) {
	store := &stubPostStore{}
	st := newState(store)

	body := "h=entry&content=hello+world&mp-slug=notes/custom"
	req := authorized(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), "create")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rr := httptest.NewRecorder()
	DispatchPost(st).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Location"); got != "https://example.org/notes/custom" {
		t.Fatalf("unexpected location %q", got)
	}
}

func TestDispatchPost_CreateSlugCollisionGetsSuffix(t *testing.T) {
	store := &stubPostStore{existing: map[string]*posts.StoredPost{
		"notes/custom": {Post: posts.Post{Slug: "notes/custom"}},
	}}
	st := newState(store)

	body := "h=entry&content=hello&mp-slug=notes/custom"
	req := authorized(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), "create")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rr := httptest.NewRecorder()
	DispatchPost(st).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rr.Code, rr.Body.String())
	}

	slug := store.lastCreated.Slug
	if !strings.HasPrefix(slug, "notes/custom-") || len(slug) <= len("notes/custom-") {
		t.Fatalf("expected uuid-suffixed slug, got %q", slug)
	}
}

func TestDispatchPost_CreateMissingContent(t *testing.T) {
	store := &stubPostStore{forbidMutation: true}
	st := newState(store)

	req := authorized(httptest.NewRequest(http.MethodPost, "/", strings.NewReader("h=entry&name=no+body")), "create")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rr := httptest.NewRecorder()
	DispatchPost(st).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "content") {
		t.Fatalf("expected content to be named, got %s", rr.Body.String())
	}
}

func existingStored() *posts.StoredPost {
	return &posts.StoredPost{
		Post: posts.Post{
			ID:        3,
			Slug:      "2020/10/24/testing",
			EntryType: "entry",
			Content:   "old content",
			CreatedAt: "2020-10-24 09:00:00",
			UpdatedAt: "2020-10-24 09:00:00",
		},
		Categories: []string{"a", "b"},
	}
}

func TestDispatchPost_UpdateReplacesContent(t *testing.T) {
	store := &stubPostStore{existing: map[string]*posts.StoredPost{
		"2020/10/24/testing": existingStored(),
	}}
	st := newState(store)

	payload := map[string]any{
		"action":  "update",
		"url":     "https://example.org/2020/10/24/testing",
		"replace": map[string]any{"content": []any{"new content"}},
		"add":     map[string]any{"category": []any{"c"}},
	}
	b, _ := json.Marshal(payload)
	req := authorized(httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(b)), "update")
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	DispatchPost(st).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d (%s)", rr.Code, rr.Body.String())
	}

	if !store.updateCalled {
		t.Fatal("expected store update")
	}
	if store.lastUpdated.Content != "new content" {
		t.Fatalf("unexpected content %q", store.lastUpdated.Content)
	}
	if store.lastUpdated.CreatedAt != "2020-10-24 09:00:00" {
		t.Fatalf("created timestamp must not change, got %q", store.lastUpdated.CreatedAt)
	}
	if store.lastUpdated.UpdatedAt == "2020-10-24 09:00:00" {
		t.Fatal("updated timestamp should move forward")
	}
	if len(store.lastDiff.Add) != 1 || store.lastDiff.Add[0] != "c" {
		t.Fatalf("unexpected diff %+v", store.lastDiff)
	}
}

func TestDispatchPost_UpdateRejectsBareScalar(t *testing.T) {
	store := &stubPostStore{forbidMutation: true, existing: map[string]*posts.StoredPost{
		"2020/10/24/testing": existingStored(),
	}}
	st := newState(store)

	payload := map[string]any{
		"action":  "update",
		"url":     "https://example.org/2020/10/24/testing",
		"replace": map[string]any{"content": "not wrapped"},
	}
	b, _ := json.Marshal(payload)
	req := authorized(httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(b)), "update")
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	DispatchPost(st).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "invalid_request") {
		t.Fatalf("expected invalid_request, got %s", rr.Body.String())
	}
}

func TestDispatchPost_UpdateMissingPost(t *testing.T) {
	store := &stubPostStore{}
	st := newState(store)

	payload := map[string]any{
		"action":  "update",
		"url":     "https://example.org/2020/01/01/nope",
		"replace": map[string]any{"content": []any{"x"}},
	}
	b, _ := json.Marshal(payload)
	req := authorized(httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(b)), "update")
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	DispatchPost(st).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d (%s)", rr.Code, rr.Body.String())
	}
}

func TestDispatchPost_UpdateViaFormRejected(t *testing.T) {
	store := &stubPostStore{forbidMutation: true}
	st := newState(store)

	body := "action=update&url=https://example.org/2020/10/24/testing"
	req := authorized(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), "update")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rr := httptest.NewRecorder()
	DispatchPost(st).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestDispatchPost_DeleteAndUndelete(t *testing.T) {
	store := &stubPostStore{existing: map[string]*posts.StoredPost{
		"2020/10/24/testing": existingStored(),
	}}
	st := newState(store)

	t.Run("delete marks row and prunes mirror", func(t *testing.T) {
		payload := map[string]any{"action": "delete", "url": "https://example.org/2020/10/24/testing"}
		b, _ := json.Marshal(payload)
		req := authorized(httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(b)), "delete")
		req.Header.Set("Content-Type", "application/json")

		rr := httptest.NewRecorder()
		DispatchPost(st).ServeHTTP(rr, req)

		if rr.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d (%s)", rr.Code, rr.Body.String())
		}
		if store.deletedSlug != "2020/10/24/testing" || !store.deletedValue {
			t.Fatalf("unexpected delete call %q %v", store.deletedSlug, store.deletedValue)
		}
		if mirror := st.Mirror.(*stubMirror); len(mirror.removed) != 1 {
			t.Fatalf("expected mirror removal, got %v", mirror.removed)
		}
	})

	t.Run("undelete via form restores", func(t *testing.T) {
		body := "action=undelete&url=" + "https://example.org/2020/10/24/testing"
		req := authorized(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), "undelete")
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		rr := httptest.NewRecorder()
		DispatchPost(st).ServeHTTP(rr, req)

		if rr.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d (%s)", rr.Code, rr.Body.String())
		}
		if store.deletedValue {
			t.Fatal("expected deleted flag cleared")
		}
	})

	t.Run("delete without scope", func(t *testing.T) {
		payload := map[string]any{"action": "delete", "url": "https://example.org/2020/10/24/testing"}
		b, _ := json.Marshal(payload)
		req := authorized(httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(b)), "create")
		req.Header.Set("Content-Type", "application/json")

		rr := httptest.NewRecorder()
		DispatchPost(st).ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})
}

func TestDispatchPost_UnknownAction(t *testing.T) {
	store := &stubPostStore{forbidMutation: true}
	st := newState(store)

	payload := map[string]any{"action": "archive", "url": "https://example.org/x"}
	b, _ := json.Marshal(payload)
	req := authorized(httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(b)), "create update delete")
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	DispatchPost(st).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestDispatchPost_InvalidJSON(t *testing.T) {
	store := &stubPostStore{forbidMutation: true}
	st := newState(store)

	req := authorized(httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{nope")), "create")
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	DispatchPost(st).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
