package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/postboard/blog-api/internal/core/domain"
	"github.com/postboard/blog-api/internal/core/ports"
)

func TestPostHandler_Create(t *testing.T) {
	author := &domain.Account{ID: uuid.New(), IsActive: true, IsVerified: true}
	postID := uuid.New()
	svc := &stubPostService{
		createFn: func(ctx context.Context, a *domain.Account, in ports.CreatePostInput) (*ports.PostResult, error) {
			if a.ID != author.ID {
				t.Fatalf("expected author from session")
			}
			if in.Title != "Hello" || in.Content != "World" || in.IdempotencyKey != "key-1" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &ports.PostResult{Post: &domain.Post{ID: postID, Title: in.Title, Content: in.Content, AuthorID: a.ID, PubDate: time.Now()}}, nil
		},
	}
	h := NewPostHandler(svc)

	c, rec := newJSONContext(http.MethodPost, "/posts", `{"title":"Hello","content":"World"}`)
	c.Request().Header.Set("Idempotency-Key", "key-1")
	if err := withAccount(c, author, h.Create); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/posts/"+postID.String() {
		t.Fatalf("unexpected Location: %q", loc)
	}
	var resp postResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.ID != postID || resp.AuthorID != author.ID {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestPostHandler_Create_ReplayReturns200(t *testing.T) {
	svc := &stubPostService{
		createFn: func(ctx context.Context, a *domain.Account, in ports.CreatePostInput) (*ports.PostResult, error) {
			return &ports.PostResult{Post: &domain.Post{ID: uuid.New()}, AlreadyExisted: true}, nil
		},
	}
	h := NewPostHandler(svc)

	c, rec := newJSONContext(http.MethodPost, "/posts", `{"title":"Hello","content":"World"}`)
	if err := withAccount(c, &domain.Account{ID: uuid.New()}, h.Create); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestPostHandler_Create_Validation(t *testing.T) {
	svc := &stubPostService{
		createFn: func(context.Context, *domain.Account, ports.CreatePostInput) (*ports.PostResult, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewPostHandler(svc)

	c, _ := newJSONContext(http.MethodPost, "/posts", `{"content":"no title"}`)
	err := withAccount(c, &domain.Account{ID: uuid.New()}, h.Create)
	if code := httpCode(err); code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d (%v)", code, err)
	}
}

func TestPostHandler_List_FilterByEmail(t *testing.T) {
	svc := &stubPostService{
		listFn: func(ctx context.Context, f ports.ListPostsFilter) ([]*domain.Post, error) {
			if f.AuthorEmail != "a@example.com" {
				t.Fatalf("unexpected filter: %+v", f)
			}
			return []*domain.Post{{ID: uuid.New()}}, nil
		},
	}
	h := NewPostHandler(svc)

	c, rec := newJSONContext(http.MethodGet, "/posts?email=a@example.com", "")
	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp []postResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || len(resp) != 1 {
		t.Fatalf("expected one post, got %d, %v", len(resp), err)
	}
}

func TestPostHandler_List_PartialEmail(t *testing.T) {
	svc := &stubPostService{
		listFn: func(_ context.Context, f ports.ListPostsFilter) ([]*domain.Post, error) {
			if f.AuthorEmail != "example" {
				t.Fatalf("unexpected filter: %+v", f)
			}
			return []*domain.Post{}, nil
		},
	}
	h := NewPostHandler(svc)

	c, rec := newJSONContext(http.MethodGet, "/posts?email=example", "")
	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestPostHandler_Get_NotFound(t *testing.T) {
	svc := &stubPostService{
		getFn: func(context.Context, uuid.UUID) (*domain.Post, error) {
			return nil, domain.ErrPostNotFound
		},
	}
	h := NewPostHandler(svc)

	id := uuid.New()
	c, _ := newJSONContext(http.MethodGet, "/posts/"+id.String(), "")
	c.SetParamNames("id")
	c.SetParamValues(id.String())
	if err := h.Get(c); !errors.Is(err, domain.ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestPostHandler_Delete(t *testing.T) {
	actor := &domain.Account{ID: uuid.New()}
	id := uuid.New()
	svc := &stubPostService{
		deleteFn: func(ctx context.Context, a *domain.Account, got uuid.UUID) error {
			if a.ID != actor.ID || got != id {
				t.Fatalf("unexpected args")
			}
			return nil
		},
	}
	h := NewPostHandler(svc)

	c, rec := newJSONContext(http.MethodDelete, "/posts/"+id.String(), "")
	c.SetParamNames("id")
	c.SetParamValues(id.String())
	if err := withAccount(c, actor, h.Delete); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestPostHandler_Delete_Forbidden(t *testing.T) {
	svc := &stubPostService{
		deleteFn: func(context.Context, *domain.Account, uuid.UUID) error {
			return domain.ErrInsufficientPrivilege
		},
	}
	h := NewPostHandler(svc)

	id := uuid.New()
	c, _ := newJSONContext(http.MethodDelete, "/posts/"+id.String(), "")
	c.SetParamNames("id")
	c.SetParamValues(id.String())
	if err := withAccount(c, &domain.Account{ID: uuid.New()}, h.Delete); !errors.Is(err, domain.ErrInsufficientPrivilege) {
		t.Fatalf("expected ErrInsufficientPrivilege, got %v", err)
	}
}
