package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/postboard/blog-api/internal/api/handler"
	"github.com/postboard/blog-api/internal/core/domain"
	"github.com/postboard/blog-api/internal/core/ports"
)

// sessions maps bearer tokens to accounts.
type sessions map[string]*domain.Account

func (s sessions) Login(context.Context, string, string) (*domain.Token, error) {
	return nil, domain.ErrInvalidCredentials
}

func (s sessions) Authenticate(context.Context, string, string) (*domain.Account, error) {
	return nil, nil
}

func (s sessions) ResolveSession(_ context.Context, token string) (*domain.Account, error) {
	if a, ok := s[token]; ok {
		return a, nil
	}
	return nil, domain.ErrInvalidSession
}

// users embeds the interface so only the methods the routes below hit need
// an implementation.
type users struct{ ports.UserService }

func (users) List(context.Context, int, int) ([]*domain.Account, error) { return nil, nil }

type posts struct{ ports.PostService }

func (posts) Create(_ context.Context, a *domain.Account, in ports.CreatePostInput) (*ports.PostResult, error) {
	return &ports.PostResult{Post: &domain.Post{ID: uuid.New(), Title: in.Title, AuthorID: a.ID}}, nil
}

func (posts) List(context.Context, ports.ListPostsFilter) ([]*domain.Post, error) { return nil, nil }

// TestRouter drives the assembled router. NewRouter registers Prometheus
// collectors globally, so it is built once here.
func TestRouter(t *testing.T) {
	e := NewRouter(Dependencies{
		Auth: sessions{
			"active":     {ID: uuid.New(), IsActive: true},
			"verified":   {ID: uuid.New(), IsActive: true, IsVerified: true},
			"inactive":   {ID: uuid.New(), IsVerified: true},
			"superuser":  {ID: uuid.New(), IsSuperuser: true},
			"unverified": {ID: uuid.New(), IsActive: true},
		},
		Users:  users{},
		Posts:  posts{},
		Health: map[string]handler.Pinger{},
		Logger: zerolog.Nop(),
	})

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		want   int
	}{
		{"me without token", http.MethodGet, "/users/me", "", "", http.StatusUnauthorized},
		{"me with bad token", http.MethodGet, "/users/me", "garbage", "", http.StatusUnauthorized},
		{"me active", http.MethodGet, "/users/me", "active", "", http.StatusOK},
		{"me inactive", http.MethodGet, "/users/me", "inactive", "", http.StatusBadRequest},
		{"admin list as active user", http.MethodGet, "/users", "active", "", http.StatusForbidden},
		{"admin list as inactive superuser", http.MethodGet, "/users", "superuser", "", http.StatusOK},
		{"post as unverified", http.MethodPost, "/posts", "unverified", `{"title":"t","content":"c"}`, http.StatusBadRequest},
		{"post as verified", http.MethodPost, "/posts", "verified", `{"title":"t","content":"c"}`, http.StatusCreated},
		{"public post list", http.MethodGet, "/posts", "", "", http.StatusOK},
		{"login bad credentials", http.MethodPost, "/auth/login", "", `{"username":"a@x.com","password":"p"}`, http.StatusBadRequest},
		{"liveness", http.MethodGet, "/health", "", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", "", http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()

			e.ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}
