package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/postboard/blog-api/internal/core/domain"
)

type stubResolver struct {
	tokens map[string]*domain.Account
	err    error
	calls  int
}

func (r *stubResolver) ResolveSession(_ context.Context, token string) (*domain.Account, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	account, ok := r.tokens[token]
	if !ok {
		return nil, domain.ErrInvalidSession
	}
	return account, nil
}

func newContext(header string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestSession_ValidToken(t *testing.T) {
	alice := &domain.Account{ID: uuid.New(), Email: "alice@example.com"}
	resolver := &stubResolver{tokens: map[string]*domain.Account{"tok": alice}}
	c, rec := newContext("Bearer tok")

	called := false
	h := Session(resolver)(func(c echo.Context) error {
		called = true
		if got := Account(c); got == nil || got.ID != alice.ID {
			t.Fatalf("account not injected, got %+v", got)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestSession_LowercaseScheme(t *testing.T) {
	resolver := &stubResolver{tokens: map[string]*domain.Account{"tok": {ID: uuid.New()}}}
	c, _ := newContext("bearer tok")

	h := Session(resolver)(func(c echo.Context) error { return nil })
	if err := h(c); err != nil {
		t.Fatalf("expected lowercase scheme to be accepted, got %v", err)
	}
}

func TestSession_Rejects(t *testing.T) {
	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Token abc",
		"no token":       "Bearer ",
		"unknown token":  "Bearer nope",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			resolver := &stubResolver{tokens: map[string]*domain.Account{}}
			c, _ := newContext(header)

			h := Session(resolver)(func(c echo.Context) error {
				t.Fatalf("should not reach next")
				return nil
			})
			if err := h(c); !errors.Is(err, domain.ErrInvalidSession) {
				t.Fatalf("expected ErrInvalidSession, got %v", err)
			}
		})
	}
}

func TestSession_MalformedHeaderSkipsResolver(t *testing.T) {
	resolver := &stubResolver{}
	c, _ := newContext("Basic dXNlcjpwYXNz")

	_ = Session(resolver)(func(c echo.Context) error { return nil })(c)
	if resolver.calls != 0 {
		t.Fatalf("expected resolver not to be called, got %d calls", resolver.calls)
	}
}

func TestSession_StoreErrorPropagates(t *testing.T) {
	storeErr := errors.New("connection reset")
	resolver := &stubResolver{err: storeErr}
	c, _ := newContext("Bearer tok")

	err := Session(resolver)(func(c echo.Context) error { return nil })(c)
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}
