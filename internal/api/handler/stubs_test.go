package handler

import (
	"context"
	"net/http/httptest"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/postboard/blog-api/internal/api/middleware"
	"github.com/postboard/blog-api/internal/core/domain"
	"github.com/postboard/blog-api/internal/core/ports"
)

type stubAuthService struct {
	loginFn   func(ctx context.Context, email, password string) (*domain.Token, error)
	resolveFn func(ctx context.Context, token string) (*domain.Account, error)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*domain.Token, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Authenticate(ctx context.Context, email, password string) (*domain.Account, error) {
	return nil, nil
}

func (s *stubAuthService) ResolveSession(ctx context.Context, token string) (*domain.Account, error) {
	return s.resolveFn(ctx, token)
}

type stubUserService struct {
	registerFn      func(ctx context.Context, in ports.RegisterInput) (*domain.Account, error)
	updateProfileFn func(ctx context.Context, a *domain.Account, p domain.AccountPatch) (*domain.Account, error)
	listFn          func(ctx context.Context, limit, offset int) ([]*domain.Account, error)
	getFn           func(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	updateFn        func(ctx context.Context, id uuid.UUID, p domain.AccountPatch) (*domain.Account, error)
	deleteFn        func(ctx context.Context, id uuid.UUID) error
	requestVerifyFn func(ctx context.Context, email string) error
	verifyFn        func(ctx context.Context, token string) (*domain.Account, error)
	forgotFn        func(ctx context.Context, email string) error
	resetFn         func(ctx context.Context, token, password string) error
}

func (s *stubUserService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Account, error) {
	return s.registerFn(ctx, in)
}

func (s *stubUserService) UpdateProfile(ctx context.Context, a *domain.Account, p domain.AccountPatch) (*domain.Account, error) {
	return s.updateProfileFn(ctx, a, p)
}

func (s *stubUserService) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	return s.listFn(ctx, limit, offset)
}

func (s *stubUserService) Get(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return s.getFn(ctx, id)
}

func (s *stubUserService) Update(ctx context.Context, id uuid.UUID, p domain.AccountPatch) (*domain.Account, error) {
	return s.updateFn(ctx, id, p)
}

func (s *stubUserService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.deleteFn(ctx, id)
}

func (s *stubUserService) RequestVerification(ctx context.Context, email string) error {
	return s.requestVerifyFn(ctx, email)
}

func (s *stubUserService) Verify(ctx context.Context, token string) (*domain.Account, error) {
	return s.verifyFn(ctx, token)
}

func (s *stubUserService) ForgotPassword(ctx context.Context, email string) error {
	return s.forgotFn(ctx, email)
}

func (s *stubUserService) ResetPassword(ctx context.Context, token, password string) error {
	return s.resetFn(ctx, token, password)
}

type stubPostService struct {
	createFn func(ctx context.Context, author *domain.Account, in ports.CreatePostInput) (*ports.PostResult, error)
	getFn    func(ctx context.Context, id uuid.UUID) (*domain.Post, error)
	listFn   func(ctx context.Context, f ports.ListPostsFilter) ([]*domain.Post, error)
	deleteFn func(ctx context.Context, actor *domain.Account, id uuid.UUID) error
}

func (s *stubPostService) Create(ctx context.Context, author *domain.Account, in ports.CreatePostInput) (*ports.PostResult, error) {
	return s.createFn(ctx, author, in)
}

func (s *stubPostService) Get(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	return s.getFn(ctx, id)
}

func (s *stubPostService) List(ctx context.Context, f ports.ListPostsFilter) ([]*domain.Post, error) {
	return s.listFn(ctx, f)
}

func (s *stubPostService) Delete(ctx context.Context, actor *domain.Account, id uuid.UUID) error {
	return s.deleteFn(ctx, actor, id)
}

// newJSONContext builds an echo context with the validator registered.
func newJSONContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// withAccount runs the Session middleware against a resolver that always
// yields account, so handlers see it exactly as in production.
func withAccount(c echo.Context, account *domain.Account, h echo.HandlerFunc) error {
	c.Request().Header.Set(echo.HeaderAuthorization, "Bearer test")
	resolver := &stubAuthService{resolveFn: func(context.Context, string) (*domain.Account, error) {
		return account, nil
	}}
	return middleware.Session(resolver)(h)(c)
}

// httpCode extracts the status of an *echo.HTTPError, or 0.
func httpCode(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 0
}
