package ports

import (
	"context"

	"github.com/postboard/blog-api/internal/core/domain"
)

// SessionResolver maps a bearer token back to the account it was issued for.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*domain.Account, error)
}

type AuthService interface {
	SessionResolver
	Login(ctx context.Context, email, password string) (*domain.Token, error)
	Authenticate(ctx context.Context, email, password string) (*domain.Account, error)
}
