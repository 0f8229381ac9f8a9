package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/postboard/blog-api/internal/core/domain"
)

// RegisterInput carries the fields accepted at sign-up.
type RegisterInput struct {
	Email    string
	Password string
}

// UserService covers registration, profile management, verification and
// password reset.
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.Account, error)
	// UpdateProfile applies a patch on behalf of the account holder; status
	// flags in the patch are ignored.
	UpdateProfile(ctx context.Context, account *domain.Account, patch domain.AccountPatch) (*domain.Account, error)

	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	// Update applies a patch as an administrator, status flags included.
	Update(ctx context.Context, id uuid.UUID, patch domain.AccountPatch) (*domain.Account, error)
	Delete(ctx context.Context, id uuid.UUID) error

	RequestVerification(ctx context.Context, email string) error
	Verify(ctx context.Context, token string) (*domain.Account, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
}
