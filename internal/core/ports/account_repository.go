package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/postboard/blog-api/internal/core/domain"
)

// AccountReader is the read side of the account store. Both lookups return
// domain.ErrAccountNotFound when nothing matches. Email is matched exactly as
// stored.
type AccountReader interface {
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
}

// PasswordRehasher is implemented by stores that accept an in-place hash
// upgrade after a successful login with an outdated hash.
type PasswordRehasher interface {
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

// AccountRepository defines persistence operations for accounts.
type AccountRepository interface {
	AccountReader
	PasswordRehasher
	// Create stores a new account. Returns domain.ErrAccountExists when the
	// email is taken.
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	// Update replaces the mutable fields of an existing account.
	Update(ctx context.Context, account *domain.Account) (*domain.Account, error)
	// Delete removes the account and every post it authored.
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}
