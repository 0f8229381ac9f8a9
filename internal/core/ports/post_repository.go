package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/postboard/blog-api/internal/core/domain"
)

// ListPostsFilter narrows a post listing. AuthorEmail keeps posts whose
// author's email contains it (case-sensitive); empty = all authors.
type ListPostsFilter struct {
	AuthorEmail string
	Limit       int
	Offset      int
}

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	Create(ctx context.Context, p *domain.Post) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Post, error)
	List(ctx context.Context, filter ListPostsFilter) ([]*domain.Post, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
