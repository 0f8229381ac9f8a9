package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/postboard/blog-api/internal/core/domain"
)

// CreatePostInput carries the data needed to publish a post.
type CreatePostInput struct {
	Title   string
	Content string
	// IdempotencyKey, when set, makes retries of the same request return the
	// post created by the first attempt.
	IdempotencyKey string
}

// PostResult wraps a post with the idempotency outcome.
type PostResult struct {
	Post           *domain.Post
	AlreadyExisted bool
}

// PostService defines use-case operations for posts.
type PostService interface {
	Create(ctx context.Context, author *domain.Account, in CreatePostInput) (*PostResult, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Post, error)
	List(ctx context.Context, filter ListPostsFilter) ([]*domain.Post, error)
	// Delete removes a post. Only its author or a superuser may do so.
	Delete(ctx context.Context, actor *domain.Account, id uuid.UUID) error
}
