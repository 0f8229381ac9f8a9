package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/postboard/blog-api/internal/core/domain"
	"github.com/postboard/blog-api/internal/core/ports"
	"github.com/postboard/blog-api/internal/pkg/metrics"
)

// IdempotencyStore binds client-supplied keys to the post they produced
// (Redis in production).
type IdempotencyStore interface {
	// Reserve binds key to id unless the key is already bound. It returns the
	// id the key is bound to and whether this call made the binding.
	Reserve(ctx context.Context, scope, key string, id uuid.UUID) (uuid.UUID, bool, error)
	// Release drops a binding whose post was never created.
	Release(ctx context.Context, scope, key string) error
}

type PostService struct {
	repo        ports.PostRepository
	idempotency IdempotencyStore
	logger      zerolog.Logger
	now         func() time.Time
}

func NewPostService(repo ports.PostRepository, idempotency IdempotencyStore, logger zerolog.Logger) *PostService {
	return &PostService{
		repo:        repo,
		idempotency: idempotency,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create publishes a post authored by author. If an idempotency key is
// provided and already bound for this author, the post it produced is
// returned without side effects. The key is reserved before the insert, so
// of two concurrent requests with the same key only one creates a post.
func (s *PostService) Create(ctx context.Context, author *domain.Account, input ports.CreatePostInput) (*ports.PostResult, error) {
	scope := author.ID.String()
	post := &domain.Post{
		ID:       uuid.New(),
		Title:    input.Title,
		Content:  input.Content,
		AuthorID: author.ID,
		PubDate:  s.now(),
	}

	reserved := false
	if input.IdempotencyKey != "" {
		boundID, ok, err := s.idempotency.Reserve(ctx, scope, input.IdempotencyKey, post.ID)
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Str("idempotency_key", input.IdempotencyKey).Msg("idempotency reserve failed, creating anyway")
		case !ok:
			return s.replay(ctx, input.IdempotencyKey, boundID)
		default:
			reserved = true
		}
	}

	if err := s.repo.Create(ctx, post); err != nil {
		s.logger.Error().Err(err).Msg("failed to create post")
		if reserved {
			if relErr := s.idempotency.Release(ctx, scope, input.IdempotencyKey); relErr != nil {
				s.logger.Warn().Err(relErr).Str("idempotency_key", input.IdempotencyKey).Msg("failed to release idempotency key")
			}
		}
		return nil, err
	}

	metrics.PostsCreatedTotal.WithLabelValues("false").Inc()
	s.logger.Info().Str("post_id", post.ID.String()).Str("author_id", scope).Msg("post created")

	return &ports.PostResult{Post: post}, nil
}

// replay returns the post a key is already bound to. When that post is not
// stored yet the request that reserved the key is still running.
func (s *PostService) replay(ctx context.Context, key string, id uuid.UUID) (*ports.PostResult, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, domain.ErrPostNotFound) {
		return nil, domain.ErrIdempotencyInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("idempotent replay: %w", err)
	}
	metrics.PostsCreatedTotal.WithLabelValues("true").Inc()
	s.logger.Info().Str("idempotency_key", key).Str("post_id", id.String()).Msg("idempotent replay")
	return &ports.PostResult{Post: existing, AlreadyExisted: true}, nil
}

func (s *PostService) Get(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *PostService) List(ctx context.Context, filter ports.ListPostsFilter) ([]*domain.Post, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(ctx, filter)
}

func (s *PostService) Delete(ctx context.Context, actor *domain.Account, id uuid.UUID) error {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID != actor.ID {
		if _, err := RequireSuperuser(actor); err != nil {
			return err
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrPostNotFound) {
			return err
		}
		return fmt.Errorf("delete post: %w", err)
	}
	s.logger.Info().Str("post_id", id.String()).Str("actor_id", actor.ID.String()).Msg("post deleted")
	return nil
}
