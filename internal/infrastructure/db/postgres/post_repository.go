package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/postboard/blog-api/internal/core/domain"
	"github.com/postboard/blog-api/internal/core/ports"
)

// PostRepository implements ports.PostRepository on Postgres.
type PostRepository struct {
	pool *pgxpool.Pool
}

func NewPostRepository(pool *pgxpool.Pool) *PostRepository {
	return &PostRepository{pool: pool}
}

func (r *PostRepository) Create(ctx context.Context, p *domain.Post) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO posts (id, title, content, author_id, pub_date) VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.Title, p.Content, p.AuthorID, p.PubDate)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	p := &domain.Post{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, content, author_id, pub_date FROM posts WHERE id = $1`, id).
		Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.PubDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPostNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

// List returns posts newest first, optionally restricted to authors whose
// email contains f.AuthorEmail.
func (r *PostRepository) List(ctx context.Context, f ports.ListPostsFilter) ([]*domain.Post, error) {
	query := `SELECT p.id, p.title, p.content, p.author_id, p.pub_date
		FROM posts p JOIN accounts a ON a.id = p.author_id
		WHERE ($1 = '' OR strpos(a.email, $1) > 0)
		ORDER BY p.pub_date DESC, p.id
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, f.AuthorEmail, f.Limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []*domain.Post{}
	for rows.Next() {
		p := &domain.Post{}
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.PubDate); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}
