package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/postboard/blog-api/internal/core/domain"
)

// AccountRepository implements ports.AccountRepository on Postgres. Posts
// are removed with their author by the ON DELETE CASCADE foreign key.
type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

const accountColumns = `id, email, password_hash, first_name, last_name, birth_date,
	is_active, is_superuser, is_verified, created_at`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	a := &domain.Account{}
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName, &a.BirthDate,
		&a.IsActive, &a.IsSuperuser, &a.IsVerified, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
}

func (r *AccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

func (r *AccountRepository) findOne(ctx context.Context, query string, arg any) (*domain.Account, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) (*domain.Account, error) {
	query := `INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + accountColumns

	created, err := scanAccount(r.pool.QueryRow(ctx, query,
		a.ID, a.Email, a.PasswordHash, a.FirstName, a.LastName, a.BirthDate,
		a.IsActive, a.IsSuperuser, a.IsVerified, a.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrAccountExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return created, nil
}

func (r *AccountRepository) Update(ctx context.Context, a *domain.Account) (*domain.Account, error) {
	query := `UPDATE accounts SET email = $2, password_hash = $3, first_name = $4, last_name = $5,
		birth_date = $6, is_active = $7, is_superuser = $8, is_verified = $9
		WHERE id = $1
		RETURNING ` + accountColumns

	updated, err := scanAccount(r.pool.QueryRow(ctx, query,
		a.ID, a.Email, a.PasswordHash, a.FirstName, a.LastName,
		a.BirthDate, a.IsActive, a.IsSuperuser, a.IsVerified))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, domain.ErrAccountNotFound
		case isUniqueViolation(err):
			return nil, domain.ErrAccountExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return updated, nil
}

func (r *AccountRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE accounts SET password_hash = $2 WHERE id = $1`, id, hash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY created_at, id LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
