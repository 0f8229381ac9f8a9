// Package bootstrap builds the object graph shared by the cmd entry points.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/postboard/blog-api/internal/core/ports"
	"github.com/postboard/blog-api/internal/core/security"
	"github.com/postboard/blog-api/internal/core/service"
	"github.com/postboard/blog-api/internal/infrastructure/db/mongo"
	"github.com/postboard/blog-api/internal/infrastructure/db/postgres"
	"github.com/postboard/blog-api/internal/pkg/config"
)

// Store is the account and post persistence selected by STORE_DRIVER.
type Store struct {
	Accounts ports.AccountRepository
	Posts    ports.PostRepository
	Ping     func(ctx context.Context) error
	Close    func(ctx context.Context) error
}

// OpenStore connects to the configured database.
func OpenStore(ctx context.Context, cfg *config.Config) (*Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		s, err := postgres.Open(ctx, postgres.Config{
			DSN:      cfg.Postgres.DSN(),
			MaxConns: cfg.Postgres.MaxConns,
		})
		if err != nil {
			return nil, err
		}
		return &Store{
			Accounts: s.Accounts,
			Posts:    s.Posts,
			Ping:     s.Ping,
			Close: func(context.Context) error {
				s.Close()
				return nil
			},
		}, nil
	case config.DriverMongo:
		s, err := mongo.Open(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		return &Store{Accounts: s.Accounts, Posts: s.Posts, Ping: s.Ping, Close: s.Close}, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

// Security holds the password hasher and token codec built from settings.
type Security struct {
	Hasher *security.PasswordHasher
	Tokens *security.TokenCodec
}

func NewSecurity(cfg *config.Config) (*Security, error) {
	tokens, err := security.NewTokenCodec(security.TokenSettings{
		Secret:    cfg.Auth.Secret,
		Algorithm: cfg.Auth.Algorithm,
	})
	if err != nil {
		return nil, err
	}
	hasher := security.NewPasswordHasher(security.Argon2Params{
		Time:    cfg.Argon2.Time,
		Memory:  cfg.Argon2.Memory,
		Threads: cfg.Argon2.Threads,
	})
	return &Security{Hasher: hasher, Tokens: tokens}, nil
}

// NewUserService wires the account management service.
func NewUserService(cfg *config.Config, store *Store, sec *Security, notifier ports.Notifier, log zerolog.Logger) *service.UserService {
	return service.NewUserService(store.Accounts, sec.Hasher, sec.Tokens, notifier, service.UserOptions{
		VerifyTokenTTL: cfg.Auth.VerifyTokenTTL(),
		ResetTokenTTL:  cfg.Auth.ResetTokenTTL(),
	}, log)
}
