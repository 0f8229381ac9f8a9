package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/postboard/blog-api/internal/core/domain"
	"github.com/postboard/blog-api/internal/core/ports"
	"github.com/postboard/blog-api/internal/pkg/metrics"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, encoded string) bool
	NeedsRehash(encoded string) bool
}

// TokenCodec signs and decodes bearer tokens carrying one claim.
type TokenCodec interface {
	IssueWithExpiry(claim string, ttl time.Duration) (string, time.Time, error)
	Decode(token string) (string, error)
}

// AuthOptions tunes AuthService.
type AuthOptions struct {
	TokenTTL time.Duration
	// RehashOnLogin upgrades outdated hashes after a successful login when
	// the store supports it.
	RehashOnLogin bool
}

// AuthService implements credential authentication, login and session
// resolution. It only reads from the account store, except for the optional
// hash upgrade.
type AuthService struct {
	accounts ports.AccountReader
	hasher   PasswordHasher
	tokens   TokenCodec
	opts     AuthOptions
	log      zerolog.Logger

	// dummyHash is verified against when the email is unknown so both
	// failure paths do the same amount of work.
	dummyHash string
}

func NewAuthService(accounts ports.AccountReader, hasher PasswordHasher, tokens TokenCodec, opts AuthOptions, log zerolog.Logger) (*AuthService, error) {
	dummy, err := hasher.Hash("dummy-password-for-timing")
	if err != nil {
		return nil, fmt.Errorf("auth service: prepare dummy hash: %w", err)
	}
	return &AuthService{
		accounts:  accounts,
		hasher:    hasher,
		tokens:    tokens,
		opts:      opts,
		log:       log,
		dummyHash: dummy,
	}, nil
}

// Authenticate returns the account matching email and password, or nil when
// there is no match. Unknown email and wrong password produce the same nil,
// nil result; an error means the store itself failed.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.Account, error) {
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrAccountNotFound) {
			return nil, fmt.Errorf("authenticate: %w", err)
		}
		s.verify(password, s.dummyHash)
		return nil, nil
	}

	if !s.verify(password, account.PasswordHash) {
		return nil, nil
	}

	if s.opts.RehashOnLogin && s.hasher.NeedsRehash(account.PasswordHash) {
		s.upgradeHash(ctx, account, password)
	}
	return account, nil
}

// Login authenticates the credentials and issues a session token whose only
// claim is the account email.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Token, error) {
	account, err := s.Authenticate(ctx, email, password)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if account == nil {
		metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.IssueWithExpiry(account.Email, s.opts.TokenTTL)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login: %w", err)
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("account_id", account.ID.String()).Msg("login succeeded")

	return &domain.Token{
		AccessToken: token,
		TokenType:   domain.TokenTypeBearer,
		ExpiresAt:   expiresAt,
	}, nil
}

// ResolveSession decodes a bearer token and loads the account it names. Any
// decode failure, an empty claim or a missing account yields
// domain.ErrInvalidSession.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*domain.Account, error) {
	claim, err := s.tokens.Decode(token)
	if err != nil {
		metrics.SessionResolutionsTotal.WithLabelValues("invalid_token").Inc()
		return nil, domain.ErrInvalidSession
	}
	if claim == "" {
		metrics.SessionResolutionsTotal.WithLabelValues("missing_claim").Inc()
		return nil, domain.ErrInvalidSession
	}

	account, err := s.accounts.FindByEmail(ctx, claim)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			metrics.SessionResolutionsTotal.WithLabelValues("account_not_found").Inc()
			return nil, domain.ErrInvalidSession
		}
		metrics.SessionResolutionsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("resolve session: %w", err)
	}

	metrics.SessionResolutionsTotal.WithLabelValues("ok").Inc()
	return account, nil
}

func (s *AuthService) verify(plain, encoded string) bool {
	start := time.Now()
	ok := s.hasher.Verify(plain, encoded)
	metrics.PasswordHashDuration.WithLabelValues("verify").Observe(time.Since(start).Seconds())
	return ok
}

func (s *AuthService) upgradeHash(ctx context.Context, account *domain.Account, password string) {
	rehasher, ok := s.accounts.(ports.PasswordRehasher)
	if !ok {
		return
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.log.Warn().Err(err).Str("account_id", account.ID.String()).Msg("password rehash failed")
		return
	}
	if err := rehasher.UpdatePasswordHash(ctx, account.ID, hash); err != nil {
		s.log.Warn().Err(err).Str("account_id", account.ID.String()).Msg("failed to store upgraded password hash")
		return
	}

	account.PasswordHash = hash
	metrics.PasswordRehashesTotal.Inc()
	s.log.Info().Str("account_id", account.ID.String()).Msg("password hash upgraded")
}
