package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/postboard/blog-api/internal/core/domain"
	"github.com/postboard/blog-api/internal/core/ports"
	"github.com/postboard/blog-api/internal/pkg/metrics"
)

const (
	// AudienceVerify scopes account verification tokens.
	AudienceVerify = "users:verify"
	// AudienceReset scopes password reset tokens.
	AudienceReset = "users:reset"

	minPasswordLength = 8
	defaultPageSize   = 10
	maxPageSize       = 100
)

// PurposeTokenCodec issues and decodes audience-scoped tokens.
type PurposeTokenCodec interface {
	IssueFor(audience, claim string, ttl time.Duration) (string, error)
	DecodeFor(audience, token string) (string, error)
}

// UserOptions tunes UserService.
type UserOptions struct {
	VerifyTokenTTL time.Duration
	ResetTokenTTL  time.Duration
}

type UserService struct {
	repo     ports.AccountRepository
	hasher   PasswordHasher
	tokens   PurposeTokenCodec
	notifier ports.Notifier
	opts     UserOptions
	log      zerolog.Logger
	now      func() time.Time
}

func NewUserService(
	repo ports.AccountRepository,
	hasher PasswordHasher,
	tokens PurposeTokenCodec,
	notifier ports.Notifier,
	opts UserOptions,
	log zerolog.Logger,
) *UserService {
	return &UserService{
		repo:     repo,
		hasher:   hasher,
		tokens:   tokens,
		notifier: notifier,
		opts:     opts,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register creates an active, unverified, non-superuser account.
func (s *UserService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Account, error) {
	return s.create(ctx, in, false)
}

// CreateSuperuser creates an active, verified superuser. Used by the
// bootstrap command only.
func (s *UserService) CreateSuperuser(ctx context.Context, in ports.RegisterInput) (*domain.Account, error) {
	return s.create(ctx, in, true)
}

func (s *UserService) create(ctx context.Context, in ports.RegisterInput, superuser bool) (*domain.Account, error) {
	if in.Email == "" {
		return nil, domain.ErrInvalidRegistration
	}
	if err := validatePassword(in.Password, in.Email); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByEmail(ctx, in.Email); err == nil {
		return nil, domain.ErrAccountExists
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, fmt.Errorf("register: %w", err)
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	created, err := s.repo.Create(ctx, &domain.Account{
		ID:           uuid.New(),
		Email:        in.Email,
		PasswordHash: hash,
		IsActive:     true,
		IsSuperuser:  superuser,
		IsVerified:   superuser,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return nil, err
	}

	metrics.AccountsRegisteredTotal.Inc()
	s.log.Info().Str("account_id", created.ID.String()).Bool("superuser", superuser).Msg("account registered")
	return created, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, account *domain.Account, patch domain.AccountPatch) (*domain.Account, error) {
	current, err := s.repo.FindByID(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, current, patch.Safe())
}

func (s *UserService) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *UserService) Update(ctx context.Context, id uuid.UUID, patch domain.AccountPatch) (*domain.Account, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, current, patch)
}

func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	s.log.Info().Str("account_id", id.String()).Msg("account deleted")
	return nil
}

// update applies the email change first so an explicit is_verified in the
// same patch wins over the reset that an email change implies.
func (s *UserService) update(ctx context.Context, account *domain.Account, patch domain.AccountPatch) (*domain.Account, error) {
	if patch.Email != nil && *patch.Email != account.Email {
		if *patch.Email == "" {
			return nil, domain.ErrInvalidRegistration
		}
		if _, err := s.repo.FindByEmail(ctx, *patch.Email); err == nil {
			return nil, domain.ErrAccountExists
		} else if !errors.Is(err, domain.ErrAccountNotFound) {
			return nil, fmt.Errorf("update account: %w", err)
		}
		account.Email = *patch.Email
		account.IsVerified = false
	}

	if patch.Password != nil {
		if err := validatePassword(*patch.Password, account.Email); err != nil {
			return nil, err
		}
		hash, err := s.hash(*patch.Password)
		if err != nil {
			return nil, fmt.Errorf("update account: %w", err)
		}
		account.PasswordHash = hash
	}

	patch.Apply(account)

	updated, err := s.repo.Update(ctx, account)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RequestVerification mails a verification token when email belongs to an
// active, unverified account. Every other case is silently ignored so the
// response never reveals whether an address is registered.
func (s *UserService) RequestVerification(ctx context.Context, email string) error {
	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil
		}
		return fmt.Errorf("request verification: %w", err)
	}
	if !account.IsActive || account.IsVerified {
		return nil
	}

	token, err := s.tokens.IssueFor(AudienceVerify, account.Email, s.opts.VerifyTokenTTL)
	if err != nil {
		return fmt.Errorf("request verification: %w", err)
	}
	s.notifier.Enqueue(ports.Notification{Kind: ports.NotificationVerifyAccount, To: account.Email, Token: token})
	s.log.Info().Str("account_id", account.ID.String()).Msg("verification requested")
	return nil
}

// Verify marks the account named by a verification token as verified.
func (s *UserService) Verify(ctx context.Context, token string) (*domain.Account, error) {
	email, err := s.tokens.DecodeFor(AudienceVerify, token)
	if err != nil || email == "" {
		return nil, domain.ErrInvalidVerifyToken
	}

	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrInvalidVerifyToken
		}
		return nil, fmt.Errorf("verify: %w", err)
	}
	if account.IsVerified {
		return nil, domain.ErrAlreadyVerified
	}

	account.IsVerified = true
	updated, err := s.repo.Update(ctx, account)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("account_id", account.ID.String()).Msg("account verified")
	return updated, nil
}

// ForgotPassword mails a reset token when email belongs to an active
// account. Unknown or inactive addresses are silently ignored.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil
		}
		return fmt.Errorf("forgot password: %w", err)
	}
	if !account.IsActive {
		return nil
	}

	token, err := s.tokens.IssueFor(AudienceReset, resetClaim(account), s.opts.ResetTokenTTL)
	if err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}
	s.notifier.Enqueue(ports.Notification{Kind: ports.NotificationResetPassword, To: account.Email, Token: token})
	s.log.Info().Str("account_id", account.ID.String()).Msg("password reset requested")
	return nil
}

// ResetPassword sets a new password for the account named by a reset token.
// A token stops working once the password it was issued against changes, so
// each link resets the password at most once.
func (s *UserService) ResetPassword(ctx context.Context, token, password string) error {
	claim, err := s.tokens.DecodeFor(AudienceReset, token)
	if err != nil {
		return domain.ErrInvalidResetToken
	}
	rawID, fingerprint, ok := strings.Cut(claim, ":")
	if !ok || fingerprint == "" {
		return domain.ErrInvalidResetToken
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return domain.ErrInvalidResetToken
	}

	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.ErrInvalidResetToken
		}
		return fmt.Errorf("reset password: %w", err)
	}
	if !account.IsActive {
		return domain.ErrInvalidResetToken
	}
	if subtle.ConstantTimeCompare([]byte(fingerprint), []byte(hashFingerprint(account.PasswordHash))) != 1 {
		return domain.ErrInvalidResetToken
	}
	if err := validatePassword(password, account.Email); err != nil {
		return err
	}

	hash, err := s.hash(password)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	if err := s.repo.UpdatePasswordHash(ctx, account.ID, hash); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	s.log.Info().Str("account_id", account.ID.String()).Msg("password reset")
	return nil
}

// resetClaim is "<account id>:<fingerprint of the current password hash>".
func resetClaim(a *domain.Account) string {
	return a.ID.String() + ":" + hashFingerprint(a.PasswordHash)
}

func hashFingerprint(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:12])
}

func (s *UserService) hash(plain string) (string, error) {
	start := time.Now()
	hash, err := s.hasher.Hash(plain)
	metrics.PasswordHashDuration.WithLabelValues("hash").Observe(time.Since(start).Seconds())
	return hash, err
}

func validatePassword(password, email string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", domain.ErrInvalidPassword, minPasswordLength)
	}
	if email != "" && strings.Contains(strings.ToLower(password), strings.ToLower(email)) {
		return fmt.Errorf("%w: must not contain the email address", domain.ErrInvalidPassword)
	}
	return nil
}
