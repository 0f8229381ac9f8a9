package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/postboard/blog-api/internal/core/domain"
	"github.com/postboard/blog-api/internal/core/ports"
	"github.com/postboard/blog-api/internal/core/security"
)

type stubNotifier struct {
	sent []ports.Notification
}

func (n *stubNotifier) Enqueue(msg ports.Notification) {
	n.sent = append(n.sent, msg)
}

func (n *stubNotifier) last(t *testing.T) ports.Notification {
	t.Helper()
	if len(n.sent) == 0 {
		t.Fatalf("expected a notification")
	}
	return n.sent[len(n.sent)-1]
}

type userFixture struct {
	repo     *stubAccountRepo
	notifier *stubNotifier
	codec    *security.TokenCodec
	hasher   *security.PasswordHasher
	clock    *testClock
	svc      *UserService
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	f := &userFixture{
		repo:     newStubAccountRepo(),
		notifier: &stubNotifier{},
		clock:    &testClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
		hasher:   security.NewPasswordHasher(testArgon2),
	}
	f.codec = newTestCodec(t, f.clock)
	f.svc = NewUserService(f.repo, f.hasher, f.codec, f.notifier,
		UserOptions{VerifyTokenTTL: time.Hour, ResetTokenTTL: 30 * time.Minute}, zerolog.Nop())
	return f
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestUserService_Register_Success(t *testing.T) {
	f := newUserFixture(t)

	account, err := f.svc.Register(context.Background(), ports.RegisterInput{Email: "a@x.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if account.ID == uuid.Nil {
		t.Fatalf("expected an id")
	}
	if !account.IsActive || account.IsVerified || account.IsSuperuser {
		t.Fatalf("unexpected flags: %+v", account)
	}
	if account.PasswordHash == "secret123" || !f.hasher.Verify("secret123", account.PasswordHash) {
		t.Fatalf("expected password to be hashed")
	}
}

func TestUserService_Register_Validation(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Register(ctx, ports.RegisterInput{Email: "", Password: "secret123"}); err != domain.ErrInvalidRegistration {
		t.Fatalf("expected ErrInvalidRegistration, got %v", err)
	}
	if _, err := f.svc.Register(ctx, ports.RegisterInput{Email: "a@x.com", Password: "short"}); !errors.Is(err, domain.ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword for short password, got %v", err)
	}
	if _, err := f.svc.Register(ctx, ports.RegisterInput{Email: "a@x.com", Password: "my-A@X.com-pw"}); !errors.Is(err, domain.ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword for password containing email, got %v", err)
	}
}

func TestUserService_Register_Duplicate(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	_, _ = f.svc.Register(ctx, ports.RegisterInput{Email: "a@x.com", Password: "secret123"})
	if _, err := f.svc.Register(ctx, ports.RegisterInput{Email: "a@x.com", Password: "secret456"}); err != domain.ErrAccountExists {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}

func TestUserService_CreateSuperuser(t *testing.T) {
	f := newUserFixture(t)
	// The account must be written once with its flags; a failing Update
	// must not matter.
	f.repo.updateErr = errors.New("update unavailable")

	account, err := f.svc.CreateSuperuser(context.Background(), ports.RegisterInput{Email: "admin@x.com", Password: "adminpass1"})
	if err != nil {
		t.Fatalf("CreateSuperuser: %v", err)
	}
	if !account.IsActive || !account.IsVerified || !account.IsSuperuser {
		t.Fatalf("unexpected flags: %+v", account)
	}
	stored := f.repo.byID[account.ID]
	if !stored.IsSuperuser || !stored.IsVerified {
		t.Fatalf("expected stored account to carry the flags: %+v", stored)
	}
}

func TestUserService_UpdateProfile_IgnoresFlags(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	account, _ := f.svc.Register(ctx, ports.RegisterInput{Email: "a@x.com", Password: "secret123"})

	updated, err := f.svc.UpdateProfile(ctx, account, domain.AccountPatch{
		FirstName:   strPtr("Ada"),
		IsSuperuser: boolPtr(true),
		IsVerified:  boolPtr(true),
		IsActive:    boolPtr(false),
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.FirstName != "Ada" {
		t.Fatalf("expected first name updated, got %q", updated.FirstName)
	}
	if updated.IsSuperuser || updated.IsVerified || !updated.IsActive {
		t.Fatalf("flags must not change through profile update: %+v", updated)
	}
}

func TestUserService_UpdateProfile_EmailChange(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	a, _ := f.svc.Register(ctx, ports.RegisterInput{Email: "a@x.com", Password: "secret123"})
	_, _ = f.svc.Register(ctx, ports.RegisterInput{Email: "b@x.com", Password: "secret123"})
	a.IsVerified = true
	a, _ = f.repo.Update(ctx, a)

	if _, err := f.svc.UpdateProfile(ctx, a, domain.AccountPatch{Email: strPtr("b@x.com")}); err != domain.ErrAccountExists {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}

	same, err := f.svc.UpdateProfile(ctx, a, domain.AccountPatch{Email: strPtr("a@x.com")})
	if err != nil || !same.IsVerified {
		t.Fatalf("re-submitting the same email must be a no-op, got %+v, %v", same, err)
	}

	moved, err := f.svc.UpdateProfile(ctx, a, domain.AccountPatch{Email: strPtr("c@x.com")})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if moved.Email != "c@x.com" || moved.IsVerified {
		t.Fatalf("expected new unverified email, got %+v", moved)
	}
}

func TestUserService_UpdateProfile_Password(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	a, _ := f.svc.Register(ctx, ports.RegisterInput{Email: "a@x.com", Password: "secret123"})

	if _, err := f.svc.UpdateProfile(ctx, a, domain.AccountPatch{Password: strPtr("short")}); !errors.Is(err, domain.ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
	updated, err := f.svc.UpdateProfile(ctx, a, domain.AccountPatch{Password: strPtr("new-secret-1")})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if !f.hasher.Verify("new-secret-1", updated.PasswordHash) || f.hasher.Verify("secret123", updated.PasswordHash) {
		t.Fatalf("expected password replaced")
	}
}

func TestUserService_AdminUpdate_SetsFlags(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	a, _ := f.svc.Register(ctx, ports.RegisterInput{Email: "a@x.com", Password: "secret123"})

	updated, err := f.svc.Update(ctx, a.ID, domain.AccountPatch{
		Email:      strPtr("new@x.com"),
		IsVerified: boolPtr(true),
		IsActive:   boolPtr(false),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Email != "new@x.com" || !updated.IsVerified || updated.IsActive {
		t.Fatalf("unexpected account: %+v", updated)
	}

	if _, err := f.svc.Update(ctx, uuid.New(), domain.AccountPatch{}); err != domain.ErrAccountNotFound {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestUserService_ListClampsPaging(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		_, _ = f.svc.Register(ctx, ports.RegisterInput{Email: email, Password: "secret123"})
	}

	all, err := f.svc.List(ctx, 0, -5)
	if err != nil || len(all) != 3 {
		t.Fatalf("expected 3 accounts, got %d, %v", len(all), err)
	}
	page, _ := f.svc.List(ctx, 2, 0)
	if len(page) != 2 {
		t.Fatalf("expected page of 2, got %d", len(page))
	}
}

func TestUserService_Delete(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	a, _ := f.svc.Register(ctx, ports.RegisterInput{Email: "a@x.com", Password: "secret123"})

	if err := f.svc.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := f.svc.Get(ctx, a.ID); err != domain.ErrAccountNotFound {
		t.Fatalf("expected ErrAccountNotFound after delete, got %v", err)
	}
	if err := f.svc.Delete(ctx, a.ID); err != domain.ErrAccountNotFound {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestUserService_VerifyFlow(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	a, _ := f.svc.Register(ctx, ports.RegisterInput{Email: "a@x.com", Password: "secret123"})

	if err := f.svc.RequestVerification(ctx, "a@x.com"); err != nil {
		t.Fatalf("RequestVerification: %v", err)
	}
	msg := f.notifier.last(t)
	if msg.Kind != ports.NotificationVerifyAccount || msg.To != "a@x.com" || msg.Token == "" {
		t.Fatalf("unexpected notification: %+v", msg)
	}

	verified, err := f.svc.Verify(ctx, msg.Token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if verified.ID != a.ID || !verified.IsVerified {
		t.Fatalf("unexpected account: %+v", verified)
	}

	if _, err := f.svc.Verify(ctx, msg.Token); err != domain.ErrAlreadyVerified {
		t.Fatalf("expected ErrAlreadyVerified, got %v", err)
	}

	// Already verified: nothing more is sent.
	before := len(f.notifier.sent)
	_ = f.svc.RequestVerification(ctx, "a@x.com")
	if len(f.notifier.sent) != before {
		t.Fatalf("expected no notification for verified account")
	}
}

func TestUserService_RequestVerification_SilentCases(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	f.repo.put(&domain.Account{Email: "inactive@x.com"})

	if err := f.svc.RequestVerification(ctx, "ghost@x.com"); err != nil {
		t.Fatalf("expected nil for unknown email, got %v", err)
	}
	if err := f.svc.RequestVerification(ctx, "inactive@x.com"); err != nil {
		t.Fatalf("expected nil for inactive account, got %v", err)
	}
	if len(f.notifier.sent) != 0 {
		t.Fatalf("expected no notifications, got %d", len(f.notifier.sent))
	}
}

func TestUserService_Verify_BadTokens(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	_, _ = f.svc.Register(ctx, ports.RegisterInput{Email: "a@x.com", Password: "secret123"})

	session, _ := f.codec.Issue("a@x.com", time.Hour)
	reset, _ := f.codec.IssueFor(AudienceReset, "a@x.com", time.Hour)
	ghost, _ := f.codec.IssueFor(AudienceVerify, "ghost@x.com", time.Hour)
	expired, _ := f.codec.IssueFor(AudienceVerify, "a@x.com", time.Minute)
	f.clock.now = f.clock.now.Add(2 * time.Minute)

	for name, token := range map[string]string{
		"garbage":       "x",
		"session token": session,
		"reset token":   reset,
		"unknown email": ghost,
		"expired":       expired,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := f.svc.Verify(ctx, token); err != domain.ErrInvalidVerifyToken {
				t.Fatalf("expected ErrInvalidVerifyToken, got %v", err)
			}
		})
	}
}

func TestUserService_ResetPasswordFlow(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	a, _ := f.svc.Register(ctx, ports.RegisterInput{Email: "a@x.com", Password: "secret123"})

	if err := f.svc.ForgotPassword(ctx, "a@x.com"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	msg := f.notifier.last(t)
	if msg.Kind != ports.NotificationResetPassword || msg.To != "a@x.com" {
		t.Fatalf("unexpected notification: %+v", msg)
	}

	if err := f.svc.ResetPassword(ctx, msg.Token, "short"); !errors.Is(err, domain.ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
	if err := f.svc.ResetPassword(ctx, msg.Token, "brand-new-pass"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	stored := f.repo.byID[a.ID].PasswordHash
	if !f.hasher.Verify("brand-new-pass", stored) {
		t.Fatalf("expected new password stored")
	}
}

func TestUserService_ResetPassword_TokenIsSingleUse(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	a, _ := f.svc.Register(ctx, ports.RegisterInput{Email: "a@x.com", Password: "secret123"})

	if err := f.svc.ForgotPassword(ctx, "a@x.com"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	token := f.notifier.last(t).Token

	if err := f.svc.ResetPassword(ctx, token, "newpass-one"); err != nil {
		t.Fatalf("first ResetPassword: %v", err)
	}
	if err := f.svc.ResetPassword(ctx, token, "other-pass-two"); err != domain.ErrInvalidResetToken {
		t.Fatalf("expected ErrInvalidResetToken on reuse, got %v", err)
	}

	stored := f.repo.byID[a.ID].PasswordHash
	if !f.hasher.Verify("newpass-one", stored) || f.hasher.Verify("other-pass-two", stored) {
		t.Fatalf("expected the first reset to stick")
	}
}

func TestUserService_ResetPassword_InvalidatedByPasswordChange(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	a, _ := f.svc.Register(ctx, ports.RegisterInput{Email: "a@x.com", Password: "secret123"})

	_ = f.svc.ForgotPassword(ctx, "a@x.com")
	token := f.notifier.last(t).Token

	if _, err := f.svc.UpdateProfile(ctx, a, domain.AccountPatch{Password: strPtr("changed-pass")}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if err := f.svc.ResetPassword(ctx, token, "brand-new-pass"); err != domain.ErrInvalidResetToken {
		t.Fatalf("expected ErrInvalidResetToken after password change, got %v", err)
	}
}

func TestUserService_ResetPassword_BadTokens(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	inactive := f.repo.put(&domain.Account{Email: "inactive@x.com"})

	verify, _ := f.codec.IssueFor(AudienceVerify, inactive.ID.String(), time.Hour)
	notUUID, _ := f.codec.IssueFor(AudienceReset, "inactive@x.com", time.Hour)
	ghost, _ := f.codec.IssueFor(AudienceReset, uuid.NewString(), time.Hour)
	inactiveTok, _ := f.codec.IssueFor(AudienceReset, resetClaim(inactive), time.Hour)
	bareID, _ := f.codec.IssueFor(AudienceReset, inactive.ID.String(), time.Hour)

	for name, token := range map[string]string{
		"garbage":          "x",
		"verify audience":  verify,
		"claim not an id":  notUUID,
		"unknown account":  ghost,
		"inactive account": inactiveTok,
		"no fingerprint":   bareID,
	} {
		t.Run(name, func(t *testing.T) {
			if err := f.svc.ResetPassword(ctx, token, "brand-new-pass"); err != domain.ErrInvalidResetToken {
				t.Fatalf("expected ErrInvalidResetToken, got %v", err)
			}
		})
	}

	if err := f.svc.ForgotPassword(ctx, "inactive@x.com"); err != nil || len(f.notifier.sent) != 0 {
		t.Fatalf("expected silent no-op for inactive account, got %v / %d", err, len(f.notifier.sent))
	}
}
