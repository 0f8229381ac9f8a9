package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account models a registered user. The password hash is only ever checked
// through the password hasher and never leaves the process.
type Account struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"first_name,omitempty"`
	LastName     string     `json:"last_name,omitempty"`
	BirthDate    *time.Time `json:"birth_date,omitempty"`
	IsActive     bool       `json:"is_active"`
	IsSuperuser  bool       `json:"is_superuser"`
	IsVerified   bool       `json:"is_verified"`
	CreatedAt    time.Time  `json:"created_at"`
}

// AccountPatch carries a partial update. Nil fields are left untouched.
type AccountPatch struct {
	Email       *string
	Password    *string
	FirstName   *string
	LastName    *string
	BirthDate   *time.Time
	IsActive    *bool
	IsSuperuser *bool
	IsVerified  *bool
}

// Safe drops the fields an account holder may not change on their own
// profile (the three status flags).
func (p AccountPatch) Safe() AccountPatch {
	p.IsActive = nil
	p.IsSuperuser = nil
	p.IsVerified = nil
	return p
}

// Apply copies the set profile fields and flags onto a. Email and password
// are handled by the caller since both need extra checks.
func (p AccountPatch) Apply(a *Account) {
	if p.FirstName != nil {
		a.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		a.LastName = *p.LastName
	}
	if p.BirthDate != nil {
		bd := *p.BirthDate
		a.BirthDate = &bd
	}
	if p.IsActive != nil {
		a.IsActive = *p.IsActive
	}
	if p.IsSuperuser != nil {
		a.IsSuperuser = *p.IsSuperuser
	}
	if p.IsVerified != nil {
		a.IsVerified = *p.IsVerified
	}
}

// Token is the bearer credential handed out on login.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// TokenTypeBearer is the only token type issued.
const TokenTypeBearer = "bearer"
