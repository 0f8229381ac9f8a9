package domain

import "errors"

// Authentication and authorization outcomes. These are expected results,
// not faults: the API layer maps each one to a response.
var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrInvalidSession        = errors.New("could not validate credentials")
	ErrInactiveAccount       = errors.New("inactive user")
	ErrUnverifiedAccount     = errors.New("unverified user")
	ErrInsufficientPrivilege = errors.New("insufficient privilege")
)

// Account lifecycle errors.
var (
	ErrAccountNotFound     = errors.New("user not found")
	ErrAccountExists       = errors.New("user already exists")
	ErrAlreadyVerified     = errors.New("user already verified")
	ErrInvalidVerifyToken  = errors.New("invalid verification token")
	ErrInvalidResetToken   = errors.New("invalid reset password token")
	ErrInvalidPassword     = errors.New("invalid password")
	ErrInvalidRegistration = errors.New("invalid registration data")
)

var (
	ErrPostNotFound = errors.New("post not found")
	// ErrIdempotencyInProgress means another request holding the same
	// idempotency key has not finished creating its post.
	ErrIdempotencyInProgress = errors.New("a request with this idempotency key is in progress")
)
