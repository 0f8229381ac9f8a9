package service

import "github.com/postboard/blog-api/internal/core/domain"

// RequireActive passes account through when it is active.
func RequireActive(account *domain.Account) (*domain.Account, error) {
	if account == nil {
		return nil, domain.ErrInvalidSession
	}
	if !account.IsActive {
		return nil, domain.ErrInactiveAccount
	}
	return account, nil
}

// RequireVerified passes account through when it is active and verified.
// Activity is checked first, so an inactive account is reported as inactive
// whatever its verification state.
func RequireVerified(account *domain.Account) (*domain.Account, error) {
	account, err := RequireActive(account)
	if err != nil {
		return nil, err
	}
	if !account.IsVerified {
		return nil, domain.ErrUnverifiedAccount
	}
	return account, nil
}

// RequireSuperuser passes account through when it is a superuser. It does
// not look at the active or verified flags.
func RequireSuperuser(account *domain.Account) (*domain.Account, error) {
	if account == nil {
		return nil, domain.ErrInvalidSession
	}
	if !account.IsSuperuser {
		return nil, domain.ErrInsufficientPrivilege
	}
	return account, nil
}
