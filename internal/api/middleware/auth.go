package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/postboard/blog-api/internal/core/domain"
	"github.com/postboard/blog-api/internal/core/ports"
)

// accountKey is the echo context key holding the resolved *domain.Account.
const accountKey = "account"

// Session resolves the bearer token into an account and injects it into the
// context. A missing or malformed Authorization header fails the same way
// as an invalid token.
func Session(resolver ports.SessionResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return domain.ErrInvalidSession
			}

			account, err := resolver.ResolveSession(c.Request().Context(), token)
			if err != nil {
				return err
			}

			c.Set(accountKey, account)
			return next(c)
		}
	}
}

// Account returns the account injected by Session, or nil.
func Account(c echo.Context) *domain.Account {
	account, _ := c.Get(accountKey).(*domain.Account)
	return account
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
