package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/postboard/blog-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if code == http.StatusUnauthorized {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.) and the
	// handler-specific codes raised through echo.NewHTTPError.
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, domain.ErrInvalidSession):
		return http.StatusUnauthorized, "Could not validate credentials"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusBadRequest, "LOGIN_BAD_CREDENTIALS"
	case errors.Is(err, domain.ErrInactiveAccount):
		return http.StatusBadRequest, "Inactive user"
	case errors.Is(err, domain.ErrUnverifiedAccount):
		return http.StatusBadRequest, "Unverified user"
	case errors.Is(err, domain.ErrInsufficientPrivilege):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, domain.ErrPostNotFound):
		return http.StatusNotFound, "post not found"
	case errors.Is(err, domain.ErrIdempotencyInProgress):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrAccountExists):
		return http.StatusBadRequest, "REGISTER_USER_ALREADY_EXISTS"
	case errors.Is(err, domain.ErrInvalidPassword):
		return http.StatusBadRequest, "REGISTER_INVALID_PASSWORD"
	case errors.Is(err, domain.ErrInvalidRegistration):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrInvalidVerifyToken):
		return http.StatusBadRequest, "VERIFY_USER_BAD_TOKEN"
	case errors.Is(err, domain.ErrAlreadyVerified):
		return http.StatusBadRequest, "VERIFY_USER_ALREADY_VERIFIED"
	case errors.Is(err, domain.ErrInvalidResetToken):
		return http.StatusBadRequest, "RESET_PASSWORD_BAD_TOKEN"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
