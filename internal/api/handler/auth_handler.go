package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/postboard/blog-api/internal/core/domain"
	"github.com/postboard/blog-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	userService ports.UserService
}

func NewAuthHandler(authService ports.AuthService, userService ports.UserService) *AuthHandler {
	return &AuthHandler{authService: authService, userService: userService}
}

// Register creates a new account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Email and password"
// @Success      201   {object}  accountResponse
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	account, err := h.userService.Register(c.Request().Context(), ports.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toAccountResponse(account))
}

// Login authenticates the credentials and returns a bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       x-www-form-urlencoded,json
// @Produce      json
// @Param        username  formData  string  true  "Account email"
// @Param        password  formData  string  true  "Password"
// @Success      200       {object}  tokenResponse
// @Failure      400       {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tokenResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresAt:   token.ExpiresAt,
	})
}

// RequestVerifyToken mails a verification token. The response is the same
// whether or not the address is registered.
//
// @Summary      Request a verification token
// @Tags         auth
// @Accept       json
// @Param        body  body  emailRequest  true  "Account email"
// @Success      202
// @Router       /auth/request-verify-token [post]
func (h *AuthHandler) RequestVerifyToken(c echo.Context) error {
	var req emailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.userService.RequestVerification(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.NoContent(http.StatusAccepted)
}

// Verify marks the account named by the token as verified.
//
// @Summary      Verify an account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      verifyRequest  true  "Verification token"
// @Success      200   {object}  accountResponse
// @Failure      400   {object}  errorResponse
// @Router       /auth/verify [post]
func (h *AuthHandler) Verify(c echo.Context) error {
	var req verifyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	account, err := h.userService.Verify(c.Request().Context(), req.Token)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAccountResponse(account))
}

// ForgotPassword mails a reset token to active accounts. The response is the
// same whether or not the address is registered.
//
// @Summary      Request a password reset
// @Tags         auth
// @Accept       json
// @Param        body  body  emailRequest  true  "Account email"
// @Success      202
// @Router       /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req emailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.userService.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.NoContent(http.StatusAccepted)
}

// ResetPassword sets a new password using a reset token.
//
// @Summary      Reset password
// @Tags         auth
// @Accept       json
// @Param        body  body  resetPasswordRequest  true  "Reset token and new password"
// @Success      200
// @Failure      400   {object}  errorResponse
// @Router       /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err := h.userService.ResetPassword(c.Request().Context(), req.Token, req.Password)
	if errors.Is(err, domain.ErrInvalidPassword) {
		return echo.NewHTTPError(http.StatusBadRequest, "RESET_PASSWORD_INVALID_PASSWORD")
	}
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}
