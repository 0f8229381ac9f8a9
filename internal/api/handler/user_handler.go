package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/postboard/blog-api/internal/core/domain"
	"github.com/postboard/blog-api/internal/core/ports"
)

// UserHandler serves the profile and account administration routes.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// Me returns the caller's profile.
//
// @Summary      Current user profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  accountResponse
// @Failure      401  {object}  errorResponse
// @Router       /users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAccountResponse(account))
}

// UpdateMe applies a profile patch on behalf of the caller. Status flags in
// the body are ignored.
//
// @Summary      Update current user profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateAccountRequest  true  "Fields to change"
// @Success      200   {object}  accountResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /users/me [patch]
func (h *UserHandler) UpdateMe(c echo.Context) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}

	var req updateAccountRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	updated, err := h.service.UpdateProfile(c.Request().Context(), account, req.patch())
	if err != nil {
		return updateError(err)
	}
	return c.JSON(http.StatusOK, toAccountResponse(updated))
}

// List returns a page of accounts.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        limit   query     int  false  "Page size (max 100)"
// @Param        offset  query     int  false  "Rows to skip"
// @Success      200     {array}   accountResponse
// @Failure      403     {object}  errorResponse
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	var q listAccountsQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}

	accounts, err := h.service.List(c.Request().Context(), q.Limit, q.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAccountResponses(accounts))
}

// Get returns a single account.
//
// @Summary      Get user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Account ID"
// @Success      200  {object}  accountResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	account, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAccountResponse(account))
}

// Update applies an administrative patch, status flags included.
//
// @Summary      Update user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Account ID"
// @Param        body  body      updateAccountRequest  true  "Fields to change"
// @Success      200   {object}  accountResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /users/{id} [patch]
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req updateAccountRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	updated, err := h.service.Update(c.Request().Context(), id, req.patch())
	if err != nil {
		return updateError(err)
	}
	return c.JSON(http.StatusOK, toAccountResponse(updated))
}

// Delete removes an account and its posts.
//
// @Summary      Delete user
// @Tags         users
// @Security     BearerAuth
// @Param        id   path  string  true  "Account ID"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// updateError swaps the registration codes for their update counterparts.
func updateError(err error) error {
	switch {
	case errors.Is(err, domain.ErrAccountExists):
		return echo.NewHTTPError(http.StatusBadRequest, "UPDATE_USER_EMAIL_ALREADY_EXISTS")
	case errors.Is(err, domain.ErrInvalidPassword):
		return echo.NewHTTPError(http.StatusBadRequest, "UPDATE_USER_INVALID_PASSWORD")
	}
	return err
}
