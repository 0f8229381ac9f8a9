package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/postboard/blog-api/internal/api/middleware"
	"github.com/postboard/blog-api/internal/core/domain"
)

// currentAccount returns the account resolved by the Session middleware.
// Its absence means the route was registered without the middleware, which
// is reported as an invalid session rather than a panic.
func currentAccount(c echo.Context) (*domain.Account, error) {
	account := middleware.Account(c)
	if account == nil {
		return nil, domain.ErrInvalidSession
	}
	return account, nil
}

// pathID parses the :id path parameter.
func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnprocessableEntity, "id must be a valid UUID")
	}
	return id, nil
}

// bindAndValidate binds the request into req and runs the validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}
