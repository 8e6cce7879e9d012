package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ourpoint/fisher-accounts/internal/api/middleware"
	"github.com/ourpoint/fisher-accounts/internal/core/domain"
)

// callerID returns the account id injected by the Auth middleware. Its
// absence means the route was mounted without Auth; reject with 401.
func callerID(c echo.Context) (domain.AccountID, error) {
	id, _ := c.Get(middleware.ContextAccountID).(domain.AccountID)
	if id.IsZero() {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return id, nil
}

// bindAndValidate decodes the request body into req and runs the struct
// validator registered on the echo instance.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
