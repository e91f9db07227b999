package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vaultguard/credential-vault/internal/api/middleware"
	"github.com/vaultguard/credential-vault/internal/core/ports"
)

// ctxUserID extracts the user id injected by the Auth middleware. A missing id
// means the route was mounted without authentication; reject with 401 before
// any service call.
func ctxUserID(c echo.Context) (string, error) {
	userID, _ := c.Get(middleware.CtxUserID).(string)
	if userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return userID, nil
}

// requestMeta captures the caller's address and agent for audit records.
func requestMeta(c echo.Context) ports.RequestMeta {
	return ports.RequestMeta{
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}

// bindAndValidate binds the body into req and runs struct validation.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
