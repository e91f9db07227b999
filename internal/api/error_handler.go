package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/vaultguard/credential-vault/internal/core/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

// sentinelStatus is checked in order; the first errors.Is match wins.
var sentinelStatus = []struct {
	target error
	code   int
	msg    string
}{
	{domain.ErrNotFound, http.StatusNotFound, "not found"},
	{domain.ErrUserNotFound, http.StatusNotFound, "user not found"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
	{domain.ErrWeakPassword, http.StatusUnprocessableEntity, domain.ErrWeakPassword.Error()},
	{domain.ErrUserExists, http.StatusConflict, "user already exists"},
}

// NewHTTPErrorHandler renders every error as {"error": "..."}. Errors with no
// known mapping are logged and answered with an opaque 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := statusOf(err, c)
		if code == http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("route", c.Path()).
				Msg("request failed")
			msg = "internal server error"
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func statusOf(err error, c echo.Context) (int, string) {
	var (
		he *echo.HTTPError
		rl *domain.RateLimitError
		ve *domain.ValidationError
	)
	switch {
	case errors.As(err, &he):
		return he.Code, fmt.Sprint(he.Message)
	case errors.As(err, &rl):
		secs := int(math.Ceil(rl.RetryAfter.Seconds()))
		c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
		return http.StatusTooManyRequests, "too many login attempts, try again later"
	case errors.As(err, &ve), errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, err.Error()
	}

	for _, s := range sentinelStatus {
		if errors.Is(err, s.target) {
			return s.code, s.msg
		}
	}
	return http.StatusInternalServerError, ""
}
