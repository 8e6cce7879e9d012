package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ourpoint/fisher-accounts/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>", "field": "<field>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, resp := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	var field string
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		field = ve.Field
	}

	// Known domain errors → deterministic HTTP codes. Order matters: the
	// credential and permission failures are ValidationErrors too.
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrCredentialMismatch):
		return http.StatusUnauthorized, errorResponse{Error: "invalid credentials", Field: field}
	case errors.Is(err, domain.ErrInvalidRefreshToken):
		return http.StatusUnauthorized, errorResponse{Error: domain.ErrInvalidRefreshToken.Error()}
	case errors.Is(err, domain.ErrNotAdmin):
		return http.StatusForbidden, errorResponse{Error: "access forbidden"}
	case errors.Is(err, domain.ErrEmailTaken), errors.Is(err, domain.ErrDisplayNameTaken):
		return http.StatusConflict, errorResponse{Error: reasonOf(err, ve), Field: field}
	case ve != nil:
		return http.StatusBadRequest, errorResponse{Error: reasonOf(err, ve), Field: field}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}

func reasonOf(err error, ve *domain.ValidationError) string {
	if ve != nil && ve.Reason != nil {
		return ve.Reason.Error()
	}
	return err.Error()
}
