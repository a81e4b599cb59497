package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/epicevents/crm/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors. Reason
// carries the machine-readable code of a business-rule rejection.
type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps core outcomes to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>", "reason": "<code>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	switch domain.OutcomeOf(err) {
	case domain.OutcomeUnauthenticated:
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return http.StatusUnauthorized, errorResponse{Error: "invalid credentials"}
		}
		return http.StatusUnauthorized, errorResponse{Error: "authentication required"}
	case domain.OutcomeForbidden:
		return http.StatusForbidden, errorResponse{Error: err.Error()}
	case domain.OutcomeNotFound:
		return http.StatusNotFound, errorResponse{Error: err.Error()}
	case domain.OutcomeRejected:
		return http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Reason: domain.RejectionReason(err)}
	case domain.OutcomeConflict:
		return http.StatusConflict, errorResponse{Error: err.Error()}
	case domain.OutcomeInvalid:
		return http.StatusBadRequest, errorResponse{Error: err.Error()}
	case domain.OutcomeRateLimited:
		return http.StatusTooManyRequests, errorResponse{Error: "too many attempts, retry later"}
	case domain.OutcomeUnavailable:
		log.Error().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("store unavailable")
		return http.StatusServiceUnavailable, errorResponse{Error: "service unavailable"}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}
