package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/realtyhub/marketplace-api/internal/api/response"
	"github.com/realtyhub/marketplace-api/internal/core/domain"
)

const genericInternalError = "Internal server error"

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status codes.
//   - Logs unexpected errors and hides their message unless exposeInternal is set.
//   - Renders the response envelope, never an empty body.
func NewHTTPErrorHandler(log zerolog.Logger, exposeInternal bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, env := resolveError(err, log, c, exposeInternal)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, env)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context, exposeInternal bool) (int, response.Envelope) {
	fail := func(msg string, errs ...string) response.Envelope {
		return response.Envelope{Error: msg, Errors: errs}
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, fail("Validation failed", ve.Errors...)
	}

	var rl *domain.RateLimitError
	if errors.As(err, &rl) {
		c.Response().Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter))
		return http.StatusTooManyRequests, fail(fmt.Sprintf("Too many requests. Try again in %d seconds.", rl.RetryAfter))
	}

	// Echo's own errors (404 from router, 405, body limit, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code >= http.StatusInternalServerError {
			log.Error().Err(err).Str("path", c.Path()).Msg("http error")
		}
		return he.Code, fail(fmt.Sprintf("%v", he.Message))
	}

	switch {
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, fail("Too many requests")
	case errors.Is(err, domain.ErrCSRFMismatch):
		return http.StatusForbidden, fail("Invalid CSRF token")
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, fail("Authentication required")
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, fail("Invalid credentials")
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, fail("Insufficient permissions")
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, fail("User not found")
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, fail("User already exists")
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	if exposeInternal {
		return http.StatusInternalServerError, fail(err.Error())
	}
	return http.StatusInternalServerError, fail(genericInternalError)
}
