package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/realtyhub/marketplace-api/internal/core/domain"
)

const (
	CSRFCookieName = "csrf_token"
	CSRFHeaderName = "X-CSRF-Token"

	ctxCSRFToken  = "csrf"
	csrfTokenLen  = 64
	csrfCookieTTL = 24 * 60 * 60
)

// CSRF returns echo's double-submit check: on mutating methods the
// X-CSRF-Token header must equal the csrf_token cookie. Every request that
// passes leaves the token in the cookie and in the context, reusing the
// cookie's value when the client already has one.
func CSRF(secureCookie bool) echo.MiddlewareFunc {
	return echomiddleware.CSRFWithConfig(echomiddleware.CSRFConfig{
		TokenLength:    csrfTokenLen,
		TokenLookup:    "header:" + CSRFHeaderName,
		ContextKey:     ctxCSRFToken,
		CookieName:     CSRFCookieName,
		CookiePath:     "/",
		CookieMaxAge:   csrfCookieTTL,
		CookieSecure:   secureCookie,
		CookieHTTPOnly: false,
		CookieSameSite: http.SameSiteStrictMode,
		ErrorHandler: func(error, echo.Context) error {
			return domain.ErrCSRFMismatch
		},
	})
}

// CSRFToken returns the token issued for this request, or "" when the request
// did not pass the CSRF stage.
func CSRFToken(c echo.Context) string {
	token, _ := c.Get(ctxCSRFToken).(string)
	return token
}

// checkCSRF runs the CSRF middleware as a single pipeline stage.
func (p *Pipeline) checkCSRF(c echo.Context) error {
	var passed bool
	err := p.csrf(func(echo.Context) error {
		passed = true
		return nil
	})(c)
	if passed {
		return nil
	}
	if err == nil {
		err = domain.ErrCSRFMismatch
	}
	return err
}
