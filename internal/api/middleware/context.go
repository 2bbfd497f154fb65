package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/realtyhub/marketplace-api/internal/core/domain"
)

const (
	ctxStage        = "pipeline.stage"
	ctxRejectedAt   = "pipeline.rejected_at"
	ctxRejectReason = "pipeline.reject_reason"
	ctxClaims       = "auth.claims"
	ctxPrincipal    = "auth.principal"
	ctxPayload      = "request.payload"
)

func setStage(c echo.Context, s Stage) { c.Set(ctxStage, s) }

// StageOf returns the pipeline state of the request, or "" when the pipeline
// has not run.
func StageOf(c echo.Context) Stage {
	s, _ := c.Get(ctxStage).(Stage)
	return s
}

// Rejection returns the stage a rejected request had reached and the reason.
func Rejection(c echo.Context) (Stage, string) {
	at, _ := c.Get(ctxRejectedAt).(Stage)
	reason, _ := c.Get(ctxRejectReason).(string)
	return at, reason
}

// Principal returns the hydrated principal of an authenticated request.
func Principal(c echo.Context) (*domain.User, bool) {
	u, ok := c.Get(ctxPrincipal).(*domain.User)
	return u, ok && u != nil
}

// Claims returns the verified token claims of an authenticated request.
func Claims(c echo.Context) (*domain.Claims, bool) {
	cl, ok := c.Get(ctxClaims).(*domain.Claims)
	return cl, ok && cl != nil
}

// Payload returns the validated request body as *T.
func Payload[T any](c echo.Context) (*T, bool) {
	v, ok := c.Get(ctxPayload).(*T)
	return v, ok && v != nil
}

// WithPrincipal records user as the actor of a request that establishes
// identity, such as login, so the audit entry names them.
func WithPrincipal(c echo.Context, user *domain.User) {
	c.Set(ctxPrincipal, user)
}
