package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/realtyhub/marketplace-api/internal/api/metrics"
	"github.com/realtyhub/marketplace-api/internal/core/domain"
	"github.com/realtyhub/marketplace-api/internal/core/service"
)

const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
)

// checkRateLimit counts the request against the caller's address. The
// address comes from the first X-Forwarded-For hop, then X-Real-IP, then the
// socket peer, which is the order echo's RealIP applies.
func (p *Pipeline) checkRateLimit(c echo.Context, action service.Action) error {
	if p.deps.Limiter == nil {
		return nil
	}

	d := p.deps.Limiter.Check(c.Request().Context(), c.RealIP(), action)
	if d.Degraded {
		metrics.RateLimitStoreErrorsTotal.Inc()
	}

	h := c.Response().Header()
	h.Set(HeaderRateLimitLimit, strconv.Itoa(d.Limit))
	h.Set(HeaderRateLimitRemaining, strconv.Itoa(d.Remaining))
	if !d.ResetAt.IsZero() {
		h.Set(HeaderRateLimitReset, strconv.FormatInt(d.ResetAt.Unix(), 10))
	}

	if !d.Allowed {
		metrics.RateLimitDecisionsTotal.WithLabelValues(string(action), "denied").Inc()
		return &domain.RateLimitError{RetryAfter: d.RetryAfterSeconds()}
	}
	metrics.RateLimitDecisionsTotal.WithLabelValues(string(action), "allowed").Inc()
	return nil
}
