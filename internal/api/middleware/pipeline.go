// Package middleware assembles the per-request access pipeline:
// rate limit, CSRF, authentication, authorization, payload validation and
// audit, in that order. Any stage can reject the request; a rejected request
// never reaches the handler.
package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/realtyhub/marketplace-api/internal/api/metrics"
	"github.com/realtyhub/marketplace-api/internal/api/validation"
	"github.com/realtyhub/marketplace-api/internal/core/domain"
	"github.com/realtyhub/marketplace-api/internal/core/service"
)

// Stage is a state of the per-request pipeline.
type Stage string

const (
	StageReceived      Stage = "RECEIVED"
	StageRateChecked   Stage = "RATE_CHECKED"
	StageCSRFChecked   Stage = "CSRF_CHECKED"
	StageAuthenticated Stage = "AUTHENTICATED"
	StageAuthorized    Stage = "AUTHORIZED"
	StageValidated     Stage = "VALIDATED"
	StageDispatched    Stage = "DISPATCHED"
	StageRejected      Stage = "REJECTED"
)

// Rejection reasons, also used as metric labels.
const (
	ReasonRateLimited     = "rate_limited"
	ReasonCSRF            = "csrf"
	ReasonUnauthenticated = "unauthenticated"
	ReasonForbidden       = "forbidden"
	ReasonTier            = "tier"
	ReasonInvalidPayload  = "invalid_payload"
	ReasonInternal        = "internal"
)

// Limiter counts requests per identifier and action.
type Limiter interface {
	Check(ctx context.Context, identifier string, action service.Action) service.Decision
}

// TokenVerifier verifies access tokens.
type TokenVerifier interface {
	VerifyToken(token string) (*domain.Claims, bool)
}

// PrincipalLoader hydrates the principal named by a verified token.
type PrincipalLoader interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// PayloadValidator checks request bodies against a schema.
type PayloadValidator interface {
	ValidateInput(s validation.Schema, payload []byte) validation.Result
}

// AuditSink accepts audit entries without blocking.
type AuditSink interface {
	Enqueue(entry *domain.AuditEntry) bool
}

// AuditSpec describes the audit entry written for a dispatched request.
// ResourceParam names the path parameter holding the resource id; when empty
// the acting principal is the resource.
type AuditSpec struct {
	Action        string
	Resource      string
	ResourceParam string
}

// RouteOptions declares what a route requires. The zero value rate-limits
// under the api bucket and checks CSRF on mutating methods only.
type RouteOptions struct {
	Action      service.Action
	RequireAuth bool
	Roles       []domain.Role
	MinTier     domain.Tier
	Schema      validation.Schema
	Audit       *AuditSpec
}

func (o RouteOptions) needsAuth() bool {
	return o.RequireAuth || len(o.Roles) > 0 || o.MinTier != ""
}

// Dependencies are the collaborators a Pipeline consults.
type Dependencies struct {
	Limiter   Limiter
	Verifier  TokenVerifier
	Users     PrincipalLoader
	Validator PayloadValidator
	Audit     AuditSink

	// CSRF is the double-submit check. Defaults to CSRF(false).
	CSRF echo.MiddlewareFunc
}

// Pipeline builds per-route middleware from RouteOptions.
type Pipeline struct {
	deps Dependencies
	csrf echo.MiddlewareFunc
	log  zerolog.Logger
	now  func() time.Time
}

func NewPipeline(deps Dependencies, log zerolog.Logger) *Pipeline {
	csrf := deps.CSRF
	if csrf == nil {
		csrf = CSRF(false)
	}
	return &Pipeline{deps: deps, csrf: csrf, log: log, now: time.Now}
}

// Route returns the middleware enforcing opts.
func (p *Pipeline) Route(opts RouteOptions) echo.MiddlewareFunc {
	if opts.Action == "" {
		opts.Action = service.ActionAPI
	}
	allowed := roleSet(opts.Roles)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			setStage(c, StageReceived)

			if err := p.checkRateLimit(c, opts.Action); err != nil {
				return p.reject(c, ReasonRateLimited, err)
			}
			setStage(c, StageRateChecked)

			if err := p.checkCSRF(c); err != nil {
				return p.reject(c, ReasonCSRF, err)
			}
			setStage(c, StageCSRFChecked)

			if opts.needsAuth() {
				if err := p.authenticate(c); err != nil {
					return p.reject(c, reasonFor(err, ReasonUnauthenticated), err)
				}
			}
			setStage(c, StageAuthenticated)

			if opts.needsAuth() {
				if reason, err := authorize(c, allowed, opts.MinTier); err != nil {
					return p.reject(c, reason, err)
				}
			}
			setStage(c, StageAuthorized)

			if opts.Schema != nil {
				if err := p.validate(c, opts.Schema); err != nil {
					return p.reject(c, reasonFor(err, ReasonInvalidPayload), err)
				}
			}
			setStage(c, StageValidated)

			setStage(c, StageDispatched)
			metrics.PipelineDispatchedTotal.WithLabelValues(c.Path()).Inc()

			if opts.Audit == nil || p.deps.Audit == nil {
				return next(c)
			}

			// The status is only known once the error handler has rendered
			// the response, so errors are handled here before auditing.
			if err := next(c); err != nil {
				c.Error(err)
			}
			p.emitAudit(c, opts.Audit)
			return nil
		}
	}
}

// reject records the terminal REJECTED state and returns err for the error
// handler to render.
func (p *Pipeline) reject(c echo.Context, reason string, err error) error {
	at := StageOf(c)
	c.Set(ctxRejectedAt, at)
	c.Set(ctxRejectReason, reason)
	setStage(c, StageRejected)

	metrics.PipelineRejectionsTotal.WithLabelValues(string(at), reason).Inc()
	p.log.Debug().
		Str("stage", string(at)).
		Str("reason", reason).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("ip", c.RealIP()).
		Msg("request rejected")
	return err
}

// reasonFor maps collaborator failures that are not the stage's own failure
// mode, such as a store outage while hydrating the principal, to
// ReasonInternal.
func reasonFor(err error, stageReason string) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) || errors.Is(err, domain.ErrUnauthenticated) {
		return stageReason
	}
	return ReasonInternal
}
