package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/realtyhub/marketplace-api/internal/core/domain"
)

// emitAudit hands an entry for the finished request to the sink. A full or
// closed sink drops the entry; the response is already written either way.
func (p *Pipeline) emitAudit(c echo.Context, spec *AuditSpec) {
	entry := &domain.AuditEntry{
		ID:        uuid.NewString(),
		Action:    spec.Action,
		Resource:  spec.Resource,
		Method:    c.Request().Method,
		Path:      c.Path(),
		Status:    c.Response().Status,
		IP:        c.RealIP(),
		RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
		At:        p.now().UTC(),
	}
	if user, ok := Principal(c); ok {
		entry.ActorID = user.ID
		entry.ResourceID = user.ID
	}
	if spec.ResourceParam != "" {
		entry.ResourceID = c.Param(spec.ResourceParam)
	}

	p.deps.Audit.Enqueue(entry)
}
