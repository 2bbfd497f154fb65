package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/realtyhub/marketplace-api/internal/core/domain"
)

// authorize applies the route's role and tier requirements to the hydrated
// principal, not to the token claims, so admin changes apply immediately.
func authorize(c echo.Context, allowed map[domain.Role]struct{}, minTier domain.Tier) (string, error) {
	user, ok := Principal(c)
	if !ok {
		return ReasonUnauthenticated, domain.ErrUnauthenticated
	}

	if len(allowed) > 0 {
		if _, ok := allowed[user.Role]; !ok {
			return ReasonForbidden, domain.ErrForbidden
		}
	}
	if minTier != "" && !domain.HasTier(user.Tier, minTier) {
		return ReasonTier, domain.ErrForbidden
	}
	return "", nil
}

func roleSet(roles []domain.Role) map[domain.Role]struct{} {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return allowed
}
