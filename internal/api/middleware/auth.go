package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/realtyhub/marketplace-api/internal/core/domain"
)

// authenticate verifies the bearer token and hydrates the principal it names.
// Every token failure is reported as domain.ErrUnauthenticated with no detail.
func (p *Pipeline) authenticate(c echo.Context) error {
	token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if !ok {
		return domain.ErrUnauthenticated
	}

	claims, ok := p.deps.Verifier.VerifyToken(token)
	if !ok {
		return domain.ErrUnauthenticated
	}

	user, err := p.deps.Users.FindByID(c.Request().Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUnauthenticated
		}
		return fmt.Errorf("load principal: %w", err)
	}

	c.Set(ctxClaims, claims)
	c.Set(ctxPrincipal, user)
	return nil
}

func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
