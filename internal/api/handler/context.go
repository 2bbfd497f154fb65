package handler

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/realtyhub/marketplace-api/internal/api/middleware"
	"github.com/realtyhub/marketplace-api/internal/core/domain"
)

// currentUser returns the principal hydrated by the pipeline. Its absence on
// an authenticated route means the route was registered without RequireAuth.
func currentUser(c echo.Context) (*domain.User, error) {
	user, ok := middleware.Principal(c)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return user, nil
}

// payload returns the body validated by the pipeline for this route.
func payload[T any](c echo.Context) (*T, error) {
	p, ok := middleware.Payload[T](c)
	if !ok {
		return nil, fmt.Errorf("no validated payload for %s %s", c.Request().Method, c.Path())
	}
	return p, nil
}
