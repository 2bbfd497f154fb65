package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/realtyhub/marketplace-api/internal/api/response"
	"github.com/realtyhub/marketplace-api/internal/api/validation"
	"github.com/realtyhub/marketplace-api/internal/core/domain"
	"github.com/realtyhub/marketplace-api/internal/core/ports"
	"github.com/realtyhub/marketplace-api/internal/core/service"
)

// AdminHandler exposes principal management to administrators.
type AdminHandler struct {
	accounts ports.AccountService
}

func NewAdminHandler(accounts ports.AccountService) *AdminHandler {
	return &AdminHandler{accounts: accounts}
}

// listUsersQuery is bound over its defaults, so only parameters present in
// the query string replace them. An explicit zero is rejected, not defaulted.
type listUsersQuery struct {
	Page  int `json:"page" query:"page" validate:"gte=1"`
	Limit int `json:"limit" query:"limit" validate:"gte=1,lte=100"`
}

// ListUsers returns a page of principals, newest first.
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number"     default(1)
// @Param        limit  query     int  false  "Items per page"  default(20)
// @Success      200    {object}  response.Envelope{data=[]domain.User}
// @Failure      400    {object}  response.Envelope
// @Failure      403    {object}  response.Envelope
// @Router       /v1/admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	q := listUsersQuery{Page: 1, Limit: service.DefaultPageSize}
	if err := c.Bind(&q); err != nil {
		return domain.NewValidationError("query: page and limit must be integers")
	}
	if err := c.Validate(&q); err != nil {
		return err
	}

	users, total, err := h.accounts.List(c.Request().Context(), q.Page, q.Limit)
	if err != nil {
		return err
	}
	return response.Paginated(c, users, response.NewPagination(q.Page, q.Limit, total))
}

// SetTier changes a principal's subscription tier.
//
// @Summary      Set tier
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        X-CSRF-Token  header    string                  true  "CSRF token"
// @Param        id            path      string                  true  "User ID"
// @Param        body          body      validation.TierRequest  true  "New tier"
// @Success      200           {object}  response.Envelope{data=domain.User}
// @Failure      400           {object}  response.Envelope
// @Failure      403           {object}  response.Envelope
// @Failure      404           {object}  response.Envelope
// @Router       /v1/admin/users/{id}/tier [put]
func (h *AdminHandler) SetTier(c echo.Context) error {
	req, err := payload[validation.TierRequest](c)
	if err != nil {
		return err
	}

	user, err := h.accounts.SetTier(c.Request().Context(), c.Param("id"), domain.Tier(req.Tier))
	if err != nil {
		return err
	}
	return response.OKWithMessage(c, http.StatusOK, user, "Tier updated")
}

// SetVerification marks a principal verified or unverified.
//
// @Summary      Set verification
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        X-CSRF-Token  header    string                          true  "CSRF token"
// @Param        id            path      string                          true  "User ID"
// @Param        body          body      validation.VerificationRequest  true  "Verification flag"
// @Success      200           {object}  response.Envelope{data=domain.User}
// @Failure      403           {object}  response.Envelope
// @Failure      404           {object}  response.Envelope
// @Router       /v1/admin/users/{id}/verification [put]
func (h *AdminHandler) SetVerification(c echo.Context) error {
	req, err := payload[validation.VerificationRequest](c)
	if err != nil {
		return err
	}

	user, err := h.accounts.SetVerified(c.Request().Context(), c.Param("id"), *req.Verified)
	if err != nil {
		return err
	}
	return response.OKWithMessage(c, http.StatusOK, user, "Verification updated")
}
