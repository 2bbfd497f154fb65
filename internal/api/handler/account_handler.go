package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/realtyhub/marketplace-api/internal/api/response"
	"github.com/realtyhub/marketplace-api/internal/api/validation"
	"github.com/realtyhub/marketplace-api/internal/core/ports"
)

// AccountHandler serves the self-service endpoints of the signed-in principal.
type AccountHandler struct {
	accounts ports.AccountService
	auth     ports.AuthService
}

func NewAccountHandler(accounts ports.AccountService, auth ports.AuthService) *AccountHandler {
	return &AccountHandler{accounts: accounts, auth: auth}
}

// Me returns the current principal.
//
// @Summary      Current user
// @Tags         account
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Envelope{data=domain.User}
// @Failure      401  {object}  response.Envelope
// @Router       /v1/me [get]
func (h *AccountHandler) Me(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, user)
}

// UpdateProfile applies a partial profile update.
//
// @Summary      Update profile
// @Tags         account
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        X-CSRF-Token  header    string                            true  "CSRF token"
// @Param        body          body      validation.ProfileUpdateRequest  true  "Fields to change"
// @Success      200           {object}  response.Envelope{data=domain.User}
// @Failure      400           {object}  response.Envelope
// @Failure      401           {object}  response.Envelope
// @Router       /v1/me/profile [patch]
func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	req, err := payload[validation.ProfileUpdateRequest](c)
	if err != nil {
		return err
	}

	updated, err := h.accounts.UpdateProfile(c.Request().Context(), user.ID, req.Apply(user.Profile))
	if err != nil {
		return err
	}
	return response.OKWithMessage(c, http.StatusOK, updated, "Profile updated")
}

// UpdatePreferences replaces locale and notification settings.
//
// @Summary      Update preferences
// @Tags         account
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        X-CSRF-Token  header    string                          true  "CSRF token"
// @Param        body          body      validation.PreferencesRequest  true  "Preferences"
// @Success      200           {object}  response.Envelope{data=domain.User}
// @Failure      400           {object}  response.Envelope
// @Router       /v1/me/preferences [put]
func (h *AccountHandler) UpdatePreferences(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	req, err := payload[validation.PreferencesRequest](c)
	if err != nil {
		return err
	}

	updated, err := h.accounts.UpdatePreferences(c.Request().Context(), user.ID, req.Preferences())
	if err != nil {
		return err
	}
	return response.OKWithMessage(c, http.StatusOK, updated, "Preferences updated")
}

// ChangePassword rotates the principal's password.
//
// @Summary      Change password
// @Tags         account
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        X-CSRF-Token  header    string                             true  "CSRF token"
// @Param        body          body      validation.ChangePasswordRequest  true  "Current and new password"
// @Success      200           {object}  response.Envelope
// @Failure      400           {object}  response.Envelope
// @Failure      401           {object}  response.Envelope
// @Failure      429           {object}  response.Envelope
// @Router       /v1/me/password [post]
func (h *AccountHandler) ChangePassword(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	req, err := payload[validation.ChangePasswordRequest](c)
	if err != nil {
		return err
	}

	if err := h.auth.ChangePassword(c.Request().Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return response.OKWithMessage(c, http.StatusOK, nil, "Password changed")
}

// Export returns everything stored about the principal.
//
// @Summary      Export account data
// @Tags         account
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Envelope{data=domain.AccountExport}
// @Failure      401  {object}  response.Envelope
// @Router       /v1/me/export [get]
func (h *AccountHandler) Export(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	export, err := h.accounts.Export(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="account-export.json"`)
	return response.OK(c, http.StatusOK, export)
}

// Delete permanently removes the principal's account.
//
// @Summary      Delete account
// @Tags         account
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        X-CSRF-Token  header    string                            true  "CSRF token"
// @Param        body          body      validation.DeleteAccountRequest  true  "Password and the word DELETE"
// @Success      200           {object}  response.Envelope
// @Failure      400           {object}  response.Envelope
// @Failure      401           {object}  response.Envelope
// @Router       /v1/me [delete]
func (h *AccountHandler) Delete(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	req, err := payload[validation.DeleteAccountRequest](c)
	if err != nil {
		return err
	}

	if err := h.auth.DeleteAccount(c.Request().Context(), user.ID, req.Password); err != nil {
		return err
	}
	return response.OKWithMessage(c, http.StatusOK, nil, "Account deleted")
}
