package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/realtyhub/marketplace-api/internal/api/metrics"
	"github.com/realtyhub/marketplace-api/internal/api/middleware"
	"github.com/realtyhub/marketplace-api/internal/api/response"
	"github.com/realtyhub/marketplace-api/internal/api/validation"
	"github.com/realtyhub/marketplace-api/internal/core/domain"
	"github.com/realtyhub/marketplace-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type authResponse struct {
	User *domain.User `json:"user"`
	*ports.TokenPair
}

type csrfResponse struct {
	CSRFToken string `json:"csrfToken"`
}

// CSRF returns the double-submit token the pipeline issued for this request.
//
// @Summary      Issue a CSRF token
// @Description  Sets the csrf_token cookie; send the same value in X-CSRF-Token on every mutating request.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Envelope{data=csrfResponse}
// @Router       /v1/auth/csrf [get]
func (h *AuthHandler) CSRF(c echo.Context) error {
	token := middleware.CSRFToken(c)
	if token == "" {
		return fmt.Errorf("no csrf token issued for %s %s", c.Request().Method, c.Path())
	}
	return response.OK(c, http.StatusOK, csrfResponse{CSRFToken: token})
}

// Register creates a new account and signs it in.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        X-CSRF-Token  header    string                       true  "CSRF token"
// @Param        body          body      validation.RegisterRequest  true  "Registration details"
// @Success      201           {object}  response.Envelope{data=authResponse}
// @Failure      400           {object}  response.Envelope
// @Failure      403           {object}  response.Envelope
// @Failure      409           {object}  response.Envelope
// @Failure      429           {object}  response.Envelope
// @Router       /v1/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	req, err := payload[validation.RegisterRequest](c)
	if err != nil {
		return err
	}

	user, tokens, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Role:      domain.Role(req.Role),
	})
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("register", "failure").Inc()
		return err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("register", "success").Inc()
	middleware.WithPrincipal(c, user)
	return response.OKWithMessage(c, http.StatusCreated, authResponse{User: user, TokenPair: tokens}, "Account created")
}

// Login authenticates a user and returns a token pair.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        X-CSRF-Token  header    string                    true  "CSRF token"
// @Param        body          body      validation.LoginRequest  true  "Login credentials"
// @Success      200           {object}  response.Envelope{data=authResponse}
// @Failure      400           {object}  response.Envelope
// @Failure      401           {object}  response.Envelope
// @Failure      429           {object}  response.Envelope
// @Router       /v1/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	req, err := payload[validation.LoginRequest](c)
	if err != nil {
		return err
	}

	user, tokens, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "failure").Inc()
		return err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("login", "success").Inc()
	middleware.WithPrincipal(c, user)
	return response.OK(c, http.StatusOK, authResponse{User: user, TokenPair: tokens})
}

// Refresh exchanges a refresh token for a new token pair.
//
// @Summary      Refresh tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        X-CSRF-Token  header    string                      true  "CSRF token"
// @Param        body          body      validation.RefreshRequest  true  "Refresh token"
// @Success      200           {object}  response.Envelope{data=authResponse}
// @Failure      401           {object}  response.Envelope
// @Router       /v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	req, err := payload[validation.RefreshRequest](c)
	if err != nil {
		return err
	}

	user, tokens, err := h.authService.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("refresh", "failure").Inc()
		return err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("refresh", "success").Inc()
	return response.OK(c, http.StatusOK, authResponse{User: user, TokenPair: tokens})
}
