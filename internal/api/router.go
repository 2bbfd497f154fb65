package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/realtyhub/marketplace-api/docs"
	"github.com/realtyhub/marketplace-api/internal/api/handler"
	"github.com/realtyhub/marketplace-api/internal/api/middleware"
	"github.com/realtyhub/marketplace-api/internal/api/validation"
	"github.com/realtyhub/marketplace-api/internal/core/domain"
	"github.com/realtyhub/marketplace-api/internal/core/ports"
	"github.com/realtyhub/marketplace-api/internal/core/service"
	"github.com/realtyhub/marketplace-api/internal/infrastructure/http/handlers"
)

const (
	metricsSubsystem = "realtyhub"
	bodyLimit        = "1M"
)

// Dependencies are the collaborators the router wires into handlers and the
// access pipeline.
type Dependencies struct {
	Auth        ports.AuthService
	Accounts    ports.AccountService
	Credentials *service.CredentialService
	Limiter     middleware.Limiter
	Users       middleware.PrincipalLoader
	Audit       middleware.AuditSink
	Readiness   map[string]handlers.Check
}

// Options are the environment-dependent router settings.
type Options struct {
	AllowedOrigins        []string
	ExposeInternalErrors  bool
	SecureCookies         bool
	ContentSecurityPolicy string
	// MetricsRegistry receives the HTTP metrics and backs /metrics. Nil means
	// the default registry, which also holds the metrics package collectors.
	MetricsRegistry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies, opts Options, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	v := validation.New(deps.Credentials)
	e.Validator = v
	e.HTTPErrorHandler = NewHTTPErrorHandler(log, opts.ExposeInternalErrors)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(middleware.SecurityHeaders(opts.ContentSecurityPolicy))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: opts.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept,
			echo.HeaderAuthorization, echo.HeaderXRequestID, middleware.CSRFHeaderName,
		},
		ExposeHeaders:    []string{echo.HeaderXRequestID, echo.HeaderRetryAfter, middleware.HeaderRateLimitLimit, middleware.HeaderRateLimitRemaining, middleware.HeaderRateLimitReset},
		AllowCredentials: true,
		MaxAge:           86400,
	}))
	e.Use(echomiddleware.BodyLimit(bodyLimit))
	promConfig := echoprometheus.MiddlewareConfig{Subsystem: metricsSubsystem}
	metricsHandler := echoprometheus.NewHandler()
	if opts.MetricsRegistry != nil {
		promConfig.Registerer = opts.MetricsRegistry
		metricsHandler = echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: opts.MetricsRegistry})
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(promConfig))

	p := middleware.NewPipeline(middleware.Dependencies{
		Limiter:   deps.Limiter,
		Verifier:  deps.Credentials,
		Users:     deps.Users,
		Validator: v,
		Audit:     deps.Audit,
		CSRF:      middleware.CSRF(opts.SecureCookies),
	}, log.With().Str("component", "pipeline").Logger())

	authHandler := handler.NewAuthHandler(deps.Auth)
	accountHandler := handler.NewAccountHandler(deps.Accounts, deps.Auth)
	adminHandler := handler.NewAdminHandler(deps.Accounts)

	v1 := e.Group("/v1")

	// --- Auth routes ---
	auth := v1.Group("/auth")
	auth.GET("/csrf", authHandler.CSRF, p.Route(middleware.RouteOptions{}))
	auth.POST("/register", authHandler.Register, p.Route(middleware.RouteOptions{
		Action: service.ActionRegister,
		Schema: validation.RegisterSchema,
		Audit:  &middleware.AuditSpec{Action: "auth.register", Resource: "user"},
	}))
	auth.POST("/login", authHandler.Login, p.Route(middleware.RouteOptions{
		Action: service.ActionLogin,
		Schema: validation.LoginSchema,
		Audit:  &middleware.AuditSpec{Action: "auth.login", Resource: "session"},
	}))
	auth.POST("/refresh", authHandler.Refresh, p.Route(middleware.RouteOptions{
		Schema: validation.RefreshSchema,
	}))

	// --- Self-service routes ---
	me := v1.Group("/me")
	me.GET("", accountHandler.Me, p.Route(middleware.RouteOptions{RequireAuth: true}))
	me.PATCH("/profile", accountHandler.UpdateProfile, p.Route(middleware.RouteOptions{
		RequireAuth: true,
		Schema:      validation.ProfileUpdateSchema,
		Audit:       &middleware.AuditSpec{Action: "account.profile.update", Resource: "user"},
	}))
	me.PUT("/preferences", accountHandler.UpdatePreferences, p.Route(middleware.RouteOptions{
		RequireAuth: true,
		Schema:      validation.PreferencesSchema,
		Audit:       &middleware.AuditSpec{Action: "account.preferences.update", Resource: "user"},
	}))
	me.POST("/password", accountHandler.ChangePassword, p.Route(middleware.RouteOptions{
		Action:      service.ActionPasswordReset,
		RequireAuth: true,
		Schema:      validation.ChangePasswordSchema,
		Audit:       &middleware.AuditSpec{Action: "account.password.change", Resource: "user"},
	}))
	me.GET("/export", accountHandler.Export, p.Route(middleware.RouteOptions{
		RequireAuth: true,
		Audit:       &middleware.AuditSpec{Action: "account.export", Resource: "user"},
	}))
	me.DELETE("", accountHandler.Delete, p.Route(middleware.RouteOptions{
		RequireAuth: true,
		Schema:      validation.DeleteAccountSchema,
		Audit:       &middleware.AuditSpec{Action: "account.delete", Resource: "user"},
	}))

	// --- Admin routes ---
	admins := []domain.Role{domain.RoleAdmin}
	users := v1.Group("/admin/users")
	users.GET("", adminHandler.ListUsers, p.Route(middleware.RouteOptions{Roles: admins}))
	users.PUT("/:id/tier", adminHandler.SetTier, p.Route(middleware.RouteOptions{
		Roles:  admins,
		Schema: validation.TierSchema,
		Audit:  &middleware.AuditSpec{Action: "admin.user.tier", Resource: "user", ResourceParam: "id"},
	}))
	users.PUT("/:id/verification", adminHandler.SetVerification, p.Route(middleware.RouteOptions{
		Roles:  admins,
		Schema: validation.VerificationSchema,
		Audit:  &middleware.AuditSpec{Action: "admin.user.verification", Resource: "user", ResourceParam: "id"},
	}))

	// --- Health probes, metrics and docs (outside the access pipeline) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Readiness)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", metricsHandler)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
