package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/realtyhub/marketplace-api/internal/api/middleware"
	"github.com/realtyhub/marketplace-api/internal/core/domain"
	"github.com/realtyhub/marketplace-api/internal/core/service"
	"github.com/realtyhub/marketplace-api/internal/infrastructure/db/memory"
	"github.com/realtyhub/marketplace-api/internal/infrastructure/http/handlers"
)

type auditRecorder struct {
	mu      sync.Mutex
	entries []*domain.AuditEntry
}

func (a *auditRecorder) Enqueue(e *domain.AuditEntry) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
	return true
}

type testServer struct {
	e     *echo.Echo
	users *memory.UserRepository
	creds *service.CredentialService
	audit *auditRecorder
	csrf  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zerolog.Nop()
	limiter := service.NewRateLimiter(memory.NewCounterStore(nil), service.RateLimiterConfig{}, log)
	creds, err := service.NewCredentialService(service.CredentialConfig{
		Secret:     "router-test-secret",
		BcryptCost: bcrypt.MinCost,
	}, limiter)
	if err != nil {
		t.Fatalf("credentials: %v", err)
	}
	users := memory.NewUserRepository(nil)
	audit := &auditRecorder{}

	e := NewRouter(Dependencies{
		Auth:        service.NewAuthService(users, creds, log),
		Accounts:    service.NewAccountService(users, log),
		Credentials: creds,
		Limiter:     limiter,
		Users:       users,
		Audit:       audit,
		Readiness:   map[string]handlers.Check{"mongodb": func(context.Context) error { return nil }},
	}, Options{
		AllowedOrigins:  []string{"http://localhost:3000"},
		MetricsRegistry: prometheus.NewRegistry(),
	}, log)

	return &testServer{e: e, users: users, creds: creds, audit: audit, csrf: "router-test-csrf"}
}

type reply struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Errors  []string        `json:"errors"`
}

func (s *testServer) do(t *testing.T, method, target, body, bearer string, withCSRF bool) (*httptest.ResponseRecorder, reply) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if withCSRF {
		req.AddCookie(&http.Cookie{Name: middleware.CSRFCookieName, Value: s.csrf})
		req.Header.Set(middleware.CSRFHeaderName, s.csrf)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var r reply
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &r); err != nil {
			t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
		}
	}
	return rec, r
}

func (s *testServer) seed(t *testing.T, email string, role domain.Role) (*domain.User, string) {
	t.Helper()
	hash, err := s.creds.HashPassword("SecurePass123!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u, err := s.users.Create(context.Background(), &domain.User{
		Email: email, PasswordHash: hash, Role: role, Tier: domain.TierBronze,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	tok, err := s.creds.GenerateAccessToken(domain.ClaimsFor(u))
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return u, tok
}

const registerJSON = `{
	"email": "new.buyer@example.com",
	"password": "SecurePass123!",
	"confirmPassword": "SecurePass123!",
	"firstName": "Nora",
	"lastName": "Quispe",
	"role": "BUYER"
}`

func TestRouter_RegisterThenMe(t *testing.T) {
	s := newTestServer(t)

	rec, r := s.do(t, http.MethodPost, "/v1/auth/register", registerJSON, "", true)
	if rec.Code != http.StatusCreated || !r.Success {
		t.Fatalf("expected 201, got %d %s", rec.Code, rec.Body.String())
	}
	var data struct {
		User        domain.User `json:"user"`
		AccessToken string      `json:"accessToken"`
	}
	if err := json.Unmarshal(r.Data, &data); err != nil {
		t.Fatalf("invalid data: %v", err)
	}
	if data.User.Tier != domain.TierBronze || data.AccessToken == "" {
		t.Fatalf("unexpected registration payload: %+v", data)
	}

	rec, r = s.do(t, http.MethodGet, "/v1/me", "", data.AccessToken, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}

	if len(s.audit.entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(s.audit.entries))
	}
	entry := s.audit.entries[0]
	if entry.Action != "auth.register" || entry.Status != http.StatusCreated || entry.ActorID != data.User.ID {
		t.Fatalf("unexpected audit entry: %+v", entry)
	}
}

func TestRouter_StatusMapping(t *testing.T) {
	s := newTestServer(t)
	_, buyerToken := s.seed(t, "buyer@example.com", domain.RoleBuyer)

	tests := []struct {
		name     string
		method   string
		target   string
		body     string
		bearer   string
		csrf     bool
		status   int
		errorMsg string
	}{
		{"missing csrf", http.MethodPost, "/v1/auth/login", `{}`, "", false, http.StatusForbidden, "Invalid CSRF token"},
		{"missing token", http.MethodGet, "/v1/me", "", "", false, http.StatusUnauthorized, "Authentication required"},
		{"garbage token", http.MethodGet, "/v1/me", "", "not-a-jwt", false, http.StatusUnauthorized, "Authentication required"},
		{"wrong role", http.MethodGet, "/v1/admin/users", "", buyerToken, false, http.StatusForbidden, "Insufficient permissions"},
		{"invalid payload", http.MethodPost, "/v1/auth/register", `{"email":"x"}`, "", true, http.StatusBadRequest, "Validation failed"},
		{"wrong password", http.MethodPost, "/v1/auth/login", `{"email":"buyer@example.com","password":"Nope123!x"}`, "", true, http.StatusUnauthorized, "Invalid credentials"},
		{"admin route without token", http.MethodPut, "/v1/admin/users/missing/tier", `{"tier":"GOLD"}`, "", true, http.StatusUnauthorized, "Authentication required"},
		{"no route", http.MethodGet, "/v1/nowhere", "", "", false, http.StatusNotFound, "Not Found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, r := s.do(t, tt.method, tt.target, tt.body, tt.bearer, tt.csrf)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d %s", tt.status, rec.Code, rec.Body.String())
			}
			if r.Success || r.Error != tt.errorMsg {
				t.Fatalf("unexpected envelope: %+v", r)
			}
			if rec.Header().Get("X-Frame-Options") != "DENY" {
				t.Fatalf("security headers missing on %d response", rec.Code)
			}
		})
	}
}

func TestRouter_ValidationErrorsListed(t *testing.T) {
	s := newTestServer(t)

	_, r := s.do(t, http.MethodPost, "/v1/auth/register", `{"email":"bad","password":"short"}`, "", true)
	if len(r.Errors) == 0 {
		t.Fatalf("expected field errors")
	}
	found := false
	for _, msg := range r.Errors {
		if strings.HasPrefix(msg, "email: ") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an email error in %v", r.Errors)
	}
}

func TestRouter_LoginRateLimited(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, "buyer@example.com", domain.RoleBuyer)
	body := `{"email":"buyer@example.com","password":"Wrong123!x"}`

	for i := 0; i < 5; i++ {
		rec, _ := s.do(t, http.MethodPost, "/v1/auth/login", body, "", true)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, rec.Code)
		}
	}

	rec, r := s.do(t, http.MethodPost, "/v1/auth/login", body, "", true)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	retry, err := strconv.Atoi(rec.Header().Get(echo.HeaderRetryAfter))
	if err != nil || retry < 1 || retry > 15*60 {
		t.Fatalf("unexpected Retry-After %q", rec.Header().Get(echo.HeaderRetryAfter))
	}
	if !strings.HasPrefix(r.Error, "Too many requests") {
		t.Fatalf("unexpected error %q", r.Error)
	}
	if rec.Header().Get(middleware.HeaderRateLimitRemaining) != "0" {
		t.Fatalf("expected remaining 0, got %q", rec.Header().Get(middleware.HeaderRateLimitRemaining))
	}
}

func TestRouter_AdminSetsTier(t *testing.T) {
	s := newTestServer(t)
	buyer, buyerToken := s.seed(t, "buyer@example.com", domain.RoleBuyer)
	_, adminToken := s.seed(t, "admin@example.com", domain.RoleAdmin)

	rec, _ := s.do(t, http.MethodPut, "/v1/admin/users/"+buyer.ID+"/tier", `{"tier":"GOLD"}`, adminToken, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}

	// The old token still says BRONZE; the principal is re-read per request.
	_, r := s.do(t, http.MethodGet, "/v1/me", "", buyerToken, false)
	var me domain.User
	if err := json.Unmarshal(r.Data, &me); err != nil {
		t.Fatalf("invalid data: %v", err)
	}
	if me.Tier != domain.TierGold {
		t.Fatalf("expected GOLD, got %s", me.Tier)
	}

	last := s.audit.entries[len(s.audit.entries)-1]
	if last.ResourceID != buyer.ID || last.Action != "admin.user.tier" {
		t.Fatalf("unexpected audit entry: %+v", last)
	}
}

func TestRouter_HealthBypassesPipeline(t *testing.T) {
	s := newTestServer(t)

	rec, r := s.do(t, http.MethodGet, "/health/ready", "", "", false)
	if rec.Code != http.StatusOK || !r.Success {
		t.Fatalf("expected ready, got %d %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(middleware.HeaderRateLimitLimit) != "" {
		t.Fatalf("health probes must not be rate limited")
	}
}
