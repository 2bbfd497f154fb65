package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/realtyhub/marketplace-api/internal/api/middleware"
	"github.com/realtyhub/marketplace-api/internal/api/validation"
	"github.com/realtyhub/marketplace-api/internal/core/domain"
)

func adminOnly(s validation.Schema) middleware.RouteOptions {
	return middleware.RouteOptions{Roles: []domain.Role{domain.RoleAdmin}, Schema: s}
}

func TestAdminHandler_ListUsers(t *testing.T) {
	h := newHarness(t)
	accounts := &stubAccountService{
		listFn: func(_ context.Context, page, limit int) ([]*domain.User, int64, error) {
			if page != 2 || limit != 5 {
				t.Fatalf("unexpected page %d limit %d", page, limit)
			}
			return []*domain.User{{ID: "u-6"}, {ID: "u-7"}}, 12, nil
		},
	}
	handler := NewAdminHandler(accounts)

	rec, _, err := h.serve(t, adminOnly(nil), handler.ListUsers, call{
		method: http.MethodGet, target: "/v1/admin/users?page=2&limit=5", bearer: h.tokenFor(t, "admin-1"),
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	env := decode(t, rec)
	if env.Pagination == nil || env.Pagination.TotalPages != 3 || env.Pagination.Total != 12 {
		t.Fatalf("unexpected pagination: %+v", env.Pagination)
	}
	var users []domain.User
	if err := json.Unmarshal(env.Data, &users); err != nil || len(users) != 2 {
		t.Fatalf("unexpected data %s: %v", env.Data, err)
	}
}

func TestAdminHandler_ListUsers_Defaults(t *testing.T) {
	h := newHarness(t)
	accounts := &stubAccountService{
		listFn: func(_ context.Context, page, limit int) ([]*domain.User, int64, error) {
			if page != 1 || limit != 20 {
				t.Fatalf("unexpected page %d limit %d", page, limit)
			}
			return nil, 0, nil
		},
	}
	handler := NewAdminHandler(accounts)

	_, _, err := h.serve(t, adminOnly(nil), handler.ListUsers, call{
		method: http.MethodGet, target: "/v1/admin/users", bearer: h.tokenFor(t, "admin-1"),
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
}

func TestAdminHandler_ListUsers_RejectsBadQuery(t *testing.T) {
	h := newHarness(t)
	handler := NewAdminHandler(&stubAccountService{})

	for _, target := range []string{
		"/v1/admin/users?limit=500",
		"/v1/admin/users?page=0x",
		"/v1/admin/users?limit=0",
		"/v1/admin/users?page=0",
		"/v1/admin/users?page=-1&limit=10",
	} {
		_, _, err := h.serve(t, adminOnly(nil), handler.ListUsers, call{
			method: http.MethodGet, target: target, bearer: h.tokenFor(t, "admin-1"),
		})
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("%s: expected validation error, got %v", target, err)
		}
	}
}

func TestAdminHandler_RequiresAdmin(t *testing.T) {
	h := newHarness(t)
	handler := NewAdminHandler(&stubAccountService{})

	_, c, err := h.serve(t, adminOnly(nil), handler.ListUsers, call{
		method: http.MethodGet, target: "/v1/admin/users", bearer: h.tokenFor(t, "buyer-1"),
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if at, reason := middleware.Rejection(c); at != middleware.StageAuthenticated || reason != middleware.ReasonForbidden {
		t.Fatalf("unexpected rejection %s/%s", at, reason)
	}
}

func TestAdminHandler_SetTier(t *testing.T) {
	h := newHarness(t)
	accounts := &stubAccountService{
		setTierFn: func(_ context.Context, userID string, tier domain.Tier) (*domain.User, error) {
			if userID != "buyer-1" || tier != domain.TierGold {
				t.Fatalf("unexpected args %s %s", userID, tier)
			}
			return &domain.User{ID: userID, Tier: tier}, nil
		},
	}
	handler := NewAdminHandler(accounts)

	rec, _, err := h.serve(t, adminOnly(validation.TierSchema), handler.SetTier, call{
		method: http.MethodPut, target: "/v1/admin/users/buyer-1/tier", body: `{"tier":"GOLD"}`,
		bearer: h.tokenFor(t, "admin-1"), params: map[string]string{"id": "buyer-1"},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAdminHandler_SetVerification(t *testing.T) {
	h := newHarness(t)
	accounts := &stubAccountService{
		setVerifiedFn: func(_ context.Context, userID string, verified bool) (*domain.User, error) {
			if verified {
				t.Fatalf("expected verified=false to be passed through")
			}
			return nil, domain.ErrUserNotFound
		},
	}
	handler := NewAdminHandler(accounts)

	_, _, err := h.serve(t, adminOnly(validation.VerificationSchema), handler.SetVerification, call{
		method: http.MethodPut, target: "/v1/admin/users/missing/verification", body: `{"verified":false}`,
		bearer: h.tokenFor(t, "admin-1"), params: map[string]string{"id": "missing"},
	})
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
