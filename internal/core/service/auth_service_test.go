package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/realtyhub/marketplace-api/internal/core/domain"
	"github.com/realtyhub/marketplace-api/internal/core/ports"
)

type stubUserRepo struct {
	users   map[string]*domain.User
	nextID  int
	findErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	created := cloneUser(user)
	created.ID = fmt.Sprintf("user-%d", r.nextID)
	r.users[created.ID] = cloneUser(created)
	return created, nil
}

func (r *stubUserRepo) update(id string, fn func(u *domain.User)) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	fn(u)
	return cloneUser(u), nil
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, id string, p domain.Profile) (*domain.User, error) {
	return r.update(id, func(u *domain.User) { u.Profile = p })
}

func (r *stubUserRepo) UpdatePreferences(_ context.Context, id string, p domain.Preferences) (*domain.User, error) {
	return r.update(id, func(u *domain.User) { u.Preferences = p })
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id, hash string) error {
	_, err := r.update(id, func(u *domain.User) { u.PasswordHash = hash })
	return err
}

func (r *stubUserRepo) UpdateTier(_ context.Context, id string, tier domain.Tier) (*domain.User, error) {
	return r.update(id, func(u *domain.User) { u.Tier = tier })
}

func (r *stubUserRepo) UpdateVerified(_ context.Context, id string, v bool) (*domain.User, error) {
	return r.update(id, func(u *domain.User) { u.Verified = v })
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *stubUserRepo) List(_ context.Context, page, limit int) ([]*domain.User, int64, error) {
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	return out, int64(len(out)), nil
}

func newTestAuthService(t *testing.T) (*AuthService, *stubUserRepo, *CredentialService) {
	t.Helper()
	repo := newStubUserRepo()
	creds := newTestCredentials(t, nil)
	return NewAuthService(repo, creds, zerolog.Nop()), repo, creds
}

var aliceInput = ports.RegisterInput{
	Email:     "  Alice@Example.com ",
	Password:  "SecurePass123!",
	FirstName: "Alice",
	LastName:  "Moreno",
	Role:      domain.RoleBuyer,
}

func TestAuthService_Register_Success(t *testing.T) {
	svc, _, creds := newTestAuthService(t)

	user, tokens, err := svc.Register(context.Background(), aliceInput)
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("expected normalised email, got %q", user.Email)
	}
	if user.PasswordHash == aliceInput.Password || !creds.VerifyPassword(aliceInput.Password, user.PasswordHash) {
		t.Fatalf("stored hash does not match password")
	}
	if user.Tier != domain.TierBronze || user.Verified {
		t.Fatalf("new users must start BRONZE and unverified, got %s %v", user.Tier, user.Verified)
	}
	if user.Preferences != domain.DefaultPreferences() {
		t.Fatalf("unexpected preferences: %+v", user.Preferences)
	}

	claims, ok := creds.VerifyToken(tokens.AccessToken)
	if !ok || claims.UserID != user.ID || claims.Role != domain.RoleBuyer {
		t.Fatalf("unexpected access token claims: %+v", claims)
	}
	if tokens.ExpiresIn != 86400 {
		t.Fatalf("expected 24h expiry, got %d", tokens.ExpiresIn)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	bad := aliceInput
	bad.Email = "not-an-email"
	if _, _, err := svc.Register(context.Background(), bad); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	admin := aliceInput
	admin.Role = domain.RoleAdmin
	if _, _, err := svc.Register(context.Background(), admin); err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden for ADMIN self-registration, got %v", err)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, _, _ = svc.Register(context.Background(), aliceInput)
	again := aliceInput
	again.Email = "ALICE@example.com"
	if _, _, err := svc.Register(context.Background(), again); err != domain.ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_Register_RepoFailure(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	repo.findErr = errors.New("mongo down")

	if _, _, err := svc.Register(context.Background(), aliceInput); err == nil || errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected wrapped repository error, got %v", err)
	}
}

func TestAuthService_Login(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	registered, _, _ := svc.Register(context.Background(), aliceInput)

	user, tokens, err := svc.Login(context.Background(), "ALICE@example.com", "SecurePass123!")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user.ID != registered.ID || tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("unexpected login result: %+v %+v", user, tokens)
	}

	if _, _, err := svc.Login(context.Background(), "alice@example.com", "wrong"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "ghost@example.com", "SecurePass123!"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestAuthService_Refresh(t *testing.T) {
	svc, repo, creds := newTestAuthService(t)
	user, tokens, _ := svc.Register(context.Background(), aliceInput)

	_, _ = repo.UpdateTier(context.Background(), user.ID, domain.TierGold)

	_, refreshed, err := svc.Refresh(context.Background(), tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	claims, ok := creds.VerifyToken(refreshed.AccessToken)
	if !ok || claims.Tier != domain.TierGold {
		t.Fatalf("refreshed token should carry the current tier, got %+v", claims)
	}

	if _, _, err := svc.Refresh(context.Background(), tokens.AccessToken); err != domain.ErrUnauthenticated {
		t.Fatalf("access token must not refresh, got %v", err)
	}

	_ = repo.Delete(context.Background(), user.ID)
	if _, _, err := svc.Refresh(context.Background(), tokens.RefreshToken); err != domain.ErrUnauthenticated {
		t.Fatalf("deleted user must not refresh, got %v", err)
	}
}

func TestAuthService_ChangePassword(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	user, _, _ := svc.Register(context.Background(), aliceInput)
	ctx := context.Background()

	if err := svc.ChangePassword(ctx, user.ID, "wrong", "NewSecure456?"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	var verr *domain.ValidationError
	if err := svc.ChangePassword(ctx, user.ID, "SecurePass123!", "weak"); !errors.As(err, &verr) || len(verr.Errors) == 0 {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	if err := svc.ChangePassword(ctx, user.ID, "SecurePass123!", "NewSecure456?"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}
	if _, _, err := svc.Login(ctx, "alice@example.com", "NewSecure456?"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
}

func TestAuthService_DeleteAccount(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	user, _, _ := svc.Register(context.Background(), aliceInput)

	if err := svc.DeleteAccount(context.Background(), user.ID, "nope"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := svc.DeleteAccount(context.Background(), user.ID, "SecurePass123!"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := repo.FindByID(context.Background(), user.ID); err != domain.ErrUserNotFound {
		t.Fatalf("expected user to be gone, got %v", err)
	}
}
