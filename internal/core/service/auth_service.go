package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/realtyhub/marketplace-api/internal/core/domain"
	"github.com/realtyhub/marketplace-api/internal/core/ports"
)

// AuthService implements registration, login, token refresh and the
// password-bound account operations.
type AuthService struct {
	repo  ports.UserRepository
	creds *CredentialService
	log   zerolog.Logger
}

func NewAuthService(repo ports.UserRepository, creds *CredentialService, log zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, creds: creds, log: log}
}

// Register creates a BRONZE, unverified principal and signs it in.
// ADMIN accounts cannot be self-registered.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, *ports.TokenPair, error) {
	email := normalizeEmail(in.Email)
	if !ValidateEmail(email) || in.Password == "" {
		return nil, nil, domain.ErrInvalidCredentials
	}
	if !in.Role.Valid() || in.Role == domain.RoleAdmin {
		return nil, nil, domain.ErrForbidden
	}

	_, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, nil, domain.ErrUserExists
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, nil, fmt.Errorf("register: %w", err)
	}

	hash, err := s.creds.HashPassword(in.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Email:        email,
		PasswordHash: hash,
		Role:         in.Role,
		Tier:         domain.TierBronze,
		Profile: domain.Profile{
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Phone:     in.Phone,
		},
		Preferences: domain.DefaultPreferences(),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, nil, err
	}

	tokens, err := s.issue(created)
	if err != nil {
		return nil, nil, err
	}

	s.log.Info().Str("user_id", created.ID).Str("role", string(created.Role)).Msg("user registered")
	return created, tokens, nil
}

// Login checks the password for email. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *ports.TokenPair, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil, domain.ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("login: %w", err)
	}

	if !s.creds.VerifyPassword(password, user.PasswordHash) {
		s.log.Info().Str("user_id", user.ID).Msg("login rejected")
		return nil, nil, domain.ErrInvalidCredentials
	}

	tokens, err := s.issue(user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// Refresh exchanges a refresh token for a new pair. The principal is re-read
// so role and tier changes are reflected in the new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.User, *ports.TokenPair, error) {
	userID, ok := s.creds.VerifyRefreshToken(refreshToken)
	if !ok {
		return nil, nil, domain.ErrUnauthenticated
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil, domain.ErrUnauthenticated
		}
		return nil, nil, fmt.Errorf("refresh: %w", err)
	}

	tokens, err := s.issue(user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// ChangePassword replaces the password after confirming the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.creds.VerifyPassword(current, user.PasswordHash) {
		return domain.ErrInvalidCredentials
	}
	if check := ValidatePassword(next); !check.Valid {
		return domain.NewValidationError(check.Errors...)
	}

	hash, err := s.creds.HashPassword(next)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	s.log.Info().Str("user_id", userID).Msg("password changed")
	return nil
}

// DeleteAccount erases the principal after password confirmation.
func (s *AuthService) DeleteAccount(ctx context.Context, userID, password string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.creds.VerifyPassword(password, user.PasswordHash) {
		return domain.ErrInvalidCredentials
	}
	if err := s.repo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	s.log.Info().Str("user_id", userID).Msg("account deleted")
	return nil
}

func (s *AuthService) issue(user *domain.User) (*ports.TokenPair, error) {
	access, err := s.creds.GenerateAccessToken(domain.ClaimsFor(user))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.creds.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &ports.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.creds.AccessTTL().Seconds()),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
