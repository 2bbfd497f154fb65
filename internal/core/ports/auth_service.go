package ports

import (
	"context"

	"github.com/realtyhub/marketplace-api/internal/core/domain"
)

// TokenPair is returned by login, registration and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// RegisterInput carries an already validated registration.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Role      domain.Role
}

// AuthService implements the account use cases behind the auth endpoints.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, *TokenPair, error)
	Login(ctx context.Context, email, password string) (*domain.User, *TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.User, *TokenPair, error)
	ChangePassword(ctx context.Context, userID, current, next string) error
	DeleteAccount(ctx context.Context, userID, password string) error
}
