package ports

import (
	"context"

	"github.com/realtyhub/marketplace-api/internal/core/domain"
)

// UserRepository is the persistence collaborator that owns principals.
// Lookups return domain.ErrUserNotFound when nothing matches.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	UpdateProfile(ctx context.Context, id string, profile domain.Profile) (*domain.User, error)
	UpdatePreferences(ctx context.Context, id string, prefs domain.Preferences) (*domain.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateTier(ctx context.Context, id string, tier domain.Tier) (*domain.User, error)
	UpdateVerified(ctx context.Context, id string, verified bool) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	// List returns one page of principals ordered by creation time, newest
	// first, together with the total count.
	List(ctx context.Context, page, limit int) ([]*domain.User, int64, error)
}
