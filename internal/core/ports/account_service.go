package ports

import (
	"context"

	"github.com/realtyhub/marketplace-api/internal/core/domain"
)

// AccountService covers self-service profile, preference and privacy
// operations plus the admin controls over tier and verification.
type AccountService interface {
	UpdateProfile(ctx context.Context, userID string, profile domain.Profile) (*domain.User, error)
	UpdatePreferences(ctx context.Context, userID string, prefs domain.Preferences) (*domain.User, error)
	Export(ctx context.Context, userID string) (*domain.AccountExport, error)
	SetTier(ctx context.Context, userID string, tier domain.Tier) (*domain.User, error)
	SetVerified(ctx context.Context, userID string, verified bool) (*domain.User, error)
	List(ctx context.Context, page, limit int) ([]*domain.User, int64, error)
}
