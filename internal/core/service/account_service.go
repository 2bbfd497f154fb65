package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/realtyhub/marketplace-api/internal/core/domain"
	"github.com/realtyhub/marketplace-api/internal/core/ports"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type accountService struct {
	repo ports.UserRepository
	log  zerolog.Logger
	now  func() time.Time
}

func NewAccountService(repo ports.UserRepository, log zerolog.Logger) ports.AccountService {
	return &accountService{repo: repo, log: log, now: time.Now}
}

func (s *accountService) UpdateProfile(ctx context.Context, userID string, profile domain.Profile) (*domain.User, error) {
	user, err := s.repo.UpdateProfile(ctx, userID, profile)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

func (s *accountService) UpdatePreferences(ctx context.Context, userID string, prefs domain.Preferences) (*domain.User, error) {
	user, err := s.repo.UpdatePreferences(ctx, userID, prefs)
	if err != nil {
		return nil, fmt.Errorf("update preferences: %w", err)
	}
	return user, nil
}

// Export returns everything stored about the principal except the password
// hash, which domain.User never serialises.
func (s *accountService) Export(ctx context.Context, userID string) (*domain.AccountExport, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", userID).Msg("account data exported")
	return &domain.AccountExport{User: user, ExportedAt: s.now().UTC()}, nil
}

func (s *accountService) SetTier(ctx context.Context, userID string, tier domain.Tier) (*domain.User, error) {
	if !tier.Valid() {
		return nil, domain.NewValidationError("tier: must be one of: BRONZE, SILVER, GOLD, PLATINUM")
	}
	user, err := s.repo.UpdateTier(ctx, userID, tier)
	if err != nil {
		return nil, fmt.Errorf("set tier: %w", err)
	}
	s.log.Info().Str("user_id", userID).Str("tier", string(tier)).Msg("tier changed")
	return user, nil
}

func (s *accountService) SetVerified(ctx context.Context, userID string, verified bool) (*domain.User, error) {
	user, err := s.repo.UpdateVerified(ctx, userID, verified)
	if err != nil {
		return nil, fmt.Errorf("set verification: %w", err)
	}
	s.log.Info().Str("user_id", userID).Bool("verified", verified).Msg("verification changed")
	return user, nil
}

// List clamps page to >= 1 and limit to [1, MaxPageSize].
func (s *accountService) List(ctx context.Context, page, limit int) ([]*domain.User, int64, error) {
	if page < 1 {
		page = 1
	}
	switch {
	case limit <= 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}
	return s.repo.List(ctx, page, limit)
}
