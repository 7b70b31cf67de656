package repository

import (
	"context"

	"github.com/gdugdh24/matchmaker-backend/internal/domain"
)

type PreferenceRepository interface {
	FindByUser(ctx context.Context, userID string) (*domain.Preference, error)
	// CreateDefault stores the default preference for userID. It is a no-op
	// returning the stored record when one already exists.
	CreateDefault(ctx context.Context, userID string) (*domain.Preference, error)
	Update(ctx context.Context, pref *domain.Preference) error
}
