package repository

import (
	"context"
	"time"

	"github.com/gdugdh24/matchmaker-backend/internal/domain"
	"github.com/gdugdh24/matchmaker-backend/internal/geo"
)

// ProfileFilter narrows FindMany. Zero values disable the matching clause.
type ProfileFilter struct {
	IDs        []string
	ExcludeIDs []string
	Genders    []string
	// BornAfter and BornBefore bound birth_date (exclusive, inclusive).
	BornAfter  *time.Time
	BornBefore *time.Time
	// Within keeps only profiles whose location lies inside the box.
	Within *geo.Box
	Limit  int
}

type ProfileRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Profile, error)
	FindMany(ctx context.Context, filter ProfileFilter) ([]*domain.Profile, error)
	Save(ctx context.Context, profile *domain.Profile) error
	TouchLastActive(ctx context.Context, id string, at time.Time) error
}
