package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/gdugdh24/matchmaker-backend/internal/domain"
	"github.com/gdugdh24/matchmaker-backend/internal/geo"
	"github.com/gdugdh24/matchmaker-backend/internal/repository"
)

type Mode string

const (
	// ModeFresh discovers candidates the requester has not evaluated yet.
	ModeFresh Mode = "fresh"
	// ModeLiked re-ranks candidates the requester currently likes.
	ModeLiked Mode = "liked"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeFresh, nil
	case ModeFresh, ModeLiked:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidOperation, s)
}

// The store pre-filter uses a bounding box, so some rows it returns fail the
// exact distance check. Fetch more than the cap to keep the pool full.
const overfetchFactor = 2

// Discovery selects the candidate pool handed to the scorer. It only reads.
type Discovery struct {
	profiles repository.ProfileRepository
	swipes   repository.SwipeRepository
	cap      int
	now      func() time.Time
}

func NewDiscovery(profiles repository.ProfileRepository, swipes repository.SwipeRepository, candidateCap int, now func() time.Time) *Discovery {
	if now == nil {
		now = time.Now
	}
	return &Discovery{profiles: profiles, swipes: swipes, cap: candidateCap, now: now}
}

// Discover returns up to the configured cap of eligible candidates for requester.
func (d *Discovery) Discover(ctx context.Context, requester *domain.Profile, pref *domain.Preference, mode Mode) ([]*domain.Profile, error) {
	if pref == nil {
		return nil, domain.ErrPreferenceNotFound
	}
	if !requester.HasLocation() {
		return nil, domain.ErrLocationNotSet
	}

	switch mode {
	case ModeLiked:
		return d.liked(ctx, requester)
	default:
		return d.fresh(ctx, requester, pref)
	}
}

func (d *Discovery) liked(ctx context.Context, requester *domain.Profile) ([]*domain.Profile, error) {
	right := domain.DirectionRight
	ids, err := d.swipes.ListCandidateIDs(ctx, requester.ID, &right)
	if err != nil {
		return nil, fmt.Errorf("failed to list liked candidates: %w", err)
	}

	filtered := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != requester.ID {
			filtered = append(filtered, id)
		}
	}
	if len(filtered) == 0 {
		return nil, nil
	}

	candidates, err := d.profiles.FindMany(ctx, repository.ProfileFilter{IDs: filtered, Limit: d.cap})
	if err != nil {
		return nil, fmt.Errorf("failed to load liked candidates: %w", err)
	}
	return candidates, nil
}

func (d *Discovery) fresh(ctx context.Context, requester *domain.Profile, pref *domain.Preference) ([]*domain.Profile, error) {
	if len(pref.GenderPreference) == 0 || pref.MinAge > pref.MaxAge || pref.MaxDistanceKm < 0 {
		return nil, nil
	}

	evaluated, err := d.swipes.ListCandidateIDs(ctx, requester.ID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluated candidates: %w", err)
	}
	exclude := append([]string{requester.ID}, evaluated...)

	now := d.now()
	bornAfter := now.AddDate(-(pref.MaxAge + 1), 0, 0)
	bornBefore := now.AddDate(-pref.MinAge, 0, 0)
	box := geo.BoundingBox(*requester.Location, pref.MaxDistanceKm)

	filter := repository.ProfileFilter{
		ExcludeIDs: exclude,
		Genders:    pref.GenderPreference,
		BornAfter:  &bornAfter,
		BornBefore: &bornBefore,
		Within:     &box,
	}
	if d.cap > 0 {
		filter.Limit = d.cap * overfetchFactor
	}

	pool, err := d.profiles.FindMany(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search candidates: %w", err)
	}

	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}

	candidates := make([]*domain.Profile, 0, len(pool))
	for _, c := range pool {
		if d.cap > 0 && len(candidates) >= d.cap {
			break
		}
		if _, ok := skip[c.ID]; ok {
			continue
		}
		if !pref.AcceptsGender(c.Gender) {
			continue
		}
		age, ok := c.Age(now)
		if !ok || !pref.AcceptsAge(age) {
			continue
		}
		if !c.HasLocation() || geo.Distance(*requester.Location, *c.Location) > pref.MaxDistanceKm {
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}
