// Package memory implements in-memory repositories for development and testing.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gdugdh24/matchmaker-backend/internal/domain"
	"github.com/gdugdh24/matchmaker-backend/internal/repository"
)

type pairKey struct {
	actor     string
	candidate string
}

// DB implements the profile, preference and swipe stores.
type DB struct {
	mu          sync.Mutex
	profiles    map[string]*domain.Profile
	preferences map[string]*domain.Preference
	swipes      map[pairKey]*domain.Swipe

	now func() time.Time
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		profiles:    make(map[string]*domain.Profile),
		preferences: make(map[string]*domain.Preference),
		swipes:      make(map[pairKey]*domain.Swipe),
		now:         time.Now,
	}
}

// Ensure interfaces are met.
var _ repository.ProfileRepository = (*DB)(nil)
var _ repository.PreferenceRepository = (*DB)(nil)
var _ repository.SwipeRepository = (*DB)(nil)

// --- ProfileRepository ---

func (db *DB) FindByID(ctx context.Context, id string) (*domain.Profile, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.profiles[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return copyProfile(p), nil
}

func (db *DB) FindMany(ctx context.Context, filter repository.ProfileFilter) ([]*domain.Profile, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	include := toSet(filter.IDs)
	exclude := toSet(filter.ExcludeIDs)
	genders := toSet(filter.Genders)

	var out []*domain.Profile
	for id, p := range db.profiles {
		if filter.IDs != nil {
			if _, ok := include[id]; !ok {
				continue
			}
		}
		if _, ok := exclude[id]; ok {
			continue
		}
		if len(genders) > 0 {
			if _, ok := genders[p.Gender]; !ok {
				continue
			}
		}
		if filter.BornAfter != nil || filter.BornBefore != nil {
			if p.BirthDate == nil {
				continue
			}
			if filter.BornAfter != nil && !p.BirthDate.After(*filter.BornAfter) {
				continue
			}
			if filter.BornBefore != nil && p.BirthDate.After(*filter.BornBefore) {
				continue
			}
		}
		if filter.Within != nil && (!p.HasLocation() || !filter.Within.Contains(*p.Location)) {
			continue
		}
		out = append(out, copyProfile(p))
	}

	// Map iteration is random; keep results reproducible.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (db *DB) Save(ctx context.Context, profile *domain.Profile) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	now := db.now().UTC()
	if existing, ok := db.profiles[profile.ID]; ok {
		profile.CreatedAt = existing.CreatedAt
	} else if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	db.profiles[profile.ID] = copyProfile(profile)
	return nil
}

func (db *DB) TouchLastActive(ctx context.Context, id string, at time.Time) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.profiles[id]
	if !ok {
		return domain.ErrProfileNotFound
	}
	p.LastActiveAt = at.UTC()
	return nil
}

// --- PreferenceRepository ---

func (db *DB) FindByUser(ctx context.Context, userID string) (*domain.Preference, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.preferences[userID]
	if !ok {
		return nil, domain.ErrPreferenceNotFound
	}
	return copyPreference(p), nil
}

func (db *DB) CreateDefault(ctx context.Context, userID string) (*domain.Preference, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if p, ok := db.preferences[userID]; ok {
		return copyPreference(p), nil
	}
	p := domain.DefaultPreference(userID)
	p.CreatedAt = db.now().UTC()
	p.UpdatedAt = p.CreatedAt
	db.preferences[userID] = p
	return copyPreference(p), nil
}

func (db *DB) Update(ctx context.Context, pref *domain.Preference) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	existing, ok := db.preferences[pref.UserID]
	if !ok {
		return domain.ErrPreferenceNotFound
	}
	pref.CreatedAt = existing.CreatedAt
	pref.UpdatedAt = db.now().UTC()
	db.preferences[pref.UserID] = copyPreference(pref)
	return nil
}

// --- SwipeRepository ---

func (db *DB) Upsert(ctx context.Context, actorID, candidateID string, action domain.Direction) (*domain.Swipe, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	now := db.now().UTC()
	key := pairKey{actorID, candidateID}
	s, ok := db.swipes[key]
	if !ok {
		s = &domain.Swipe{ActorID: actorID, CandidateID: candidateID, CreatedAt: now}
		db.swipes[key] = s
	}
	s.Action = action
	s.UpdatedAt = now
	cp := *s
	return &cp, nil
}

func (db *DB) Get(ctx context.Context, actorID, candidateID string) (*domain.Swipe, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	s, ok := db.swipes[pairKey{actorID, candidateID}]
	if !ok {
		return nil, domain.ErrSwipeNotFound
	}
	cp := *s
	return &cp, nil
}

// MarkMutual runs two independent single-row updates, releasing the lock in
// between, the same way the SQL store issues two statements.
func (db *DB) MarkMutual(ctx context.Context, actorID, candidateID string) (domain.MutualResult, error) {
	var res domain.MutualResult

	matched, flipped := db.markOwn(actorID, candidateID)
	if !matched {
		return res, nil
	}
	res.Matched = true
	res.OwnFlipped = flipped

	found, flipped := db.markReciprocal(candidateID, actorID)
	if !found {
		return res, domain.ErrAsymmetricMutual
	}
	res.ReciprocalFlipped = flipped
	return res, nil
}

func (db *DB) markOwn(actorID, candidateID string) (matched, flipped bool) {
	db.mu.Lock()
	defer db.mu.Unlock()

	own, ok := db.swipes[pairKey{actorID, candidateID}]
	if !ok || own.Action != domain.DirectionRight {
		return false, false
	}
	rec, ok := db.swipes[pairKey{candidateID, actorID}]
	if !ok || rec.Action != domain.DirectionRight {
		return false, false
	}
	flipped = !own.Mutual
	own.Mutual = true
	if flipped {
		own.UpdatedAt = db.now().UTC()
	}
	return true, flipped
}

func (db *DB) markReciprocal(actorID, candidateID string) (found, flipped bool) {
	db.mu.Lock()
	defer db.mu.Unlock()

	s, ok := db.swipes[pairKey{actorID, candidateID}]
	if !ok {
		return false, false
	}
	if s.Mutual {
		return true, false
	}
	s.Mutual = true
	s.UpdatedAt = db.now().UTC()
	return true, true
}

func (db *DB) SetAction(ctx context.Context, actorID, candidateID string, action domain.Direction) (*domain.Swipe, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	s, ok := db.swipes[pairKey{actorID, candidateID}]
	if !ok {
		return nil, domain.ErrSwipeNotFound
	}
	s.Action = action
	s.UpdatedAt = db.now().UTC()
	cp := *s
	return &cp, nil
}

func (db *DB) ClearMutual(ctx context.Context, actorID, candidateID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if s, ok := db.swipes[pairKey{actorID, candidateID}]; ok && s.Mutual {
		s.Mutual = false
		s.UpdatedAt = db.now().UTC()
	}
	return nil
}

func (db *DB) IsMutual(ctx context.Context, actorID, candidateID string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	s, ok := db.swipes[pairKey{actorID, candidateID}]
	return ok && s.Mutual, nil
}

func (db *DB) ListCandidateIDs(ctx context.Context, actorID string, action *domain.Direction) ([]string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var ids []string
	for k, s := range db.swipes {
		if k.actor != actorID {
			continue
		}
		if action != nil && s.Action != *action {
			continue
		}
		ids = append(ids, k.candidate)
	}
	sort.Strings(ids)
	return ids, nil
}

func (db *DB) ListIncomingLikes(ctx context.Context, candidateID string, limit, offset int) ([]*domain.Swipe, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []*domain.Swipe
	for k, s := range db.swipes {
		if k.candidate != candidateID || s.Action != domain.DirectionRight {
			continue
		}
		if _, answered := db.swipes[pairKey{candidateID, k.actor}]; answered {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ActorID < out[j].ActorID
	})
	return page(out, limit, offset), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func copyProfile(p *domain.Profile) *domain.Profile {
	cp := *p
	if p.Interests != nil {
		cp.Interests = append([]string(nil), p.Interests...)
	}
	if p.Location != nil {
		loc := *p.Location
		cp.Location = &loc
	}
	if p.BirthDate != nil {
		bd := *p.BirthDate
		cp.BirthDate = &bd
	}
	if p.AvatarURL != nil {
		u := *p.AvatarURL
		cp.AvatarURL = &u
	}
	return &cp
}

func copyPreference(p *domain.Preference) *domain.Preference {
	cp := *p
	cp.GenderPreference = append([]string(nil), p.GenderPreference...)
	if p.InterestWeights != nil {
		cp.InterestWeights = make(map[string]float64, len(p.InterestWeights))
		for k, v := range p.InterestWeights {
			cp.InterestWeights[k] = v
		}
	}
	return &cp
}
