package matching

import (
	"math"
	"testing"
	"time"

	"github.com/gdugdh24/matchmaker-backend/internal/domain"
	"github.com/gdugdh24/matchmaker-backend/internal/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func strPtr(s string) *string { return &s }

func TestInterestScore(t *testing.T) {
	assert.InDelta(t, 1.0/3.0, InterestScore([]string{"a", "b"}, []string{"b", "c"}), 1e-9)
	assert.InDelta(t, 1.0, InterestScore([]string{"a"}, []string{"a", "a"}), 1e-9)
	assert.InDelta(t, 0.5, InterestScore([]string{"a", "a", "b"}, []string{"b"}), 1e-9)
	assert.Equal(t, 0.0, InterestScore(nil, nil))
	assert.Equal(t, 0.0, InterestScore([]string{"a"}, []string{"b"}))
}

func TestAgeFit(t *testing.T) {
	assert.InDelta(t, 1.0, AgeFit(30, 25, 35), 1e-9)
	assert.InDelta(t, 0.6, AgeFit(28, 25, 35), 1e-9)
	assert.Equal(t, 0.0, AgeFit(25, 25, 35))
	assert.Equal(t, 0.0, AgeFit(50, 25, 35))
	assert.Equal(t, 0.0, AgeFit(30, 30, 30))
	assert.Equal(t, 0.0, AgeFit(30, 40, 20))
}

func TestDistanceFit(t *testing.T) {
	assert.Equal(t, 1.0, DistanceFit(0, 50))
	assert.InDelta(t, 0.5, DistanceFit(25, 50), 1e-9)
	assert.Equal(t, 0.0, DistanceFit(80, 50))
	assert.Equal(t, 0.0, DistanceFit(10, 0))
	assert.Equal(t, 0.0, DistanceFit(math.NaN(), 50))
}

func TestActivityScore(t *testing.T) {
	assert.Equal(t, 1.0, ActivityScore(fixedNow, fixedNow))
	assert.InDelta(t, 0.5, ActivityScore(fixedNow.Add(-ActivityWindow/2), fixedNow), 1e-9)
	assert.Equal(t, 0.0, ActivityScore(fixedNow.Add(-2*ActivityWindow), fixedNow))
	assert.Equal(t, 0.0, ActivityScore(time.Time{}, fixedNow))
	// A clock skewed into the future never yields more than 1.
	assert.Equal(t, 1.0, ActivityScore(fixedNow.Add(time.Hour), fixedNow))
}

func TestCompleteness(t *testing.T) {
	p := &domain.Profile{}
	frac, full := Completeness(p)
	assert.Equal(t, 0.0, frac)
	assert.False(t, full)

	p = &domain.Profile{
		AvatarURL:       strPtr("https://cdn.example.com/a.png"),
		ShortBio:        "hello",
		Interests:       []string{"music"},
		Location:        &domain.GeoPoint{Latitude: 1, Longitude: 1},
		IsEmailVerified: true,
	}
	frac, full = Completeness(p)
	assert.Equal(t, 1.0, frac)
	assert.True(t, full)

	s := NewScorer(func() time.Time { return fixedNow })
	got := s.Score(&domain.Profile{}, domain.DefaultPreference("r"), p)
	assert.Equal(t, CompletenessBonus, got.Breakdown.Completeness)
}

func TestScore_Composite(t *testing.T) {
	requester := &domain.Profile{
		ID:        "r",
		Interests: []string{"a", "b"},
		BirthDate: date(1998, time.January, 1),
		Location:  &domain.GeoPoint{Latitude: 52.52, Longitude: 13.405},
	}
	pref := &domain.Preference{GenderPreference: []string{domain.GenderFemale}, MinAge: 25, MaxAge: 35, MaxDistanceKm: 50}
	candidate := &domain.Profile{
		ID:           "c",
		Gender:       domain.GenderFemale,
		Interests:    []string{"b", "c"},
		Location:     &domain.GeoPoint{Latitude: 52.52, Longitude: 13.405},
		LastActiveAt: fixedNow,
	}

	s := NewScorer(func() time.Time { return fixedNow })
	got := s.Score(requester, pref, candidate)

	assert.InDelta(t, 1.0/3.0, got.Breakdown.Interest, 1e-9)
	assert.InDelta(t, 0.6, got.Breakdown.AgeFit, 1e-9)
	assert.InDelta(t, 1.0, got.Breakdown.DistanceFit, 1e-9)
	assert.Equal(t, 1.0, got.Breakdown.GenderFit)
	assert.InDelta(t, 0.84, got.Breakdown.Preference, 1e-9)
	assert.Equal(t, 1.0, got.Breakdown.Activity)
	assert.InDelta(t, 0.4, got.Breakdown.Completeness, 1e-9)
	require.NotNil(t, got.Breakdown.DistanceKm)
	assert.InDelta(t, 0, *got.Breakdown.DistanceKm, 1e-9)

	// 0.45/3 + 0.25*0.84 + 0.20*1 + 0.10*0.4
	assert.InDelta(t, 0.60, got.Score, 1e-9)
}

func TestScore_CompleteCandidateTenKilometresAway(t *testing.T) {
	requester := &domain.Profile{
		ID:        "r",
		Interests: []string{"hiking", "music"},
		BirthDate: date(1998, time.January, 1),
		Location:  &domain.GeoPoint{Latitude: 14.6, Longitude: 121.0},
	}
	pref := &domain.Preference{GenderPreference: []string{domain.GenderFemale}, MinAge: 25, MaxAge: 35, MaxDistanceKm: 50}
	// 10 km due north along the meridian.
	north := 10 / geo.EarthRadiusKm * 180 / math.Pi
	candidate := &domain.Profile{
		ID:              "c",
		Gender:          domain.GenderFemale,
		AvatarURL:       strPtr("https://cdn.example.com/c.png"),
		ShortBio:        "coffee first",
		Interests:       []string{"music", "travel"},
		Location:        &domain.GeoPoint{Latitude: 14.6 + north, Longitude: 121.0},
		IsEmailVerified: true,
		LastActiveAt:    fixedNow,
	}

	s := NewScorer(func() time.Time { return fixedNow })
	got := s.Score(requester, pref, candidate)
	b := got.Breakdown

	require.NotNil(t, b.DistanceKm)
	assert.InDelta(t, 10, *b.DistanceKm, 0.01)
	assert.InDelta(t, 0.8, b.DistanceFit, 1e-3)
	assert.InDelta(t, 0.6, b.AgeFit, 1e-9)
	assert.Equal(t, 1.0, b.GenderFit)
	assert.InDelta(t, 0.76, b.Preference, 1e-3)
	assert.InDelta(t, 1.0/3.0, b.Interest, 1e-9)
	assert.Equal(t, 1.0, b.Activity)
	assert.Equal(t, CompletenessBonus, b.Completeness)

	want := WeightInterest*b.Interest +
		WeightPreference*b.Preference +
		WeightActivity*b.Activity +
		WeightCompleteness*b.Completeness
	assert.InDelta(t, want, got.Score, 1e-9)
	// 0.45/3 + 0.25*0.76 + 0.20*1 + 0.10*1.2
	assert.InDelta(t, 0.66, got.Score, 1e-3)
}

func TestScore_MissingDataScoresZero(t *testing.T) {
	s := NewScorer(func() time.Time { return fixedNow })
	got := s.Score(&domain.Profile{ID: "r"}, &domain.Preference{}, &domain.Profile{ID: "c"})

	assert.Equal(t, 0.0, got.Score)
	assert.Nil(t, got.Breakdown.DistanceKm)
	assert.False(t, math.IsNaN(got.Score))
}

func TestScore_Bounds(t *testing.T) {
	s := NewScorer(func() time.Time { return fixedNow })
	requester := &domain.Profile{
		ID:        "r",
		Interests: []string{"x"},
		BirthDate: date(1996, time.June, 1),
		Location:  &domain.GeoPoint{Latitude: 10, Longitude: 10},
	}
	pref := &domain.Preference{GenderPreference: domain.Genders, MinAge: 20, MaxAge: 40, MaxDistanceKm: 100}
	best := &domain.Profile{
		ID:              "c",
		Gender:          domain.GenderOther,
		AvatarURL:       strPtr("https://cdn.example.com/c.png"),
		ShortBio:        "bio",
		Interests:       []string{"x"},
		Location:        &domain.GeoPoint{Latitude: 10, Longitude: 10},
		IsEmailVerified: true,
		LastActiveAt:    fixedNow,
	}

	got := s.Score(requester, pref, best)
	assert.InDelta(t, 1.02, got.Score, 1e-9)
	assert.LessOrEqual(t, got.Score, 1.2)
	assert.GreaterOrEqual(t, got.Score, 0.0)

	again := s.Score(requester, pref, best)
	assert.Equal(t, got.Score, again.Score)
}

func TestRank_OrderAndTies(t *testing.T) {
	s := NewScorer(func() time.Time { return fixedNow })
	requester := &domain.Profile{ID: "r", Interests: []string{"a"}}
	pref := domain.DefaultPreference("r")

	candidates := []*domain.Profile{
		{ID: "c3", Interests: []string{"b"}},
		{ID: "c2", Interests: []string{"a"}},
		nil,
		{ID: "c1", Interests: []string{"b"}},
		{ID: "c0", Interests: []string{"a"}},
	}

	ranked := s.Rank(requester, pref, candidates, 0)
	require.Len(t, ranked, 4)
	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.Profile.ID
	}
	assert.Equal(t, []string{"c0", "c2", "c1", "c3"}, ids)

	top := s.Rank(requester, pref, candidates, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "c0", top[0].Profile.ID)
	assert.Equal(t, "c2", top[1].Profile.ID)
}
