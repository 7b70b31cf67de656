package matching

import (
	"math"
	"sort"
	"time"

	"github.com/gdugdh24/matchmaker-backend/internal/domain"
	"github.com/gdugdh24/matchmaker-backend/internal/geo"
)

// Weights of the composite score.
const (
	WeightInterest     = 0.45
	WeightPreference   = 0.25
	WeightActivity     = 0.20
	WeightCompleteness = 0.10

	weightAgeFit      = 0.4
	weightDistanceFit = 0.4
	weightGenderFit   = 0.2
)

// ActivityWindow is the period over which the activity score decays to zero.
const ActivityWindow = 7 * 24 * time.Hour

// CompletenessBonus replaces the completeness fraction of a profile that
// passes every check. It lets a fully built profile outrank an otherwise
// equal one, so the composite may exceed 1.
const CompletenessBonus = 1.2

const completenessChecks = 5

// Breakdown exposes every sub-score of a candidate.
type Breakdown struct {
	Interest     float64  `json:"interest"`
	Preference   float64  `json:"preference"`
	AgeFit       float64  `json:"age_fit"`
	DistanceFit  float64  `json:"distance_fit"`
	GenderFit    float64  `json:"gender_fit"`
	Activity     float64  `json:"activity"`
	Completeness float64  `json:"completeness"`
	DistanceKm   *float64 `json:"distance_km,omitempty"`
}

type ScoredCandidate struct {
	Profile   *domain.Profile
	Score     float64
	Breakdown Breakdown
}

// Scorer computes composite compatibility scores. It holds no state besides
// its clock and is safe for concurrent use.
type Scorer struct {
	now func() time.Time
}

func NewScorer(now func() time.Time) *Scorer {
	if now == nil {
		now = time.Now
	}
	return &Scorer{now: now}
}

// Score evaluates a single candidate for requester.
func (s *Scorer) Score(requester *domain.Profile, pref *domain.Preference, candidate *domain.Profile) ScoredCandidate {
	return score(requester, pref, candidate, s.now())
}

// Rank scores every candidate and returns the best k, highest score first.
// Equal scores are ordered by candidate id.
func (s *Scorer) Rank(requester *domain.Profile, pref *domain.Preference, candidates []*domain.Profile, k int) []ScoredCandidate {
	now := s.now()
	scored := make([]ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c == nil {
			continue
		}
		scored = append(scored, score(requester, pref, c, now))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Profile.ID < scored[j].Profile.ID
	})

	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

func score(requester *domain.Profile, pref *domain.Preference, candidate *domain.Profile, now time.Time) ScoredCandidate {
	var b Breakdown

	b.Interest = InterestScore(requester.Interests, candidate.Interests)

	if age, ok := requester.Age(now); ok {
		b.AgeFit = AgeFit(age, pref.MinAge, pref.MaxAge)
	}
	if requester.HasLocation() && candidate.HasLocation() {
		d := geo.Distance(*requester.Location, *candidate.Location)
		b.DistanceKm = &d
		b.DistanceFit = DistanceFit(d, pref.MaxDistanceKm)
	}
	if pref.AcceptsGender(candidate.Gender) {
		b.GenderFit = 1
	}
	b.Preference = finite(weightAgeFit*b.AgeFit + weightDistanceFit*b.DistanceFit + weightGenderFit*b.GenderFit)

	b.Activity = ActivityScore(candidate.LastActiveAt, now)

	fraction, complete := Completeness(candidate)
	b.Completeness = fraction
	if complete {
		b.Completeness = CompletenessBonus
	}

	total := WeightInterest*b.Interest +
		WeightPreference*b.Preference +
		WeightActivity*b.Activity +
		WeightCompleteness*b.Completeness

	return ScoredCandidate{Profile: candidate, Score: finite(total), Breakdown: b}
}

// InterestScore is the Jaccard similarity of two interest sets.
func InterestScore(a, b []string) float64 {
	setA := make(map[string]struct{}, len(a))
	for _, id := range a {
		setA[id] = struct{}{}
	}
	union := len(setA)
	common := 0
	seen := make(map[string]struct{}, len(b))
	for _, id := range b {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := setA[id]; ok {
			common++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(common) / float64(union)
}

// AgeFit rewards ages close to the middle of [minAge, maxAge].
func AgeFit(age, minAge, maxAge int) float64 {
	halfRange := float64(maxAge-minAge) / 2
	if halfRange <= 0 {
		return 0
	}
	mid := float64(minAge+maxAge) / 2
	return clamp01(1 - math.Abs(float64(age)-mid)/halfRange)
}

// DistanceFit decays linearly from 1 at zero distance to 0 at maxDistanceKm.
func DistanceFit(distanceKm, maxDistanceKm float64) float64 {
	if maxDistanceKm <= 0 || math.IsNaN(distanceKm) {
		return 0
	}
	return clamp01(1 - distanceKm/maxDistanceKm)
}

// ActivityScore decays linearly over ActivityWindow since lastActive.
func ActivityScore(lastActive, now time.Time) float64 {
	if lastActive.IsZero() {
		return 0
	}
	elapsed := now.Sub(lastActive).Seconds()
	return clamp01(1 - elapsed/ActivityWindow.Seconds())
}

// Completeness returns the fraction of satisfied profile checks and whether
// all of them pass.
func Completeness(p *domain.Profile) (float64, bool) {
	passed := 0
	if p.HasAvatar() {
		passed++
	}
	if p.HasBio() {
		passed++
	}
	if len(p.Interests) > 0 {
		passed++
	}
	if p.HasLocation() {
		passed++
	}
	if p.IsEmailVerified {
		passed++
	}
	return float64(passed) / completenessChecks, passed == completenessChecks
}

func clamp01(x float64) float64 {
	switch {
	case math.IsNaN(x), x < 0:
		return 0
	case x > 1:
		return 1
	}
	return x
}

func finite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}
