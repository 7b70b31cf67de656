package domain

import "time"

const (
	DefaultMinAge        = 18
	DefaultMaxAge        = 60
	DefaultMaxDistanceKm = 50
)

type Preference struct {
	UserID           string             `json:"user_id" db:"user_id"`
	GenderPreference []string           `json:"gender_preference" db:"gender_preference"`
	MinAge           int                `json:"min_age" db:"min_age"`
	MaxAge           int                `json:"max_age" db:"max_age"`
	MaxDistanceKm    float64            `json:"max_distance_km" db:"max_distance_km"`
	InterestWeights  map[string]float64 `json:"interest_weights,omitempty" db:"-"`
	CreatedAt        time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at" db:"updated_at"`
}

// DefaultPreference returns the preference record created at registration.
func DefaultPreference(userID string) *Preference {
	genders := make([]string, len(Genders))
	copy(genders, Genders)
	return &Preference{
		UserID:           userID,
		GenderPreference: genders,
		MinAge:           DefaultMinAge,
		MaxAge:           DefaultMaxAge,
		MaxDistanceKm:    DefaultMaxDistanceKm,
	}
}

func (p *Preference) AcceptsGender(gender string) bool {
	for _, g := range p.GenderPreference {
		if g == gender {
			return true
		}
	}
	return false
}

func (p *Preference) AcceptsAge(age int) bool {
	return age >= p.MinAge && age <= p.MaxAge
}
