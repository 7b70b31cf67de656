package domain

import (
	"math"
	"strings"
	"time"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// Genders lists every gender value a profile may carry.
var Genders = []string{GenderMale, GenderFemale, GenderOther}

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
	Longitude float64 `json:"longitude" db:"location_lon"`
	Latitude  float64 `json:"latitude" db:"location_lat"`
}

// Valid reports whether both coordinates are finite and inside their ranges.
func (p GeoPoint) Valid() bool {
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) ||
		math.IsInf(p.Latitude, 0) || math.IsInf(p.Longitude, 0) {
		return false
	}
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}

type Profile struct {
	ID                string     `json:"id" db:"id"`
	Name              string     `json:"name" db:"name"`
	ShortBio          string     `json:"short_bio" db:"short_bio"`
	Gender            string     `json:"gender" db:"gender"`
	SexualOrientation string     `json:"sexual_orientation" db:"sexual_orientation"`
	AvatarURL         *string    `json:"avatar_url" db:"avatar_url"`
	Interests         []string   `json:"interests" db:"interests"`
	Location          *GeoPoint  `json:"location" db:"-"`
	BirthDate         *time.Time `json:"birth_date" db:"birth_date"`
	LastActiveAt      time.Time  `json:"last_active_at" db:"last_active_at"`
	PopularityScore   int        `json:"popularity_score" db:"popularity_score"`
	IsEmailVerified   bool       `json:"is_email_verified" db:"is_email_verified"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// Age returns the age in whole years at now, or false when no birth date is stored.
func (p *Profile) Age(now time.Time) (int, bool) {
	if p.BirthDate == nil {
		return 0, false
	}
	return AgeAt(*p.BirthDate, now), true
}

// AgeAt computes full years elapsed between birth and now.
func AgeAt(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

func (p *Profile) HasAvatar() bool {
	return p.AvatarURL != nil && strings.TrimSpace(*p.AvatarURL) != ""
}

func (p *Profile) HasBio() bool {
	return strings.TrimSpace(p.ShortBio) != ""
}

func (p *Profile) HasLocation() bool {
	return p.Location != nil && p.Location.Valid()
}
