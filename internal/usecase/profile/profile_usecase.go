package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdugdh24/matchmaker-backend/internal/domain"
	"github.com/gdugdh24/matchmaker-backend/internal/repository"
)

// CacheInvalidator drops cached ranked lists of a user whose profile or
// preferences changed.
type CacheInvalidator interface {
	InvalidateUser(ctx context.Context, userID string)
}

type ProfileUseCase struct {
	profileRepo repository.ProfileRepository
	prefRepo    repository.PreferenceRepository
	cache       CacheInvalidator
}

// NewProfileUseCase creates the profile use case. cache may be nil.
func NewProfileUseCase(
	profileRepo repository.ProfileRepository,
	prefRepo repository.PreferenceRepository,
	cache CacheInvalidator,
) *ProfileUseCase {
	return &ProfileUseCase{
		profileRepo: profileRepo,
		prefRepo:    prefRepo,
		cache:       cache,
	}
}

// LocationInput is a coordinate pair as sent by clients.
type LocationInput struct {
	Latitude  float64 `json:"latitude" binding:"latitude"`
	Longitude float64 `json:"longitude" binding:"longitude"`
}

// UpdateProfileRequest represents profile update request
type UpdateProfileRequest struct {
	Name              *string        `json:"name" binding:"omitempty,min=2,max=100"`
	ShortBio          *string        `json:"short_bio" binding:"omitempty,max=500"`
	Gender            *string        `json:"gender" binding:"omitempty,oneof=male female other"`
	SexualOrientation *string        `json:"sexual_orientation" binding:"omitempty,max=50"`
	AvatarURL         *string        `json:"avatar_url" binding:"omitempty,url"`
	Interests         *[]string      `json:"interests" binding:"omitempty,max=20,dive,min=1,max=50"`
	BirthDate         *string        `json:"birth_date" binding:"omitempty,datetime=2006-01-02"`
	Location          *LocationInput `json:"location"`
}

// UpdatePreferencesRequest represents preferences update request
type UpdatePreferencesRequest struct {
	GenderPreference *[]string          `json:"gender_preference" binding:"omitempty,min=1,dive,oneof=male female other"`
	MinAge           *int               `json:"min_age" binding:"omitempty,min=18,max=100"`
	MaxAge           *int               `json:"max_age" binding:"omitempty,min=18,max=100"`
	MaxDistanceKm    *float64           `json:"max_distance_km" binding:"omitempty,gt=0,max=20000"`
	InterestWeights  map[string]float64 `json:"interest_weights"`
}

// GetMyProfile returns current user's profile
func (uc *ProfileUseCase) GetMyProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	return uc.profileRepo.FindByID(ctx, userID)
}

// UpdateProfile applies the non-nil fields of req. A missing profile is
// created, so the first PUT doubles as onboarding.
func (uc *ProfileUseCase) UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest) (*domain.Profile, error) {
	profile, err := uc.profileRepo.FindByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrProfileNotFound) {
			return nil, err
		}
		profile = &domain.Profile{ID: userID, Gender: domain.GenderOther, SexualOrientation: domain.GenderOther}
	}

	if req.Name != nil {
		profile.Name = *req.Name
	}
	if req.ShortBio != nil {
		profile.ShortBio = *req.ShortBio
	}
	if req.Gender != nil {
		profile.Gender = *req.Gender
	}
	if req.SexualOrientation != nil {
		profile.SexualOrientation = *req.SexualOrientation
	}
	if req.AvatarURL != nil {
		profile.AvatarURL = req.AvatarURL
	}
	if req.Interests != nil {
		profile.Interests = *req.Interests
	}
	if req.BirthDate != nil {
		birth, err := time.Parse("2006-01-02", *req.BirthDate)
		if err != nil {
			return nil, fmt.Errorf("%w: birth_date", domain.ErrInvalidInput)
		}
		profile.BirthDate = &birth
	}
	if req.Location != nil {
		loc := domain.GeoPoint{Latitude: req.Location.Latitude, Longitude: req.Location.Longitude}
		if !loc.Valid() {
			return nil, domain.ErrInvalidCoordinates
		}
		profile.Location = &loc
	}
	profile.LastActiveAt = time.Now().UTC()

	if err := uc.profileRepo.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	uc.invalidate(ctx, userID)
	return profile, nil
}

// GetPreferences returns the preferences of userID, creating the defaults on
// first access.
func (uc *ProfileUseCase) GetPreferences(ctx context.Context, userID string) (*domain.Preference, error) {
	pref, err := uc.prefRepo.FindByUser(ctx, userID)
	if err == nil {
		return pref, nil
	}
	if !errors.Is(err, domain.ErrPreferenceNotFound) {
		return nil, err
	}
	pref, err = uc.prefRepo.CreateDefault(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to create default preferences: %w", err)
	}
	return pref, nil
}

// UpdatePreferences applies the non-nil fields of req.
func (uc *ProfileUseCase) UpdatePreferences(ctx context.Context, userID string, req *UpdatePreferencesRequest) (*domain.Preference, error) {
	pref, err := uc.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.GenderPreference != nil {
		pref.GenderPreference = *req.GenderPreference
	}
	if req.MinAge != nil {
		pref.MinAge = *req.MinAge
	}
	if req.MaxAge != nil {
		pref.MaxAge = *req.MaxAge
	}
	if req.MaxDistanceKm != nil {
		pref.MaxDistanceKm = *req.MaxDistanceKm
	}
	if req.InterestWeights != nil {
		pref.InterestWeights = req.InterestWeights
	}
	if pref.MinAge > pref.MaxAge {
		return nil, fmt.Errorf("%w: min_age is greater than max_age", domain.ErrInvalidInput)
	}

	if err := uc.prefRepo.Update(ctx, pref); err != nil {
		return nil, fmt.Errorf("failed to update preferences: %w", err)
	}
	uc.invalidate(ctx, userID)
	return pref, nil
}

// TouchLastActive records activity of userID.
func (uc *ProfileUseCase) TouchLastActive(ctx context.Context, userID string) error {
	return uc.profileRepo.TouchLastActive(ctx, userID, time.Now().UTC())
}

func (uc *ProfileUseCase) invalidate(ctx context.Context, userID string) {
	if uc.cache != nil {
		uc.cache.InvalidateUser(ctx, userID)
	}
}
