package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gdugdh24/matchmaker-backend/internal/domain"
	"github.com/gdugdh24/matchmaker-backend/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) repository.ProfileRepository {
	return &profileRepository{db: db}
}

type profileRow struct {
	ID                string         `db:"id"`
	Name              string         `db:"name"`
	ShortBio          string         `db:"short_bio"`
	Gender            string         `db:"gender"`
	SexualOrientation string         `db:"sexual_orientation"`
	AvatarURL         *string        `db:"avatar_url"`
	Interests         pq.StringArray `db:"interests"`
	LocationLat       *float64       `db:"location_lat"`
	LocationLon       *float64       `db:"location_lon"`
	BirthDate         *time.Time     `db:"birth_date"`
	LastActiveAt      time.Time      `db:"last_active_at"`
	PopularityScore   int            `db:"popularity_score"`
	IsEmailVerified   bool           `db:"is_email_verified"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

const profileColumns = `id, name, short_bio, gender, sexual_orientation, avatar_url, interests,
	location_lat, location_lon, birth_date, last_active_at, popularity_score,
	is_email_verified, created_at, updated_at`

func (r profileRow) toDomain() *domain.Profile {
	p := &domain.Profile{
		ID:                r.ID,
		Name:              r.Name,
		ShortBio:          r.ShortBio,
		Gender:            r.Gender,
		SexualOrientation: r.SexualOrientation,
		AvatarURL:         r.AvatarURL,
		Interests:         []string(r.Interests),
		BirthDate:         r.BirthDate,
		LastActiveAt:      r.LastActiveAt,
		PopularityScore:   r.PopularityScore,
		IsEmailVerified:   r.IsEmailVerified,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	if r.LocationLat != nil && r.LocationLon != nil {
		p.Location = &domain.GeoPoint{Latitude: *r.LocationLat, Longitude: *r.LocationLon}
	}
	return p
}

func (r *profileRepository) FindByID(ctx context.Context, id string) (*domain.Profile, error) {
	var row profileRow
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	err := r.db.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, classify(err)
	}
	return row.toDomain(), nil
}

func (r *profileRepository) FindMany(ctx context.Context, filter repository.ProfileFilter) ([]*domain.Profile, error) {
	if filter.IDs != nil && len(filter.IDs) == 0 {
		return nil, nil
	}

	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.IDs != nil {
		conds = append(conds, "id = ANY("+arg(pq.Array(filter.IDs))+")")
	}
	if len(filter.ExcludeIDs) > 0 {
		conds = append(conds, "NOT (id = ANY("+arg(pq.Array(filter.ExcludeIDs))+"))")
	}
	if len(filter.Genders) > 0 {
		conds = append(conds, "gender = ANY("+arg(pq.Array(filter.Genders))+")")
	}
	if filter.BornAfter != nil {
		conds = append(conds, "birth_date > "+arg(*filter.BornAfter))
	}
	if filter.BornBefore != nil {
		conds = append(conds, "birth_date <= "+arg(*filter.BornBefore))
	}
	if box := filter.Within; box != nil {
		conds = append(conds,
			"location_lat BETWEEN "+arg(box.MinLat)+" AND "+arg(box.MaxLat),
			"location_lon BETWEEN "+arg(box.MinLon)+" AND "+arg(box.MaxLon),
		)
	}

	query := `SELECT ` + profileColumns + ` FROM profiles`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY last_active_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}

	var rows []profileRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, classify(err)
	}

	profiles := make([]*domain.Profile, 0, len(rows))
	for _, row := range rows {
		profiles = append(profiles, row.toDomain())
	}
	return profiles, nil
}

func (r *profileRepository) Save(ctx context.Context, profile *domain.Profile) error {
	var lat, lon *float64
	if profile.Location != nil {
		lat, lon = &profile.Location.Latitude, &profile.Location.Longitude
	}
	interests := profile.Interests
	if interests == nil {
		interests = []string{}
	}
	lastActive := profile.LastActiveAt
	if lastActive.IsZero() {
		lastActive = time.Now().UTC()
	}

	query := `
		INSERT INTO profiles (
			id, name, short_bio, gender, sexual_orientation, avatar_url, interests,
			location_lat, location_lon, birth_date, last_active_at, popularity_score, is_email_verified
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, short_bio = EXCLUDED.short_bio, gender = EXCLUDED.gender,
			sexual_orientation = EXCLUDED.sexual_orientation, avatar_url = EXCLUDED.avatar_url,
			interests = EXCLUDED.interests, location_lat = EXCLUDED.location_lat,
			location_lon = EXCLUDED.location_lon, birth_date = EXCLUDED.birth_date,
			last_active_at = EXCLUDED.last_active_at, popularity_score = EXCLUDED.popularity_score,
			is_email_verified = EXCLUDED.is_email_verified,
			updated_at = CURRENT_TIMESTAMP
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(
		ctx, query,
		profile.ID, profile.Name, profile.ShortBio, profile.Gender, profile.SexualOrientation,
		profile.AvatarURL, pq.Array(interests), lat, lon, profile.BirthDate,
		lastActive, profile.PopularityScore, profile.IsEmailVerified,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		return classify(err)
	}
	profile.LastActiveAt = lastActive
	return nil
}

func (r *profileRepository) TouchLastActive(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE profiles SET last_active_at = GREATEST(last_active_at, $1) WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, at.UTC(), id)
	if err != nil {
		return classify(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if rows == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}
