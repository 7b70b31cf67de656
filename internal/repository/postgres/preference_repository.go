package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gdugdh24/matchmaker-backend/internal/domain"
	"github.com/gdugdh24/matchmaker-backend/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type preferenceRepository struct {
	db *sqlx.DB
}

func NewPreferenceRepository(db *sqlx.DB) repository.PreferenceRepository {
	return &preferenceRepository{db: db}
}

type preferenceRow struct {
	UserID           string         `db:"user_id"`
	GenderPreference pq.StringArray `db:"gender_preference"`
	MinAge           int            `db:"min_age"`
	MaxAge           int            `db:"max_age"`
	MaxDistanceKm    float64        `db:"max_distance_km"`
	InterestWeights  []byte         `db:"interest_weights"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

const preferenceColumns = `user_id, gender_preference, min_age, max_age, max_distance_km,
	interest_weights, created_at, updated_at`

func (r preferenceRow) toDomain() (*domain.Preference, error) {
	p := &domain.Preference{
		UserID:           r.UserID,
		GenderPreference: []string(r.GenderPreference),
		MinAge:           r.MinAge,
		MaxAge:           r.MaxAge,
		MaxDistanceKm:    r.MaxDistanceKm,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if len(r.InterestWeights) > 0 {
		if err := json.Unmarshal(r.InterestWeights, &p.InterestWeights); err != nil {
			return nil, fmt.Errorf("decode interest weights: %w", err)
		}
	}
	return p, nil
}

func (r *preferenceRepository) FindByUser(ctx context.Context, userID string) (*domain.Preference, error) {
	var row preferenceRow
	query := `SELECT ` + preferenceColumns + ` FROM preferences WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPreferenceNotFound
		}
		return nil, classify(err)
	}
	return row.toDomain()
}

func (r *preferenceRepository) CreateDefault(ctx context.Context, userID string) (*domain.Preference, error) {
	def := domain.DefaultPreference(userID)
	query := `
		INSERT INTO preferences (user_id, gender_preference, min_age, max_age, max_distance_km)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query,
		def.UserID, pq.Array(def.GenderPreference), def.MinAge, def.MaxAge, def.MaxDistanceKm,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" { // foreign_key_violation
			return nil, domain.ErrProfileNotFound
		}
		return nil, classify(err)
	}
	return r.FindByUser(ctx, userID)
}

func (r *preferenceRepository) Update(ctx context.Context, pref *domain.Preference) error {
	var weights interface{}
	if pref.InterestWeights != nil {
		b, err := json.Marshal(pref.InterestWeights)
		if err != nil {
			return fmt.Errorf("encode interest weights: %w", err)
		}
		weights = string(b)
	}

	query := `
		UPDATE preferences
		SET gender_preference = $1, min_age = $2, max_age = $3, max_distance_km = $4,
		    interest_weights = $5, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = $6
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		pq.Array(pref.GenderPreference), pref.MinAge, pref.MaxAge, pref.MaxDistanceKm,
		weights, pref.UserID,
	).Scan(&pref.CreatedAt, &pref.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrPreferenceNotFound
		}
		return classify(err)
	}
	return nil
}
