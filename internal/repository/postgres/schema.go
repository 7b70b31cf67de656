package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		id                 TEXT PRIMARY KEY,
		name               TEXT NOT NULL DEFAULT '',
		short_bio          TEXT NOT NULL DEFAULT '',
		gender             TEXT NOT NULL DEFAULT 'other',
		sexual_orientation TEXT NOT NULL DEFAULT 'other',
		avatar_url         TEXT,
		interests          TEXT[] NOT NULL DEFAULT '{}',
		location_lat       DOUBLE PRECISION,
		location_lon       DOUBLE PRECISION,
		birth_date         DATE,
		last_active_at     TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		popularity_score   INTEGER NOT NULL DEFAULT 0,
		is_email_verified  BOOLEAN NOT NULL DEFAULT FALSE,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS profiles_location_idx ON profiles (location_lat, location_lon)`,
	`CREATE INDEX IF NOT EXISTS profiles_gender_birth_idx ON profiles (gender, birth_date)`,
	`CREATE TABLE IF NOT EXISTS preferences (
		user_id           TEXT PRIMARY KEY REFERENCES profiles (id) ON DELETE CASCADE,
		gender_preference TEXT[] NOT NULL DEFAULT '{male,female,other}',
		min_age           INTEGER NOT NULL DEFAULT 18,
		max_age           INTEGER NOT NULL DEFAULT 60,
		max_distance_km   DOUBLE PRECISION NOT NULL DEFAULT 50,
		interest_weights  JSONB,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS swipes (
		actor_id     TEXT NOT NULL,
		candidate_id TEXT NOT NULL,
		action       TEXT NOT NULL CHECK (action IN ('left', 'right')),
		mutual       BOOLEAN NOT NULL DEFAULT FALSE,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (actor_id, candidate_id),
		CHECK (actor_id <> candidate_id)
	)`,
	`CREATE INDEX IF NOT EXISTS swipes_candidate_idx ON swipes (candidate_id, action)`,
}

// Migrate creates the tables used by the engine. Statements are idempotent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, classify(err))
		}
	}
	return nil
}
