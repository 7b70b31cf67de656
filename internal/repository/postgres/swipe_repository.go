package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gdugdh24/matchmaker-backend/internal/domain"
	"github.com/gdugdh24/matchmaker-backend/internal/repository"
	"github.com/jmoiron/sqlx"
)

type swipeRepository struct {
	db *sqlx.DB
}

func NewSwipeRepository(db *sqlx.DB) repository.SwipeRepository {
	return &swipeRepository{db: db}
}

const swipeColumns = `actor_id, candidate_id, action, mutual, created_at, updated_at`

func (r *swipeRepository) Upsert(ctx context.Context, actorID, candidateID string, action domain.Direction) (*domain.Swipe, error) {
	var swipe domain.Swipe
	query := `
		INSERT INTO swipes (actor_id, candidate_id, action)
		VALUES ($1, $2, $3)
		ON CONFLICT (actor_id, candidate_id) DO UPDATE
		SET action = EXCLUDED.action, updated_at = CURRENT_TIMESTAMP
		RETURNING ` + swipeColumns
	if err := r.db.GetContext(ctx, &swipe, query, actorID, candidateID, string(action)); err != nil {
		return nil, classify(err)
	}
	return &swipe, nil
}

func (r *swipeRepository) Get(ctx context.Context, actorID, candidateID string) (*domain.Swipe, error) {
	var swipe domain.Swipe
	query := `SELECT ` + swipeColumns + ` FROM swipes WHERE actor_id = $1 AND candidate_id = $2`
	if err := r.db.GetContext(ctx, &swipe, query, actorID, candidateID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSwipeNotFound
		}
		return nil, classify(err)
	}
	return &swipe, nil
}

// MarkMutual issues two single-row statements, never a transaction over both
// rows. Under concurrent reciprocal swipes at least one caller observes the
// other's committed row in the first statement, so both rows always end up
// mutual; both callers may report a flip in that case.
func (r *swipeRepository) MarkMutual(ctx context.Context, actorID, candidateID string) (domain.MutualResult, error) {
	var res domain.MutualResult

	// The CTE locks the caller's row and exposes its previous mutual value.
	ownQuery := `
		WITH own AS (
			SELECT mutual FROM swipes
			WHERE actor_id = $1 AND candidate_id = $2
			FOR UPDATE
		)
		UPDATE swipes s
		SET mutual = TRUE,
		    updated_at = CASE WHEN s.mutual THEN s.updated_at ELSE CURRENT_TIMESTAMP END
		FROM own
		WHERE s.actor_id = $1 AND s.candidate_id = $2 AND s.action = 'right'
		  AND EXISTS (
			SELECT 1 FROM swipes rec
			WHERE rec.actor_id = $2 AND rec.candidate_id = $1 AND rec.action = 'right'
		  )
		RETURNING own.mutual
	`
	var wasMutual bool
	err := r.db.QueryRowxContext(ctx, ownQuery, actorID, candidateID).Scan(&wasMutual)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return res, nil
		}
		return res, classify(err)
	}
	res.Matched = true
	res.OwnFlipped = !wasMutual

	recQuery := `
		UPDATE swipes SET mutual = TRUE, updated_at = CURRENT_TIMESTAMP
		WHERE actor_id = $1 AND candidate_id = $2 AND mutual = FALSE
	`
	result, err := r.db.ExecContext(ctx, recQuery, candidateID, actorID)
	if err != nil {
		return res, classify(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return res, classify(err)
	}
	if rows > 0 {
		res.ReciprocalFlipped = true
		return res, nil
	}

	var exists bool
	existsQuery := `SELECT EXISTS (SELECT 1 FROM swipes WHERE actor_id = $1 AND candidate_id = $2)`
	if err := r.db.GetContext(ctx, &exists, existsQuery, candidateID, actorID); err != nil {
		return res, classify(err)
	}
	if !exists {
		return res, domain.ErrAsymmetricMutual
	}
	return res, nil
}

func (r *swipeRepository) SetAction(ctx context.Context, actorID, candidateID string, action domain.Direction) (*domain.Swipe, error) {
	var swipe domain.Swipe
	query := `
		UPDATE swipes SET action = $3, updated_at = CURRENT_TIMESTAMP
		WHERE actor_id = $1 AND candidate_id = $2
		RETURNING ` + swipeColumns
	if err := r.db.GetContext(ctx, &swipe, query, actorID, candidateID, string(action)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSwipeNotFound
		}
		return nil, classify(err)
	}
	return &swipe, nil
}

func (r *swipeRepository) ClearMutual(ctx context.Context, actorID, candidateID string) error {
	query := `
		UPDATE swipes SET mutual = FALSE, updated_at = CURRENT_TIMESTAMP
		WHERE actor_id = $1 AND candidate_id = $2 AND mutual = TRUE
	`
	_, err := r.db.ExecContext(ctx, query, actorID, candidateID)
	return classify(err)
}

func (r *swipeRepository) IsMutual(ctx context.Context, actorID, candidateID string) (bool, error) {
	var mutual bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM swipes WHERE actor_id = $1 AND candidate_id = $2 AND mutual = TRUE
		)
	`
	if err := r.db.GetContext(ctx, &mutual, query, actorID, candidateID); err != nil {
		return false, classify(err)
	}
	return mutual, nil
}

func (r *swipeRepository) ListCandidateIDs(ctx context.Context, actorID string, action *domain.Direction) ([]string, error) {
	ids := []string{}
	var err error
	if action == nil {
		query := `SELECT candidate_id FROM swipes WHERE actor_id = $1 ORDER BY candidate_id`
		err = r.db.SelectContext(ctx, &ids, query, actorID)
	} else {
		query := `SELECT candidate_id FROM swipes WHERE actor_id = $1 AND action = $2 ORDER BY candidate_id`
		err = r.db.SelectContext(ctx, &ids, query, actorID, string(*action))
	}
	if err != nil {
		return nil, classify(err)
	}
	return ids, nil
}

func (r *swipeRepository) ListIncomingLikes(ctx context.Context, candidateID string, limit, offset int) ([]*domain.Swipe, error) {
	var swipes []*domain.Swipe
	query := `
		SELECT ` + swipeColumns + ` FROM swipes s
		WHERE s.candidate_id = $1 AND s.action = 'right'
		  AND NOT EXISTS (
			SELECT 1 FROM swipes answer
			WHERE answer.actor_id = $1 AND answer.candidate_id = s.actor_id
		  )
		ORDER BY s.updated_at DESC, s.actor_id
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &swipes, query, candidateID, limit, offset); err != nil {
		return nil, classify(err)
	}
	return swipes, nil
}
