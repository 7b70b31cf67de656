package repository

import (
	"context"

	"github.com/gdugdh24/matchmaker-backend/internal/domain"
)

// SwipeRepository stores one decision per ordered (actor, candidate) pair.
// Every mutating method is a single conditional update keyed by that pair.
type SwipeRepository interface {
	// Upsert inserts the decision or overwrites the action of the existing row.
	// The mutual flag of an existing row is left untouched.
	Upsert(ctx context.Context, actorID, candidateID string, action domain.Direction) (*domain.Swipe, error)
	Get(ctx context.Context, actorID, candidateID string) (*domain.Swipe, error)
	// MarkMutual flips the actor's row to mutual when it is a right swipe and
	// the reciprocal right swipe exists, then flips the reciprocal row.
	MarkMutual(ctx context.Context, actorID, candidateID string) (domain.MutualResult, error)
	// SetAction overwrites the action of an existing row; ErrSwipeNotFound otherwise.
	SetAction(ctx context.Context, actorID, candidateID string, action domain.Direction) (*domain.Swipe, error)
	// ClearMutual sets mutual=false on the single row (actor, candidate).
	ClearMutual(ctx context.Context, actorID, candidateID string) error
	IsMutual(ctx context.Context, actorID, candidateID string) (bool, error)
	ListCandidateIDs(ctx context.Context, actorID string, action *domain.Direction) ([]string, error)
	// ListIncomingLikes returns actors with a right swipe on candidateID that
	// candidateID has not answered.
	ListIncomingLikes(ctx context.Context, candidateID string, limit, offset int) ([]*domain.Swipe, error)
}
