package domain

import "time"

type Direction string

const (
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// ParseDirection validates a raw direction string.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionLeft, DirectionRight:
		return Direction(s), nil
	}
	return "", ErrInvalidDirection
}

// Swipe is the decision of ActorID on CandidateID. One row exists per ordered pair.
type Swipe struct {
	ActorID     string    `json:"actor_id" db:"actor_id"`
	CandidateID string    `json:"candidate_id" db:"candidate_id"`
	Action      Direction `json:"action" db:"action"`
	Mutual      bool      `json:"mutual" db:"mutual"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// MutualResult describes the outcome of a reciprocal check after a right swipe.
type MutualResult struct {
	// Matched is true when both rows are right swipes and the caller's row is mutual.
	Matched bool
	// OwnFlipped is true when this call moved the caller's row from mutual=false to true.
	OwnFlipped bool
	// ReciprocalFlipped is true when this call moved the reciprocal row to mutual=true.
	ReciprocalFlipped bool
}

// Newly reports whether this call changed any mutual flag.
func (r MutualResult) Newly() bool {
	return r.OwnFlipped || r.ReciprocalFlipped
}
