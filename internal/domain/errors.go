package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the engine wraps exactly one of them.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrConflict         = errors.New("conflict")
	ErrUnavailable      = errors.New("unavailable")
	ErrForbidden        = errors.New("forbidden")
)

var (
	ErrProfileNotFound    = fmt.Errorf("profile %w", ErrNotFound)
	ErrPreferenceNotFound = fmt.Errorf("preference %w", ErrNotFound)
	ErrSwipeNotFound      = fmt.Errorf("swipe %w", ErrNotFound)
	ErrLocationNotSet     = fmt.Errorf("location %w", ErrNotFound)

	ErrCannotSwipeSelf    = fmt.Errorf("%w: cannot swipe yourself", ErrInvalidOperation)
	ErrInvalidDirection   = fmt.Errorf("%w: direction must be left or right", ErrInvalidOperation)
	ErrInvalidCoordinates = fmt.Errorf("%w: malformed coordinates", ErrInvalidOperation)
	ErrInvalidRoom        = fmt.Errorf("%w: malformed room id", ErrInvalidOperation)
	ErrInvalidInput       = fmt.Errorf("%w: invalid input", ErrInvalidOperation)
	ErrEmptyMessage       = fmt.Errorf("%w: empty message", ErrInvalidOperation)

	ErrChatLocked     = fmt.Errorf("%w: chat is locked", ErrForbidden)
	ErrNotParticipant = fmt.Errorf("%w: not part of this room", ErrForbidden)

	ErrAsymmetricMutual = fmt.Errorf("%w: asymmetric mutual state", ErrConflict)
)

// Unavailable marks err as a store outage. The wrapped error stays reachable
// through errors.Is / errors.As.
func Unavailable(err error) error {
	if err == nil || errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
