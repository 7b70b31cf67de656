package swipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gdugdh24/matchmaker-backend/internal/domain"
	"github.com/gdugdh24/matchmaker-backend/internal/metrics"
	"github.com/gdugdh24/matchmaker-backend/internal/repository"
)

// Notifier is signalled once a pair becomes a mutual match.
type Notifier interface {
	NotifyUnlocked(ctx context.Context, userA, userB string) error
}

// CacheInvalidator drops cached ranked lists of a user after they swipe.
type CacheInvalidator interface {
	InvalidateUser(ctx context.Context, userID string)
}

type Options struct {
	// UnmatchClearsMutual makes Unmatch reset the mutual flag on both rows.
	UnmatchClearsMutual bool
}

type SwipeUseCase struct {
	swipeRepo   repository.SwipeRepository
	profileRepo repository.ProfileRepository
	notifier    Notifier
	cache       CacheInvalidator
	opts        Options
	logger      *slog.Logger
}

func NewSwipeUseCase(
	swipeRepo repository.SwipeRepository,
	profileRepo repository.ProfileRepository,
	notifier Notifier,
	cache CacheInvalidator,
	opts Options,
	logger *slog.Logger,
) *SwipeUseCase {
	return &SwipeUseCase{
		swipeRepo:   swipeRepo,
		profileRepo: profileRepo,
		notifier:    notifier,
		cache:       cache,
		opts:        opts,
		logger:      logger,
	}
}

// SwipeResponse represents swipe result
type SwipeResponse struct {
	Swipe   *domain.Swipe `json:"swipe"`
	IsMatch bool          `json:"is_match"`
	RoomID  string        `json:"room_id,omitempty"`
}

// LikeReceived represents a pending like
type LikeReceived struct {
	UserID    string `json:"user_id"`
	CreatedAt string `json:"created_at"`
}

// Swipe records the decision of actorID on candidateID. A right swipe that
// completes a pair marks both rows mutual and notifies the pair.
func (uc *SwipeUseCase) Swipe(ctx context.Context, actorID, candidateID string, direction domain.Direction) (*SwipeResponse, error) {
	if actorID == candidateID {
		return nil, domain.ErrCannotSwipeSelf
	}
	if _, err := domain.ParseDirection(string(direction)); err != nil {
		return nil, err
	}
	if _, err := uc.profileRepo.FindByID(ctx, candidateID); err != nil {
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}

	swipe, err := uc.swipeRepo.Upsert(ctx, actorID, candidateID, direction)
	if err != nil {
		return nil, fmt.Errorf("failed to record swipe: %w", err)
	}
	metrics.SwipesTotal.WithLabelValues(string(direction)).Inc()
	if uc.cache != nil {
		uc.cache.InvalidateUser(ctx, actorID)
	}

	response := &SwipeResponse{Swipe: swipe}
	if direction != domain.DirectionRight {
		return response, nil
	}

	res, err := uc.swipeRepo.MarkMutual(ctx, actorID, candidateID)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			metrics.LedgerConflictsTotal.Inc()
			uc.logger.Error("asymmetric mutual state detected",
				"actor_id", actorID, "candidate_id", candidateID, "error", err)
		}
		return nil, fmt.Errorf("failed to check mutual match: %w", err)
	}
	if !res.Matched {
		return response, nil
	}

	swipe.Mutual = true
	response.IsMatch = true
	response.RoomID = domain.RoomID(actorID, candidateID)

	if !res.Newly() {
		return response, nil
	}

	metrics.MutualMatchesTotal.Inc()
	uc.logger.Info("mutual match", "actor_id", actorID, "candidate_id", candidateID, "room", response.RoomID)

	if uc.notifier != nil {
		// The ledger is already consistent; a lost notification only costs the
		// live event, clients still see the match on their next pull.
		if err := uc.notifier.NotifyUnlocked(ctx, actorID, candidateID); err != nil {
			uc.logger.Warn("failed to notify mutual match",
				"actor_id", actorID, "candidate_id", candidateID, "error", err)
		}
	}
	return response, nil
}

// CanMessage reports whether senderID may write to recipientID: the sender's
// own row must still be a right swipe and mutual.
func (uc *SwipeUseCase) CanMessage(ctx context.Context, senderID, recipientID string) (bool, error) {
	if senderID == recipientID {
		return false, nil
	}
	swipe, err := uc.swipeRepo.Get(ctx, senderID, recipientID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get swipe: %w", err)
	}
	return swipe.Mutual && swipe.Action == domain.DirectionRight, nil
}

// Unmatch turns the actor's own decision back to left. The reciprocal row is
// never touched unless UnmatchClearsMutual is set.
func (uc *SwipeUseCase) Unmatch(ctx context.Context, actorID, candidateID string) (*domain.Swipe, error) {
	swipe, err := uc.swipeRepo.SetAction(ctx, actorID, candidateID, domain.DirectionLeft)
	if err != nil {
		return nil, fmt.Errorf("failed to unmatch: %w", err)
	}
	if uc.cache != nil {
		uc.cache.InvalidateUser(ctx, actorID)
	}

	if uc.opts.UnmatchClearsMutual {
		if err := uc.swipeRepo.ClearMutual(ctx, actorID, candidateID); err != nil {
			return nil, fmt.Errorf("failed to clear mutual flag: %w", err)
		}
		if err := uc.swipeRepo.ClearMutual(ctx, candidateID, actorID); err != nil {
			return nil, fmt.Errorf("failed to clear reciprocal mutual flag: %w", err)
		}
		swipe.Mutual = false
	}

	uc.logger.Info("unmatched", "actor_id", actorID, "candidate_id", candidateID,
		"clear_mutual", uc.opts.UnmatchClearsMutual)
	return swipe, nil
}

// ListMutualMatches returns the ids of users whose row towards userID is
// mutual, among those userID currently swipes right on.
func (uc *SwipeUseCase) ListMutualMatches(ctx context.Context, userID string) ([]domain.Match, error) {
	right := domain.DirectionRight
	ids, err := uc.swipeRepo.ListCandidateIDs(ctx, userID, &right)
	if err != nil {
		return nil, fmt.Errorf("failed to list right swipes: %w", err)
	}

	matches := make([]domain.Match, 0, len(ids))
	for _, id := range ids {
		mutual, err := uc.swipeRepo.IsMutual(ctx, id, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to check reciprocal swipe: %w", err)
		}
		if mutual {
			matches = append(matches, domain.NewMatch(userID, id))
		}
	}
	return matches, nil
}

// GetLikesReceived returns users who liked userID and have not been answered yet.
func (uc *SwipeUseCase) GetLikesReceived(ctx context.Context, userID string, limit, offset int) ([]*LikeReceived, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	likes, err := uc.swipeRepo.ListIncomingLikes(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get likes received: %w", err)
	}

	responses := make([]*LikeReceived, 0, len(likes))
	for _, like := range likes {
		responses = append(responses, &LikeReceived{
			UserID:    like.ActorID,
			CreatedAt: like.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return responses, nil
}
