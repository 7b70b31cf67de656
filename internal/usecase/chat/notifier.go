package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gdugdh24/matchmaker-backend/internal/domain"
	"github.com/gdugdh24/matchmaker-backend/internal/realtime"
	"github.com/gdugdh24/matchmaker-backend/internal/repository"
)

const icebreakerTimeout = 20 * time.Second

// IcebreakerGenerator suggests opening lines for a new match.
type IcebreakerGenerator interface {
	GenerateIcebreakers(ctx context.Context, a, b *domain.Profile) ([]string, error)
}

// UnlockedPayload is the body of a matches-unlocked event.
type UnlockedPayload struct {
	Users []string `json:"users"`
	Room  string   `json:"room"`
}

// IcebreakersPayload is the body of an icebreakers event.
type IcebreakersPayload struct {
	Room        string   `json:"room"`
	Icebreakers []string `json:"icebreakers"`
}

// Notifier pushes match unlocks to the live sessions of both users.
type Notifier struct {
	registry    realtime.Registry
	profileRepo repository.ProfileRepository
	icebreakers IcebreakerGenerator
	logger      *slog.Logger

	wg sync.WaitGroup
}

// NewNotifier creates a notifier. icebreakers may be nil.
func NewNotifier(
	registry realtime.Registry,
	profileRepo repository.ProfileRepository,
	icebreakers IcebreakerGenerator,
	logger *slog.Logger,
) *Notifier {
	return &Notifier{
		registry:    registry,
		profileRepo: profileRepo,
		icebreakers: icebreakers,
		logger:      logger,
	}
}

// NotifyUnlocked joins both users to their room and announces the match.
func (n *Notifier) NotifyUnlocked(ctx context.Context, userA, userB string) error {
	room := domain.RoomID(userA, userB)

	for _, id := range []string{userA, userB} {
		if err := n.registry.JoinUser(ctx, id, room); err != nil {
			return fmt.Errorf("failed to join %s to room: %w", id, err)
		}
	}

	payload := UnlockedPayload{Users: []string{userA, userB}, Room: room}
	if err := n.registry.Broadcast(ctx, room, realtime.Event{Name: realtime.EventMatchesUnlocked, Payload: payload}); err != nil {
		return fmt.Errorf("failed to broadcast unlock: %w", err)
	}
	n.logger.Debug("chat unlocked", "room", room)

	if n.icebreakers != nil {
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			n.sendIcebreakers(context.WithoutCancel(ctx), userA, userB, room)
		}()
	}
	return nil
}

func (n *Notifier) sendIcebreakers(ctx context.Context, userA, userB, room string) {
	ctx, cancel := context.WithTimeout(ctx, icebreakerTimeout)
	defer cancel()

	a, err := n.profileRepo.FindByID(ctx, userA)
	if err != nil {
		n.logger.Warn("icebreakers skipped", "room", room, "error", err)
		return
	}
	b, err := n.profileRepo.FindByID(ctx, userB)
	if err != nil {
		n.logger.Warn("icebreakers skipped", "room", room, "error", err)
		return
	}

	lines, err := n.icebreakers.GenerateIcebreakers(ctx, a, b)
	if err != nil || len(lines) == 0 {
		n.logger.Warn("icebreakers skipped", "room", room, "error", err)
		return
	}

	evt := realtime.Event{Name: realtime.EventIcebreakers, Payload: IcebreakersPayload{Room: room, Icebreakers: lines}}
	if err := n.registry.Broadcast(ctx, room, evt); err != nil {
		n.logger.Warn("failed to broadcast icebreakers", "room", room, "error", err)
	}
}

// Wait blocks until pending icebreaker goroutines finish.
func (n *Notifier) Wait() {
	n.wg.Wait()
}
