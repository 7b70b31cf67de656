package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gdugdh24/matchmaker-backend/internal/domain"
	"github.com/gdugdh24/matchmaker-backend/internal/metrics"
	"github.com/gdugdh24/matchmaker-backend/internal/realtime"
	"github.com/gdugdh24/matchmaker-backend/internal/repository"
	"github.com/google/uuid"
)

const (
	MaxMessageLength    = 2000
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

// MatchReader answers questions about the swipe ledger.
type MatchReader interface {
	CanMessage(ctx context.Context, senderID, recipientID string) (bool, error)
	ListMutualMatches(ctx context.Context, userID string) ([]domain.Match, error)
}

type ChatUseCase struct {
	messageRepo repository.MessageRepository
	matches     MatchReader
	registry    realtime.Registry
	logger      *slog.Logger
}

func NewChatUseCase(
	messageRepo repository.MessageRepository,
	matches MatchReader,
	registry realtime.Registry,
	logger *slog.Logger,
) *ChatUseCase {
	return &ChatUseCase{
		messageRepo: messageRepo,
		matches:     matches,
		registry:    registry,
		logger:      logger,
	}
}

var _ realtime.FrameHandler = (*ChatUseCase)(nil)

// OnConnect joins a freshly connected user to the rooms of all their matches.
func (uc *ChatUseCase) OnConnect(ctx context.Context, userID string) error {
	matches, err := uc.matches.ListMutualMatches(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list matches: %w", err)
	}
	for _, m := range matches {
		if err := uc.registry.JoinUser(ctx, userID, m.RoomID); err != nil {
			return fmt.Errorf("failed to join room: %w", err)
		}
	}
	uc.logger.Debug("joined match rooms", "user_id", userID, "rooms", len(matches))
	return nil
}

// DeliverMessage persists a message and pushes it to the room. Sessions that
// are offline pick it up through History.
func (uc *ChatUseCase) DeliverMessage(ctx context.Context, senderID, recipientID, text string) (*domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return nil, fmt.Errorf("%w: message longer than %d characters", domain.ErrInvalidOperation, MaxMessageLength)
	}

	allowed, err := uc.matches.CanMessage(ctx, senderID, recipientID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, domain.ErrChatLocked
	}

	msg := &domain.Message{
		ID:          uuid.NewString(),
		RoomID:      domain.RoomID(senderID, recipientID),
		SenderID:    senderID,
		RecipientID: recipientID,
		Text:        text,
	}
	if err := uc.messageRepo.Save(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}
	metrics.MessagesStored.Inc()

	if err := uc.registry.Broadcast(ctx, msg.RoomID, realtime.Event{Name: realtime.EventMessage, Payload: msg}); err != nil {
		uc.logger.Warn("failed to broadcast message", "room", msg.RoomID, "error", err)
	}
	return msg, nil
}

// History returns stored messages of room older than before, newest first.
func (uc *ChatUseCase) History(ctx context.Context, requesterID, room string, limit int, before time.Time) ([]*domain.Message, error) {
	if _, _, err := domain.ParseRoomID(room); err != nil {
		return nil, err
	}
	if !domain.IsParticipant(room, requesterID) {
		return nil, domain.ErrNotParticipant
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	messages, err := uc.messageRepo.ListByRoom(ctx, room, before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// HandleFrame processes an inbound websocket frame.
func (uc *ChatUseCase) HandleFrame(ctx context.Context, userID string, frame realtime.InboundFrame) error {
	switch frame.Event {
	case realtime.EventMessage:
		_, err := uc.DeliverMessage(ctx, userID, frame.ToUserID, frame.Text)
		return err
	default:
		return fmt.Errorf("%w: unknown event %q", domain.ErrInvalidOperation, frame.Event)
	}
}
