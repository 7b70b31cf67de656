package repository

import (
	"context"
	"time"

	"github.com/gdugdh24/matchmaker-backend/internal/domain"
)

type MessageRepository interface {
	// Save assigns msg.SentAt from the room clock so timestamps strictly
	// increase within a room, then persists the message.
	Save(ctx context.Context, msg *domain.Message) error
	// ListByRoom returns up to limit messages older than before, newest first.
	// A zero before means "now".
	ListByRoom(ctx context.Context, roomID string, before time.Time, limit int) ([]*domain.Message, error)
}
