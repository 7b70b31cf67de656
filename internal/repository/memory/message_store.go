package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gdugdh24/matchmaker-backend/internal/domain"
	"github.com/gdugdh24/matchmaker-backend/internal/repository"
)

// MessageStore keeps chat messages per room.
type MessageStore struct {
	mu       sync.Mutex
	rooms    map[string][]*domain.Message
	lastSent map[string]time.Time

	now func() time.Time
}

func NewMessageStore() *MessageStore {
	return &MessageStore{
		rooms:    make(map[string][]*domain.Message),
		lastSent: make(map[string]time.Time),
		now:      time.Now,
	}
}

var _ repository.MessageRepository = (*MessageStore)(nil)

func (s *MessageStore) Save(ctx context.Context, msg *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sentAt := s.now().UTC().Truncate(time.Millisecond)
	if last, ok := s.lastSent[msg.RoomID]; ok && !sentAt.After(last) {
		sentAt = last.Add(time.Millisecond)
	}
	s.lastSent[msg.RoomID] = sentAt
	msg.SentAt = sentAt

	cp := *msg
	s.rooms[msg.RoomID] = append(s.rooms[msg.RoomID], &cp)
	return nil
}

func (s *MessageStore) ListByRoom(ctx context.Context, roomID string, before time.Time, limit int) ([]*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.Message
	for _, m := range s.rooms[roomID] {
		if !before.IsZero() && !m.SentAt.Before(before) {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.After(out[j].SentAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
