package chat

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/gdugdh24/matchmaker-backend/internal/domain"
	"github.com/gdugdh24/matchmaker-backend/internal/infrastructure/logger"
	"github.com/gdugdh24/matchmaker-backend/internal/realtime"
	"github.com/gdugdh24/matchmaker-backend/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type join struct {
	userID, room string
}

type broadcast struct {
	room string
	evt  realtime.Event
}

type fakeRegistry struct {
	mu         sync.Mutex
	joins      []join
	broadcasts []broadcast
	joinErr    error
}

func (r *fakeRegistry) JoinUser(_ context.Context, userID, room string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.joinErr != nil {
		return r.joinErr
	}
	r.joins = append(r.joins, join{userID, room})
	return nil
}

func (r *fakeRegistry) Broadcast(_ context.Context, room string, evt realtime.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcasts = append(r.broadcasts, broadcast{room, evt})
	return nil
}

type fakeIcebreakers struct {
	lines []string
	err   error
}

func (f *fakeIcebreakers) GenerateIcebreakers(_ context.Context, _, _ *domain.Profile) ([]string, error) {
	return f.lines, f.err
}

func TestNotifyUnlocked_JoinsAndAnnounces(t *testing.T) {
	reg := &fakeRegistry{}
	n := NewNotifier(reg, memory.New(), nil, logger.Discard())

	require.NoError(t, n.NotifyUnlocked(context.Background(), "bob", "alice"))
	n.Wait()

	room := domain.RoomID("alice", "bob")
	assert.Equal(t, []join{{"bob", room}, {"alice", room}}, reg.joins)
	require.Len(t, reg.broadcasts, 1)
	assert.Equal(t, room, reg.broadcasts[0].room)
	assert.Equal(t, realtime.EventMatchesUnlocked, reg.broadcasts[0].evt.Name)
	assert.Equal(t, UnlockedPayload{Users: []string{"bob", "alice"}, Room: room}, reg.broadcasts[0].evt.Payload)
}

func TestNotifyUnlocked_JoinFailure(t *testing.T) {
	reg := &fakeRegistry{joinErr: domain.Unavailable(errors.New("redis down"))}
	n := NewNotifier(reg, memory.New(), nil, logger.Discard())

	err := n.NotifyUnlocked(context.Background(), "alice", "bob")
	assert.True(t, errors.Is(err, domain.ErrUnavailable))
	assert.Empty(t, reg.broadcasts)
}

func TestNotifyUnlocked_Icebreakers(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	require.NoError(t, db.Save(ctx, &domain.Profile{ID: "alice"}))
	require.NoError(t, db.Save(ctx, &domain.Profile{ID: "bob"}))

	reg := &fakeRegistry{}
	gen := &fakeIcebreakers{lines: []string{"Coffee or tea?"}}
	n := NewNotifier(reg, db, gen, logger.Discard())

	require.NoError(t, n.NotifyUnlocked(ctx, "alice", "bob"))
	n.Wait()

	require.Len(t, reg.broadcasts, 2)
	last := reg.broadcasts[1]
	assert.Equal(t, realtime.EventIcebreakers, last.evt.Name)
	assert.Equal(t, IcebreakersPayload{Room: "alice:bob", Icebreakers: []string{"Coffee or tea?"}}, last.evt.Payload)
}

func TestNotifyUnlocked_IcebreakersSkippedOnFailure(t *testing.T) {
	ctx := context.Background()
	reg := &fakeRegistry{}
	gen := &fakeIcebreakers{lines: []string{"unused"}}
	// Profiles are missing, so generation is skipped.
	n := NewNotifier(reg, memory.New(), gen, logger.Discard())

	require.NoError(t, n.NotifyUnlocked(ctx, "alice", "bob"))
	n.Wait()
	assert.Len(t, reg.broadcasts, 1)
}
