package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gdugdh24/matchmaker-backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	opJoin      = "join"
	opBroadcast = "broadcast"
)

// command is the pub/sub envelope shared by every instance.
type command struct {
	Op     string          `json:"op"`
	UserID string          `json:"user_id,omitempty"`
	Room   string          `json:"room"`
	Event  string          `json:"event,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// RedisRegistry fans registry commands out to every instance through a Redis
// channel. Each instance applies them to its local Hub, so a user connected
// anywhere in the fleet joins rooms and receives events.
type RedisRegistry struct {
	client  *redis.Client
	channel string
	hub     *Hub
	logger  *slog.Logger
}

func NewRedisRegistry(client *redis.Client, channel string, hub *Hub, logger *slog.Logger) *RedisRegistry {
	return &RedisRegistry{client: client, channel: channel, hub: hub, logger: logger}
}

var _ Registry = (*RedisRegistry)(nil)

func (r *RedisRegistry) JoinUser(ctx context.Context, userID, room string) error {
	return r.publish(ctx, command{Op: opJoin, UserID: userID, Room: room})
}

func (r *RedisRegistry) Broadcast(ctx context.Context, room string, evt Event) error {
	data, err := json.Marshal(evt.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode event payload: %w", err)
	}
	return r.publish(ctx, command{Op: opBroadcast, Room: room, Event: evt.Name, Data: data})
}

// publish sends cmd to the fleet. When Redis is down the command is applied to
// the local hub only and the outage is reported.
func (r *RedisRegistry) publish(ctx context.Context, cmd command) error {
	b, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, r.channel, b).Err(); err != nil {
		r.apply(ctx, cmd)
		return domain.Unavailable(fmt.Errorf("failed to publish realtime command: %w", err))
	}
	return nil
}

// Run consumes the channel until ctx is cancelled.
func (r *RedisRegistry) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", r.channel, err)
	}
	r.logger.Info("realtime fan-out subscribed", "channel", r.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errors.New("realtime subscription closed")
			}
			var cmd command
			if err := json.Unmarshal([]byte(msg.Payload), &cmd); err != nil {
				r.logger.Warn("malformed realtime command", "error", err)
				continue
			}
			r.apply(ctx, cmd)
		}
	}
}

func (r *RedisRegistry) apply(ctx context.Context, cmd command) {
	switch cmd.Op {
	case opJoin:
		_ = r.hub.JoinUser(ctx, cmd.UserID, cmd.Room)
	case opBroadcast:
		_ = r.hub.Broadcast(ctx, cmd.Room, Event{Name: cmd.Event, Payload: cmd.Data})
	default:
		r.logger.Warn("unknown realtime command", "op", cmd.Op)
	}
}
