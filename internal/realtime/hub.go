// Package realtime keeps track of live websocket sessions and the chat rooms
// they belong to.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gdugdh24/matchmaker-backend/internal/metrics"
)

// Event names pushed to clients.
const (
	EventMatchesUnlocked = "matches-unlocked"
	EventMessage         = "message"
	EventIcebreakers     = "icebreakers"
	EventError           = "error"
)

// Event is a single frame pushed to live sessions.
type Event struct {
	Name    string `json:"event"`
	Payload any    `json:"data"`
}

// Registry is the live-session registry consumed by the chat layer.
type Registry interface {
	// JoinUser adds every live connection of userID to room. It is the
	// user-level form of MapConnectionToUser followed by JoinGroup for each
	// mapped connection. Connections that open later are not joined.
	JoinUser(ctx context.Context, userID, room string) error
	// Broadcast pushes evt to every connection in room. Delivery is best effort.
	Broadcast(ctx context.Context, room string, evt Event) error
}

type set map[string]struct{}

// Hub is the process-local session registry. Losing it on restart is fine:
// clients rebuild their memberships on reconnect.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*Client
	users map[string]set
	rooms map[string]set
	// joined tracks the rooms of each connection so Unregister stays cheap.
	joined map[string]set

	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		conns:  make(map[string]*Client),
		users:  make(map[string]set),
		rooms:  make(map[string]set),
		joined: make(map[string]set),
		logger: logger,
	}
}

var _ Registry = (*Hub)(nil)

// Register tracks a new connection and maps it to its user.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()

	h.MapConnectionToUser(c.id, c.userID)
	metrics.LiveConnections.Inc()
	h.logger.Debug("ws connected", "conn_id", c.id, "user_id", c.userID, "total", h.ConnectionCount())
}

// MapConnectionToUser records that connID belongs to userID.
func (h *Hub) MapConnectionToUser(connID, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[connID]; !ok {
		return
	}
	conns, ok := h.users[userID]
	if !ok {
		conns = make(set)
		h.users[userID] = conns
	}
	conns[connID] = struct{}{}
}

// Unregister drops a connection from every room and closes its send buffer.
// It is safe to call more than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.conns[c.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.conns, c.id)
	if conns, ok := h.users[c.userID]; ok {
		delete(conns, c.id)
		if len(conns) == 0 {
			delete(h.users, c.userID)
		}
	}
	for room := range h.joined[c.id] {
		members := h.rooms[room]
		delete(members, c.id)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(h.joined, c.id)
	close(c.send)
	h.mu.Unlock()

	metrics.LiveConnections.Dec()
	h.logger.Debug("ws disconnected", "conn_id", c.id, "user_id", c.userID)
}

// JoinGroup adds a single connection to room. Unknown connections are ignored.
func (h *Hub) JoinGroup(connID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.joinLocked(connID, room)
}

func (h *Hub) joinLocked(connID, room string) {
	if _, ok := h.conns[connID]; !ok {
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(set)
		h.rooms[room] = members
	}
	members[connID] = struct{}{}

	rooms, ok := h.joined[connID]
	if !ok {
		rooms = make(set)
		h.joined[connID] = rooms
	}
	rooms[room] = struct{}{}
}

// JoinUser calls JoinGroup for every connection currently mapped to userID.
// A connection that closes in between is skipped by JoinGroup.
func (h *Hub) JoinUser(ctx context.Context, userID, room string) error {
	h.mu.RLock()
	connIDs := make([]string, 0, len(h.users[userID]))
	for connID := range h.users[userID] {
		connIDs = append(connIDs, connID)
	}
	h.mu.RUnlock()

	for _, connID := range connIDs {
		h.JoinGroup(connID, room)
	}
	return nil
}

func (h *Hub) Broadcast(ctx context.Context, room string, evt Event) error {
	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for connID := range h.rooms[room] {
		c := h.conns[connID]
		select {
		case c.send <- b:
			sent++
		default:
			metrics.EventsDropped.Inc()
			h.logger.Warn("ws event dropped", "conn_id", connID, "event", evt.Name, "reason", "buffer_full")
		}
	}
	if sent > 0 {
		metrics.EventsEmitted.WithLabelValues(evt.Name).Add(float64(sent))
	}
	return nil
}

// ConnectionCount returns the number of live connections on this instance.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// RoomMembers returns the connection ids currently joined to room.
func (h *Hub) RoomMembers(room string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.rooms[room]))
	for id := range h.rooms[room] {
		out = append(out, id)
	}
	return out
}
