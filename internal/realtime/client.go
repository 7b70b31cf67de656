package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
	sendBufferSize = 64
)

// InboundFrame is a frame sent by the client.
type InboundFrame struct {
	Event    string `json:"event"`
	ToUserID string `json:"to_user_id"`
	Text     string `json:"text"`
}

// FrameHandler processes inbound frames of an authenticated connection.
type FrameHandler interface {
	HandleFrame(ctx context.Context, userID string, frame InboundFrame) error
}

// Client is a single websocket session.
type Client struct {
	id      string
	userID  string
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	handler FrameHandler
	logger  *slog.Logger
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string, handler FrameHandler, logger *slog.Logger) *Client {
	return &Client{
		id:      uuid.NewString(),
		userID:  userID,
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		handler: handler,
		logger:  logger,
	}
}

func (c *Client) ID() string     { return c.id }
func (c *Client) UserID() string { return c.userID }

// ReadPump reads frames until the connection fails or ctx is done. It
// unregisters the client on return.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("ws read failed", "conn_id", c.id, "error", err)
			}
			return
		}
		if ctx.Err() != nil {
			return
		}

		var frame InboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.reply(Event{Name: EventError, Payload: map[string]string{"error": "malformed frame"}})
			continue
		}
		if c.handler == nil {
			continue
		}
		if err := c.handler.HandleFrame(ctx, c.userID, frame); err != nil {
			c.reply(Event{Name: EventError, Payload: map[string]string{"error": err.Error()}})
		}
	}
}

// WritePump drains the send buffer to the socket and keeps the connection
// alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					c.logger.Debug("ws write failed", "conn_id", c.id, "error", err)
				}
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// reply sends evt to this connection only.
func (c *Client) reply(evt Event) {
	b, err := json.Marshal(evt)
	if err != nil {
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.conns[c.id]; !ok {
		return
	}
	select {
	case c.send <- b:
	default:
	}
}
