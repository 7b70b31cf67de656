package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gdugdh24/matchmaker-backend/internal/delivery/http/middleware"
	"github.com/gdugdh24/matchmaker-backend/internal/realtime"
	"github.com/gdugdh24/matchmaker-backend/internal/usecase/chat"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type ChatHandler struct {
	chatUseCase *chat.ChatUseCase
	hub         *realtime.Hub
	upgrader    websocket.Upgrader
	logger      *slog.Logger
}

func NewChatHandler(chatUseCase *chat.ChatUseCase, hub *realtime.Hub, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
		hub:         hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}
}

type historyQuery struct {
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=200"`
	Before string `form:"before"`
}

// GetMessages handles GET /chat/rooms/:room_id/messages
// @Summary Message history of a room
// @Description Newest first. Page with the timestamp of the oldest message seen.
// @Tags chat
// @Security BearerAuth
// @Produce json
// @Param room_id path string true "Room ID"
// @Param limit query int false "Page size"
// @Param before query string false "RFC3339 timestamp"
// @Success 200 {array} domain.Message
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /chat/rooms/{room_id}/messages [get]
func (h *ChatHandler) GetMessages(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	var q historyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid query"})
		return
	}
	var before time.Time
	if q.Before != "" {
		t, err := time.Parse(time.RFC3339Nano, q.Before)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "before must be an RFC3339 timestamp"})
			return
		}
		before = t
	}

	messages, err := h.chatUseCase.History(c.Request.Context(), userID, c.Param("room_id"), q.Limit, before)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": messages,
		"count":    len(messages),
	})
}

// Connect handles GET /ws and keeps the socket open until the client leaves.
func (h *ChatHandler) Connect(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "user_id", userID, "error", err)
		return
	}

	client := realtime.NewClient(h.hub, conn, userID, h.chatUseCase, h.logger)
	h.hub.Register(client)

	ctx := c.Request.Context()
	if err := h.chatUseCase.OnConnect(ctx, userID); err != nil {
		h.logger.Warn("failed to join match rooms", "user_id", userID, "error", err)
	}

	go client.WritePump()
	client.ReadPump(ctx)
}
