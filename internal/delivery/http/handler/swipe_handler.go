package handler

import (
	"log/slog"
	"net/http"

	"github.com/gdugdh24/matchmaker-backend/internal/delivery/http/middleware"
	"github.com/gdugdh24/matchmaker-backend/internal/domain"
	"github.com/gdugdh24/matchmaker-backend/internal/usecase/swipe"
	"github.com/gin-gonic/gin"
)

type SwipeHandler struct {
	swipeUseCase *swipe.SwipeUseCase
	logger       *slog.Logger
}

func NewSwipeHandler(swipeUseCase *swipe.SwipeUseCase, logger *slog.Logger) *SwipeHandler {
	return &SwipeHandler{
		swipeUseCase: swipeUseCase,
		logger:       logger,
	}
}

type swipeURI struct {
	Direction   string `uri:"direction" binding:"required,swipe_direction"`
	CandidateID string `uri:"candidate_id" binding:"required,uuid"`
}

type candidateURI struct {
	CandidateID string `uri:"candidate_id" binding:"required,uuid"`
}

type userURI struct {
	UserID string `uri:"user_id" binding:"required,uuid"`
}

type pageQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// CreateSwipe handles POST /swipes/:direction/:candidate_id
// @Summary Swipe on a candidate
// @Tags swipe
// @Security BearerAuth
// @Produce json
// @Param direction path string true "left or right"
// @Param candidate_id path string true "Candidate ID"
// @Success 200 {object} swipe.SwipeResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /swipes/{direction}/{candidate_id} [post]
func (h *SwipeHandler) CreateSwipe(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	var uri swipeURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid direction or candidate id"})
		return
	}

	resp, err := h.swipeUseCase.Swipe(c.Request.Context(), userID, uri.CandidateID, domain.Direction(uri.Direction))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CanMessage handles GET /swipes/can-message/:user_id
// @Summary Whether the caller may message a user
// @Tags swipe
// @Security BearerAuth
// @Produce json
// @Param user_id path string true "Recipient ID"
// @Success 200 {object} map[string]bool
// @Router /swipes/can-message/{user_id} [get]
func (h *SwipeHandler) CanMessage(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	var uri userURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}

	allowed, err := h.swipeUseCase.CanMessage(c.Request.Context(), userID, uri.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"can_message": allowed})
}

// ListMatches handles GET /swipes/matches
// @Summary Mutual matches of the caller
// @Tags swipe
// @Security BearerAuth
// @Produce json
// @Success 200 {array} domain.Match
// @Router /swipes/matches [get]
func (h *SwipeHandler) ListMatches(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	matches, err := h.swipeUseCase.ListMutualMatches(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"matches": matches,
		"count":   len(matches),
	})
}

// Unmatch handles DELETE /swipes/:candidate_id
// @Summary Revoke a right swipe
// @Tags swipe
// @Security BearerAuth
// @Produce json
// @Param candidate_id path string true "Candidate ID"
// @Success 200 {object} domain.Swipe
// @Failure 404 {object} ErrorResponse
// @Router /swipes/{candidate_id} [delete]
func (h *SwipeHandler) Unmatch(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	var uri candidateURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid candidate id"})
		return
	}

	s, err := h.swipeUseCase.Unmatch(c.Request.Context(), userID, uri.CandidateID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, s)
}

// GetLikesReceived handles GET /swipes/likes-received
// @Summary Users who liked the caller and are still unanswered
// @Tags swipe
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} swipe.LikeReceived
// @Router /swipes/likes-received [get]
func (h *SwipeHandler) GetLikesReceived(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid query"})
		return
	}

	likes, err := h.swipeUseCase.GetLikesReceived(c.Request.Context(), userID, q.Limit, q.Offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"likes": likes,
		"count": len(likes),
	})
}
