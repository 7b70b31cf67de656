package handler

import (
	"log/slog"
	"net/http"

	"github.com/gdugdh24/matchmaker-backend/internal/delivery/http/middleware"
	"github.com/gdugdh24/matchmaker-backend/internal/usecase/matching"
	"github.com/gin-gonic/gin"
)

type MatchingHandler struct {
	matchingUseCase *matching.MatchingUseCase
	logger          *slog.Logger
}

func NewMatchingHandler(matchingUseCase *matching.MatchingUseCase, logger *slog.Logger) *MatchingHandler {
	return &MatchingHandler{
		matchingUseCase: matchingUseCase,
		logger:          logger,
	}
}

type findMatchesQuery struct {
	Limit int    `form:"limit" binding:"omitempty,min=1"`
	Mode  string `form:"mode" binding:"omitempty,oneof=fresh liked"`
}

// FindMatches handles GET /matches
// @Summary Ranked candidates
// @Description Returns candidates ordered by compatibility score
// @Tags matching
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Maximum number of candidates"
// @Param mode query string false "fresh (default) or liked"
// @Success 200 {array} matching.MatchResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /matches [get]
func (h *MatchingHandler) FindMatches(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	var q findMatchesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid query"})
		return
	}
	mode, err := matching.ParseMode(q.Mode)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	results, err := h.matchingUseCase.FindMatches(c.Request.Context(), userID, q.Limit, mode)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"matches": results,
		"count":   len(results),
	})
}
