package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gdugdh24/matchmaker-backend/internal/domain"
	"github.com/gin-gonic/gin"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidOperation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with the status of its kind. Internal errors are
// logged and hidden from the client.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusInternalServerError:
		logger.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, ErrorResponse{Error: "internal error"})
	case http.StatusServiceUnavailable:
		logger.Warn("store unavailable", "path", c.FullPath(), "error", err)
		c.JSON(status, ErrorResponse{Error: "service temporarily unavailable"})
	default:
		c.JSON(status, ErrorResponse{Error: err.Error()})
	}
}

func respondUnauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
}
