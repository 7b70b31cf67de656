package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ActivityRecorder stores the last activity time of a user.
type ActivityRecorder interface {
	TouchLastActive(ctx context.Context, userID string) error
}

// LastActive records activity of authenticated users after the request is
// served. Writes for the same user are throttled to one per interval.
func LastActive(recorder ActivityRecorder, interval time.Duration, logger *slog.Logger) gin.HandlerFunc {
	var (
		mu   sync.Mutex
		seen = make(map[string]time.Time)
	)
	due := func(userID string, now time.Time) bool {
		mu.Lock()
		defer mu.Unlock()
		if last, ok := seen[userID]; ok && now.Sub(last) < interval {
			return false
		}
		seen[userID] = now
		return true
	}

	return func(c *gin.Context) {
		c.Next()

		userID, ok := UserID(c)
		if !ok || !due(userID, time.Now()) {
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := recorder.TouchLastActive(ctx, userID); err != nil {
				logger.Debug("failed to record activity", "user_id", userID, "error", err)
			}
		}()
	}
}
