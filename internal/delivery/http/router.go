package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gdugdh24/matchmaker-backend/internal/delivery/http/handler"
	"github.com/gdugdh24/matchmaker-backend/internal/delivery/http/middleware"
	"github.com/gdugdh24/matchmaker-backend/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const lastActiveInterval = time.Minute

type Router struct {
	profileHandler  *handler.ProfileHandler
	matchingHandler *handler.MatchingHandler
	swipeHandler    *handler.SwipeHandler
	chatHandler     *handler.ChatHandler
	authMiddleware  *middleware.AuthMiddleware
	activity        middleware.ActivityRecorder
	logger          *slog.Logger
}

func NewRouter(
	profileHandler *handler.ProfileHandler,
	matchingHandler *handler.MatchingHandler,
	swipeHandler *handler.SwipeHandler,
	chatHandler *handler.ChatHandler,
	authMiddleware *middleware.AuthMiddleware,
	activity middleware.ActivityRecorder,
	logger *slog.Logger,
) *Router {
	return &Router{
		profileHandler:  profileHandler,
		matchingHandler: matchingHandler,
		swipeHandler:    swipeHandler,
		chatHandler:     chatHandler,
		authMiddleware:  authMiddleware,
		activity:        activity,
		logger:          logger,
	}
}

// RegisterValidators installs the custom binding tags used by the handlers.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("swipe_direction", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseDirection(fl.Field().String())
		return err == nil
	})
}

func (r *Router) Setup() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(r.logger))

	if err := RegisterValidators(); err != nil {
		r.logger.Error("failed to register validators", "error", err)
	}

	// Health check (supports both GET and HEAD)
	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/ws", r.authMiddleware.RequireAuth(), r.chatHandler.Connect)

	// API v1
	v1 := router.Group("/api/v1")
	protected := v1.Group("")
	protected.Use(
		r.authMiddleware.RequireAuth(),
		middleware.LastActive(r.activity, lastActiveInterval, r.logger),
	)
	{
		profile := protected.Group("/profile")
		{
			profile.GET("/me", r.profileHandler.GetMyProfile)
			profile.PUT("/me", r.profileHandler.UpdateMyProfile)
		}

		preferences := protected.Group("/preferences")
		{
			preferences.GET("", r.profileHandler.GetPreferences)
			preferences.PUT("", r.profileHandler.UpdatePreferences)
		}

		protected.GET("/matches", r.matchingHandler.FindMatches)

		swipes := protected.Group("/swipes")
		{
			swipes.POST("/:direction/:candidate_id", r.swipeHandler.CreateSwipe)
			swipes.DELETE("/:candidate_id", r.swipeHandler.Unmatch)
			swipes.GET("/matches", r.swipeHandler.ListMatches)
			swipes.GET("/likes-received", r.swipeHandler.GetLikesReceived)
			swipes.GET("/can-message/:user_id", r.swipeHandler.CanMessage)
		}

		chatGroup := protected.Group("/chat")
		{
			chatGroup.GET("/rooms/:room_id/messages", r.chatHandler.GetMessages)
		}
	}

	return router
}
