package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gdugdh24/matchmaker-backend/internal/config"
	"github.com/gdugdh24/matchmaker-backend/internal/delivery/http"
	"github.com/gdugdh24/matchmaker-backend/internal/delivery/http/handler"
	"github.com/gdugdh24/matchmaker-backend/internal/delivery/http/middleware"
	"github.com/gdugdh24/matchmaker-backend/internal/infrastructure/cache"
	"github.com/gdugdh24/matchmaker-backend/internal/infrastructure/database"
	"github.com/gdugdh24/matchmaker-backend/internal/infrastructure/gemini"
	"github.com/gdugdh24/matchmaker-backend/internal/infrastructure/server"
	"github.com/gdugdh24/matchmaker-backend/internal/realtime"
	"github.com/gdugdh24/matchmaker-backend/internal/repository"
	"github.com/gdugdh24/matchmaker-backend/internal/repository/memory"
	"github.com/gdugdh24/matchmaker-backend/internal/repository/mongodb"
	"github.com/gdugdh24/matchmaker-backend/internal/repository/postgres"
	"github.com/gdugdh24/matchmaker-backend/internal/usecase/auth"
	"github.com/gdugdh24/matchmaker-backend/internal/usecase/chat"
	"github.com/gdugdh24/matchmaker-backend/internal/usecase/matching"
	"github.com/gdugdh24/matchmaker-backend/internal/usecase/profile"
	"github.com/gdugdh24/matchmaker-backend/internal/usecase/swipe"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Container holds all application dependencies
type Container struct {
	Config   *config.Config
	Logger   *slog.Logger
	DB       *sqlx.DB
	Redis    *redis.Client
	Mongo    *mongo.Client
	Gemini   *gemini.GeminiClient
	Hub      *realtime.Hub
	Fanout   *realtime.RedisRegistry
	Notifier *chat.Notifier
	Server   *server.Server
}

type stores struct {
	profiles    repository.ProfileRepository
	preferences repository.PreferenceRepository
	swipes      repository.SwipeRepository
	messages    repository.MessageRepository
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}

	st, err := c.initStores(ctx)
	if err != nil {
		_ = c.Close(context.Background())
		return nil, err
	}

	if cfg.Redis.Enabled() {
		redisClient, err := database.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			if cfg.Realtime.Fanout == config.FanoutRedis {
				_ = c.Close(context.Background())
				return nil, fmt.Errorf("failed to initialize redis: %w", err)
			}
			logger.Warn("redis unavailable, ranked-list cache disabled", "error", err)
		} else {
			c.Redis = redisClient
		}
	}

	var icebreakers chat.IcebreakerGenerator
	if cfg.Gemini.APIKey != "" {
		geminiClient, err := gemini.NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, logger)
		if err != nil {
			// Don't fail, just continue without icebreakers
			logger.Warn("failed to initialize gemini client", "error", err)
		} else {
			c.Gemini = geminiClient
			icebreakers = geminiClient
		}
	}

	// Realtime
	c.Hub = realtime.NewHub(logger)
	var registry realtime.Registry = c.Hub
	if cfg.Realtime.Fanout == config.FanoutRedis {
		c.Fanout = realtime.NewRedisRegistry(c.Redis, cfg.Realtime.Channel, c.Hub, logger)
		registry = c.Fanout
	}

	// Initialize use cases
	var rankCache matching.Cache
	if c.Redis != nil {
		rankCache = cache.NewRedis(c.Redis, logger)
	}
	matchingUseCase := matching.NewMatchingUseCase(
		st.profiles,
		st.preferences,
		st.swipes,
		rankCache,
		matching.Config{
			CandidateCap: cfg.Matching.CandidateCap,
			TopK:         cfg.Matching.TopK,
			CacheTTL:     cfg.Matching.CacheTTL,
		},
		logger,
	)

	c.Notifier = chat.NewNotifier(registry, st.profiles, icebreakers, logger)

	swipeUseCase := swipe.NewSwipeUseCase(
		st.swipes,
		st.profiles,
		c.Notifier,
		matchingUseCase,
		swipe.Options{UnmatchClearsMutual: cfg.Matching.UnmatchClearsMutual},
		logger,
	)

	chatUseCase := chat.NewChatUseCase(st.messages, swipeUseCase, registry, logger)
	profileUseCase := profile.NewProfileUseCase(st.profiles, st.preferences, matchingUseCase)
	tokens := auth.NewTokenService(cfg.JWT.AccessSecret)

	// Initialize handlers
	router := http.NewRouter(
		handler.NewProfileHandler(profileUseCase, logger),
		handler.NewMatchingHandler(matchingUseCase, logger),
		handler.NewSwipeHandler(swipeUseCase, logger),
		handler.NewChatHandler(chatUseCase, c.Hub, logger),
		middleware.NewAuthMiddleware(tokens),
		profileUseCase,
		logger,
	)

	c.Server = server.NewServer(&cfg.Server, router.Setup(), logger)
	return c, nil
}

func (c *Container) initStores(ctx context.Context) (*stores, error) {
	cfg := c.Config
	st := &stores{}

	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		c.Logger.Warn("using in-memory stores, data is lost on restart")
		db := memory.New()
		st.profiles, st.preferences, st.swipes = db, db, db
	default:
		db, err := database.NewPostgresDB(ctx, &cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		c.DB = db
		st.profiles = postgres.NewProfileRepository(db)
		st.preferences = postgres.NewPreferenceRepository(db)
		st.swipes = postgres.NewSwipeRepository(db)
	}

	if cfg.Mongo.URI == "" {
		st.messages = memory.NewMessageStore()
		return st, nil
	}
	client, mdb, err := database.NewMongoClient(ctx, &cfg.Mongo)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mongo: %w", err)
	}
	c.Mongo = client
	messages, err := mongodb.NewMessageRepository(ctx, mdb)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize message store: %w", err)
	}
	st.messages = messages
	return st, nil
}

// Close waits for background notifications and closes all connections.
func (c *Container) Close(ctx context.Context) error {
	if c.Notifier != nil {
		c.Notifier.Wait()
	}

	var errs []error
	if c.Gemini != nil {
		c.Gemini.Close()
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
	}
	if c.Mongo != nil {
		if err := c.Mongo.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to close mongo: %w", err))
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}
	return errors.Join(errs...)
}
