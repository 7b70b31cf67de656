package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	FanoutLocal = "local"
	FanoutRedis = "redis"
)

type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Realtime RealtimeConfig
	Matching MatchingConfig
	Logging  LoggingConfig
	Gemini   GeminiConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	Env             string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// StoreConfig selects the backend of the profile, preference and swipe stores.
type StoreConfig struct {
	Driver string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// MongoConfig configures the chat message store. An empty URI keeps messages
// in process memory.
type MongoConfig struct {
	URI      string
	Database string
}

// RedisConfig configures the ranked-list cache and realtime fan-out. An empty
// host disables both.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	AccessSecret string
}

type RealtimeConfig struct {
	Fanout  string
	Channel string
}

type MatchingConfig struct {
	CandidateCap        int
	TopK                int
	CacheTTL            time.Duration
	UnmatchClearsMutual bool
}

type LoggingConfig struct {
	Level  string
	Format string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("ENV", "development")
	v.SetDefault("SERVER_READ_TIMEOUT", "15s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "15s")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "10s")

	v.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_SSL_MODE", "disable")

	v.SetDefault("MONGO_DATABASE", "matchmaker")

	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("REALTIME_FANOUT", FanoutLocal)
	v.SetDefault("REALTIME_CHANNEL", "matchmaker:realtime")

	v.SetDefault("MATCHING_CANDIDATE_CAP", 100)
	v.SetDefault("MATCHING_TOP_K", 20)
	v.SetDefault("MATCHING_CACHE_TTL", "30s")
	v.SetDefault("MATCHING_UNMATCH_CLEARS_MUTUAL", false)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
}

// Load loads configuration from environment variables or the given .env
// file. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path == "" {
		path = ".env"
	}
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Try to read from .env file, but don't fail if it doesn't exist
	_ = v.ReadInConfig()

	config := &Config{
		Server: ServerConfig{
			Host:            v.GetString("SERVER_HOST"),
			Port:            v.GetInt("SERVER_PORT"),
			Env:             v.GetString("ENV"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(v.GetString("STORE_DRIVER")),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSL_MODE"),
		},
		Mongo: MongoConfig{
			URI:      v.GetString("MONGO_URI"),
			Database: v.GetString("MONGO_DATABASE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Realtime: RealtimeConfig{
			Fanout:  strings.ToLower(v.GetString("REALTIME_FANOUT")),
			Channel: v.GetString("REALTIME_CHANNEL"),
		},
		Matching: MatchingConfig{
			CandidateCap:        v.GetInt("MATCHING_CANDIDATE_CAP"),
			TopK:                v.GetInt("MATCHING_TOP_K"),
			CacheTTL:            v.GetDuration("MATCHING_CACHE_TTL"),
			UnmatchClearsMutual: v.GetBool("MATCHING_UNMATCH_CLEARS_MUTUAL"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Gemini: GeminiConfig{
			APIKey: v.GetString("GEMINI_API_KEY"),
			Model:  v.GetString("GEMINI_MODEL"),
		},
	}

	// Validate critical configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates critical configuration values
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("database name is required")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	if len(c.JWT.AccessSecret) < 32 {
		return fmt.Errorf("JWT access secret must be at least 32 characters")
	}

	switch c.Realtime.Fanout {
	case FanoutLocal:
	case FanoutRedis:
		if c.Redis.Host == "" {
			return fmt.Errorf("redis fan-out requires REDIS_HOST")
		}
		if c.Realtime.Channel == "" {
			return fmt.Errorf("realtime channel is required")
		}
	default:
		return fmt.Errorf("unknown realtime fan-out %q", c.Realtime.Fanout)
	}

	if c.Matching.CandidateCap <= 0 {
		return fmt.Errorf("matching candidate cap must be positive")
	}
	if c.Matching.TopK <= 0 || c.Matching.TopK > c.Matching.CandidateCap {
		return fmt.Errorf("matching top-k must be between 1 and the candidate cap")
	}
	if c.Matching.CacheTTL < 0 {
		return fmt.Errorf("matching cache ttl must not be negative")
	}
	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *ServerConfig) IsProduction() bool {
	return c.Env == "production"
}

// GetDSN returns PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Enabled reports whether a Redis host is configured.
func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}

// GetAddr returns Redis address
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
