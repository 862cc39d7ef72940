package config

import (
	"fmt"
	"os"
	"sofinlearn/internal/constants"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	DBPath string

	// Remote leaderboard store (PostgREST-style endpoint) and its
	// change-notification websocket feed. The feed URL may be empty,
	// which disables live invalidation.
	LeaderboardURL     string
	LeaderboardAPIKey  string
	LeaderboardFeedURL string

	LogLevel string
	CacheTTL time.Duration
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		DBPath:             getEnv("DB_PATH", "sofinlearn.db"),
		LeaderboardURL:     getEnv("LEADERBOARD_URL", ""),
		LeaderboardAPIKey:  getEnv("LEADERBOARD_API_KEY", ""),
		LeaderboardFeedURL: getEnv("LEADERBOARD_FEED_URL", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CacheTTL:           constants.LeaderboardCacheTTL,
	}

	if cfg.LeaderboardURL == "" {
		return nil, fmt.Errorf("LEADERBOARD_URL is required")
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("leaderboard_url", cfg.LeaderboardURL).
		Str("log_level", cfg.LogLevel).
		Dur("cache_ttl", cfg.CacheTTL).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var Module = fx.Provide(Load)
