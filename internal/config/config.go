package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// Config holds runtime configuration values for the knowledge-base search server.
type Config struct {
	DBPath         string
	ServerPort     int
	LogLevel       string
	HelpCenterURL  string
	SearchPageSize int
	LLMEndpoint    string
	LLMAPIKey      string
	LLMModel       string
	SentryDSN      string
	Environment    string
	ShutdownGrace  time.Duration
	RateLimit      RateLimitConfig
}

// RateLimitConfig holds the HTTP rate limiter knobs.
type RateLimitConfig struct {
	Burst             int
	RequestsPerSecond float64
	ClientTTL         time.Duration
}

const (
	defaultDBPath          = "./data/kbsearch.db"
	defaultServerPort      = 8080
	defaultLogLevel        = "info"
	defaultEnvironment     = "development"
	defaultHelpCenterURL   = "https://nequi.zendesk.com"
	defaultSearchPageSize  = 5
	defaultShutdownGrace   = 10 * time.Second
	defaultRateLimitBurst  = 20
	defaultRateLimitPerSec = 10.0
	defaultRateLimitTTL    = 5 * time.Minute
)

// Load reads configuration values from environment variables, applying defaults where necessary.
func Load() (*Config, error) {
	cfg := &Config{
		DBPath:        getEnv("DB_PATH", defaultDBPath),
		LogLevel:      getEnv("LOG_LEVEL", defaultLogLevel),
		HelpCenterURL: getEnv("HELP_CENTER_URL", defaultHelpCenterURL),
		LLMEndpoint:   os.Getenv("LLM_ENDPOINT"),
		LLMAPIKey:     os.Getenv("LLM_API_KEY"),
		LLMModel:      os.Getenv("LLM_MODEL"),
		SentryDSN:     os.Getenv("SENTRY_DSN"),
		Environment:   getEnv("ENV", defaultEnvironment),
		ShutdownGrace: defaultShutdownGrace,
		RateLimit: RateLimitConfig{
			Burst:             defaultRateLimitBurst,
			RequestsPerSecond: defaultRateLimitPerSec,
			ClientTTL:         defaultRateLimitTTL,
		},
	}

	port, err := getEnvInt("SERVER_PORT", defaultServerPort)
	if err != nil {
		return nil, err
	}
	cfg.ServerPort = port

	pageSize, err := getEnvInt("SEARCH_PAGE_SIZE", defaultSearchPageSize)
	if err != nil {
		return nil, err
	}
	if pageSize <= 0 {
		return nil, eris.Errorf("SEARCH_PAGE_SIZE must be positive, got %d", pageSize)
	}
	cfg.SearchPageSize = pageSize

	burst, err := getEnvInt("RATE_LIMIT_BURST", defaultRateLimitBurst)
	if err != nil {
		return nil, err
	}
	cfg.RateLimit.Burst = burst

	if raw := os.Getenv("RATE_LIMIT_PER_SECOND"); raw != "" {
		perSecond, parseErr := strconv.ParseFloat(raw, 64)
		if parseErr != nil {
			return nil, eris.Wrapf(parseErr, "invalid RATE_LIMIT_PER_SECOND value: %s", raw)
		}
		cfg.RateLimit.RequestsPerSecond = perSecond
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, eris.Wrapf(err, "invalid %s value: %s", key, raw)
	}

	return value, nil
}
