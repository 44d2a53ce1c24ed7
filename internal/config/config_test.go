package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_PATH", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("HELP_CENTER_URL", "")
	t.Setenv("SEARCH_PAGE_SIZE", "")
	t.Setenv("LLM_ENDPOINT", "")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("SENTRY_DSN", "")
	t.Setenv("ENV", "")
	t.Setenv("RATE_LIMIT_BURST", "")
	t.Setenv("RATE_LIMIT_PER_SECOND", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.DBPath != defaultDBPath {
		t.Errorf("expected default DB path %q, got %q", defaultDBPath, cfg.DBPath)
	}

	if cfg.ServerPort != defaultServerPort {
		t.Errorf("expected default server port %d, got %d", defaultServerPort, cfg.ServerPort)
	}

	if cfg.LogLevel != defaultLogLevel {
		t.Errorf("expected default log level %q, got %q", defaultLogLevel, cfg.LogLevel)
	}

	if cfg.HelpCenterURL != defaultHelpCenterURL {
		t.Errorf("expected default help center URL %q, got %q", defaultHelpCenterURL, cfg.HelpCenterURL)
	}

	if cfg.SearchPageSize != defaultSearchPageSize {
		t.Errorf("expected default page size %d, got %d", defaultSearchPageSize, cfg.SearchPageSize)
	}

	if cfg.Environment != defaultEnvironment {
		t.Errorf("expected default environment %q, got %q", defaultEnvironment, cfg.Environment)
	}

	if cfg.ShutdownGrace != defaultShutdownGrace {
		t.Errorf("expected shutdown grace %s, got %s", defaultShutdownGrace, cfg.ShutdownGrace)
	}

	if cfg.LLMAPIKey != "" {
		t.Errorf("expected empty LLM API key, got %q", cfg.LLMAPIKey)
	}

	if cfg.SentryDSN != "" {
		t.Errorf("expected empty Sentry DSN, got %q", cfg.SentryDSN)
	}

	if cfg.RateLimit.Burst != defaultRateLimitBurst {
		t.Errorf("expected default rate limit burst %d, got %d", defaultRateLimitBurst, cfg.RateLimit.Burst)
	}
}

func TestLoadWithExplicitValues(t *testing.T) {
	t.Setenv("DB_PATH", "/tmp/kbsearch.db")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HELP_CENTER_URL", "https://support.example.com")
	t.Setenv("SEARCH_PAGE_SIZE", "10")
	t.Setenv("LLM_ENDPOINT", "https://example.com/llm")
	t.Setenv("LLM_API_KEY", "secret")
	t.Setenv("LLM_MODEL", "answer-model")
	t.Setenv("SENTRY_DSN", "dsn")
	t.Setenv("ENV", "production")
	t.Setenv("RATE_LIMIT_BURST", "7")
	t.Setenv("RATE_LIMIT_PER_SECOND", "2.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.DBPath != "/tmp/kbsearch.db" {
		t.Errorf("expected DB path %q, got %q", "/tmp/kbsearch.db", cfg.DBPath)
	}

	if cfg.ServerPort != 9090 {
		t.Errorf("expected server port 9090, got %d", cfg.ServerPort)
	}

	if cfg.HelpCenterURL != "https://support.example.com" {
		t.Errorf("expected help center URL override, got %q", cfg.HelpCenterURL)
	}

	if cfg.SearchPageSize != 10 {
		t.Errorf("expected page size 10, got %d", cfg.SearchPageSize)
	}

	if cfg.LLMModel != "answer-model" {
		t.Errorf("expected LLM model %q, got %q", "answer-model", cfg.LLMModel)
	}

	if cfg.Environment != "production" {
		t.Errorf("expected environment production, got %q", cfg.Environment)
	}

	if cfg.RateLimit.Burst != 7 {
		t.Errorf("expected rate limit burst 7, got %d", cfg.RateLimit.Burst)
	}

	if cfg.RateLimit.RequestsPerSecond != 2.5 {
		t.Errorf("expected rate limit per second 2.5, got %f", cfg.RateLimit.RequestsPerSecond)
	}
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-port")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "SERVER_PORT") {
		t.Fatalf("expected SERVER_PORT error, got %v", err)
	}
}

func TestLoadRejectsNonPositivePageSize(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("SEARCH_PAGE_SIZE", "0")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "SEARCH_PAGE_SIZE") {
		t.Fatalf("expected SEARCH_PAGE_SIZE error, got %v", err)
	}
}
