package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

type Config struct {
	// Ledger backend the dashboard reads from
	APIBaseURL  string
	APIKey      string // sent as X-API-Key; empty = header omitted
	HTTPTimeout time.Duration

	// AI analysis
	// AnalysisURL: optional analysis service; empty = local mock engine
	AnalysisURL   string
	AnalysisDelay time.Duration // artificial delay of the mock engine

	// Dashboard behaviour
	DemoFallback    bool   // substitute demo records when a fetch fails
	DiscardStale    bool   // drop responses that are not the latest issued request
	RefreshSchedule string // cron spec for auto refresh, e.g. "@every 30s"; empty = off
	DashboardPort   int

	// Logging
	LogLevel string
	LogFile  string // TUI mode only

	// Ledger demo API (cmd/ledgerd)
	LedgerDBPath    string
	LedgerPort      int
	LedgerAPIKey    string
	LedgerRateLimit float64 // requests per second per client
	LedgerRateBurst int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		APIBaseURL:  strings.TrimRight(envOr("IOTDASH_API_URL", "http://localhost:8000"), "/"),
		APIKey:      os.Getenv("IOTDASH_API_KEY"),
		HTTPTimeout: envDuration("IOTDASH_HTTP_TIMEOUT", 10*time.Second),

		AnalysisURL:   strings.TrimRight(os.Getenv("IOTDASH_ANALYSIS_URL"), "/"),
		AnalysisDelay: time.Duration(envInt("IOTDASH_ANALYSIS_DELAY_MS", 1500)) * time.Millisecond,

		DemoFallback:    envBool("IOTDASH_DEMO_FALLBACK", true),
		DiscardStale:    envBool("IOTDASH_DISCARD_STALE", true),
		RefreshSchedule: os.Getenv("IOTDASH_REFRESH_SCHEDULE"),
		DashboardPort:   envInt("IOTDASH_DASHBOARD_PORT", 8080),

		LogLevel: envOr("IOTDASH_LOG_LEVEL", "info"),
		LogFile:  envOr("IOTDASH_LOG_FILE", "iotdash.log"),

		LedgerDBPath:    envOr("LEDGER_DB_PATH", "ledger.db"),
		LedgerPort:      envInt("LEDGER_PORT", 8000),
		LedgerAPIKey:    os.Getenv("LEDGER_API_KEY"),
		LedgerRateLimit: envFloat("LEDGER_RATE_LIMIT", 10),
		LedgerRateBurst: envInt("LEDGER_RATE_BURST", 20),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validateBaseURL("IOTDASH_API_URL", c.APIBaseURL); err != nil {
		return err
	}
	if c.AnalysisURL != "" {
		if err := validateBaseURL("IOTDASH_ANALYSIS_URL", c.AnalysisURL); err != nil {
			return err
		}
	}
	if c.AnalysisDelay < 0 {
		return fmt.Errorf("IOTDASH_ANALYSIS_DELAY_MS must not be negative")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("IOTDASH_HTTP_TIMEOUT must be positive")
	}
	if err := validatePort("IOTDASH_DASHBOARD_PORT", c.DashboardPort); err != nil {
		return err
	}
	if err := validatePort("LEDGER_PORT", c.LedgerPort); err != nil {
		return err
	}
	if c.RefreshSchedule != "" {
		if _, err := cron.ParseStandard(c.RefreshSchedule); err != nil {
			return fmt.Errorf("IOTDASH_REFRESH_SCHEDULE: %w", err)
		}
	}
	if c.LedgerRateLimit <= 0 || c.LedgerRateBurst <= 0 {
		return fmt.Errorf("LEDGER_RATE_LIMIT and LEDGER_RATE_BURST must be positive")
	}
	return nil
}

// UsesRemoteAnalysis reports whether analysis runs against an external service.
func (c *Config) UsesRemoteAnalysis() bool {
	return c.AnalysisURL != ""
}

func validateBaseURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", key, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host", key)
	}
	return nil
}

func validatePort(key string, port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("%s out of range: %d", key, port)
	}
	return nil
}

// helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// envDuration accepts Go durations ("15s") or bare seconds ("15").
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
