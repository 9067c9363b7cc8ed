package config

import (
	"testing"
	"time"
)

// clearEnv blanks every variable Load reads so host values cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL",
		"DB_MAX_CONNS", "DB_MIN_CONNS", "DB_MAX_CONN_LIFETIME", "DB_MAX_CONN_IDLE_TIME",
		"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB", "REDIS_ENABLED",
		"NSE_BASE_URL", "YAHOO_CHART_URL", "FEAR_GREED_URL", "GIFT_NIFTY_URL",
		"REQUEST_TIMEOUT", "YAHOO_RATE_PER_SEC",
		"FETCH_MAX_RETRIES", "FETCH_RETRY_BASE_DELAY",
		"ROLLING_WINDOW", "FII_ZSCORE_THRESHOLD", "VIX_HIGH_THRESHOLD",
		"SP500_MOVE_THRESHOLD", "PCR_BULL_THRESHOLD", "PCR_BEAR_THRESHOLD",
		"BIAS_COMPONENTS",
		"LOG_LEVEL", "LOG_FORMAT", "LOG_FILE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/niftybias")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "8091" {
		t.Errorf("Port = %s, want 8091", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %s, want development", cfg.Env)
	}
	if cfg.Database.MaxConns != 10 {
		t.Errorf("Database.MaxConns = %d, want 10", cfg.Database.MaxConns)
	}
	if cfg.Database.MaxConnLifetime != time.Hour {
		t.Errorf("Database.MaxConnLifetime = %v, want 1h", cfg.Database.MaxConnLifetime)
	}
	if cfg.Redis.Enabled {
		t.Error("Redis.Enabled = true, want false by default")
	}
	if cfg.Sources.NSEBaseURL != "https://www.nseindia.com" {
		t.Errorf("Sources.NSEBaseURL = %s", cfg.Sources.NSEBaseURL)
	}
	if cfg.Sources.RequestTimeout != 15*time.Second {
		t.Errorf("Sources.RequestTimeout = %v, want 15s", cfg.Sources.RequestTimeout)
	}
	if cfg.Fetch.MaxRetries != 3 {
		t.Errorf("Fetch.MaxRetries = %d, want 3", cfg.Fetch.MaxRetries)
	}
	if cfg.Fetch.RetryBaseDelay != 5*time.Second {
		t.Errorf("Fetch.RetryBaseDelay = %v, want 5s", cfg.Fetch.RetryBaseDelay)
	}
	if cfg.Signals.RollingWindow != 20 {
		t.Errorf("Signals.RollingWindow = %d, want 20", cfg.Signals.RollingWindow)
	}
	if cfg.Signals.PCRBullThreshold != 1.2 {
		t.Errorf("Signals.PCRBullThreshold = %v, want 1.2", cfg.Signals.PCRBullThreshold)
	}
	if cfg.Signals.BiasComponents != 10 {
		t.Errorf("Signals.BiasComponents = %d, want 10", cfg.Signals.BiasComponents)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %s, want info", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %s, want json", cfg.LogFormat)
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://db:5432/custom")
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("DB_MAX_CONNS", "25")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REQUEST_TIMEOUT", "30s")
	t.Setenv("FETCH_MAX_RETRIES", "5")
	t.Setenv("ROLLING_WINDOW", "10")
	t.Setenv("VIX_HIGH_THRESHOLD", "17.5")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Port = %s, want 9000", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Errorf("Env = %s, want production", cfg.Env)
	}
	if cfg.Database.MaxConns != 25 {
		t.Errorf("Database.MaxConns = %d, want 25", cfg.Database.MaxConns)
	}
	if !cfg.Redis.Enabled {
		t.Error("Redis.Enabled = false, want true")
	}
	if cfg.Sources.RequestTimeout != 30*time.Second {
		t.Errorf("Sources.RequestTimeout = %v, want 30s", cfg.Sources.RequestTimeout)
	}
	if cfg.Fetch.MaxRetries != 5 {
		t.Errorf("Fetch.MaxRetries = %d, want 5", cfg.Fetch.MaxRetries)
	}
	if cfg.Signals.RollingWindow != 10 {
		t.Errorf("Signals.RollingWindow = %d, want 10", cfg.Signals.RollingWindow)
	}
	if cfg.Signals.VIXHighThreshold != 17.5 {
		t.Errorf("Signals.VIXHighThreshold = %v, want 17.5", cfg.Signals.VIXHighThreshold)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
	}
}

func TestLoadInvalidValuesFallBackToDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/niftybias")
	t.Setenv("DB_MAX_CONNS", "not-a-number")
	t.Setenv("YAHOO_RATE_PER_SEC", "fast")
	t.Setenv("REQUEST_TIMEOUT", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Database.MaxConns != 10 {
		t.Errorf("Database.MaxConns = %d, want default 10", cfg.Database.MaxConns)
	}
	if cfg.Sources.YahooRatePerSec != 2.0 {
		t.Errorf("Sources.YahooRatePerSec = %v, want default 2.0", cfg.Sources.YahooRatePerSec)
	}
	if cfg.Sources.RequestTimeout != 15*time.Second {
		t.Errorf("Sources.RequestTimeout = %v, want default 15s", cfg.Sources.RequestTimeout)
	}
}

func TestValidateMissingDatabaseURL(t *testing.T) {
	clearEnv(t)

	if _, err := Load(); err == nil {
		t.Error("expected error when DATABASE_URL is missing")
	}
}

func TestValidateInvalidEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/niftybias")
	t.Setenv("ENV", "testing")

	if _, err := Load(); err == nil {
		t.Error("expected error for unknown ENV value")
	}
}

func TestValidateRollingWindowTooSmall(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/niftybias")
	t.Setenv("ROLLING_WINDOW", "1")

	if _, err := Load(); err == nil {
		t.Error("expected error for ROLLING_WINDOW below 2")
	}
}

func TestValidatePCRThresholdOrdering(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/niftybias")
	t.Setenv("PCR_BULL_THRESHOLD", "0.7")
	t.Setenv("PCR_BEAR_THRESHOLD", "1.2")

	if _, err := Load(); err == nil {
		t.Error("expected error when PCR bear threshold is above bull threshold")
	}
}

func TestValidateMaxRetries(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/niftybias")
	t.Setenv("FETCH_MAX_RETRIES", "0")

	if _, err := Load(); err == nil {
		t.Error("expected error for FETCH_MAX_RETRIES below 1")
	}
}
