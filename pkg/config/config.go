package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// Every environment variable is read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Source endpoints
	Sources SourcesConfig

	// Fetch behaviour
	Fetch FetchConfig

	// Signal thresholds and windows
	Signals SignalsConfig

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string // empty disables file output
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// SourcesConfig holds base URLs for the external data sources
type SourcesConfig struct {
	NSEBaseURL      string
	YahooChartURL   string
	FearGreedURL    string
	GiftNiftyURL    string
	RequestTimeout  time.Duration
	YahooRatePerSec float64 // requests per second against the Yahoo chart API
}

// FetchConfig holds retry behaviour for source fetches
type FetchConfig struct {
	MaxRetries     int           // attempts per source
	RetryBaseDelay time.Duration // linear backoff unit: sleep base*attempt between attempts
}

// SignalsConfig holds rolling windows and scoring thresholds
type SignalsConfig struct {
	RollingWindow      int     // trading days for z-score / rolling mean
	FIIZScoreThreshold float64 // |z| above this contributes to the bias score
	VIXHighThreshold   float64 // India VIX level marking a high-volatility regime
	SP500MoveThreshold float64 // percent move marking a global risk event
	PCRBullThreshold   float64
	PCRBearThreshold   float64
	BiasComponents     int // active bias components, drives the label bins
}

// Load reads configuration from environment variables.
// This is the only function that calls os.Getenv().
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8091"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Sources: SourcesConfig{
			NSEBaseURL:      getEnv("NSE_BASE_URL", "https://www.nseindia.com"),
			YahooChartURL:   getEnv("YAHOO_CHART_URL", "https://query1.finance.yahoo.com/v8/finance/chart"),
			FearGreedURL:    getEnv("FEAR_GREED_URL", "https://production.dataviz.cnn.io/index/fearandgreed/graphdata"),
			GiftNiftyURL:    getEnv("GIFT_NIFTY_URL", ""),
			RequestTimeout:  getEnvAsDuration("REQUEST_TIMEOUT", "15s"),
			YahooRatePerSec: getEnvAsFloat("YAHOO_RATE_PER_SEC", 2.0),
		},

		Fetch: FetchConfig{
			MaxRetries:     getEnvAsInt("FETCH_MAX_RETRIES", 3),
			RetryBaseDelay: getEnvAsDuration("FETCH_RETRY_BASE_DELAY", "5s"),
		},

		Signals: SignalsConfig{
			RollingWindow:      getEnvAsInt("ROLLING_WINDOW", 20),
			FIIZScoreThreshold: getEnvAsFloat("FII_ZSCORE_THRESHOLD", 1.0),
			VIXHighThreshold:   getEnvAsFloat("VIX_HIGH_THRESHOLD", 15.0),
			SP500MoveThreshold: getEnvAsFloat("SP500_MOVE_THRESHOLD", 0.7),
			PCRBullThreshold:   getEnvAsFloat("PCR_BULL_THRESHOLD", 1.2),
			PCRBearThreshold:   getEnvAsFloat("PCR_BEAR_THRESHOLD", 0.7),
			BiasComponents:     getEnvAsInt("BIAS_COMPONENTS", 10),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		LogFile:   getEnv("LOG_FILE", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Signals.RollingWindow < 2 {
		return fmt.Errorf("ROLLING_WINDOW must be at least 2, got %d", c.Signals.RollingWindow)
	}

	if c.Signals.PCRBearThreshold >= c.Signals.PCRBullThreshold {
		return fmt.Errorf("PCR_BEAR_THRESHOLD must be below PCR_BULL_THRESHOLD")
	}

	if c.Fetch.MaxRetries < 1 {
		return fmt.Errorf("FETCH_MAX_RETRIES must be at least 1, got %d", c.Fetch.MaxRetries)
	}

	if c.Signals.BiasComponents < 1 {
		return fmt.Errorf("BIAS_COMPONENTS must be at least 1, got %d", c.Signals.BiasComponents)
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
