package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"klineChart/internal/adapters/logger" // Import the logger package for LogLevel
	"klineChart/internal/indicators"
	"klineChart/internal/ports"
)

// Config holds all application configuration.
type Config struct {
	// Feed
	FeedURL       string        // HTTP feed; empty means DataFile is read instead
	DataFile      string        // Static feed document, also published at /data.json
	FetchTimeout  time.Duration // HTTP loader timeout
	StrictRecords bool          // Reject malformed records instead of propagating NaN

	// Indicators
	MAPeriods []int // e.g., 5,10,20,30
	MAType    indicators.MovingAverageType

	// Chart
	ChartTitle    string
	ChartWidth    int
	ChartHeight   int
	LabelLocation *time.Location // Location used for the month-day category labels

	// Server
	ListenAddr string

	// Logging
	LogLevel  logger.LogLevel // Use the LogLevel type from the logger adapter
	LogFormat string          // "console" or "json"
	LogFile   string          // Optional rotating log file

	// Feed producer (cmd/fetch_klines)
	APIKey        string
	SecretKey     string
	IsTestnet     bool
	Symbol        string
	Interval      string
	FetchDays     int
	FeedLimit     int
	ArchiveDBPath string
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs error // Collect validation errors

	// Feed
	cfg.FeedURL = getEnv("FEED_URL", "")
	cfg.DataFile = getEnv("DATA_FILE", "./data/data.json")
	if cfg.FeedURL == "" && cfg.DataFile == "" {
		errs = multierr.Append(errs, fmt.Errorf("one of FEED_URL or DATA_FILE must be set"))
	}

	timeoutSeconds, err := getEnvAsIntRequired("FETCH_TIMEOUT_SECONDS", 10)
	if err != nil {
		errs = multierr.Append(errs, err)
	} else if timeoutSeconds <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("FETCH_TIMEOUT_SECONDS must be positive"))
	}
	cfg.FetchTimeout = time.Duration(timeoutSeconds) * time.Second

	cfg.StrictRecords = getEnvAsBool("STRICT_RECORDS", false)

	// Indicators
	cfg.MAPeriods, err = parsePeriods(getEnv("MA_PERIODS", "5,10,20,30"))
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("invalid MA_PERIODS: %w", err))
	}

	cfg.MAType, err = indicators.ParseMovingAverageType(getEnv("MA_TYPE", "SMA"))
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("invalid MA_TYPE: %w", err))
	}

	// Chart
	cfg.ChartTitle = getEnv("CHART_TITLE", "Bitcoin Trend")

	cfg.ChartWidth, err = getEnvAsIntRequired("CHART_WIDTH", 1280)
	if err != nil {
		errs = multierr.Append(errs, err)
	} else if cfg.ChartWidth <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("CHART_WIDTH must be positive"))
	}

	cfg.ChartHeight, err = getEnvAsIntRequired("CHART_HEIGHT", 384)
	if err != nil {
		errs = multierr.Append(errs, err)
	} else if cfg.ChartHeight <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("CHART_HEIGHT must be positive"))
	}

	tz := getEnv("LABEL_TIMEZONE", "Local")
	cfg.LabelLocation, err = time.LoadLocation(tz)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("invalid LABEL_TIMEZONE '%s': %w", tz, err))
	}

	// Server
	cfg.ListenAddr = getEnv("LISTEN_ADDR", ":8080")

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", "console"))
	if cfg.LogFormat != "console" && cfg.LogFormat != "json" {
		errs = multierr.Append(errs, fmt.Errorf("LOG_FORMAT must be 'console' or 'json'"))
	}
	cfg.LogFile = getEnv("LOG_FILE", "")

	// Feed producer. The kline endpoint is public, so keys are optional.
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", false)

	cfg.Symbol = strings.ToUpper(getEnv("SYMBOL", "BTCUSDT"))
	cfg.Interval = getEnv("INTERVAL", "1d")

	cfg.FetchDays, err = getEnvAsIntRequired("FETCH_DAYS", 365)
	if err != nil {
		errs = multierr.Append(errs, err)
	} else if cfg.FetchDays <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("FETCH_DAYS must be positive"))
	}

	cfg.FeedLimit, err = getEnvAsIntRequired("FEED_LIMIT", 500)
	if err != nil {
		errs = multierr.Append(errs, err)
	} else if cfg.FeedLimit <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("FEED_LIMIT must be positive"))
	}

	cfg.ArchiveDBPath = getEnv("ARCHIVE_DB_PATH", "./data/klines.db")

	// Combine validation errors
	if errs != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrConfigurationError, errs)
	}

	return cfg, nil
}

// parsePeriods reads a comma-separated list of positive window sizes.
func parsePeriods(s string) ([]int, error) {
	var periods []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("'%s' is not an integer", part)
		}
		if n < 1 {
			return nil, fmt.Errorf("window %d must be at least 1", n)
		}
		periods = append(periods, n)
	}
	if len(periods) == 0 {
		return nil, fmt.Errorf("at least one window is required")
	}
	return periods, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
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
