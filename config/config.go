package config

import (
	"fmt"
	"math"
	"os"
	"spx-premium-scanner/services"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds runtime settings loaded from the environment
type Config struct {
	DataProvider     string
	YahooBaseURL     string
	AlpacaAPIKey     string
	AlpacaSecretKey  string
	ChainCSV         string
	CSVSpot          float64
	Underlying       string
	DBPath           string
	JournalDir       string
	MarketTimezone   *time.Location
	ExtraHolidays    []time.Time
	DefaultMinBid    float64
	DefaultDistance  float64
	ContextSize      int
	HTTPAddr         string
	SchedulerEnabled bool
	LogLevel         logrus.Level
}

// Load reads .env when present, then the process environment
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DataProvider:    strings.ToLower(getEnv("DATA_PROVIDER", "yahoo")),
		YahooBaseURL:    getEnv("YAHOO_BASE_URL", services.DefaultYahooBaseURL),
		AlpacaAPIKey:    getEnv("ALPACA_API_KEY", ""),
		AlpacaSecretKey: getEnv("ALPACA_SECRET_KEY", ""),
		ChainCSV:        getEnv("CHAIN_CSV", ""),
		Underlying:      getEnv("UNDERLYING", "^SPX"),
		DBPath:          getEnv("DB_PATH", "./data/scanner.db"),
		JournalDir:      getEnv("JOURNAL_DIR", "./activity_logs"),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
	}

	var err error
	if cfg.CSVSpot, err = getFloat("CSV_SPOT", 0); err != nil {
		return nil, err
	}
	if cfg.DefaultMinBid, err = getFloat("DEFAULT_MIN_BID", services.DefaultQueryDefaults.MinPremium); err != nil {
		return nil, err
	}
	if cfg.DefaultDistance, err = getFloat("DEFAULT_MIN_DISTANCE", services.DefaultQueryDefaults.MinDistance); err != nil {
		return nil, err
	}
	if cfg.ContextSize, err = getInt("CONTEXT_SIZE", services.DefaultContextSize); err != nil {
		return nil, err
	}
	if cfg.ContextSize < 0 {
		return nil, fmt.Errorf("CONTEXT_SIZE must be >= 0, got %d", cfg.ContextSize)
	}
	if cfg.SchedulerEnabled, err = strconv.ParseBool(getEnv("SCHEDULER_ENABLED", "false")); err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_ENABLED: %w", err)
	}

	if cfg.MarketTimezone, err = time.LoadLocation(getEnv("MARKET_TIMEZONE", "America/New_York")); err != nil {
		return nil, fmt.Errorf("invalid MARKET_TIMEZONE: %w", err)
	}
	if cfg.ExtraHolidays, err = services.ParseDates(getEnv("EXTRA_HOLIDAYS", "")); err != nil {
		return nil, fmt.Errorf("invalid EXTRA_HOLIDAYS: %w", err)
	}
	if cfg.LogLevel, err = logrus.ParseLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	switch cfg.DataProvider {
	case "yahoo", "alpaca", "csv":
	default:
		return nil, fmt.Errorf("invalid DATA_PROVIDER %q: expected yahoo, alpaca or csv", cfg.DataProvider)
	}

	return cfg, nil
}

// QueryDefaults returns the bounds applied when a query omits them
func (c *Config) QueryDefaults() services.QueryDefaults {
	return services.QueryDefaults{
		MinPremium:  c.DefaultMinBid,
		MinDistance: c.DefaultDistance,
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getFloat(key string, fallback float64) (float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s: %q is not a finite number", key, raw)
	}
	return v, nil
}

func getInt(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
