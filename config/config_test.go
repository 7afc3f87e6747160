package config

import (
	"os"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/sirupsen/logrus"
)

var configKeys = []string{
	"DATA_PROVIDER", "YAHOO_BASE_URL", "ALPACA_API_KEY", "ALPACA_SECRET_KEY",
	"CHAIN_CSV", "CSV_SPOT", "UNDERLYING", "DB_PATH", "JOURNAL_DIR", "HTTP_ADDR",
	"DEFAULT_MIN_BID", "DEFAULT_MIN_DISTANCE", "CONTEXT_SIZE", "SCHEDULER_ENABLED",
	"MARKET_TIMEZONE", "EXTRA_HOLIDAYS", "LOG_LEVEL",
}

// clearEnv unsets every config key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataProvider != "yahoo" {
		t.Errorf("DataProvider = %q, want yahoo", cfg.DataProvider)
	}
	if cfg.Underlying != "^SPX" {
		t.Errorf("Underlying = %q, want ^SPX", cfg.Underlying)
	}
	if cfg.DefaultMinBid != 0.10 {
		t.Errorf("DefaultMinBid = %v, want 0.10", cfg.DefaultMinBid)
	}
	if cfg.DefaultDistance != 0 {
		t.Errorf("DefaultDistance = %v, want 0", cfg.DefaultDistance)
	}
	if cfg.MarketTimezone.String() != "America/New_York" {
		t.Errorf("MarketTimezone = %s", cfg.MarketTimezone)
	}
	if cfg.LogLevel != logrus.InfoLevel {
		t.Errorf("LogLevel = %s, want info", cfg.LogLevel)
	}
	if cfg.SchedulerEnabled {
		t.Error("scheduler should be disabled by default")
	}
	if len(cfg.ExtraHolidays) != 0 {
		t.Errorf("ExtraHolidays = %v, want none", cfg.ExtraHolidays)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATA_PROVIDER", "CSV")
	t.Setenv("CHAIN_CSV", "chain.csv")
	t.Setenv("CSV_SPOT", "6000.5")
	t.Setenv("DEFAULT_MIN_BID", "0.25")
	t.Setenv("DEFAULT_MIN_DISTANCE", "150")
	t.Setenv("CONTEXT_SIZE", "3")
	t.Setenv("SCHEDULER_ENABLED", "true")
	t.Setenv("EXTRA_HOLIDAYS", "2025-01-09, 2025-06-30")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataProvider != "csv" || cfg.ChainCSV != "chain.csv" || cfg.CSVSpot != 6000.5 {
		t.Errorf("csv provider settings not applied: %+v", cfg)
	}
	defaults := cfg.QueryDefaults()
	if defaults.MinPremium != 0.25 || defaults.MinDistance != 150 {
		t.Errorf("QueryDefaults = %+v", defaults)
	}
	if cfg.ContextSize != 3 || !cfg.SchedulerEnabled || cfg.LogLevel != logrus.DebugLevel {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	want := []time.Time{
		time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
	}
	if len(cfg.ExtraHolidays) != len(want) {
		t.Fatalf("ExtraHolidays = %v, want %v", cfg.ExtraHolidays, want)
	}
	for i := range want {
		if !cfg.ExtraHolidays[i].Equal(want[i]) {
			t.Errorf("ExtraHolidays[%d] = %v, want %v", i, cfg.ExtraHolidays[i], want[i])
		}
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"DATA_PROVIDER", "bloomberg"},
		{"CSV_SPOT", "abc"},
		{"CSV_SPOT", "NaN"},
		{"DEFAULT_MIN_DISTANCE", "+Inf"},
		{"DEFAULT_MIN_BID", "ten cents"},
		{"CONTEXT_SIZE", "-1"},
		{"CONTEXT_SIZE", "two"},
		{"SCHEDULER_ENABLED", "sometimes"},
		{"MARKET_TIMEZONE", "Mars/Olympus"},
		{"EXTRA_HOLIDAYS", "2025-13-01"},
		{"LOG_LEVEL", "loud"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}
