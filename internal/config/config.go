// Package config provides environment-based configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server
	ServerPort int
	LogLevel   string
	LogPretty  bool

	// Data
	DataDir string

	// Playbook (empty path loads the embedded default)
	PlaybookPath string

	// Valuation
	RiskFreeRate float64

	// Regime classification
	ConfirmationBars int

	// Repair engine
	RepairDeltaThreshold float64
	RepairLossRatio      float64
	AccountEquity        float64

	// Batch refresh
	Watchlist   []string
	Workers     int
	RefreshCron string
	BarHistory  int
}

// Load reads configuration from environment variables, with .env support
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort: getEnvAsInt("SERVER_PORT", 8090),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogPretty:  getEnvAsBool("LOG_PRETTY", false),

		DataDir: getEnv("DATA_DIR", "./data"),

		PlaybookPath: getEnv("PLAYBOOK_PATH", ""),

		RiskFreeRate: getEnvAsFloat("RISK_FREE_RATE", 0.045),

		ConfirmationBars: getEnvAsInt("CONFIRMATION_BARS", 3),

		RepairDeltaThreshold: getEnvAsFloat("REPAIR_DELTA_THRESHOLD", 0.25),
		RepairLossRatio:      getEnvAsFloat("REPAIR_LOSS_RATIO", 0.10),
		AccountEquity:        getEnvAsFloat("ACCOUNT_EQUITY", 100000),

		Watchlist:   getEnvAsList("WATCHLIST", "SPY"),
		Workers:     getEnvAsInt("WORKERS", 4),
		RefreshCron: getEnv("REFRESH_CRON", "0 22 * * 1-5"),
		BarHistory:  getEnvAsInt("BAR_HISTORY", 500),
	}

	// Resolve data dir to an absolute path so databases land in the same
	// place regardless of working directory
	absDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data dir: %w", err)
	}
	cfg.DataDir = absDir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid SERVER_PORT: %d", c.ServerPort)
	}
	if c.ConfirmationBars < 1 {
		return fmt.Errorf("CONFIRMATION_BARS must be at least 1, got %d", c.ConfirmationBars)
	}
	if c.RiskFreeRate < 0 || c.RiskFreeRate > 0.20 {
		return fmt.Errorf("RISK_FREE_RATE out of range: %g", c.RiskFreeRate)
	}
	if c.RepairDeltaThreshold <= 0 || c.RepairLossRatio <= 0 {
		return fmt.Errorf("repair thresholds must be positive")
	}
	if c.AccountEquity <= 0 {
		return fmt.Errorf("ACCOUNT_EQUITY must be positive, got %g", c.AccountEquity)
	}
	if c.Workers < 1 {
		return fmt.Errorf("WORKERS must be at least 1, got %d", c.Workers)
	}
	if len(c.Watchlist) == 0 {
		return fmt.Errorf("WATCHLIST must name at least one symbol")
	}
	if c.BarHistory < 60 {
		return fmt.Errorf("BAR_HISTORY must be at least 60, got %d", c.BarHistory)
	}
	return nil
}

// ModelsDBPath returns the path of the trained-models database
func (c *Config) ModelsDBPath() string {
	return filepath.Join(c.DataDir, "models.db")
}

// SnapshotsDBPath returns the path of the snapshots database
func (c *Config) SnapshotsDBPath() string {
	return filepath.Join(c.DataDir, "snapshots.db")
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsFloat gets an environment variable as a float with a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsBool gets an environment variable as a boolean with a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsList gets a comma-separated environment variable as a string slice
func getEnvAsList(key, defaultValue string) []string {
	value := getEnv(key, defaultValue)
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
