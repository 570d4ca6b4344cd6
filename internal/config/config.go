// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir         string  // Base directory for the price database (always absolute)
	Port            int     // HTTP API port
	LogLevel        string  // debug, info, warn, error
	DevMode         bool    // Enables permissive CORS for local frontends
	BenchmarkSymbol string  // Default benchmark instrument (e.g. "^NSEI" for Nifty 50)
	PriceBaseURL    string  // Base URL of the historical price endpoint
	PriceSyncSpec   string  // Cron spec for the benchmark price refresh job
	ExtremeLossNPV  float64 // NPV magnitude above which a failed solve is classified as extreme loss
}

// Load reads configuration from environment variables. A .env file in the
// working directory is honoured when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("XIRR_DATA_DIR", "data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data dir %q: %w", dataDir, err)
	}

	port, err := getEnvInt("XIRR_PORT", 8090)
	if err != nil {
		return nil, err
	}

	extremeLoss, err := getEnvFloat("XIRR_EXTREME_LOSS_NPV", 1000)
	if err != nil {
		return nil, err
	}
	if extremeLoss <= 0 {
		return nil, fmt.Errorf("XIRR_EXTREME_LOSS_NPV must be positive, got %v", extremeLoss)
	}

	return &Config{
		DataDir:         absDataDir,
		Port:            port,
		LogLevel:        getEnv("XIRR_LOG_LEVEL", "info"),
		DevMode:         getEnv("XIRR_DEV_MODE", "") == "true",
		BenchmarkSymbol: getEnv("XIRR_BENCHMARK_SYMBOL", "^NSEI"),
		PriceBaseURL:    getEnv("XIRR_PRICE_BASE_URL", "https://query1.finance.yahoo.com/v8/finance/chart"),
		PriceSyncSpec:   getEnv("XIRR_PRICE_SYNC_SPEC", "@daily"),
		ExtremeLossNPV:  extremeLoss,
	}, nil
}

// PriceDBPath returns the path of the sqlite price history database.
func (c *Config) PriceDBPath() string {
	return filepath.Join(c.DataDir, "prices.db")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return f, nil
}
