package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/haorenrr/simple-trading/internal/asset"
	"github.com/haorenrr/simple-trading/internal/engine"
)

type Config struct {
	BaseAsset  asset.Kind
	QuoteAsset asset.Kind
	QueueSize  int
	LogLevel   string
}

// Load reads configuration from the environment, optionally seeded by
// a .env file. A missing .env is not an error.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		BaseAsset:  asset.Kind(getenv("TRADING_BASE_ASSET", "AAPL")),
		QuoteAsset: asset.Kind(getenv("TRADING_QUOTE_ASSET", "USD")),
		LogLevel:   getenv("LOG_LEVEL", "info"),
	}

	size, err := strconv.Atoi(getenv("ENGINE_QUEUE_SIZE", strconv.Itoa(engine.DefaultQueueSize)))
	if err != nil || size <= 0 {
		return Config{}, fmt.Errorf("invalid ENGINE_QUEUE_SIZE: %q", os.Getenv("ENGINE_QUEUE_SIZE"))
	}
	cfg.QueueSize = size

	if cfg.BaseAsset == cfg.QuoteAsset {
		return Config{}, fmt.Errorf("base and quote asset must differ, both %q", cfg.BaseAsset)
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
