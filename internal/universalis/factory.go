package universalis

import (
	"fmt"
	"log/slog"

	"craftcheck/internal/config"
)

// NewFromConfig creates the configured price client, wrapped in a cache
// unless the cache is disabled.
func NewFromConfig(logger *slog.Logger, cfg *config.Config) (PriceClient, error) {
	var client PriceClient
	switch cfg.Market.Provider {
	case "universalis":
		client = NewClient(logger, cfg.Market)
	default:
		return nil, fmt.Errorf("unknown price provider: %s", cfg.Market.Provider)
	}

	if cfg.Cache.Size > 0 {
		client = NewCachedClient(client, logger, cfg.Cache.Size, cfg.Cache.TTL())
	}
	return client, nil
}
