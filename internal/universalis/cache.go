package universalis

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"craftcheck/internal/metrics"
)

// CachedClient memoises FetchMarket results per (item set, region) for the
// lifetime of the process, bounded by size and TTL.
type CachedClient struct {
	next   PriceClient
	logger *slog.Logger
	lru    *expirable.LRU[string, *MarketData]
}

// NewCachedClient wraps next with an LRU cache of the given size and TTL.
func NewCachedClient(next PriceClient, logger *slog.Logger, size int, ttl time.Duration) *CachedClient {
	return &CachedClient{
		next:   next,
		logger: logger,
		lru:    expirable.NewLRU[string, *MarketData](size, nil, ttl),
	}
}

func (c *CachedClient) GetName() string {
	return c.next.GetName()
}

// FetchMarket returns the cached payload for the same item set and region,
// or fetches and stores it. Failures are not cached.
func (c *CachedClient) FetchMarket(ctx context.Context, region string, itemIDs []int) (*MarketData, error) {
	key := cacheKey(region, itemIDs)
	if data, ok := c.lru.Get(key); ok {
		metrics.PriceCacheLookups.WithLabelValues(metrics.CacheHit).Inc()
		c.logger.Debug("Price cache hit", "key", key)
		return data, nil
	}
	metrics.PriceCacheLookups.WithLabelValues(metrics.CacheMiss).Inc()

	data, err := c.next.FetchMarket(ctx, region, itemIDs)
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, data)
	return data, nil
}

// Purge drops every cached entry.
func (c *CachedClient) Purge() {
	c.lru.Purge()
}

// cacheKey is independent of item order and duplicates.
func cacheKey(region string, itemIDs []int) string {
	ids := slices.Clone(itemIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.ToLower(region) + ":" + strings.Join(parts, ",")
}
