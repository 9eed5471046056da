package cost

import (
	"context"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/evmscope/tracegas/analysis"
)

// DefaultPricingTTL is how long a fetched price is reused before the
// underlying source is consulted again.
const DefaultPricingTTL = time.Minute

// PriceSource supplies the pricing configuration for cost estimation.
// Implementations backed by live market data belong to the caller; the
// engine only ever reads through this interface.
type PriceSource interface {
	Prices(ctx context.Context) (analysis.PriceConfig, error)
}

// Static is a fixed-price source.
type Static struct {
	Config analysis.PriceConfig
}

func (s Static) Prices(context.Context) (analysis.PriceConfig, error) {
	return s.Config, nil
}

// Cached wraps a PriceSource with a TTL cache so repeated analyses within
// the window reuse one quote instead of hitting the source per call.
type Cached struct {
	source PriceSource
	cache  *ttlcache.Cache[string, analysis.PriceConfig]
}

const cacheKey = "prices"

// NewCached builds a caching wrapper around source. A non-positive ttl
// falls back to DefaultPricingTTL.
func NewCached(source PriceSource, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = DefaultPricingTTL
	}
	return &Cached{
		source: source,
		cache:  ttlcache.New(ttlcache.WithTTL[string, analysis.PriceConfig](ttl)),
	}
}

func (c *Cached) Prices(ctx context.Context) (analysis.PriceConfig, error) {
	if item := c.cache.Get(cacheKey); item != nil && !item.IsExpired() {
		return item.Value(), nil
	}
	prices, err := c.source.Prices(ctx)
	if err != nil {
		return analysis.PriceConfig{}, fmt.Errorf("fetching prices: %w", err)
	}
	c.cache.Set(cacheKey, prices, ttlcache.DefaultTTL)
	return prices, nil
}
