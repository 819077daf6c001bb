package pricing

import (
	"context"
	"math"
	"math/big"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultTTL is how long a fetched price counts as fresh.
const DefaultTTL = 5 * time.Minute

// Fetcher retrieves fiat prices for a batch of canonical ids.
type Fetcher interface {
	FetchPrices(ctx context.Context, ids []string) (map[string]float64, error)
}

type entry struct {
	price     float64
	fetchedAt time.Time
}

// Cache maps token symbols to fiat prices with TTL and stale-fallback
// semantics. Reads are concurrent; the fetch-then-merge step is
// serialized so overlapping TVL passes trigger at most one fetch.
type Cache struct {
	ttl     time.Duration
	fetcher Fetcher
	logger  *zap.Logger
	now     func() time.Time

	fetchMu sync.Mutex
	mu      sync.RWMutex
	entries map[string]entry
}

// Option adjusts cache construction. Tests use it to inject a fake clock.
type Option func(*Cache)

func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func NewCache(fetcher Fetcher, logger *zap.Logger, opts ...Option) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Cache{
		ttl:     DefaultTTL,
		fetcher: fetcher,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns prices for the requested symbols. If every symbol is fresh
// in cache no fetch happens. Otherwise one batch fetch runs; on fetch
// failure the cache falls back to whatever it holds, fresh or stale, and
// returns nil for symbols it has never seen.
func (c *Cache) Get(ctx context.Context, symbols []string) map[string]*float64 {
	out := make(map[string]*float64, len(symbols))
	if len(symbols) == 0 {
		return out
	}

	if c.readFresh(symbols, out) {
		return out
	}

	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()

	// Another batch may have filled the gap while this one waited.
	if c.readFresh(symbols, out) {
		return out
	}

	ids := make([]string, 0, len(symbols))
	idToSymbol := make(map[string]string, len(symbols))
	for _, symbol := range symbols {
		id := CanonicalID(symbol)
		ids = append(ids, id)
		idToSymbol[id] = symbol
	}

	prices, err := c.fetcher.FetchPrices(ctx, ids)
	if err != nil {
		c.logger.Warn("price fetch failed, serving cached values", zap.Error(err))
	} else {
		fetchedAt := c.now()
		c.mu.Lock()
		for id, price := range prices {
			symbol, ok := idToSymbol[id]
			if !ok {
				continue
			}
			c.entries[symbol] = entry{price: price, fetchedAt: fetchedAt}
		}
		c.mu.Unlock()
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, symbol := range symbols {
		if cached, ok := c.entries[symbol]; ok {
			price := cached.price
			out[symbol] = &price
		} else {
			out[symbol] = nil
		}
	}
	return out
}

// GetSync returns a fresh cached price without any possibility of a
// network call. Stale entries are not served here; callers wanting the
// degraded fallback go through Get.
func (c *Cache) GetSync(symbol string) *float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cached, ok := c.entries[symbol]
	if !ok || !c.fresh(cached) {
		return nil
	}
	price := cached.price
	return &price
}

func (c *Cache) readFresh(symbols []string, out map[string]*float64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, symbol := range symbols {
		cached, ok := c.entries[symbol]
		if !ok || !c.fresh(cached) {
			return false
		}
	}
	for _, symbol := range symbols {
		price := c.entries[symbol].price
		out[symbol] = &price
	}
	return true
}

func (c *Cache) fresh(e entry) bool {
	return c.now().Sub(e.fetchedAt) < c.ttl
}

// Value multiplies a token amount by its fiat price. Nil propagates for
// any unusable input so callers can tell "valued at zero" from
// "unknown".
func Value(amount *big.Rat, price *float64) *big.Rat {
	if amount == nil || amount.Sign() <= 0 {
		return nil
	}
	if price == nil || math.IsNaN(*price) || *price <= 0 {
		return nil
	}
	rat := new(big.Rat).SetFloat64(*price)
	if rat == nil {
		return nil
	}
	return rat.Mul(rat, amount)
}
