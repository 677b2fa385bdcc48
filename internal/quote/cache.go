package quote

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/shopspring/decimal"
)

// Cached serves repeated quotes from memory for ttl. Failed lookups are
// never cached, so a provider outage always surfaces as an error.
type Cached struct {
	oracle Oracle
	c      *ristretto.Cache
	ttl    time.Duration
}

func NewCached(oracle Oracle, maxCost int64, ttl time.Duration) (*Cached, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cached{oracle: oracle, c: c, ttl: ttl}, nil
}

func (c *Cached) Price(ctx context.Context, ticker string) (decimal.Decimal, error) {
	if v, ok := c.c.Get(ticker); ok {
		return v.(decimal.Decimal), nil
	}

	price, err := c.oracle.Price(ctx, ticker)
	if err != nil {
		return decimal.Zero, err
	}

	c.c.SetWithTTL(ticker, price, 1, c.ttl)
	c.c.Wait()
	return price, nil
}

func (c *Cached) Close() { c.c.Close() }
