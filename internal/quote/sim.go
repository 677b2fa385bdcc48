package quote

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// SimFXTicker uses the same symbol as Yahoo so the Converter is shared
const SimFXTicker = YahooFXTicker

// Initial prices, INR listings quoted in rupees
var simInitialPrices = map[string]float64{
	"AAPL":        150.00,
	"GOOGL":       140.00,
	"MSFT":        380.00,
	"TSLA":        250.00,
	"AMZN":        180.00,
	"RELIANCE.NS": 2900.00,
	"TCS.BO":      3900.00,
}

// PriceUpdate is one simulated move
type PriceUpdate struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Change    float64         `json:"change"`
	Timestamp time.Time       `json:"timestamp"`
}

// SimSource is an offline market: a fixed universe whose prices random-walk
// by up to ±2% each Tick. Unknown tickers are rejected.
type SimSource struct {
	mu     sync.RWMutex
	prices map[string]decimal.Decimal
	rnd    *rand.Rand
}

func NewSimSource(seed int64, usdInr float64) *SimSource {
	s := &SimSource{
		prices: make(map[string]decimal.Decimal, len(simInitialPrices)+1),
		rnd:    rand.New(rand.NewSource(seed)),
	}
	for symbol, p := range simInitialPrices {
		s.prices[symbol] = decimal.NewFromFloat(p)
	}
	s.prices[SimFXTicker] = decimal.NewFromFloat(usdInr)
	return s
}

func (s *SimSource) Price(_ context.Context, ticker string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.prices[ticker]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownTicker, ticker)
	}
	return p, nil
}

// SetPrice pins a ticker's price, adding it to the universe if needed
func (s *SimSource) SetPrice(ticker string, price decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[ticker] = price
}

// Symbols lists the tradable universe (the FX rate excluded)
func (s *SimSource) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	symbols := make([]string, 0, len(s.prices))
	for symbol := range s.prices {
		if symbol != SimFXTicker {
			symbols = append(symbols, symbol)
		}
	}
	sort.Strings(symbols)
	return symbols
}

// Tick moves one random symbol by -2% to +2%
func (s *SimSource) Tick() PriceUpdate {
	symbols := s.Symbols()

	s.mu.Lock()
	defer s.mu.Unlock()

	symbol := symbols[s.rnd.Intn(len(symbols))]

	// Simulate price change (-2% to +2%)
	changePercent := (s.rnd.Float64() - 0.5) * 4
	factor := decimal.NewFromFloat(1 + changePercent/100)
	newPrice := s.prices[symbol].Mul(factor).Round(4)
	s.prices[symbol] = newPrice

	return PriceUpdate{
		Symbol:    symbol,
		Price:     newPrice,
		Change:    changePercent,
		Timestamp: time.Now(),
	}
}

// Run ticks every interval until ctx is done
func (s *SimSource) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}
