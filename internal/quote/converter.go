package quote

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Converter normalizes every price to USD. Tickers listed on NSE (.NS) or
// BSE (.BO) are quoted in INR and divided by the USD/INR rate.
type Converter struct {
	source   Oracle
	fxTicker string
}

func NewConverter(source Oracle, fxTicker string) *Converter {
	return &Converter{source: source, fxTicker: fxTicker}
}

func (c *Converter) Price(ctx context.Context, ticker string) (decimal.Decimal, error) {
	price, err := c.source.Price(ctx, ticker)
	if err != nil {
		return decimal.Zero, err
	}
	if !IsLocalListing(ticker) {
		return price, nil
	}

	rate, err := c.source.Price(ctx, c.fxTicker)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: exchange rate %s: %w", ErrProvider, c.fxTicker, err)
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: exchange rate %s is %s", ErrProvider, c.fxTicker, rate)
	}
	return price.DivRound(rate, 6), nil
}
