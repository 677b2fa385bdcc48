package quote

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownTicker = errors.New("ticker not available")
	ErrProvider      = errors.New("quote provider failure")
)

// Oracle resolves a ticker to its latest price
type Oracle interface {
	Price(ctx context.Context, ticker string) (decimal.Decimal, error)
}

// OracleFunc adapts a function to Oracle
type OracleFunc func(ctx context.Context, ticker string) (decimal.Decimal, error)

func (f OracleFunc) Price(ctx context.Context, ticker string) (decimal.Decimal, error) {
	return f(ctx, ticker)
}

// Local-currency listing suffixes (NSE and BSE, quoted in INR)
var localSuffixes = []string{".NS", ".BO"}

// IsLocalListing reports whether ticker is quoted in INR
func IsLocalListing(ticker string) bool {
	t := strings.ToUpper(ticker)
	for _, s := range localSuffixes {
		if strings.HasSuffix(t, s) {
			return true
		}
	}
	return false
}

// NormalizeTicker trims and upper-cases user input
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
