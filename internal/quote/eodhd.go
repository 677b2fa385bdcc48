package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	EODHDBaseURL = "https://eodhd.com"
	// EODHDFXTicker is the forex pair in eodhd's "fromCurrency+toCurrency.FOREX" format
	EODHDFXTicker = "USDINR.FOREX"
)

// EODHDSource reads delayed real-time prices from eodhd.com
type EODHDSource struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewEODHDSource(client *http.Client, baseURL, apiKey string) *EODHDSource {
	if baseURL == "" {
		baseURL = EODHDBaseURL
	}
	return &EODHDSource{client: client, baseURL: baseURL, apiKey: apiKey}
}

// eodhdTicker maps Yahoo-style tickers to eodhd exchange codes
func eodhdTicker(ticker string) string {
	t := strings.ToUpper(ticker)
	switch {
	case strings.HasSuffix(t, ".FOREX"):
		return t
	case strings.HasSuffix(t, ".NS"):
		return strings.TrimSuffix(t, ".NS") + ".NSE"
	case strings.HasSuffix(t, ".BO"):
		return strings.TrimSuffix(t, ".BO") + ".BSE"
	case strings.Contains(t, "."):
		return t
	default:
		return t + ".US"
	}
}

func (e *EODHDSource) Price(ctx context.Context, ticker string) (decimal.Decimal, error) {
	// https://eodhd.com/api/real-time/AAPL.US?api_token=demo&fmt=json
	// {"code":"AAPL.US","timestamp":1700000000,"close":189.3,...}
	// unknown tickers answer with "NA" in place of numbers
	addr := fmt.Sprintf("%s/api/real-time/%s?fmt=json&api_token=%s",
		e.baseURL, url.PathEscape(eodhdTicker(ticker)), url.QueryEscape(e.apiKey))

	var content struct {
		Code  string          `json:"code"`
		Close json.RawMessage `json:"close"`
	}
	if err := jget(ctx, e.client, addr, &content); err != nil {
		return decimal.Zero, err
	}

	var price decimal.Decimal
	if len(content.Close) == 0 || string(content.Close) == "null" || price.UnmarshalJSON(content.Close) != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownTicker, ticker)
	}
	return price, nil
}
