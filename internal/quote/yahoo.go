package quote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
)

const (
	YahooBaseURL = "https://query1.finance.yahoo.com"
	// YahooFXTicker quotes how many INR one USD buys
	YahooFXTicker = "USDINR=X"
)

// YahooSource reads the live market price from Yahoo's chart endpoint
type YahooSource struct {
	client  *http.Client
	baseURL string
}

func NewYahooSource(client *http.Client, baseURL string) *YahooSource {
	if baseURL == "" {
		baseURL = YahooBaseURL
	}
	return &YahooSource{client: client, baseURL: baseURL}
}

type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string           `json:"symbol"`
				Currency           string           `json:"currency"`
				RegularMarketPrice *decimal.Decimal `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (y *YahooSource) Price(ctx context.Context, ticker string) (decimal.Decimal, error) {
	// https://query1.finance.yahoo.com/v8/finance/chart/AAPL?interval=1d&range=1d
	// {"chart":{"result":[{"meta":{"symbol":"AAPL","regularMarketPrice":189.5,...}}],"error":null}}
	addr := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1d", y.baseURL, url.PathEscape(ticker))

	var chart yahooChart
	if err := jget(ctx, y.client, addr, &chart); err != nil {
		return decimal.Zero, err
	}
	if chart.Chart.Error != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %s", ErrUnknownTicker, ticker, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || chart.Chart.Result[0].Meta.RegularMarketPrice == nil {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownTicker, ticker)
	}
	return *chart.Chart.Result[0].Meta.RegularMarketPrice, nil
}
