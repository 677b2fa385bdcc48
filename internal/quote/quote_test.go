package quote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestYahooSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/v8/finance/chart/AAPL":
			w.Write([]byte(`{"chart":{"result":[{"meta":{"symbol":"AAPL","currency":"USD","regularMarketPrice":189.25}}],"error":null}}`))
		case "/v8/finance/chart/USDINR=X":
			w.Write([]byte(`{"chart":{"result":[{"meta":{"symbol":"USDINR=X","regularMarketPrice":83.2}}],"error":null}}`))
		case "/v8/finance/chart/NOPE":
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
		case "/v8/finance/chart/EMPTY":
			w.Write([]byte(`{"chart":{"result":[{"meta":{"symbol":"EMPTY"}}],"error":null}}`))
		default:
			w.WriteHeader(http.StatusTooManyRequests)
		}
	}))
	defer srv.Close()

	y := NewYahooSource(srv.Client(), srv.URL)
	ctx := context.Background()

	p, err := y.Price(ctx, "AAPL")
	require.NoError(t, err)
	assert.True(t, p.Equal(d("189.25")))

	p, err = y.Price(ctx, "USDINR=X")
	require.NoError(t, err)
	assert.True(t, p.Equal(d("83.2")))

	_, err = y.Price(ctx, "NOPE")
	assert.ErrorIs(t, err, ErrUnknownTicker)

	_, err = y.Price(ctx, "EMPTY")
	assert.ErrorIs(t, err, ErrUnknownTicker)

	_, err = y.Price(ctx, "LIMITED")
	assert.ErrorIs(t, err, ErrProvider)
}

func TestEODHDSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("api_token"))
		switch r.URL.Path {
		case "/api/real-time/AAPL.US":
			w.Write([]byte(`{"code":"AAPL.US","close":189.3}`))
		case "/api/real-time/RELIANCE.NSE":
			w.Write([]byte(`{"code":"RELIANCE.NSE","close":"2912.5"}`))
		case "/api/real-time/NOPE.US":
			w.Write([]byte(`{"code":"NOPE.US","close":"NA"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	e := NewEODHDSource(srv.Client(), srv.URL, "secret")
	ctx := context.Background()

	p, err := e.Price(ctx, "AAPL")
	require.NoError(t, err)
	assert.True(t, p.Equal(d("189.3")))

	p, err = e.Price(ctx, "RELIANCE.NS")
	require.NoError(t, err)
	assert.True(t, p.Equal(d("2912.5")))

	_, err = e.Price(ctx, "NOPE")
	assert.ErrorIs(t, err, ErrUnknownTicker)

	_, err = e.Price(ctx, "BROKEN")
	assert.ErrorIs(t, err, ErrProvider)
}

func TestEODHDTicker(t *testing.T) {
	assert.Equal(t, "AAPL.US", eodhdTicker("aapl"))
	assert.Equal(t, "TCS.BSE", eodhdTicker("TCS.BO"))
	assert.Equal(t, "USDINR.FOREX", eodhdTicker(EODHDFXTicker))
	assert.Equal(t, "NVD.F", eodhdTicker("NVD.F"))
}

func TestConverter(t *testing.T) {
	sim := NewSimSource(1, 80)
	sim.SetPrice("INFY.NS", d("1600"))
	sim.SetPrice("INFY.BO", d("1604"))
	c := NewConverter(sim, SimFXTicker)
	ctx := context.Background()

	p, err := c.Price(ctx, "INFY.NS")
	require.NoError(t, err)
	assert.True(t, p.Equal(d("20")), p.String())

	p, err = c.Price(ctx, "INFY.BO")
	require.NoError(t, err)
	assert.True(t, p.Equal(d("20.05")), p.String())

	p, err = c.Price(ctx, "AAPL")
	require.NoError(t, err)
	assert.True(t, p.Equal(d("150")), "USD tickers are not converted")

	_, err = c.Price(ctx, "NOPE.NS")
	assert.ErrorIs(t, err, ErrUnknownTicker)
}

func TestConverter_RateFailure(t *testing.T) {
	source := OracleFunc(func(_ context.Context, ticker string) (decimal.Decimal, error) {
		if ticker == SimFXTicker {
			return decimal.Zero, errors.New("fx down")
		}
		return d("100"), nil
	})
	_, err := NewConverter(source, SimFXTicker).Price(context.Background(), "TCS.BO")
	assert.ErrorIs(t, err, ErrProvider)
}

func TestIsLocalListing(t *testing.T) {
	assert.True(t, IsLocalListing("RELIANCE.NS"))
	assert.True(t, IsLocalListing("tcs.bo"))
	assert.False(t, IsLocalListing("AAPL"))
	assert.False(t, IsLocalListing("NS"))
}

func TestSimSource_Tick(t *testing.T) {
	sim := NewSimSource(42, 83)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		u := sim.Tick()
		assert.NotEqual(t, SimFXTicker, u.Symbol)
		assert.InDelta(t, 0, u.Change, 2.0)
		p, err := sim.Price(ctx, u.Symbol)
		require.NoError(t, err)
		assert.True(t, p.Equal(u.Price))
		assert.True(t, p.IsPositive())
	}

	rate, err := sim.Price(ctx, SimFXTicker)
	require.NoError(t, err)
	assert.True(t, rate.Equal(d("83")), "FX rate never ticks")

	_, err = sim.Price(ctx, "UNKNOWN")
	assert.ErrorIs(t, err, ErrUnknownTicker)
}

func TestCached(t *testing.T) {
	var calls atomic.Int32
	fail := atomic.Bool{}
	source := OracleFunc(func(_ context.Context, ticker string) (decimal.Decimal, error) {
		calls.Add(1)
		if fail.Load() {
			return decimal.Zero, ErrProvider
		}
		return d("42"), nil
	})

	c, err := NewCached(source, 1<<20, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		p, err := c.Price(ctx, "AAPL")
		require.NoError(t, err)
		assert.True(t, p.Equal(d("42")))
	}
	assert.LessOrEqual(t, calls.Load(), int32(5))

	// errors are never cached
	fail.Store(true)
	before := calls.Load()
	_, err = c.Price(ctx, "MSFT")
	assert.ErrorIs(t, err, ErrProvider)
	_, err = c.Price(ctx, "MSFT")
	assert.ErrorIs(t, err, ErrProvider)
	assert.Equal(t, before+2, calls.Load())
}
