package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/atharvakonge/stock-portfolio/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingServer answers every request with handler and counts the calls
func countingServer(t *testing.T, handler http.HandlerFunc) (*Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL, srv.Client()), &calls
}

func TestSignup_InvalidEmailSendsNothing(t *testing.T) {
	c, calls := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	_, err := c.Signup(context.Background(), models.RegisterRequest{
		Name: "Ann", Username: "ann", Email: "bad-email", Password: "x",
	})
	assert.ErrorIs(t, err, ErrInvalidEmail)
	assert.Equal(t, int32(0), calls.Load())
}

func TestTrade_InvalidInputSendsNothing(t *testing.T) {
	c, calls := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	ctx := context.Background()

	_, err := c.Trade(ctx, models.TradeRequest{Username: "ann", Password: "x", Action: "BUY", Ticker: "AAA", Quantity: 0})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = c.Trade(ctx, models.TradeRequest{Username: "ann", Password: "x", Action: "BUY", Ticker: "AAA", Quantity: -3})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = c.Trade(ctx, models.TradeRequest{Username: "ann", Password: "x", Action: "HOLD", Ticker: "AAA", Quantity: 1})
	assert.ErrorIs(t, err, ErrInvalidAction)

	assert.Equal(t, int32(0), calls.Load())
}

func TestTrade_Success(t *testing.T) {
	c, calls := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/trades", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req models.TradeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(10), req.Quantity)

		_ = json.NewEncoder(w).Encode(models.User{
			Username: "ann",
			Balance:  decimal.NewFromInt(9000),
			Positions: []models.Position{
				{Name: "AAA", Quantity: 10, Investment: decimal.NewFromInt(1000), CurrentPrice: decimal.NewFromInt(100)},
			},
		})
	})

	user, err := c.Trade(context.Background(), models.TradeRequest{
		Username: "ann", Password: "x", Action: "buy", Ticker: "AAA", Quantity: 10,
	})
	require.NoError(t, err)
	assert.True(t, user.Balance.Equal(decimal.NewFromInt(9000)))
	assert.Len(t, user.Positions, 1)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAPIError(t *testing.T) {
	c, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(models.ErrorResponse{Error: "No such user exist."})
	})

	_, err := c.Login(context.Background(), "nobody", "x")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "No such user exist.", apiErr.Message)
}

func TestAPIError_NonJSONBody(t *testing.T) {
	c, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := c.Quote(context.Background(), "AAA")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "502 Bad Gateway", apiErr.Message)
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := New(srv.URL, nil).History(context.Background(), "ann", "x", 5)
	assert.ErrorIs(t, err, ErrTransport)
}
