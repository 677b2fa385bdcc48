// Package client talks to the portfolio server over its JSON API.
// Inputs the server would reject anyway are checked locally first so a bad
// email or quantity never reaches the network.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/atharvakonge/stock-portfolio/internal/models"
)

var (
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrInvalidQuantity = errors.New("quantity must be a positive whole number")
	ErrInvalidAction   = errors.New("action must be BUY or SELL")
	ErrTransport       = errors.New("server unreachable")
)

// APIError is a non-200 answer from the server
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

type Client struct {
	base string
	http *http.Client
}

// New returns a client for the server at baseURL. A nil httpClient uses a
// client with a 30s timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *Client) Login(ctx context.Context, username, password string) (models.User, error) {
	var user models.User
	err := c.post(ctx, "/api/login", models.LoginRequest{Username: username, Password: password}, &user)
	return user, err
}

func (c *Client) Signup(ctx context.Context, req models.RegisterRequest) (models.AckResponse, error) {
	if !models.ValidEmail(req.Email) {
		return models.AckResponse{}, ErrInvalidEmail
	}
	var ack models.AckResponse
	err := c.post(ctx, "/api/signup", req, &ack)
	return ack, err
}

func (c *Client) Quote(ctx context.Context, ticker string) (models.QuoteResponse, error) {
	var q models.QuoteResponse
	err := c.post(ctx, "/api/live_price", models.QuoteRequest{Ticker: ticker}, &q)
	return q, err
}

func (c *Client) Trade(ctx context.Context, req models.TradeRequest) (models.User, error) {
	if req.Quantity <= 0 {
		return models.User{}, ErrInvalidQuantity
	}
	if _, ok := models.ParseAction(req.Action); !ok {
		return models.User{}, ErrInvalidAction
	}
	var user models.User
	err := c.post(ctx, "/api/trades", req, &user)
	return user, err
}

func (c *Client) History(ctx context.Context, username, password string, limit int) (models.HistoryResponse, error) {
	var h models.HistoryResponse
	err := c.post(ctx, "/api/trades/history", models.HistoryRequest{Username: username, Password: password, Limit: limit}, &h)
	return h, err
}

// post sends body as JSON and decodes a 200 answer into out. Other
// statuses come back as *APIError carrying the server's message.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("%w: read body: %w", ErrTransport, err)
	}

	if resp.StatusCode != http.StatusOK {
		var e models.ErrorResponse
		if json.Unmarshal(content, &e) != nil || e.Error == "" {
			e.Error = resp.Status
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}

	if err := json.Unmarshal(content, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
