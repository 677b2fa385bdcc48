package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StartingBalance is the cash every new account receives at registration
var StartingBalance = decimal.NewFromInt(10000)

// BreakEvenTolerance is the largest gain/loss still shown as break-even
var BreakEvenTolerance = decimal.RequireFromString("0.01")

// Action is the side of a trade: "BUY" or "SELL"
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// ParseAction normalizes user input into an Action
func ParseAction(s string) (Action, bool) {
	switch Action(strings.ToUpper(strings.TrimSpace(s))) {
	case ActionBuy:
		return ActionBuy, true
	case ActionSell:
		return ActionSell, true
	default:
		return "", false
	}
}

// Position represents shares of one ticker held by a user
type Position struct {
	Name         string          `json:"name"`
	Quantity     int64           `json:"quantity"`
	Investment   decimal.Decimal `json:"investment"`
	CurrentPrice decimal.Decimal `json:"cur_price"`
}

// Value is quantity marked at the last observed price
func (p Position) Value() decimal.Decimal {
	return p.CurrentPrice.Mul(decimal.NewFromInt(p.Quantity))
}

// Gain is the unrealized profit (negative for a loss) against cost basis
func (p Position) Gain() decimal.Decimal {
	return p.Value().Sub(p.Investment)
}

// PositionState classifies a position for display
type PositionState string

const (
	StateBreakEven PositionState = "BREAK_EVEN"
	StateProfit    PositionState = "PROFIT"
	StateLoss      PositionState = "LOSS"
)

// State is computed on demand and never stored
func (p Position) State() PositionState {
	gain := p.Gain()
	switch {
	case gain.Abs().LessThanOrEqual(BreakEvenTolerance):
		return StateBreakEven
	case gain.IsPositive():
		return StateProfit
	default:
		return StateLoss
	}
}

// User is the whole per-user record, persisted as one unit
type User struct {
	Name         string `json:"name"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`

	Balance        decimal.Decimal `json:"balance"`
	PortfolioValue decimal.Decimal `json:"portfolio_value"`
	Positions      []Position      `json:"portfolio"`
}

// NewUser creates a fresh account record with the starting balance
func NewUser(name, username, email, passwordHash string) User {
	return User{
		Name:           name,
		Username:       username,
		Email:          email,
		PasswordHash:   passwordHash,
		Balance:        StartingBalance,
		PortfolioValue: decimal.Zero,
		Positions:      []Position{},
	}
}

// Clone returns a deep copy so callers can mutate positions freely
func (u User) Clone() User {
	c := u
	c.Positions = make([]Position, len(u.Positions))
	copy(c.Positions, u.Positions)
	return c
}

// PositionIndex returns the index of the ticker's position, or -1
func (u User) PositionIndex(ticker string) int {
	for i, p := range u.Positions {
		if p.Name == ticker {
			return i
		}
	}
	return -1
}

// Valuation sums quantity * current price over all positions
func (u User) Valuation() decimal.Decimal {
	total := decimal.Zero
	for _, p := range u.Positions {
		total = total.Add(p.Value())
	}
	return total
}

// Trade represents an executed buy/sell
type Trade struct {
	ID         uuid.UUID       `json:"id"`
	Username   string          `json:"username"`
	Action     Action          `json:"action"`
	Ticker     string          `json:"ticker"`
	Quantity   int64           `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Total      decimal.Decimal `json:"total"`
	ExecutedAt time.Time       `json:"executed_at"`
}

// NewTrade stamps a trade with a fresh ID and the current time
func NewTrade(username string, action Action, ticker string, quantity int64, price decimal.Decimal) Trade {
	return Trade{
		ID:         uuid.New(),
		Username:   username,
		Action:     action,
		Ticker:     ticker,
		Quantity:   quantity,
		Price:      price,
		Total:      price.Mul(decimal.NewFromInt(quantity)),
		ExecutedAt: time.Now().UTC(),
	}
}

// LoginRequest - credentials for login and history lookups
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest - what client sends to sign up
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// QuoteRequest - ticker to price
type QuoteRequest struct {
	Ticker string `json:"ticker" binding:"required"`
}

// QuoteResponse - price in USD
type QuoteResponse struct {
	Ticker string          `json:"ticker"`
	Price  decimal.Decimal `json:"price"`
}

// TradeRequest - what client sends to buy or sell stocks.
// Quantity is validated by the engine so that non-positive values report
// an invalid quantity instead of a binding error.
type TradeRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Action   string `json:"action" binding:"required"`
	Ticker   string `json:"ticker" binding:"required"`
	Quantity int64  `json:"quantity"`
}

// HistoryRequest - credentials plus how many trades to return
type HistoryRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Limit    int    `json:"limit"`
}

// HistoryResponse - what we send back for trade history
type HistoryResponse struct {
	Trades []Trade `json:"trades"`
	Count  int     `json:"count"`
}

// AckResponse - successful registration
type AckResponse struct {
	Ack string `json:"ack"`
}

// ErrorResponse - every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}
