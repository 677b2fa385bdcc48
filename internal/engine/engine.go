package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/atharvakonge/stock-portfolio/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity    = errors.New("quantity must be a positive integer")
	ErrInvalidPrice       = errors.New("price must not be negative")
	ErrUnknownAction      = errors.New("unknown trade action")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrUnknownPosition    = errors.New("no position for ticker")
	ErrPriceUnavailable   = errors.New("price unavailable")
)

// PriceOracle resolves a ticker to its current price in USD.
type PriceOracle interface {
	Price(ctx context.Context, ticker string) (decimal.Decimal, error)
}

// Apply executes one trade against a copy of user and revalues the result.
// On failure the original user is returned untouched along with the error.
// The trade price becomes the position's mark price before revaluation.
func Apply(ctx context.Context, user models.User, action models.Action, ticker string, quantity int64,
	price decimal.Decimal, oracle PriceOracle) (models.User, error) {
	if quantity <= 0 {
		return user, ErrInvalidQuantity
	}
	if price.IsNegative() {
		return user, ErrInvalidPrice
	}

	next := user.Clone()
	var err error
	switch action {
	case models.ActionBuy:
		err = buy(&next, ticker, quantity, price)
	case models.ActionSell:
		err = sell(&next, ticker, quantity, price)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	if err != nil {
		return user, err
	}

	next, err = Revalue(ctx, next, oracle)
	if err != nil {
		return user, err
	}
	return next, nil
}

func buy(u *models.User, ticker string, quantity int64, price decimal.Decimal) error {
	cost := price.Mul(decimal.NewFromInt(quantity))

	// 1. Check user has enough cash
	if u.Balance.LessThan(cost) {
		return ErrInsufficientFunds
	}

	// 2. Deduct cash
	u.Balance = u.Balance.Sub(cost)

	// 3. Merge into existing position or open a new one
	if i := u.PositionIndex(ticker); i >= 0 {
		p := &u.Positions[i]
		p.Quantity += quantity
		p.Investment = p.Investment.Add(cost)
		p.CurrentPrice = price
		return nil
	}

	u.Positions = append(u.Positions, models.Position{
		Name:         ticker,
		Quantity:     quantity,
		Investment:   cost,
		CurrentPrice: price,
	})
	return nil
}

func sell(u *models.User, ticker string, quantity int64, price decimal.Decimal) error {
	// 1. Check user owns the stock
	i := u.PositionIndex(ticker)
	if i < 0 {
		return fmt.Errorf("%w %s", ErrUnknownPosition, ticker)
	}
	p := &u.Positions[i]

	// 2. Check user owns enough shares
	if quantity > p.Quantity {
		return fmt.Errorf("%w: own %d, selling %d", ErrInsufficientShares, p.Quantity, quantity)
	}

	// 3. Add proceeds and reduce the position
	proceeds := price.Mul(decimal.NewFromInt(quantity))
	u.Balance = u.Balance.Add(proceeds)
	p.Quantity -= quantity
	p.Investment = p.Investment.Sub(proceeds)
	p.CurrentPrice = price

	// 4. Drop the position entirely when selling all
	if p.Quantity == 0 {
		u.Positions = append(u.Positions[:i], u.Positions[i+1:]...)
	}
	return nil
}

// Revalue re-fetches the price of every position and recomputes the
// portfolio value. Any oracle failure aborts the whole revaluation; the
// input is never partially updated.
func Revalue(ctx context.Context, user models.User, oracle PriceOracle) (models.User, error) {
	next := user.Clone()
	for i := range next.Positions {
		p := &next.Positions[i]
		price, err := oracle.Price(ctx, p.Name)
		if err != nil {
			return user, fmt.Errorf("%w for %s: %w", ErrPriceUnavailable, p.Name, err)
		}
		p.CurrentPrice = price
	}
	next.PortfolioValue = next.Valuation()
	return next, nil
}

// Classify reports whether a position is in profit, loss or break-even.
func Classify(p models.Position) models.PositionState {
	return p.State()
}
