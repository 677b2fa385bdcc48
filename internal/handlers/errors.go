package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/atharvakonge/stock-portfolio/internal/account"
	"github.com/atharvakonge/stock-portfolio/internal/engine"
	"github.com/atharvakonge/stock-portfolio/internal/quote"
)

type errorRule struct {
	target  error
	status  int
	message string
}

// Checked in order; the first match wins. Portfolio pricing failures wrap
// the oracle error, so they come before the ticker rules.
var errorRules = []errorRule{
	{account.ErrUserNotFound, http.StatusNotFound, "No such user exist."},
	{account.ErrWrongPassword, http.StatusUnauthorized, "Incorrect password."},
	{account.ErrUsernameTaken, http.StatusConflict, "Username already exists."},
	{account.ErrInvalidEmail, http.StatusBadRequest, "Please enter a valid email address."},
	{account.ErrInvalidUsername, http.StatusBadRequest, "Username may only contain letters, digits, '.', '_' and '-'."},
	{account.ErrMissingField, http.StatusBadRequest, "Please fill in all the fields."},
	{engine.ErrInvalidQuantity, http.StatusBadRequest, "Quantity must be a positive whole number."},
	{engine.ErrUnknownAction, http.StatusBadRequest, "Action must be BUY or SELL."},
	{engine.ErrInsufficientFunds, http.StatusBadRequest, "You don't have enough balance."},
	{engine.ErrInsufficientShares, http.StatusBadRequest, "You don't have enough stocks."},
	{engine.ErrUnknownPosition, http.StatusBadRequest, "You don't own this stock."},
	{engine.ErrPriceUnavailable, http.StatusBadGateway, "Could not fetch current prices, please try again."},
	{engine.ErrInvalidPrice, http.StatusBadGateway, "Could not fetch current prices, please try again."},
	{quote.ErrUnknownTicker, http.StatusBadRequest, "This stock is not available."},
	{account.ErrTickerUnavailable, http.StatusBadGateway, "This stock is not available."},
	{ErrProcessorStopped, http.StatusServiceUnavailable, "Server is shutting down."},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "Request timed out."},
	{context.Canceled, http.StatusServiceUnavailable, "Request cancelled."},
}

// describe maps an error to its HTTP status and user-visible message
func describe(err error) (int, string) {
	for _, r := range errorRules {
		if errors.Is(err, r.target) {
			return r.status, r.message
		}
	}
	return http.StatusInternalServerError, "Something went wrong, please try again."
}
