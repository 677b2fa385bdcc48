package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Rhymond/go-money"
	"github.com/atharvakonge/stock-portfolio/internal/models"
	"github.com/shopspring/decimal"
)

// usd formats a dollar amount, rounded to the cent
func usd(amount decimal.Decimal) string {
	cents := amount.Shift(2).Round(0).IntPart()
	return money.New(cents, money.USD).Display()
}

// signedUSD formats a gain, with an explicit "+" when positive
func signedUSD(amount decimal.Decimal) string {
	if amount.IsPositive() {
		return "+" + usd(amount)
	}
	return usd(amount)
}

// printDashboard writes the account summary and one row per position
func printDashboard(w io.Writer, u models.User) error {
	fmt.Fprintf(w, "%s (%s)\n", u.Name, u.Username)
	fmt.Fprintf(w, "Balance:         %s\n", usd(u.Balance))
	fmt.Fprintf(w, "Portfolio value: %s\n", usd(u.PortfolioValue))
	fmt.Fprintf(w, "Net worth:       %s\n\n", usd(u.Balance.Add(u.PortfolioValue)))

	if len(u.Positions) == 0 {
		fmt.Fprintln(w, "No positions.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Ticker\tQty\tInvested\tPrice\tValue\tGain\tState\t")
	for _, p := range u.Positions {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t\n",
			p.Name,
			p.Quantity,
			usd(p.Investment),
			usd(p.CurrentPrice),
			usd(p.Value()),
			signedUSD(p.Gain()),
			p.State(),
		)
	}
	return tw.Flush()
}

// printHistory writes one row per trade, newest first
func printHistory(w io.Writer, trades []models.Trade) error {
	if len(trades) == 0 {
		fmt.Fprintln(w, "No trades.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Date\tAction\tTicker\tQty\tPrice\tTotal")
	for _, t := range trades {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			t.ExecutedAt.Local().Format("2006-01-02 15:04"),
			t.Action,
			t.Ticker,
			t.Quantity,
			usd(t.Price),
			usd(t.Total),
		)
	}
	return tw.Flush()
}
