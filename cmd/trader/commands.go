package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/atharvakonge/stock-portfolio/internal/client"
	"github.com/atharvakonge/stock-portfolio/internal/models"
	"github.com/google/subcommands"
)

var serverURL = flag.String("server", "http://127.0.0.1:8080", "base URL of the portfolio server")

func newClient() *client.Client {
	return client.New(*serverURL, nil)
}

// credentials are shared by every command that acts on an account
type credentials struct {
	username string
	password string
}

func (c *credentials) setFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "u", os.Getenv("TRADER_USERNAME"), "username (default $TRADER_USERNAME)")
	f.StringVar(&c.password, "p", os.Getenv("TRADER_PASSWORD"), "password (default $TRADER_PASSWORD)")
}

func (c *credentials) check() bool {
	if c.username == "" || c.password == "" {
		fmt.Fprintln(os.Stderr, "username and password are required (-u, -p)")
		return false
	}
	return true
}

func failure(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}

type signupCmd struct {
	credentials
	name  string
	email string
}

func (*signupCmd) Name() string     { return "signup" }
func (*signupCmd) Synopsis() string { return "create a new account" }
func (*signupCmd) Usage() string {
	return `signup -name <full name> -email <email> -u <username> -p <password>

  Creates an account funded with the starting balance.
`
}

func (c *signupCmd) SetFlags(f *flag.FlagSet) {
	c.credentials.setFlags(f)
	f.StringVar(&c.name, "name", "", "full name")
	f.StringVar(&c.email, "email", "", "email address")
}

func (c *signupCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.check() || c.name == "" || c.email == "" {
		fmt.Fprintln(os.Stderr, "-name, -email, -u and -p are required")
		return subcommands.ExitUsageError
	}

	ack, err := newClient().Signup(ctx, models.RegisterRequest{
		Name:     c.name,
		Username: c.username,
		Email:    c.email,
		Password: c.password,
	})
	if err != nil {
		return failure(err)
	}
	fmt.Println(ack.Ack)
	return subcommands.ExitSuccess
}

type loginCmd struct {
	credentials
}

func (*loginCmd) Name() string     { return "login" }
func (*loginCmd) Synopsis() string { return "show the account dashboard" }
func (*loginCmd) Usage() string {
	return `login -u <username> -p <password>

  Displays balance, positions and their gains at current prices.
`
}

func (c *loginCmd) SetFlags(f *flag.FlagSet) { c.credentials.setFlags(f) }

func (c *loginCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.check() {
		return subcommands.ExitUsageError
	}

	user, err := newClient().Login(ctx, c.username, c.password)
	if err != nil {
		return failure(err)
	}
	if err := printDashboard(os.Stdout, user); err != nil {
		return failure(err)
	}
	return subcommands.ExitSuccess
}

type quoteCmd struct{}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "print the live USD price of tickers" }
func (*quoteCmd) Usage() string {
	return `quote <ticker>...

  Prints the current price of each ticker in USD.
`
}

func (*quoteCmd) SetFlags(*flag.FlagSet) {}

func (*quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "at least one ticker is required")
		return subcommands.ExitUsageError
	}

	c := newClient()
	status := subcommands.ExitSuccess
	for _, ticker := range f.Args() {
		q, err := c.Quote(ctx, ticker)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", ticker, err)
			status = subcommands.ExitFailure
			continue
		}
		fmt.Printf("%s\t%s\n", q.Ticker, usd(q.Price))
	}
	return status
}

// tradeCmd is registered twice, once per action
type tradeCmd struct {
	credentials
	action models.Action
}

func (c *tradeCmd) Name() string {
	if c.action == models.ActionSell {
		return "sell"
	}
	return "buy"
}

func (c *tradeCmd) Synopsis() string { return c.Name() + " shares at the live price" }
func (c *tradeCmd) Usage() string {
	return c.Name() + ` -u <username> -p <password> <ticker> <quantity>

  Executes the trade at the current market price and prints the dashboard.
`
}

func (c *tradeCmd) SetFlags(f *flag.FlagSet) { c.credentials.setFlags(f) }

func (c *tradeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.check() {
		return subcommands.ExitUsageError
	}
	if f.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "expected <ticker> <quantity>")
		return subcommands.ExitUsageError
	}

	qty, err := strconv.ParseInt(f.Arg(1), 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid quantity %q\n", f.Arg(1))
		return subcommands.ExitUsageError
	}

	user, err := newClient().Trade(ctx, models.TradeRequest{
		Username: c.username,
		Password: c.password,
		Action:   string(c.action),
		Ticker:   f.Arg(0),
		Quantity: qty,
	})
	if err != nil {
		return failure(err)
	}
	if err := printDashboard(os.Stdout, user); err != nil {
		return failure(err)
	}
	return subcommands.ExitSuccess
}

type historyCmd struct {
	credentials
	limit int
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "list executed trades" }
func (*historyCmd) Usage() string {
	return `history -u <username> -p <password> [-n <limit>]

  Lists the most recent trades, newest first.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	c.credentials.setFlags(f)
	f.IntVar(&c.limit, "n", 20, "number of trades to show")
}

func (c *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.check() {
		return subcommands.ExitUsageError
	}

	h, err := newClient().History(ctx, c.username, c.password, c.limit)
	if err != nil {
		return failure(err)
	}
	if err := printHistory(os.Stdout, h.Trades); err != nil {
		return failure(err)
	}
	return subcommands.ExitSuccess
}
