package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/atharvakonge/stock-portfolio/internal/models"
	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	commander.Register(&signupCmd{}, "account")
	commander.Register(&loginCmd{}, "account")
	commander.Register(&historyCmd{}, "account")

	commander.Register(&quoteCmd{}, "market")
	commander.Register(&tradeCmd{action: models.ActionBuy}, "market")
	commander.Register(&tradeCmd{action: models.ActionSell}, "market")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
