// Package main is the entry point for the cosmoclear CLI.
//
// cosmoclear browses the Azure Cosmos DB resources reachable by the
// configured tenants (subscriptions, accounts, databases, containers) and
// deletes every document below a chosen node after an explicit
// confirmation.
//
// Commands: tree, browse, clear, version, completion.
//
// For detailed usage information, run:
//
//	cosmoclear --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/cosmoclear/cmd/cosmoclear/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
