// Package main is the entry point of the sqlcomplete CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/leapstack-labs/sqlcomplete/internal/cli"

	// Register catalog introspectors.
	_ "github.com/leapstack-labs/sqlcomplete/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/sqlcomplete/pkg/adapters/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
