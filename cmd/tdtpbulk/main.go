// tdtpbulk loads CSV and XLSX files into session temp tables and runs
// follow-up SQL against them on the same connection.
//
// Usage:
//
//	tdtpbulk init --type postgres
//	tdtpbulk load --file orders.xlsx --pk id --then "INSERT INTO orders SELECT * FROM {{table}}"
//	tdtpbulk minrowversion
//
// Environment:
//
//	.env in the working directory is loaded before the config; ${VAR}
//	references in the config are expanded from the environment.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "github.com/ruslano69/tdtp-bulk/pkg/adapters/mssql"
	_ "github.com/ruslano69/tdtp-bulk/pkg/adapters/mysql"
	_ "github.com/ruslano69/tdtp-bulk/pkg/adapters/postgres"
	_ "github.com/ruslano69/tdtp-bulk/pkg/adapters/sqlite"
)

// Version information (set at build time)
var Version = "0.1.0"

func main() {
	// Pretty console log; switch to JSON in production via log.Logger = zerolog.New(os.Stderr)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("tdtpbulk failed")
		stop()
		os.Exit(1)
	}
}
