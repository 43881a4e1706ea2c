// Package duckdb loads catalog metadata from a DuckDB database file.
//
// This file registers the introspector with the adapter registry.
// Import this package with a blank identifier to register it:
//
//	import _ "github.com/leapstack-labs/sqlcomplete/pkg/adapters/duckdb"
package duckdb

import (
	"log/slog"

	"github.com/leapstack-labs/sqlcomplete/pkg/adapter"
)

func init() {
	adapter.Register("duckdb", func(logger *slog.Logger) adapter.Introspector { return New(logger) })
}
