// Package postgres loads catalog metadata from PostgreSQL.
//
// This file registers the introspector with the adapter registry.
// Import this package with a blank identifier to register it:
//
//	import _ "github.com/leapstack-labs/sqlcomplete/pkg/adapters/postgres"
package postgres

import (
	"log/slog"

	"github.com/leapstack-labs/sqlcomplete/pkg/adapter"
)

func init() {
	adapter.Register("postgres", func(logger *slog.Logger) adapter.Introspector { return New(logger) })
}
