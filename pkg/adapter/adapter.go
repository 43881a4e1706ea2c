// Package adapter loads catalog metadata from live databases.
//
// Concrete introspectors live in pkg/adapters/ subdirectories and register
// themselves with this package from their init functions.
package adapter

import (
	"context"
	"errors"

	"github.com/leapstack-labs/sqlcomplete/pkg/catalog"
)

// ErrNotConnected is returned when an operation needs an open connection.
var ErrNotConnected = errors.New("database connection not established")

// Config holds the settings for connecting to a database.
type Config struct {
	Type string
	// DSN, when set, is passed to the driver unchanged.
	DSN      string
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Options  map[string]string
	Params   map[string]any
}

// Introspector connects to a database and loads its metadata into a
// catalog.
type Introspector interface {
	// Connect establishes a connection using cfg.
	Connect(ctx context.Context, cfg Config) error

	// Load reads schemas, relations, columns, functions, datatypes, foreign
	// keys and databases and registers them with cat. It does not reset cat.
	Load(ctx context.Context, cat *catalog.Catalog) error

	// Close releases the connection.
	Close() error
}
