package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/sqlcomplete/internal/testutil"
	"github.com/leapstack-labs/sqlcomplete/pkg/adapter"
	"github.com/leapstack-labs/sqlcomplete/pkg/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPostgresDSN(t *testing.T) {
	tests := []struct {
		name     string
		config   adapter.Config
		expected string
	}{
		{
			name: "basic connection",
			config: adapter.Config{
				Host:     "localhost",
				Port:     5432,
				Database: "testdb",
				Username: "user",
				Password: "pass",
			},
			expected: "host=localhost port=5432 dbname=testdb sslmode=disable user=user password=pass",
		},
		{
			name: "with custom sslmode",
			config: adapter.Config{
				Host:     "prod.example.com",
				Port:     5432,
				Database: "proddb",
				Username: "admin",
				Options:  map[string]string{"sslmode": "require"},
			},
			expected: "host=prod.example.com port=5432 dbname=proddb sslmode=require user=admin",
		},
		{
			name: "defaults",
			config: adapter.Config{
				Database: "mydb",
			},
			expected: "host=localhost port=5432 dbname=mydb sslmode=disable",
		},
		{
			name: "runtime parameters in key order",
			config: adapter.Config{
				Database: "analytics",
				Options:  map[string]string{"statement_timeout": "5000", "application_name": "sqlcomplete"},
			},
			expected: "host=localhost port=5432 dbname=analytics sslmode=disable application_name=sqlcomplete statement_timeout=5000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildPostgresDSN(tt.config))
		})
	}
}

func TestNew(t *testing.T) {
	adp := New(nil)

	assert.NotNil(t, adp)
	assert.Nil(t, adp.DB, "DB should be nil before Connect")
	assert.False(t, adp.IsConnected())
	assert.NotNil(t, adp.Logger)
}

func TestAdapter_LoadNotConnected(t *testing.T) {
	err := New(nil).Load(context.Background(), catalog.New())
	assert.ErrorIs(t, err, adapter.ErrNotConnected)
}

func TestAdapter_ConnectRejectsBadParams(t *testing.T) {
	err := New(nil).Connect(context.Background(), adapter.Config{
		Database: "x",
		Params:   map[string]any{"bogus": true},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid adapter params")
}

func TestAdapter_Load(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	mock.MatchExpectationsInOrder(false)

	adp := New(testutil.NewTestLogger(t))
	adp.DB = db
	adp.Parallelism = 1

	one := func(cols ...string) *sqlmock.Rows { return sqlmock.NewRows(cols) }
	mock.ExpectQuery(Queries.Databases).WillReturnRows(one("datname").AddRow("postgres"))
	mock.ExpectQuery(Queries.SearchPath).WillReturnRows(one("s").AddRow("pg_catalog").AddRow("public"))
	mock.ExpectQuery(Queries.Schemata).WillReturnRows(one("nspname").AddRow("pg_catalog").AddRow("public"))
	mock.ExpectQuery(Queries.Tables).WillReturnRows(one("n", "r").AddRow("public", "users"))
	mock.ExpectQuery(Queries.Views).WillReturnRows(one("n", "r"))
	mock.ExpectQuery(Queries.TableCols).WillReturnRows(one("n", "r", "a", "t").AddRow("public", "users", "id", "integer"))
	mock.ExpectQuery(Queries.ViewCols).WillReturnRows(one("n", "r", "a", "t"))
	mock.ExpectQuery(Queries.Functions).WillReturnRows(one("n", "p", "args", "res", "agg", "win", "set").
		AddRow("pg_catalog", "now", "", "timestamp with time zone", false, false, false))
	mock.ExpectQuery(Queries.Datatypes).WillReturnRows(one("n", "t"))
	mock.ExpectQuery(Queries.ForeignKeys).WillReturnRows(one("ps", "pt", "pc", "cs", "ct", "cc"))
	mock.ExpectClose()

	cat := catalog.New()
	require.NoError(t, adp.Load(context.Background(), cat))
	require.NoError(t, adp.Close())
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, []string{"pg_catalog", "public"}, cat.SearchPath())
	assert.Equal(t, []string{"users"}, cat.ObjectNames(catalog.KindTables, "public"))
	assert.Equal(t, []string{"now"}, cat.FunctionNames("pg_catalog"))
}

func TestAdapter_Registry(t *testing.T) {
	assert.True(t, adapter.IsRegistered("postgres"))

	factory, ok := adapter.Get("postgres")
	require.True(t, ok)

	pg, ok := factory(nil).(*Adapter)
	assert.True(t, ok, "factory should return *Adapter")
	assert.NotNil(t, pg)
}

func TestAdapter_Close(t *testing.T) {
	assert.NoError(t, New(nil).Close())
}
