package duck

import (
	"github.com/duckdb/duckdb-go/v2"

	"querybench/bench"
	"querybench/resolver"
)

// DriverName is the name the in-process DuckDB driver is registered under.
const DriverName = "duckdb"

// Register adds the DuckDB driver to reg.
func Register(reg *resolver.Registry) error {
	return reg.Register(DriverName, duckdb.Driver{})
}

// DSN returns the database file path, or an in-memory database when no file is set.
func DSN(c bench.ConnConfig) string {
	if c.URL != "" {
		return c.URL
	}
	if c.Database == "" {
		return ":memory:"
	}
	return c.Database
}

// WithCredentials ignores user and password; DuckDB files carry no accounts.
func WithCredentials(dsn, _, _ string) (string, error) {
	return dsn, nil
}
