package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querybench/bench"
	"querybench/config"
	"querybench/metrics"
)

func parseFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addSettingFlags(f)
	require.NoError(t, f.Parse(args))
	return f
}

func TestApplyFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bench.properties")
	require.NoError(t, os.WriteFile(path, []byte("db.driver=pgx\ndb.query=SELECT 1\nbench.repetitions=4\n"), 0o600))

	v := config.NewViper()
	require.NoError(t, config.ReadFile(v, path))
	f := parseFlags(t,
		"--driver", "duckdb",
		"--param", "5:int", "--param", "abc",
		"--row-index", "-2",
		"--pause", "10ms",
	)
	require.NoError(t, applyFlags(v, f))

	cfg, err := config.Decode(v)
	require.NoError(t, err)
	assert.Equal(t, "duckdb", cfg.Driver)
	assert.Equal(t, "SELECT 1", cfg.Query.Text)
	assert.Equal(t, 4, cfg.Bench.Repetitions, "unset flag keeps the file value")
	assert.Equal(t, 10*time.Millisecond, cfg.Bench.Pause)
	assert.Equal(t, bench.IntPtr(-2), cfg.Query.RowIndex)
	assert.Nil(t, cfg.Query.FetchSize)
	assert.Equal(t, []bench.BindParameter{
		{Raw: "5", Type: bench.TypeInt},
		{Raw: "abc", Type: bench.TypeString},
	}, cfg.Query.Params)
}

func TestConnectionString(t *testing.T) {
	tests := []struct {
		driver string
		conn   bench.ConnConfig
		want   string
	}{
		{"pgx", bench.ConnConfig{URL: "postgres://x/db"}, "postgres://x/db"},
		{"pgx", bench.ConnConfig{Host: "db", Database: "bench"}, "postgres://db:5432/bench?sslmode=disable"},
		{"postgres", bench.ConnConfig{}, ""},
		{"duckdb", bench.ConnConfig{}, ":memory:"},
		{"duckdb", bench.ConnConfig{Database: "/tmp/b.duckdb"}, "/tmp/b.duckdb"},
		{"oracle", bench.ConnConfig{Host: "db"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.driver+"/"+tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, connectionString(tt.driver, tt.conn))
		})
	}

	dsn := connectionString("mysql", bench.ConnConfig{Host: "db", Database: "bench"})
	assert.True(t, strings.HasPrefix(dsn, "tcp(db:3306)/bench?"), dsn)
}

func duckConfig(query string, reps int) *config.Config {
	return &config.Config{
		Driver:         "duckdb",
		Conn:           bench.ConnConfig{URL: ":memory:"},
		Query:          bench.QuerySpec{Text: query, MaxRows: bench.IntPtr(3)},
		Bench:          bench.BenchParams{Repetitions: reps},
		MaxRepetitions: 10000,
	}
}

func TestExecute_DuckDB(t *testing.T) {
	var out bytes.Buffer
	rec := metrics.New()

	rep, err := execute(context.Background(), &out, duckConfig("SELECT range AS n FROM range(10)", 2), rec)
	require.NoError(t, err)

	assert.Equal(t, 2, rep.Repetitions)
	assert.Len(t, rep.DryRun, 3)
	assert.Len(t, rep.QueryTimes, 2)
	assert.Contains(t, out.String(), "✓ Connected")
	assert.Contains(t, out.String(), "Record Count: 3")
	assert.Contains(t, out.String(), "ALL REPETITIONS")
	assert.Equal(t, 2, testutil.CollectAndCount(rec.Registry(), "querybench_phase_duration_seconds"))
}

func TestExecute_UnknownDriver(t *testing.T) {
	var out bytes.Buffer
	cfg := duckConfig("SELECT 1", 1)
	cfg.Driver = "no-such-driver"

	_, err := execute(context.Background(), &out, cfg, metrics.New())
	var loadErr *bench.DriverLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, out.String(), "✗ Driver load failed")
}

func TestExecute_BadQuery(t *testing.T) {
	var out bytes.Buffer
	_, err := execute(context.Background(), &out, duckConfig("SELEKT nothing", 1), metrics.New())
	var stmtErr *bench.StatementError
	require.ErrorAs(t, err, &stmtErr)
	assert.Contains(t, out.String(), "✗ Benchmark failed")
}

func TestRunConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.properties")
	cmd := &cobra.Command{}
	addSettingFlags(cmd.Flags())
	require.NoError(t, cmd.Flags().Parse([]string{"--driver", "duckdb", "--query", "SELECT ?::INTEGER", "--param", "1:int"}))
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, runConfigInit(cmd, []string{path}))
	assert.Contains(t, out.String(), "Wrote")
	assert.Error(t, runConfigInit(cmd, []string{path}), "refuses to overwrite without --force")

	v := config.NewViper()
	require.NoError(t, config.ReadFile(v, path))
	cfg, err := config.Decode(v)
	require.NoError(t, err)
	assert.Equal(t, "duckdb", cfg.Driver)
	assert.Equal(t, "SELECT ?::INTEGER", cfg.Query.Text)
	assert.Equal(t, []bench.BindParameter{{Raw: "1", Type: bench.TypeInt}}, cfg.Query.Params)
	assert.Equal(t, config.DefaultRepetitions, cfg.Bench.Repetitions)
}

func TestSetupLogging(t *testing.T) {
	assert.NoError(t, setupLogging("debug", "json"))
	assert.NoError(t, setupLogging("info", "text"))
	assert.Error(t, setupLogging("loud", "text"))
	assert.Error(t, setupLogging("info", "xml"))
}
