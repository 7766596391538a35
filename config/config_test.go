package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"querybench/bench"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func load(t *testing.T, path string) (*Config, error) {
	t.Helper()
	v := NewViper()
	require.NoError(t, ReadFile(v, path))
	return Decode(v)
}

func TestDecode_Properties(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bench.properties", `
# target
db.driver=pgx
db.url=postgres://db.local:5432/bench?sslmode=disable
db.username=bench
db.query=SELECT * FROM accounts WHERE id = $1 AND name <> ${name}
db.parameters=5:int,abc,true:bool
db.fetchSize=100
db.rowIndex=2
db.maxRows=5
bench.repetitions=7
bench.pause=100
`)

	cfg, err := load(t, path)
	require.NoError(t, err)

	assert.Equal(t, "pgx", cfg.Driver)
	assert.Equal(t, "postgres://db.local:5432/bench?sslmode=disable", cfg.Conn.URL)
	assert.Equal(t, "bench", cfg.Conn.User)
	assert.Equal(t, "SELECT * FROM accounts WHERE id = $1 AND name <> ${name}", cfg.Query.Text)
	assert.Equal(t, []bench.BindParameter{
		{Raw: "5", Type: bench.TypeInt},
		{Raw: "abc", Type: bench.TypeString},
		{Raw: "true", Type: bench.TypeBool},
	}, cfg.Query.Params)
	assert.Equal(t, bench.IntPtr(100), cfg.Query.FetchSize)
	assert.Equal(t, bench.IntPtr(2), cfg.Query.RowIndex)
	assert.Equal(t, bench.IntPtr(5), cfg.Query.MaxRows)
	assert.Equal(t, 7, cfg.Bench.Repetitions)
	assert.Equal(t, 100*time.Millisecond, cfg.Bench.Pause)
	assert.NoError(t, cfg.Validate())
}

func TestDecode_LegacyKeys(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "query.sql", "SELECT 1\nFROM dual")
	path := writeFile(t, dir, "perf.properties", `
jdbc.driver=mysql
jdbc.jarPath=/opt/drivers/mysql.so
jdbc.url=tcp(db.local:3306)/bench
db.url=tcp(primary:3306)/bench
jdbc.queryFile=query.sql
jdbc.maxRows=10
`)

	cfg, err := load(t, path)
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.Driver)
	assert.Equal(t, "/opt/drivers/mysql.so", cfg.Location)
	assert.Equal(t, "tcp(primary:3306)/bench", cfg.Conn.URL, "db.* wins over jdbc.*")
	assert.Equal(t, "SELECT 1\nFROM dual\n", cfg.Query.Text)
	assert.Equal(t, bench.IntPtr(10), cfg.Query.MaxRows)
}

func TestDecode_Defaults(t *testing.T) {
	cfg, err := Decode(NewViper())
	require.NoError(t, err)

	assert.Equal(t, DefaultRepetitions, cfg.Bench.Repetitions)
	assert.Equal(t, 10000, cfg.MaxRepetitions)
	assert.Zero(t, cfg.Bench.Pause)
	assert.Nil(t, cfg.Query.FetchSize)
	assert.Nil(t, cfg.Query.RowIndex)
	assert.Nil(t, cfg.Query.MaxRows)
	assert.Nil(t, cfg.Query.Params)

	var cfgErr *bench.ConfigError
	assert.ErrorAs(t, cfg.Validate(), &cfgErr)
}

func TestDecode_YAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bench.yaml", `
db:
  driver: duckdb
  query: SELECT 42
  parameters: ["1:long", "x"]
bench:
  repetitions: 12
  pause: 250ms
`)
	cfg, err := load(t, path)
	require.NoError(t, err)

	assert.Equal(t, "duckdb", cfg.Driver)
	assert.Equal(t, 12, cfg.Bench.Repetitions)
	assert.Equal(t, 250*time.Millisecond, cfg.Bench.Pause)
	assert.Equal(t, []bench.BindParameter{{Raw: "1", Type: bench.TypeLong}, {Raw: "x", Type: bench.TypeString}}, cfg.Query.Params)
}

func TestDecode_Environment(t *testing.T) {
	t.Setenv("QUERYBENCH_DB_DRIVER", "postgres")
	t.Setenv("QUERYBENCH_BENCH_REPETITIONS", "9")

	path := writeFile(t, t.TempDir(), "bench.properties", "db.driver=pgx\nbench.repetitions=2\n")
	cfg, err := load(t, path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Driver)
	assert.Equal(t, 9, cfg.Bench.Repetitions)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		props string
	}{
		{"non-numeric fetch size", "db.fetchSize=lots\n"},
		{"non-numeric repetitions", "bench.repetitions=three\n"},
		{"bad pause", "bench.pause=soon\n"},
		{"unknown parameter type", "db.parameters=5:unknown\n"},
		{"missing query file", "db.queryFile=nope.sql\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "bench.properties", tt.props)
			_, err := load(t, path)

			var cfgErr *bench.ConfigError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestReadFile_Missing(t *testing.T) {
	err := ReadFile(NewViper(), filepath.Join(t.TempDir(), "absent.properties"))
	var cfgErr *bench.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, LoadDotEnv(dir), "missing .env is fine")

	writeFile(t, dir, ".env", "QUERYBENCH_TEST_DOTENV=from-file\n")
	t.Setenv("QUERYBENCH_TEST_DOTENV", "")
	os.Unsetenv("QUERYBENCH_TEST_DOTENV")
	require.NoError(t, LoadDotEnv(dir))
	assert.Equal(t, "from-file", os.Getenv("QUERYBENCH_TEST_DOTENV"))
}

func TestLoadViper(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "QUERYBENCH_BENCH_REPETITIONS=7\n")
	path := writeFile(t, dir, "bench.properties", "db.driver=pgx\nbench.repetitions=2\n")
	t.Setenv("QUERYBENCH_BENCH_REPETITIONS", "")
	os.Unsetenv("QUERYBENCH_BENCH_REPETITIONS")
	t.Chdir(dir)

	v, err := LoadViper(path)
	require.NoError(t, err)
	cfg, err := Decode(v)
	require.NoError(t, err)
	assert.Equal(t, "pgx", cfg.Driver)
	assert.Equal(t, 7, cfg.Bench.Repetitions, ".env overrides the file")

	_, err = LoadViper(filepath.Join(dir, "absent.properties"))
	var cfgErr *bench.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestPropertiesCodec_RoundTrip(t *testing.T) {
	in := map[string]any{
		"db": map[string]any{
			"driver": "pgx",
			"query":  "SELECT $1",
		},
		"bench": map[string]any{"repetitions": 3},
	}
	b, err := propertiesCodec{}.Encode(in)
	require.NoError(t, err)
	assert.Equal(t, "bench.repetitions = 3\ndb.driver = pgx\ndb.query = SELECT $1\n", string(b))

	out := map[string]any{}
	require.NoError(t, propertiesCodec{}.Decode(b, out))
	assert.Equal(t, map[string]any{
		"db":    map[string]any{"driver": "pgx", "query": "SELECT $1"},
		"bench": map[string]any{"repetitions": "3"},
	}, out)
}

func TestPropertiesCodec_Conflict(t *testing.T) {
	err := propertiesCodec{}.Decode([]byte("db=x\ndb.url=y\n"), map[string]any{})
	assert.Error(t, err)
}

func TestResolvePassword(t *testing.T) {
	keyring.MockInit()
	stdin := notATerminal(t)

	t.Run("anonymous", func(t *testing.T) {
		c := bench.ConnConfig{URL: "x"}
		require.NoError(t, ResolvePassword(&c, stdin, nil))
		assert.Empty(t, c.Password)
	})

	t.Run("already set", func(t *testing.T) {
		c := bench.ConnConfig{User: "bench", Password: "given"}
		require.NoError(t, ResolvePassword(&c, stdin, nil))
		assert.Equal(t, "given", c.Password)
	})

	t.Run("keyring", func(t *testing.T) {
		require.NoError(t, StorePassword("bench", "s3cr3t"))
		t.Cleanup(func() { DeletePassword("bench") })

		c := bench.ConnConfig{User: "bench"}
		require.NoError(t, ResolvePassword(&c, stdin, nil))
		assert.Equal(t, "s3cr3t", c.Password)
	})

	t.Run("no keyring entry and no terminal", func(t *testing.T) {
		c := bench.ConnConfig{User: "nobody"}
		err := ResolvePassword(&c, stdin, nil)
		var cfgErr *bench.ConfigError
		assert.ErrorAs(t, err, &cfgErr)
	})
}

func TestDeletePassword_Missing(t *testing.T) {
	keyring.MockInit()
	assert.NoError(t, DeletePassword("ghost"))
	assert.Error(t, StorePassword("", "x"))
}

func notATerminal(t *testing.T) *os.File {
	t.Helper()
	f, err := os.Open(writeFile(t, t.TempDir(), "stdin", ""))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}
