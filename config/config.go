package config

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"querybench/bench"
)

const (
	EnvPrefix          = "QUERYBENCH"
	DefaultRepetitions = 3
)

// Config is everything a benchmark run needs.
type Config struct {
	Driver   string
	Location string

	Conn  bench.ConnConfig
	Query bench.QuerySpec
	Bench bench.BenchParams

	MaxRepetitions int
}

// NewViper returns a viper instance that understands .properties files,
// reads QUERYBENCH_* environment variables and carries the defaults.
func NewViper() *viper.Viper {
	v := viper.NewWithOptions(viper.WithCodecRegistry(Codecs()))
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("bench.repetitions", DefaultRepetitions)
	v.SetDefault("bench.pause", "0s")
	v.SetDefault("bench.maxRepetitions", 10000)
	return v
}

// Codecs returns viper's builtin formats plus .properties under its
// "properties", "props" and "prop" extensions.
func Codecs() viper.CodecRegistry {
	reg := viper.NewCodecRegistry()
	for _, ext := range []string{"properties", "props", "prop"} {
		// Only fails for an empty format name.
		_ = reg.RegisterCodec(ext, propertiesCodec{})
	}
	return reg
}

// LoadDotEnv loads .env from dir into the process environment. A missing
// file is not an error; existing variables are never overwritten.
func LoadDotEnv(dir string) error {
	err := godotenv.Load(filepath.Join(dir, ".env"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &bench.ConfigError{Op: "load .env", Cause: err}
	}
	return nil
}

// ReadFile merges the config file at path into v. The format follows the
// file extension; anything unrecognized is read as .properties.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "yaml", "yml", "json", "toml":
	default:
		v.SetConfigType("properties")
	}
	if err := v.ReadInConfig(); err != nil {
		return &bench.ConfigError{Op: "read config " + path, Cause: err}
	}
	return nil
}

// LoadViper reads .env from the working directory and merges the config file
// at path. Environment variables override the file; flags are layered on top
// by the caller.
func LoadViper(path string) (*viper.Viper, error) {
	if err := LoadDotEnv("."); err != nil {
		return nil, err
	}
	v := NewViper()
	if err := ReadFile(v, path); err != nil {
		return nil, err
	}
	return v, nil
}

// Decode turns the merged viper state into a Config. Relative query files
// are resolved against the config file's directory.
func Decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Driver:   strings.TrimSpace(v.GetString("db.driver")),
		Location: strings.TrimSpace(v.GetString("db.location")),
		Conn: bench.ConnConfig{
			URL:      strings.TrimSpace(v.GetString("db.url")),
			Host:     v.GetString("db.host"),
			Database: v.GetString("db.database"),
			SSLMode:  v.GetString("db.sslmode"),
			User:     strings.TrimSpace(v.GetString("db.username")),
			Password: v.GetString("db.password"),
		},
	}

	var err error
	if cfg.Conn.Port, err = intValue(v, "db.port", 0); err != nil {
		return nil, err
	}
	if cfg.Bench.Repetitions, err = intValue(v, "bench.repetitions", DefaultRepetitions); err != nil {
		return nil, err
	}
	if cfg.MaxRepetitions, err = intValue(v, "bench.maxRepetitions", 10000); err != nil {
		return nil, err
	}
	if cfg.Bench.Pause, err = durationValue(v, "bench.pause"); err != nil {
		return nil, err
	}

	if cfg.Query.Text, err = queryText(v); err != nil {
		return nil, err
	}
	if cfg.Query.Params, err = params(v.Get("db.parameters")); err != nil {
		return nil, err
	}
	if cfg.Query.FetchSize, err = optInt(v, "db.fetchSize"); err != nil {
		return nil, err
	}
	if cfg.Query.RowIndex, err = optInt(v, "db.rowIndex"); err != nil {
		return nil, err
	}
	if cfg.Query.MaxRows, err = optInt(v, "db.maxRows"); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields a run cannot start without.
func (c *Config) Validate() error {
	if c.Driver == "" {
		return &bench.ConfigError{Op: "validate", Cause: errors.New("db.driver is not set")}
	}
	if strings.TrimSpace(c.Query.Text) == "" {
		return &bench.ConfigError{Op: "validate", Cause: errors.New("neither db.query nor db.queryFile is set")}
	}
	return nil
}

func queryText(v *viper.Viper) (string, error) {
	if q := v.GetString("db.query"); strings.TrimSpace(q) != "" {
		return q, nil
	}
	path := strings.TrimSpace(v.GetString("db.queryFile"))
	if path == "" {
		return "", nil
	}
	if !filepath.IsAbs(path) && v.ConfigFileUsed() != "" {
		path = filepath.Join(filepath.Dir(v.ConfigFileUsed()), path)
	}
	return ReadQueryFile(path)
}

// ReadQueryFile reads a query file line by line, ending every line with "\n".
func ReadQueryFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &bench.ConfigError{Op: "read query file", Cause: err}
	}
	defer f.Close()

	var sb strings.Builder
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		sb.WriteString(sc.Text())
		sb.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return "", &bench.ConfigError{Op: "read query file", Cause: err}
	}
	return sb.String(), nil
}

func params(raw any) ([]bench.BindParameter, error) {
	switch t := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return bench.ParseParamList(t)
	case []string:
		return bench.ParseParams(t)
	case []any:
		entries := make([]string, len(t))
		for i, e := range t {
			entries[i] = fmt.Sprint(e)
		}
		return bench.ParseParams(entries)
	default:
		return bench.ParseParamList(fmt.Sprint(t))
	}
}

func intValue(v *viper.Viper, key string, def int) (int, error) {
	p, err := optInt(v, key)
	if err != nil || p == nil {
		return def, err
	}
	return *p, nil
}

// optInt returns nil for an unset or blank value.
func optInt(v *viper.Viper, key string) (*int, error) {
	s := strings.TrimSpace(v.GetString(key))
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, &bench.ConfigError{Op: key, Cause: fmt.Errorf("%q is not an integer", s)}
	}
	return &n, nil
}

// durationValue accepts Go durations ("250ms") or bare milliseconds ("100").
func durationValue(v *viper.Viper, key string) (time.Duration, error) {
	s := strings.TrimSpace(v.GetString(key))
	if s == "" {
		return 0, nil
	}
	if ms, err := strconv.Atoi(s); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, &bench.ConfigError{Op: key, Cause: err}
	}
	return d, nil
}
