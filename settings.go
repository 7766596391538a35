package main

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"querybench/bench"
	"querybench/config"
	"querybench/duck"
	"querybench/my"
	"querybench/pg"
)

// settingFlags maps flag names onto config keys. Only flags the user set
// are applied, so file and environment values survive flag defaults.
var settingFlags = map[string]string{
	"driver":          "db.driver",
	"location":        "db.location",
	"url":             "db.url",
	"host":            "db.host",
	"port":            "db.port",
	"database":        "db.database",
	"sslmode":         "db.sslmode",
	"user":            "db.username",
	"query":           "db.query",
	"query-file":      "db.queryFile",
	"param":           "db.parameters",
	"fetch-size":      "db.fetchSize",
	"row-index":       "db.rowIndex",
	"max-rows":        "db.maxRows",
	"repetitions":     "bench.repetitions",
	"pause":           "bench.pause",
	"max-repetitions": "bench.maxRepetitions",
}

func addSettingFlags(f *pflag.FlagSet) {
	f.String("driver", "", "Driver name (pgx, postgres, mysql, duckdb or a plugin symbol)")
	f.String("location", "", "Path to a Go plugin (.so) exporting the driver")
	f.String("url", "", "Connection string passed to the driver")
	f.String("host", "", "Database host, used when --url is empty")
	f.Int("port", 0, "Database port, used when --url is empty")
	f.String("database", "", "Database name (or DuckDB file)")
	f.String("sslmode", "", "Postgres sslmode, used when --url is empty")
	f.String("user", "", "Database user")
	f.String("query", "", "SQL text to benchmark")
	f.String("query-file", "", "File holding the SQL text")
	f.StringArray("param", nil, `Bind parameter "value:type", repeatable (int, long, short, double, float, bool, string)`)
	f.Int("fetch-size", 0, "Fetch size hint")
	f.Int("row-index", 0, "Absolute cursor position before fetching (negative counts from the end)")
	f.Int("max-rows", 0, "Row cap for the result (0 is unlimited)")
	f.IntP("repetitions", "n", config.DefaultRepetitions, "Timed repetitions")
	f.String("pause", "", `Pause between repetitions ("100ms" or bare milliseconds)`)
	f.Int("max-repetitions", 0, "Upper clamp for --repetitions")
}

// applyFlags copies every changed setting flag into v.
func applyFlags(v *viper.Viper, f *pflag.FlagSet) error {
	var err error
	f.Visit(func(fl *pflag.Flag) {
		key, ok := settingFlags[fl.Name]
		if !ok || err != nil {
			return
		}
		switch fl.Name {
		case "param":
			var entries []string
			if entries, err = f.GetStringArray(fl.Name); err == nil {
				v.Set(key, entries)
			}
		case "query-file":
			var abs string
			if abs, err = filepath.Abs(fl.Value.String()); err == nil {
				v.Set(key, abs)
			}
		default:
			v.Set(key, fl.Value.String())
		}
	})
	return err
}

// loadViper layers .env, the config file and the changed flags.
func loadViper(cmd *cobra.Command, args []string) (*viper.Viper, error) {
	path := opts.configPath
	if len(args) == 1 {
		path = args[0]
	}
	v, err := config.LoadViper(path)
	if err != nil {
		return nil, err
	}
	if err := applyFlags(v, cmd.Flags()); err != nil {
		return nil, err
	}
	return v, nil
}

func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	v, err := loadViper(cmd, args)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Conn.URL = connectionString(cfg.Driver, cfg.Conn)
	return cfg, nil
}

// connectionString fills in a DSN from host/port pieces for the builtin
// drivers. Plugin drivers must be given a URL.
func connectionString(driverName string, c bench.ConnConfig) string {
	if c.URL != "" {
		return c.URL
	}
	switch driverName {
	case duck.DriverName:
		return duck.DSN(c)
	case pg.PgxDriver, pg.PqDriver:
		if c.Host != "" {
			return pg.DSN(c)
		}
	case my.DriverName:
		if c.Host != "" {
			return my.DSN(c)
		}
	}
	return ""
}
