package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	opts runOptions

	rootCmd = &cobra.Command{
		Use:   "querybench [config-file]",
		Short: "Time a single SQL query through any database/sql driver",
		Long: `querybench loads a database/sql driver (builtin or from a Go plugin),
prepares one query, runs a warm-up and a dry-run fetch, then times
query and fetch separately over a number of repetitions.

Settings come from a .properties, YAML, JSON or TOML file, QUERYBENCH_*
environment variables (also read from .env) and the flags below, in
increasing order of precedence.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(opts.logLevel, opts.logFormat)
		},
		RunE: runBenchmark,
	}

	// --- Password ---
	passwordCmd = &cobra.Command{
		Use:   "password",
		Short: "Manage db.password entries in the OS keyring",
	}
	passwordSetCmd = &cobra.Command{
		Use:   "set <username>",
		Short: "Prompt for a password and store it for username",
		Args:  cobra.ExactArgs(1),
		RunE:  runPasswordSet,
	}
	passwordDeleteCmd = &cobra.Command{
		Use:   "delete <username>",
		Short: "Remove the stored password for username",
		Args:  cobra.ExactArgs(1),
		RunE:  runPasswordDelete,
	}

	// --- Config ---
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Inspect or generate configuration files",
	}
	configInitCmd = &cobra.Command{
		Use:   "init <path>",
		Short: "Write a config file from the current flags and environment",
		Args:  cobra.ExactArgs(1),
		RunE:  runConfigInit,
	}
	configShowCmd = &cobra.Command{
		Use:   "show [config-file]",
		Short: "Print the resolved settings without connecting",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigShow,
	}

	driversCmd = &cobra.Command{
		Use:   "drivers",
		Short: "List the builtin driver names",
		RunE:  runDrivers,
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "Config file (.properties, .yaml, .json, .toml)")
	pf.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	pf.StringVar(&opts.logFormat, "log-format", "text", "Log format: text, json")

	addSettingFlags(pf)

	f := rootCmd.Flags()
	f.StringVar(&opts.exportPath, "export", "", "Write the dry-run rows to this file")
	f.StringVar(&opts.exportFormat, "export-format", "", "Row export format: csv, json, xlsx, pdf (default from extension)")
	f.StringVar(&opts.reportPath, "report", "", "Write the run report to this .yaml or .json file")
	f.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	f.StringVar(&opts.outputFile, "output", "", "Also write the printed report to this file")
	f.IntVar(&opts.rowLimit, "show-rows", 20, "Dry-run rows to print (0 prints all)")
	f.Float64Var(&opts.tolerance, "tolerance", 0.5, "Steady-state tolerance as a fraction of the mean")

	configInitCmd.Flags().BoolVar(&opts.force, "force", false, "Overwrite an existing file")

	passwordCmd.AddCommand(passwordSetCmd, passwordDeleteCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(passwordCmd, configCmd, driversCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
