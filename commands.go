package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"querybench/bench"
	"querybench/config"
)

func runPasswordSet(cmd *cobra.Command, args []string) error {
	user := args[0]
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return errors.New("password set needs an interactive terminal")
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Password for %s: ", user)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if err := config.StorePassword(user, string(pw)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  ✓ Stored password for %s\n", user)
	return nil
}

func runPasswordDelete(cmd *cobra.Command, args []string) error {
	if err := config.DeletePassword(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  ✓ Removed password for %s\n", args[0])
	return nil
}

// runConfigInit writes the flags and environment that are set to a new
// config file. The codec follows the file extension.
func runConfigInit(cmd *cobra.Command, args []string) error {
	v := config.NewViper()
	if err := applyFlags(v, cmd.Flags()); err != nil {
		return err
	}
	out := viper.NewWithOptions(viper.WithCodecRegistry(config.Codecs()))
	for _, key := range v.AllKeys() {
		if key == "db.password" {
			continue
		}
		out.Set(key, v.Get(key))
	}

	path := args[0]
	write := out.SafeWriteConfigAs
	if opts.force {
		write = out.WriteConfigAs
	}
	if err := write(path); err != nil {
		return &bench.ConfigError{Op: "write config " + path, Cause: err}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  ✓ Wrote %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Driver:      %s\n", cfg.Driver)
	if cfg.Location != "" {
		fmt.Fprintf(w, "Plugin:      %s\n", cfg.Location)
	}
	fmt.Fprintf(w, "URL:         %s\n", cfg.Conn.URL)
	if cfg.Conn.User != "" {
		fmt.Fprintf(w, "User:        %s\n", cfg.Conn.User)
	}
	fmt.Fprintf(w, "Repetitions: %d (max %d)\n", cfg.Bench.Repetitions, cfg.MaxRepetitions)
	fmt.Fprintf(w, "Pause:       %s\n", cfg.Bench.Pause)
	bench.PrintQuery(w, cfg.Query)
	return nil
}

func runDrivers(cmd *cobra.Command, _ []string) error {
	reg, err := newRegistry()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(reg.Names(), "\n"))
	return nil
}
