package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/zalando/go-keyring"
	"golang.org/x/term"

	"querybench/bench"
)

// KeyringService is the service name passwords are stored under.
const KeyringService = "querybench"

// StorePassword saves password for user in the OS keyring.
func StorePassword(user, password string) error {
	if user == "" {
		return &bench.ConfigError{Op: "store password", Cause: errors.New("username is empty")}
	}
	if err := keyring.Set(KeyringService, user, password); err != nil {
		return fmt.Errorf("keyring set: %w", err)
	}
	return nil
}

// DeletePassword removes user's stored password. A missing entry is not an error.
func DeletePassword(user string) error {
	err := keyring.Delete(KeyringService, user)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring delete: %w", err)
	}
	return nil
}

// ResolvePassword fills c.Password when a username is set without one: first
// from the keyring, then by prompting on in if it is a terminal.
func ResolvePassword(c *bench.ConnConfig, in *os.File, out io.Writer) error {
	if c.User == "" || c.Password != "" {
		return nil
	}

	pw, err := keyring.Get(KeyringService, c.User)
	switch {
	case err == nil:
		c.Password = pw
		return nil
	case errors.Is(err, keyring.ErrNotFound):
	default:
		slog.Debug("keyring unavailable", "error", err)
	}

	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return &bench.ConfigError{Op: "password", Cause: fmt.Errorf("db.password is not set for user %q and stdin is not a terminal", c.User)}
	}
	fmt.Fprint(out, "Enter db.password: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return &bench.ConfigError{Op: "password", Cause: err}
	}
	c.Password = string(b)
	return nil
}
