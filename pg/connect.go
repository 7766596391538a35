package pg

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"querybench/bench"
	"querybench/resolver"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
)

// Driver names registered by Register.
const (
	PgxDriver = "pgx"
	PqDriver  = "postgres"
)

// Register adds pgx's database/sql driver and lib/pq to reg.
func Register(reg *resolver.Registry) error {
	if err := reg.Register(PgxDriver, stdlib.GetDefaultDriver()); err != nil {
		return err
	}
	return reg.Register(PqDriver, &pq.Driver{})
}

// DSN builds a postgres URL from the host/port pieces of c. An explicit URL wins.
func DSN(c bench.ConnConfig) string {
	if c.URL != "" {
		return c.URL
	}
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	port := c.Port
	if port == 0 {
		port = 5432
	}
	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(port)),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": {sslmode}}.Encode(),
	}
	return u.String()
}

// WithCredentials puts user and password into a URL or keyword/value DSN and
// checks the result parses as a pgx connection string.
func WithCredentials(dsn, user, password string) (string, error) {
	var out string
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse postgres url: %w", err)
		}
		if password == "" {
			u.User = url.User(user)
		} else {
			u.User = url.UserPassword(user, password)
		}
		out = u.String()
	} else {
		out = strings.TrimSpace(dsn) + " user=" + quote(user)
		if password != "" {
			out += " password=" + quote(password)
		}
	}
	if _, err := pgx.ParseConfig(out); err != nil {
		return "", fmt.Errorf("invalid postgres connection string: %w", err)
	}
	return out, nil
}

// quote escapes a keyword/value DSN value.
func quote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
