package my

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"querybench/bench"
	"querybench/resolver"

	"github.com/go-sql-driver/mysql"
)

// DriverName is the name the MySQL driver is registered under.
const DriverName = "mysql"

func Register(reg *resolver.Registry) error {
	return reg.Register(DriverName, &mysql.MySQLDriver{})
}

// DSN builds a go-sql-driver DSN from the host/port pieces of c. An explicit URL wins.
func DSN(c bench.ConnConfig) string {
	if c.URL != "" {
		return c.URL
	}
	port := c.Port
	if port == 0 {
		port = 3306
	}
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, strconv.Itoa(port))
	cfg.DBName = c.Database
	cfg.ParseTime = true
	cfg.Timeout = 30 * time.Second
	return cfg.FormatDSN()
}

// WithCredentials rewrites dsn with user and password.
func WithCredentials(dsn, user, password string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.User = user
	cfg.Passwd = password
	return cfg.FormatDSN(), nil
}
