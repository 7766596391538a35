package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"querybench/bench"
	"querybench/resolver"
)

// State is a position in the session lifecycle.
type State int

const (
	Idle State = iota
	DriverLoaded
	Connected
	StatementPrepared
	Executed
	Fetched
	Closed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case DriverLoaded:
		return "driver-loaded"
	case Connected:
		return "connected"
	case StatementPrepared:
		return "statement-prepared"
	case Executed:
		return "executed"
	case Fetched:
		return "fetched"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const (
	DefaultMinRepetitions = 1
	DefaultMaxRepetitions = 10000
)

// CredentialsFunc merges a username and password into a driver's DSN.
type CredentialsFunc func(dsn, user, password string) (string, error)

// Session owns one connection, one prepared statement and at most one open
// cursor. It is single-threaded.
type Session struct {
	resolver *resolver.Resolver
	log      *slog.Logger
	creds    map[string]CredentialsFunc
	minReps  int
	maxReps  int
	pause    time.Duration
	observe  func(phase string, d time.Duration)
	now      func() time.Time

	state  State
	driver string

	db    *sql.DB
	conn  *sql.Conn
	stmt  *sql.Stmt
	rows  *sql.Rows
	fresh bool // rows has not been fetched yet

	args      []any
	fetchSize int
	rowCap    int // absolute row limit; 0 is unlimited
}

type Option func(*Session)

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithCredentials installs the DSN hook used for driver name when a username is set.
func WithCredentials(driverName string, fn CredentialsFunc) Option {
	return func(s *Session) { s.creds[driverName] = fn }
}

// WithRepetitionBounds sets the clamp band for Benchmark.
func WithRepetitionBounds(min, max int) Option {
	return func(s *Session) {
		s.minReps, s.maxReps = min, max
	}
}

// WithPause sleeps between timed repetitions.
func WithPause(d time.Duration) Option {
	return func(s *Session) { s.pause = d }
}

// WithObserver receives every timed sample as it is recorded.
func WithObserver(fn func(phase string, d time.Duration)) Option {
	return func(s *Session) { s.observe = fn }
}

func withClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New creates an idle session resolving drivers through r.
func New(r *resolver.Resolver, opts ...Option) *Session {
	if r == nil {
		r = resolver.New(nil)
	}
	s := &Session{
		resolver: r,
		log:      slog.Default(),
		creds:    make(map[string]CredentialsFunc),
		minReps:  DefaultMinRepetitions,
		maxReps:  DefaultMaxRepetitions,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.minReps < 1 {
		s.minReps = 1
	}
	if s.maxReps < s.minReps {
		s.maxReps = s.minReps
	}
	return s
}

func (s *Session) State() State { return s.state }

// LoadDriver resolves the driver the session will connect through.
func (s *Session) LoadDriver(ctx context.Context, name, location string) error {
	if s.state != Idle {
		return &bench.DriverLoadError{Driver: name, Cause: fmt.Errorf("session is %s, want %s", s.state, Idle)}
	}
	h, err := s.resolver.Load(ctx, name, location)
	if err != nil {
		return err
	}
	s.driver = h.Name
	s.state = DriverLoaded
	return nil
}

// Connect opens a single pinned connection. A username, when present, is
// merged into the DSN by the driver's credentials hook.
func (s *Session) Connect(ctx context.Context, cfg bench.ConnConfig) error {
	if strings.TrimSpace(cfg.URL) == "" {
		return &bench.ConfigError{Op: "connect", Cause: errors.New("connection string is empty")}
	}
	if s.state != DriverLoaded {
		return &bench.ConnectionError{Cause: fmt.Errorf("session is %s, want %s", s.state, DriverLoaded)}
	}

	dsn := cfg.URL
	if cfg.User != "" {
		var err error
		if dsn, err = s.withCredentials(dsn, cfg.User, cfg.Password); err != nil {
			return err
		}
	}

	connector, err := s.resolver.Connector(dsn)
	if err != nil {
		return &bench.ConnectionError{Cause: err}
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return &bench.ConnectionError{Cause: err}
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		db.Close()
		return &bench.ConnectionError{Cause: err}
	}

	s.db, s.conn = db, conn
	s.state = Connected
	s.log.Debug("connected", "driver", s.driver, "conn", cfg)
	return nil
}

func (s *Session) withCredentials(dsn, user, password string) (string, error) {
	if fn, ok := s.creds[s.driver]; ok {
		out, err := fn(dsn, user, password)
		if err != nil {
			return "", &bench.ConfigError{Op: "apply credentials", Cause: err}
		}
		return out, nil
	}
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" || u.Opaque != "" {
		return "", &bench.ConfigError{Op: "apply credentials", Cause: fmt.Errorf("driver %q has no credentials hook and its connection string is not a URL", s.driver)}
	}
	if password == "" {
		u.User = url.User(user)
	} else {
		u.User = url.UserPassword(user, password)
	}
	return u.String(), nil
}

// Prepare prepares q on the pinned connection and binds its parameters.
func (s *Session) Prepare(ctx context.Context, q bench.QuerySpec) error {
	if strings.TrimSpace(q.Text) == "" {
		return &bench.ConfigError{Op: "prepare", Cause: errors.New("query is empty")}
	}
	if s.state < Connected || s.state == Closed {
		return &bench.StatementError{Cause: fmt.Errorf("session is %s, want %s", s.state, Connected)}
	}

	args, err := bench.BindArgs(q.Params)
	if err != nil {
		return &bench.StatementError{Cause: err}
	}

	fetchSize, rowCap := 0, 0
	if q.FetchSize != nil {
		if *q.FetchSize < 0 {
			return &bench.StatementError{Cause: fmt.Errorf("fetch size %d is negative", *q.FetchSize)}
		}
		fetchSize = *q.FetchSize
	}
	if q.MaxRows != nil {
		if *q.MaxRows < 0 {
			return &bench.StatementError{Cause: fmt.Errorf("max rows %d is negative", *q.MaxRows)}
		}
		// The cap counts from the start of the result, not from the row index.
		if *q.MaxRows > 0 {
			rowCap = *q.MaxRows
			if q.RowIndex != nil && *q.RowIndex > 0 {
				rowCap += *q.RowIndex
			}
		}
	}

	s.releaseStatement()
	stmt, err := s.conn.PrepareContext(ctx, q.Text)
	if err != nil {
		return &bench.StatementError{Cause: err}
	}

	s.stmt = stmt
	s.args = args
	s.fetchSize = fetchSize
	s.rowCap = rowCap
	s.state = StatementPrepared
	if fetchSize > 0 {
		s.log.Debug("fetch size is advisory on database/sql", "fetch_size", fetchSize)
	}
	return nil
}

// Execute runs the prepared statement, replacing any previous cursor.
func (s *Session) Execute(ctx context.Context) error {
	if s.stmt == nil || s.state == Closed {
		return &bench.ExecutionError{Cause: fmt.Errorf("session is %s, no statement prepared", s.state)}
	}
	s.releaseRows()

	rows, err := s.stmt.QueryContext(ctx, s.args...)
	if err != nil {
		return &bench.ExecutionError{Cause: err}
	}
	s.rows = rows
	s.fresh = true
	s.state = Executed
	return nil
}

// FetchAll reads the current cursor to exhaustion and closes it.
//
// rowIndex positions the cursor before iteration the way an absolute seek on
// a scrollable cursor would: n > 0 places it on row n so reading starts at
// n+1, 0 is before the first row, and n < 0 counts back from the last row.
// Positions past either end leave nothing or everything to read.
func (s *Session) FetchAll(ctx context.Context, rowIndex *int) ([]bench.Row, error) {
	if s.rows == nil || !s.fresh || s.state == Closed {
		return nil, &bench.FetchError{Cause: errors.New("no open result cursor, call Execute first")}
	}
	rows := s.rows
	s.fresh = false
	defer s.releaseRows()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &bench.FetchError{Cause: err}
	}

	skip, fromEnd := 0, 0
	if rowIndex != nil {
		switch n := *rowIndex; {
		case n > 0:
			skip = n
		case n < 0:
			fromEnd = -n
		}
	}

	var out []bench.Row
	dest := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range dest {
		ptrs[i] = &dest[i]
	}

	pos := 0
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, &bench.FetchError{Cause: err}
		}
		pos++
		if s.rowCap > 0 && pos > s.rowCap {
			break
		}
		if pos <= skip {
			continue
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &bench.FetchError{Cause: fmt.Errorf("row %d: %w", pos, err)}
		}
		out = append(out, materialize(cols, dest))
	}
	if err := rows.Err(); err != nil {
		return nil, &bench.FetchError{Cause: err}
	}

	if fromEnd > 0 {
		// Absolute -k lands on row total-k+1; reading resumes after it.
		if p := len(out) - fromEnd + 1; p > 0 {
			out = out[p:]
		}
	}

	if err := rows.Close(); err != nil {
		return nil, &bench.FetchError{Cause: err}
	}
	s.state = Fetched
	return out, nil
}

func materialize(cols []string, dest []any) bench.Row {
	r := bench.Row{
		Columns: append([]string(nil), cols...),
		Values:  make([]bench.Value, len(dest)),
	}
	for i, v := range dest {
		r.Values[i] = bench.ValueOf(v)
	}
	return r
}

// Close releases the cursor, statement, connection and driver. Every
// resource is released even if an earlier one fails. Later calls are no-ops.
func (s *Session) Close() error {
	if s.state == Closed {
		return nil
	}
	var errs []error
	if s.rows != nil {
		errs = append(errs, s.rows.Close())
		s.rows = nil
	}
	if s.stmt != nil {
		errs = append(errs, s.stmt.Close())
		s.stmt = nil
	}
	if s.conn != nil {
		errs = append(errs, s.conn.Close())
		s.conn = nil
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
		s.db = nil
	}
	if s.state >= DriverLoaded {
		s.resolver.Unload()
	}
	s.state = Closed

	err := errors.Join(errs...)
	if err != nil {
		s.log.Warn("close session", "error", err)
	}
	return err
}

func (s *Session) releaseRows() {
	if s.rows == nil {
		return
	}
	if err := s.rows.Close(); err != nil {
		s.log.Debug("close cursor", "error", err)
	}
	s.rows = nil
	s.fresh = false
}

func (s *Session) releaseStatement() {
	s.releaseRows()
	if s.stmt == nil {
		return
	}
	if err := s.stmt.Close(); err != nil {
		s.log.Debug("close statement", "error", err)
	}
	s.stmt = nil
}
