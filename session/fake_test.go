package session

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// fakeDriver serves a fixed table of n rows (id, name) for any query, except
// queries starting with ECHO, which return their bound arguments as one row.
type fakeDriver struct {
	mu sync.Mutex

	rows      int
	failAfter int  // fail every query after this many; 0 never fails
	failClose bool // statements and cursors fail to close

	opened  []string
	queries int
	args    [][]driver.Value
	closed  int
}

func (d *fakeDriver) Open(dsn string) (driver.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opened = append(d.opened, dsn)
	if strings.Contains(dsn, "unreachable") {
		return nil, errors.New("dial tcp: connection refused")
	}
	return &fakeConn{d: d}, nil
}

type fakeConn struct{ d *fakeDriver }

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) {
	if strings.HasPrefix(query, "BROKEN") {
		return nil, errors.New("syntax error at or near \"BROKEN\"")
	}
	return &fakeStmt{d: c.d, query: query}, nil
}

func (c *fakeConn) Close() error {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	c.d.closed++
	return nil
}

func (c *fakeConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions not supported")
}

type fakeStmt struct {
	d     *fakeDriver
	query string
}

func (s *fakeStmt) Close() error { return s.d.closeErr("statement") }

func (s *fakeStmt) NumInput() int { return -1 }

func (s *fakeStmt) Exec(_ []driver.Value) (driver.Result, error) {
	return nil, errors.New("exec not supported")
}

func (s *fakeStmt) Query(args []driver.Value) (driver.Rows, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	s.d.queries++
	if s.d.failAfter > 0 && s.d.queries > s.d.failAfter {
		return nil, fmt.Errorf("query %d: server closed the connection", s.d.queries)
	}
	s.d.args = append(s.d.args, args)

	if strings.HasPrefix(s.query, "ECHO") {
		cols := make([]string, len(args))
		for i := range args {
			cols[i] = fmt.Sprintf("arg%d", i+1)
		}
		return &fakeRows{d: s.d, cols: cols, data: [][]driver.Value{args}}, nil
	}

	data := make([][]driver.Value, s.d.rows)
	for i := range data {
		data[i] = []driver.Value{int64(i + 1), fmt.Sprintf("row-%d", i+1)}
	}
	return &fakeRows{d: s.d, cols: []string{"id", "name"}, data: data}, nil
}

// closeErr reports a close failure for what when failClose is set.
func (d *fakeDriver) closeErr(what string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failClose {
		return fmt.Errorf("close %s: broken pipe", what)
	}
	return nil
}

type fakeRows struct {
	d    *fakeDriver
	cols []string
	data [][]driver.Value
	i    int
}

func (r *fakeRows) Columns() []string { return r.cols }

func (r *fakeRows) Close() error { return r.d.closeErr("cursor") }

func (r *fakeRows) Next(dest []driver.Value) error {
	if r.i >= len(r.data) {
		return io.EOF
	}
	copy(dest, r.data[r.i])
	r.i++
	return nil
}
