package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
)

var stubSeq atomic.Int64

// stubConn is an in-memory database/sql driver that understands the two
// statements issued by SnapshotBackend.
type stubConn struct {
	mu        sync.Mutex
	payload   []byte
	written   bool
	failExec  bool
	failQuery bool
	execs     int
}

func newStubDB() (*sql.DB, *stubConn) {
	conn := &stubConn{}
	name := fmt.Sprintf("stubpg%d", stubSeq.Add(1))
	sql.Register(name, &stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db, conn
}

type stubDriver struct{ conn *stubConn }

func (d *stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

func (c *stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not implemented") }
func (c *stubConn) Close() error                        { return nil }
func (c *stubConn) Begin() (driver.Tx, error)           { return stubTx{}, nil }

func (c *stubConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	return stubTx{}, nil
}

func (c *stubConn) Ping(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failQuery {
		return errors.New("ping fail")
	}
	return nil
}

func (c *stubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.execs++
	if c.failExec {
		return nil, errors.New("exec fail")
	}
	if !strings.HasPrefix(strings.TrimSpace(query), "INSERT INTO item_snapshots") {
		return nil, fmt.Errorf("unexpected exec %q", query)
	}
	switch v := args[1].Value.(type) {
	case string:
		c.payload = []byte(v)
	case []byte:
		c.payload = append([]byte(nil), v...)
	}
	c.written = true
	return driver.RowsAffected(1), nil
}

func (c *stubConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failQuery {
		return nil, errors.New("query fail")
	}
	if !strings.HasPrefix(strings.TrimSpace(query), "SELECT payload FROM item_snapshots") {
		return nil, fmt.Errorf("unexpected query %q", query)
	}
	rows := &stubRows{}
	if c.written {
		rows.values = [][]driver.Value{{append([]byte(nil), c.payload...)}}
	}
	return rows, nil
}

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

type stubRows struct {
	values [][]driver.Value
	pos    int
}

func (r *stubRows) Columns() []string { return []string{"payload"} }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.values) {
		return io.EOF
	}
	copy(dest, r.values[r.pos])
	r.pos++
	return nil
}
