// Package sqlitedrv provides a database/sql/driver implementation on top
// of package sqlite.
//
// database/sql contributes connection pooling and cross-goroutine
// serialization, which the raw binding deliberately does not. The driver
// registers itself under the name "cqlite":
//
//	db, err := sql.Open("cqlite", "file:app.db?_fk=on")
package sqlitedrv

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cqlite/cqlite/sqlite"
)

var (
	_ driver.Driver                         = (*Driver)(nil)
	_ driver.Connector                      = (*Connector)(nil)
	_ driver.Conn                           = (*Conn)(nil)
	_ driver.ConnBeginTx                    = (*Conn)(nil)
	_ driver.Validator                      = (*Conn)(nil)
	_ driver.SessionResetter                = (*Conn)(nil)
	_ driver.Stmt                           = (*Stmt)(nil)
	_ driver.StmtExecContext                = (*Stmt)(nil)
	_ driver.StmtQueryContext               = (*Stmt)(nil)
	_ driver.Rows                           = (*Rows)(nil)
	_ driver.RowsColumnTypeDatabaseTypeName = (*Rows)(nil)
)

// timestampFormat is how time.Time arguments are stored, matching the
// format SQLite's date functions parse.
const timestampFormat = "2006-01-02 15:04:05.999999999-07:00"

func init() {
	sql.Register("cqlite", &Driver{})
}

// Driver implements driver.Driver.
type Driver struct{}

// Open creates a new connection to the database at dsn.
func (d *Driver) Open(dsn string) (driver.Conn, error) {
	return NewConnector(dsn).Connect(context.Background())
}

type connectorOption func(*Connector)

// WithPostConnectQueries sets SQL batches to run on every new connection,
// typically pragmas.
func WithPostConnectQueries(queries []string) connectorOption {
	return func(connector *Connector) {
		connector.postConnectQueries = queries
	}
}

// WithBusyTimeout sets the lock-wait timeout forwarded to every new
// connection.
func WithBusyTimeout(timeout time.Duration) connectorOption {
	return func(connector *Connector) {
		connector.busyTimeout = timeout
	}
}

// Connector implements driver.Connector.
type Connector struct {
	dsn                string
	postConnectQueries []string
	busyTimeout        time.Duration
}

// NewConnector creates a connector for the database at dsn. Using the
// connector with sql.OpenDB avoids the global driver registry.
func NewConnector(dsn string, options ...connectorOption) *Connector {
	connector := &Connector{
		dsn:         dsn,
		busyTimeout: 5 * time.Second,
	}
	for _, option := range options {
		option(connector)
	}
	return connector
}

// Connect opens a new connection. The context is not consulted; the
// engine's open is a fast local operation.
func (connector *Connector) Connect(_ context.Context) (driver.Conn, error) {
	conn, err := sqlite.Open(connector.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}
	if connector.busyTimeout > 0 {
		conn.BusyTimeout(connector.busyTimeout)
	}

	for _, query := range connector.postConnectQueries {
		if err := conn.ExecuteBatch(query); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf(`failed to execute %q post-connect query: %w`, query, err)
		}
	}

	return &Conn{conn: conn}, nil
}

// Driver returns the driver of the connector.
func (connector *Connector) Driver() driver.Driver {
	return &Driver{}
}

// Conn implements driver.Conn over a single sqlite connection.
type Conn struct {
	conn *sqlite.Conn
}

// RawConn returns the underlying sqlite connection. The caller must not
// close it and must not use it concurrently with database/sql operations
// on the same connection.
func (c *Conn) RawConn() *sqlite.Conn {
	return c.conn
}

// Close closes the connection. database/sql only calls this once every
// statement prepared on the connection has been closed.
func (c *Conn) Close() error {
	if err := c.conn.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

// Prepare compiles a single statement. Trailing text after the first
// statement is rejected, since database/sql has no way to run it.
func (c *Conn) Prepare(query string) (driver.Stmt, error) {
	stmt, err := c.conn.Prepare(query)
	if err != nil {
		return nil, err
	}
	if stmt == nil {
		return nil, errors.New("query holds no statement")
	}
	if tail := strings.TrimSpace(stmt.Tail); tail != "" {
		_ = stmt.Finalize()
		return nil, fmt.Errorf("query holds more than one statement; trailing text: %q", tail)
	}
	return &Stmt{conn: c, stmt: stmt}, nil
}

// Begin starts a deferred transaction.
//
// Deprecated: Begin exists to satisfy driver.Conn; database/sql uses
// BeginTx.
func (c *Conn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

// BeginTx starts a transaction. Isolation levels other than the default
// are not supported; SQLite transactions are always serializable.
func (c *Conn) BeginTx(_ context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if sql.IsolationLevel(opts.Isolation) != sql.LevelDefault {
		return nil, errors.New("unsupported isolation level")
	}
	// A deferred transaction serves both modes: it holds only a read lock
	// until the first write, so a read-only caller never blocks writers.
	if err := c.conn.ExecuteBatch("BEGIN"); err != nil {
		return nil, err
	}
	return &Tx{conn: c}, nil
}

// IsValid reports whether the connection can be reused by the pool.
func (c *Conn) IsValid() bool {
	return c.conn.AutoCommit()
}

// ResetSession rolls back any transaction left open by a misbehaving
// caller before the connection is handed out again.
func (c *Conn) ResetSession(_ context.Context) error {
	if !c.conn.AutoCommit() {
		if err := c.conn.ExecuteBatch("ROLLBACK"); err != nil {
			return driver.ErrBadConn
		}
	}
	return nil
}

// Tx implements driver.Tx.
type Tx struct {
	conn *Conn
}

func (tx *Tx) Commit() error {
	return tx.conn.conn.ExecuteBatch("COMMIT")
}

func (tx *Tx) Rollback() error {
	return tx.conn.conn.ExecuteBatch("ROLLBACK")
}

// Stmt implements driver.Stmt.
type Stmt struct {
	conn *Conn
	stmt *sqlite.Stmt
}

func (s *Stmt) Close() error {
	return s.stmt.Finalize()
}

func (s *Stmt) NumInput() int {
	return s.stmt.BindParameterCount()
}

// Exec runs the statement to completion without returning rows.
func (s *Stmt) Exec(args []driver.Value) (driver.Result, error) {
	return s.ExecContext(context.Background(), valuesToNamed(args))
}

// ExecContext runs the statement to completion. The context cancels via
// the connection's interrupt.
func (s *Stmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	if err := s.bindAll(args); err != nil {
		return nil, err
	}

	done := watchContext(ctx, s.conn.conn)
	defer done()

	for {
		hasRow, err := s.stmt.Step()
		if err != nil {
			_ = s.stmt.Reset()
			return nil, err
		}
		if !hasRow {
			break
		}
	}
	if err := s.stmt.Reset(); err != nil {
		return nil, err
	}

	return driver.RowsAffected(s.conn.conn.Changes()), nil
}

// Query runs the statement and returns its rows.
func (s *Stmt) Query(args []driver.Value) (driver.Rows, error) {
	return s.QueryContext(context.Background(), valuesToNamed(args))
}

// QueryContext runs the statement and returns its rows. The rows own the
// statement's cursor until closed; closing resets rather than finalizes,
// so database/sql can reuse the prepared statement.
func (s *Stmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	if err := s.bindAll(args); err != nil {
		return nil, err
	}
	return &Rows{stmt: s.stmt, conn: s.conn.conn, ctx: ctx}, nil
}

func (s *Stmt) bindAll(args []driver.NamedValue) error {
	for _, arg := range args {
		value, err := namedArgValue(arg)
		if err != nil {
			return err
		}
		if arg.Name != "" {
			if err := bindNamed(s.stmt, arg.Name, value); err != nil {
				return err
			}
			continue
		}
		if err := s.stmt.BindValue(arg.Ordinal, value); err != nil {
			return err
		}
	}
	return nil
}

// bindNamed resolves the parameter index across the prefixes SQLite
// supports, since database/sql strips the prefix from the name. The bind
// itself happens at most once, so a bind failure is never mistaken for a
// missing parameter.
func bindNamed(stmt *sqlite.Stmt, name string, value sqlite.Value) error {
	for _, prefix := range []string{":", "@", "$"} {
		if index := stmt.BindParameterIndex(prefix + name); index > 0 {
			return stmt.BindValue(index, value)
		}
	}
	return fmt.Errorf("no parameter named %q", name)
}

func namedArgValue(arg driver.NamedValue) (sqlite.Value, error) {
	if t, ok := arg.Value.(time.Time); ok {
		return sqlite.Text(t.Format(timestampFormat)), nil
	}
	return sqlite.FromAny(arg.Value)
}

func valuesToNamed(args []driver.Value) []driver.NamedValue {
	named := make([]driver.NamedValue, len(args))
	for i, v := range args {
		named[i] = driver.NamedValue{Ordinal: i + 1, Value: v}
	}
	return named
}

// watchContext interrupts the connection when ctx is cancelled before the
// returned stop function runs.
func watchContext(ctx context.Context, conn *sqlite.Conn) (stop func()) {
	if ctx.Done() == nil {
		return func() {}
	}

	finished := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.Interrupt()
		case <-finished:
		}
	}()
	return func() { close(finished) }
}

// Rows implements driver.Rows over a stepping statement.
type Rows struct {
	stmt *sqlite.Stmt
	conn *sqlite.Conn
	ctx  context.Context
}

func (r *Rows) Columns() []string {
	cols := make([]string, r.stmt.ColumnCount())
	for i := range cols {
		name, err := r.stmt.ColumnName(i)
		if err != nil {
			return cols
		}
		cols[i] = name
	}
	return cols
}

// ColumnTypeDatabaseTypeName returns the declared column type from the
// schema, or an empty string for computed columns.
func (r *Rows) ColumnTypeDatabaseTypeName(index int) string {
	decl, err := r.stmt.DeclType(index)
	if err != nil {
		return ""
	}
	return decl
}

// Close resets the statement so database/sql can reuse it. The statement
// itself is finalized by Stmt.Close.
func (r *Rows) Close() error {
	return r.stmt.Reset()
}

func (r *Rows) Next(dest []driver.Value) error {
	if r.ctx != nil && r.ctx.Err() != nil {
		return r.ctx.Err()
	}

	done := watchContext(r.ctx, r.conn)
	hasRow, err := r.stmt.Step()
	done()
	if err != nil {
		return err
	}
	if !hasRow {
		return io.EOF
	}

	for i := range dest {
		value, err := r.stmt.Column(i)
		if err != nil {
			return err
		}
		dest[i] = value.Any()
	}
	return nil
}
