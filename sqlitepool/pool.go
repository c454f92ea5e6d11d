// Package sqlitepool provides a blocking pool of sqlite connections.
//
// A sqlite.Conn must be used from a single goroutine at a time. The pool
// enforces that discipline for shared callers: Get hands out a connection
// for exclusive use and blocks when every connection is checked out, Put
// returns it. Callers that prefer database/sql semantics should use the
// sqlitedrv driver instead.
package sqlitepool

import (
	"errors"
	"sync"
	"time"

	"github.com/cqlite/cqlite/internal/util/syncutil"
	"github.com/cqlite/cqlite/sqlite"
)

// Config configures a Pool.
type Config struct {
	// Path is the database path or URI handed to sqlite.Open.
	Path string
	// Flags are the open flags for every pooled connection. Empty means
	// the sqlite.Open defaults.
	Flags []sqlite.OpenFlags
	// MaxConns is the maximum total number of connections. Must be
	// greater than zero.
	MaxConns int
	// MaxIdle is the maximum number of connections kept open while idle.
	// Must be between zero and MaxConns.
	MaxIdle int
	// BusyTimeout, when positive, is forwarded to every new connection.
	BusyTimeout time.Duration
	// Setup, when set, runs on every new connection before first use,
	// typically for pragmas.
	Setup func(*sqlite.Conn) error
}

// Stats holds usage counters for a Pool.
type Stats struct {
	TotalGets  int64
	TotalPuts  int64
	TotalOpens int64
	// LastGet is when a connection was last handed out. Zero until the
	// first Get.
	LastGet time.Time
}

// Pool is a thread-safe pool of sqlite connections. When Put is called
// with MaxIdle idle connections already stored, the connection is closed
// rather than kept.
type Pool struct {
	config Config

	mu     sync.Mutex
	cond   *sync.Cond
	closed bool

	totalConns int
	idleConns  []*sqlite.Conn

	gets    *syncutil.Atomic[int64]
	puts    *syncutil.Atomic[int64]
	opens   *syncutil.Atomic[int64]
	lastGet *syncutil.AtomicTime
}

// NewPool creates a pool with the given limits. No connection is opened
// until the first Get.
func NewPool(config Config) (*Pool, error) {
	if config.Path == "" {
		return nil, errors.New("path must not be empty")
	}
	if config.MaxConns <= 0 {
		return nil, errors.New("maxConns must be greater than zero")
	}
	if config.MaxIdle < 0 {
		return nil, errors.New("maxIdle cannot be negative")
	}
	if config.MaxIdle > config.MaxConns {
		return nil, errors.New("maxIdle cannot exceed maxConns")
	}

	p := &Pool{
		config:    config,
		idleConns: make([]*sqlite.Conn, 0, config.MaxIdle),
		gets:      syncutil.NewAtomic(int64(0)),
		puts:      syncutil.NewAtomic(int64(0)),
		opens:     syncutil.NewAtomic(int64(0)),
		lastGet:   syncutil.NewAtomicTime(time.Time{}),
	}
	p.cond = sync.NewCond(&p.mu)
	return p, nil
}

// Get retrieves a connection for exclusive use. If no connection is idle
// and the pool is at MaxConns, Get blocks until one is Put back. The
// caller must return the connection with Put, even on error paths.
func (p *Pool) Get() (*sqlite.Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		if p.closed {
			return nil, errors.New("pool is closed")
		}

		if len(p.idleConns) > 0 {
			idx := len(p.idleConns) - 1
			conn := p.idleConns[idx]
			p.idleConns = p.idleConns[:idx]
			p.gets.Store(p.gets.Load() + 1)
			p.lastGet.Store(time.Now())
			return conn, nil
		}

		if p.totalConns < p.config.MaxConns {
			conn, err := p.openConn()
			if err != nil {
				return nil, err
			}
			p.totalConns++
			p.gets.Store(p.gets.Load() + 1)
			p.lastGet.Store(time.Now())
			return conn, nil
		}

		p.cond.Wait()
	}
}

// Put returns a connection to the pool. If the pool is closed or MaxIdle
// is reached, the connection is closed instead of stored.
func (p *Pool) Put(conn *sqlite.Conn) error {
	if conn == nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.puts.Store(p.puts.Load() + 1)

	if p.closed {
		p.totalConns--
		return conn.Close()
	}

	if len(p.idleConns) < p.config.MaxIdle {
		p.idleConns = append(p.idleConns, conn)
		p.cond.Signal()
		return nil
	}

	p.totalConns--
	p.cond.Signal()
	return conn.Close()
}

// With runs fn with a pooled connection and returns it afterwards, even
// when fn fails. A Put failure is reported only when fn itself succeeded.
func (p *Pool) With(fn func(*sqlite.Conn) error) error {
	conn, err := p.Get()
	if err != nil {
		return err
	}

	fnErr := fn(conn)
	putErr := p.Put(conn)
	if fnErr != nil {
		return fnErr
	}
	return putErr
}

// Close closes the pool and every idle connection. Subsequent Get calls
// fail. Checked-out connections must still be returned with Put, which
// will close them.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var err error
	for _, conn := range p.idleConns {
		p.totalConns--
		if e := conn.Close(); e != nil && err == nil {
			err = e
		}
	}
	p.idleConns = nil
	p.cond.Broadcast()
	return err
}

// Stats returns a snapshot of the pool's usage counters.
func (p *Pool) Stats() Stats {
	return Stats{
		TotalGets:  p.gets.Load(),
		TotalPuts:  p.puts.Load(),
		TotalOpens: p.opens.Load(),
		LastGet:    p.lastGet.Load(),
	}
}

func (p *Pool) openConn() (*sqlite.Conn, error) {
	conn, err := sqlite.Open(p.config.Path, p.config.Flags...)
	if err != nil {
		return nil, err
	}
	if p.config.BusyTimeout > 0 {
		conn.BusyTimeout(p.config.BusyTimeout)
	}
	if p.config.Setup != nil {
		if err := p.config.Setup(conn); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}
	p.opens.Store(p.opens.Load() + 1)
	return conn, nil
}
