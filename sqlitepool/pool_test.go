package sqlitepool

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cqlite/cqlite/sqlite"
)

func newTestPool(t *testing.T, maxConns, maxIdle int) *Pool {
	t.Helper()

	// Every pooled connection must see the same database, so a shared
	// file is used rather than per-connection private memory.
	path := filepath.Join(t.TempDir(), "pool.db")
	p, err := NewPool(Config{
		Path:        path,
		MaxConns:    maxConns,
		MaxIdle:     maxIdle,
		BusyTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = p.Close()
	})
	return p
}

func TestPool(t *testing.T) {
	t.Run("ConfigValidation", func(t *testing.T) {
		_, err := NewPool(Config{Path: "", MaxConns: 1})
		assert.Error(t, err)
		_, err = NewPool(Config{Path: ":memory:", MaxConns: 0})
		assert.Error(t, err)
		_, err = NewPool(Config{Path: ":memory:", MaxConns: 1, MaxIdle: -1})
		assert.Error(t, err)
		_, err = NewPool(Config{Path: ":memory:", MaxConns: 1, MaxIdle: 2})
		assert.Error(t, err)
	})

	t.Run("GetPutReuse", func(t *testing.T) {
		p := newTestPool(t, 2, 2)

		conn, err := p.Get()
		require.NoError(t, err)
		require.NoError(t, conn.ExecuteBatch("CREATE TABLE t(a INTEGER)"))
		require.NoError(t, p.Put(conn))

		// The idle connection is handed back out.
		again, err := p.Get()
		require.NoError(t, err)
		assert.Same(t, conn, again)
		require.NoError(t, p.Put(again))

		stats := p.Stats()
		assert.Equal(t, int64(2), stats.TotalGets)
		assert.Equal(t, int64(2), stats.TotalPuts)
		assert.Equal(t, int64(1), stats.TotalOpens)
		assert.False(t, stats.LastGet.IsZero())
	})

	t.Run("GetBlocksAtCapacity", func(t *testing.T) {
		p := newTestPool(t, 1, 1)

		conn, err := p.Get()
		require.NoError(t, err)

		acquired := make(chan *sqlite.Conn)
		go func() {
			second, err := p.Get()
			assert.NoError(t, err)
			acquired <- second
		}()

		select {
		case <-acquired:
			t.Fatal("Get should block while the pool is at capacity")
		case <-time.After(100 * time.Millisecond):
		}

		require.NoError(t, p.Put(conn))
		select {
		case second := <-acquired:
			require.NoError(t, p.Put(second))
		case <-time.After(time.Second):
			t.Fatal("Get should wake up after Put")
		}
	})

	t.Run("PutBeyondMaxIdleCloses", func(t *testing.T) {
		p := newTestPool(t, 2, 1)

		first, err := p.Get()
		require.NoError(t, err)
		second, err := p.Get()
		require.NoError(t, err)

		require.NoError(t, p.Put(first))
		require.NoError(t, p.Put(second))

		// Only one connection stayed idle; the next two Gets reuse it and
		// open one more.
		a, err := p.Get()
		require.NoError(t, err)
		b, err := p.Get()
		require.NoError(t, err)
		require.NoError(t, p.Put(a))
		require.NoError(t, p.Put(b))

		assert.Equal(t, int64(3), p.Stats().TotalOpens)
	})

	t.Run("With", func(t *testing.T) {
		p := newTestPool(t, 1, 1)

		err := p.With(func(conn *sqlite.Conn) error {
			return conn.ExecuteBatch("CREATE TABLE t(a INTEGER); INSERT INTO t VALUES (1)")
		})
		require.NoError(t, err)

		err = p.With(func(conn *sqlite.Conn) error {
			stmt, err := conn.Prepare("SELECT COUNT(*) FROM t")
			if err != nil {
				return err
			}
			defer stmt.Finalize()

			hasRow, err := stmt.Step()
			require.NoError(t, err)
			require.True(t, hasRow)
			n, err := stmt.ColumnInt64(0)
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("CloseDrainsIdle", func(t *testing.T) {
		p := newTestPool(t, 2, 2)

		conn, err := p.Get()
		require.NoError(t, err)
		require.NoError(t, p.Put(conn))

		require.NoError(t, p.Close())
		assert.NoError(t, p.Close(), "close should be idempotent")

		_, err = p.Get()
		assert.Error(t, err)
	})

	t.Run("PutAfterCloseClosesConn", func(t *testing.T) {
		p := newTestPool(t, 1, 1)

		conn, err := p.Get()
		require.NoError(t, err)
		require.NoError(t, p.Close())

		require.NoError(t, p.Put(conn))
		// The connection was closed by Put; further use is rejected.
		_, err = conn.Prepare("SELECT 1")
		kind, ok := sqlite.KindOf(err)
		assert.True(t, ok)
		assert.Equal(t, sqlite.KindUsage, kind)
	})

	t.Run("ConcurrentWith", func(t *testing.T) {
		p := newTestPool(t, 4, 4)

		require.NoError(t, p.With(func(conn *sqlite.Conn) error {
			return conn.ExecuteBatch("CREATE TABLE t(a INTEGER)")
		}))

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				err := p.With(func(conn *sqlite.Conn) error {
					stmt, err := conn.Prepare("INSERT INTO t VALUES (?)")
					if err != nil {
						return err
					}
					defer stmt.Finalize()
					if err := stmt.BindInt64(1, int64(i)); err != nil {
						return err
					}
					_, err = stmt.Step()
					return err
				})
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		err := p.With(func(conn *sqlite.Conn) error {
			stmt, err := conn.Prepare("SELECT COUNT(*) FROM t")
			if err != nil {
				return err
			}
			defer stmt.Finalize()
			hasRow, err := stmt.Step()
			require.NoError(t, err)
			require.True(t, hasRow)
			n, err := stmt.ColumnInt64(0)
			require.NoError(t, err)
			assert.Equal(t, int64(16), n)
			return nil
		})
		assert.NoError(t, err)
	})
}
