package sqlite

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConn(t *testing.T) {
	t.Run("OpenClose", func(t *testing.T) {
		conn, err := Open(MemoryPath)
		assert.NoError(t, err)
		assert.NotNil(t, conn)
		assert.NoError(t, conn.Close())
		assert.NoError(t, conn.Close(), "close should be idempotent")
	})

	t.Run("OpenMissingReadOnly", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.db")
		conn, err := Open(path, OpenReadOnly)
		assert.Nil(t, conn)
		kind, ok := KindOf(err)
		assert.True(t, ok)
		assert.Equal(t, KindOpen, kind)
	})

	t.Run("OpenConflictingFlags", func(t *testing.T) {
		conn, err := Open(MemoryPath, OpenReadOnly|OpenCreate)
		assert.Nil(t, conn)
		kind, ok := KindOf(err)
		assert.True(t, ok)
		assert.Equal(t, KindOpen, kind)
	})

	t.Run("CloseWithLiveStatement", func(t *testing.T) {
		conn, err := Open(MemoryPath)
		require.NoError(t, err)

		stmt, err := conn.Prepare("SELECT 1")
		require.NoError(t, err)

		err = conn.Close()
		kind, ok := KindOf(err)
		assert.True(t, ok)
		assert.Equal(t, KindBusy, kind)

		assert.NoError(t, stmt.Finalize())
		assert.NoError(t, conn.Close())
	})

	t.Run("PrepareTail", func(t *testing.T) {
		conn, err := Open(MemoryPath)
		require.NoError(t, err)
		defer conn.Close()

		stmt, err := conn.Prepare("SELECT 1; SELECT 2")
		require.NoError(t, err)
		defer stmt.Finalize()

		assert.Equal(t, " SELECT 2", stmt.Tail)
	})

	t.Run("PrepareEmpty", func(t *testing.T) {
		conn, err := Open(MemoryPath)
		require.NoError(t, err)
		defer conn.Close()

		stmt, err := conn.Prepare("  -- just a comment\n")
		assert.NoError(t, err)
		assert.Nil(t, stmt)
	})

	t.Run("PrepareSyntaxError", func(t *testing.T) {
		conn, err := Open(MemoryPath)
		require.NoError(t, err)
		defer conn.Close()

		stmt, err := conn.Prepare("SELEKT 1")
		assert.Nil(t, stmt)
		kind, ok := KindOf(err)
		assert.True(t, ok)
		assert.Equal(t, KindSyntax, kind)

		var sqliteErr *Error
		require.ErrorAs(t, err, &sqliteErr)
		assert.NotEmpty(t, sqliteErr.Message)
		assert.GreaterOrEqual(t, sqliteErr.Offset, 0,
			"compile errors should point at the offending token")
	})

	t.Run("PrepareSchemaError", func(t *testing.T) {
		conn, err := Open(MemoryPath)
		require.NoError(t, err)
		defer conn.Close()

		_, err = conn.Prepare("SELECT * FROM does_not_exist")
		kind, ok := KindOf(err)
		assert.True(t, ok)
		assert.Equal(t, KindSchema, kind)
	})

	t.Run("ExecuteBatch", func(t *testing.T) {
		conn, err := Open(MemoryPath)
		require.NoError(t, err)
		defer conn.Close()

		err = conn.ExecuteBatch(`
			CREATE TABLE t(a INTEGER, b TEXT);
			INSERT INTO t VALUES (1,'x'),(2,'y');
		`)
		require.NoError(t, err)

		stmt, err := conn.Prepare("SELECT a, b FROM t ORDER BY a")
		require.NoError(t, err)
		defer stmt.Finalize()

		hasRow, err := stmt.Step()
		require.NoError(t, err)
		require.True(t, hasRow)
		a, err := stmt.ColumnInt64(0)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), a)
		b, err := stmt.ColumnText(1)
		assert.NoError(t, err)
		assert.Equal(t, "x", b)

		hasRow, err = stmt.Step()
		require.NoError(t, err)
		require.True(t, hasRow)
		a, err = stmt.ColumnInt64(0)
		assert.NoError(t, err)
		assert.Equal(t, int64(2), a)
		b, err = stmt.ColumnText(1)
		assert.NoError(t, err)
		assert.Equal(t, "y", b)

		hasRow, err = stmt.Step()
		require.NoError(t, err)
		assert.False(t, hasRow)
	})

	t.Run("ExecuteBatchStopsAtFirstError", func(t *testing.T) {
		conn, err := Open(MemoryPath)
		require.NoError(t, err)
		defer conn.Close()

		err = conn.ExecuteBatch(`
			CREATE TABLE t(a INTEGER);
			INSERT INTO nope VALUES (1);
			INSERT INTO t VALUES (2);
		`)
		kind, ok := KindOf(err)
		assert.True(t, ok)
		assert.Equal(t, KindSchema, kind)

		// The first statement ran, the third never did.
		count := queryInt64(t, conn, "SELECT COUNT(*) FROM t")
		assert.Equal(t, int64(0), count)
	})

	t.Run("LastInsertRowIDAndChanges", func(t *testing.T) {
		conn, err := Open(MemoryPath)
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, conn.ExecuteBatch("CREATE TABLE t(a INTEGER PRIMARY KEY)"))
		require.NoError(t, conn.ExecuteBatch("INSERT INTO t VALUES (41), (42)"))

		assert.Equal(t, int64(42), conn.LastInsertRowID())
		assert.Equal(t, int64(2), conn.Changes())
		assert.GreaterOrEqual(t, conn.TotalChanges(), int64(2))
	})

	t.Run("AutoCommit", func(t *testing.T) {
		conn, err := Open(MemoryPath)
		require.NoError(t, err)
		defer conn.Close()

		assert.True(t, conn.AutoCommit())
		require.NoError(t, conn.ExecuteBatch("BEGIN"))
		assert.False(t, conn.AutoCommit())
		require.NoError(t, conn.ExecuteBatch("COMMIT"))
		assert.True(t, conn.AutoCommit())
	})

	t.Run("Pragma", func(t *testing.T) {
		conn, err := Open(MemoryPath)
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, conn.SetPragma("user_version", "7"))
		val, err := conn.Pragma("user_version")
		require.NoError(t, err)
		n, err := val.Int64()
		assert.NoError(t, err)
		assert.Equal(t, int64(7), n)
	})

	t.Run("PragmaRejectsNonIdentifier", func(t *testing.T) {
		conn, err := Open(MemoryPath)
		require.NoError(t, err)
		defer conn.Close()

		_, err = conn.Pragma("user_version; DROP TABLE t")
		kind, ok := KindOf(err)
		assert.True(t, ok)
		assert.Equal(t, KindUsage, kind)
	})

	t.Run("TxnState", func(t *testing.T) {
		conn, err := Open(MemoryPath)
		require.NoError(t, err)
		defer conn.Close()

		assert.Equal(t, TxnNone, conn.TxnState(""))

		require.NoError(t, conn.ExecuteBatch("BEGIN IMMEDIATE"))
		assert.Equal(t, TxnWrite, conn.TxnState(""))
		assert.Equal(t, TxnWrite, conn.TxnState("main"))

		require.NoError(t, conn.ExecuteBatch("COMMIT"))
		assert.Equal(t, TxnNone, conn.TxnState(""))

		require.NoError(t, conn.ExecuteBatch("CREATE TABLE t(a INTEGER)"))
		require.NoError(t, conn.ExecuteBatch("BEGIN"))
		count := queryInt64(t, conn, "SELECT COUNT(*) FROM t")
		assert.Equal(t, int64(0), count)
		assert.Equal(t, TxnRead, conn.TxnState(""))
		require.NoError(t, conn.ExecuteBatch("COMMIT"))
	})

	t.Run("Config", func(t *testing.T) {
		conn, err := Open(MemoryPath)
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, conn.SetConfig(ConfigEnableForeignKeys, true))
		enabled, err := conn.Config(ConfigEnableForeignKeys)
		require.NoError(t, err)
		assert.True(t, enabled)

		// The toggle is visible through the pragma too.
		val, err := conn.Pragma("foreign_keys")
		require.NoError(t, err)
		n, err := val.Int64()
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		require.NoError(t, conn.SetConfig(ConfigEnableForeignKeys, false))
		enabled, err = conn.Config(ConfigEnableForeignKeys)
		require.NoError(t, err)
		assert.False(t, enabled)
	})

	t.Run("ReadOnly", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ro.db")
		conn, err := Open(path)
		require.NoError(t, err)
		require.NoError(t, conn.ExecuteBatch("CREATE TABLE t(a INTEGER)"))

		ro, err := conn.ReadOnly("main")
		require.NoError(t, err)
		assert.False(t, ro)

		_, err = conn.ReadOnly("no_such_schema")
		kind, ok := KindOf(err)
		assert.True(t, ok)
		assert.Equal(t, KindUsage, kind)

		require.NoError(t, conn.Close())

		conn, err = Open(path, OpenReadOnly)
		require.NoError(t, err)
		defer conn.Close()

		ro, err = conn.ReadOnly("main")
		require.NoError(t, err)
		assert.True(t, ro)
	})
}

func TestBackup(t *testing.T) {
	t.Run("MemoryToFile", func(t *testing.T) {
		src, err := Open(MemoryPath)
		require.NoError(t, err)
		defer src.Close()

		require.NoError(t, src.ExecuteBatch(`
			CREATE TABLE t(a INTEGER);
			INSERT INTO t VALUES (1),(2),(3);
		`))

		path := filepath.Join(t.TempDir(), "backup.db")
		dst, err := Open(path)
		require.NoError(t, err)
		defer dst.Close()

		require.NoError(t, src.BackupTo(dst))

		count := queryInt64(t, dst, "SELECT COUNT(*) FROM t")
		assert.Equal(t, int64(3), count)
	})

	t.Run("BlocksCloseUntilFinished", func(t *testing.T) {
		src, err := Open(MemoryPath)
		require.NoError(t, err)
		defer src.Close()
		dst, err := Open(MemoryPath)
		require.NoError(t, err)
		defer dst.Close()

		b, err := src.Backup("main", dst, "main")
		require.NoError(t, err)

		err = src.Close()
		kind, ok := KindOf(err)
		assert.True(t, ok)
		assert.Equal(t, KindBusy, kind)

		assert.NoError(t, b.Close())
		assert.NoError(t, b.Close(), "backup close should be idempotent")
	})

	t.Run("SameConnectionRejected", func(t *testing.T) {
		conn, err := Open(MemoryPath)
		require.NoError(t, err)
		defer conn.Close()

		_, err = conn.Backup("main", conn, "main")
		kind, ok := KindOf(err)
		assert.True(t, ok)
		assert.Equal(t, KindUsage, kind)
	})
}

func TestIntegerRoundTripBounds(t *testing.T) {
	conn, err := Open(MemoryPath)
	require.NoError(t, err)
	defer conn.Close()

	stmt, err := conn.Prepare("SELECT ?")
	require.NoError(t, err)
	defer stmt.Finalize()

	for _, want := range []int64{math.MinInt64, -1, 0, 1, math.MaxInt64} {
		require.NoError(t, stmt.BindInt64(1, want))
		hasRow, err := stmt.Step()
		require.NoError(t, err)
		require.True(t, hasRow)

		got, err := stmt.ColumnInt64(0)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		require.NoError(t, stmt.Reset())
	}
}

// queryInt64 runs a single-row single-column query and returns the value.
func queryInt64(t *testing.T, conn *Conn, sql string) int64 {
	t.Helper()

	stmt, err := conn.Prepare(sql)
	require.NoError(t, err)
	defer stmt.Finalize()

	hasRow, err := stmt.Step()
	require.NoError(t, err)
	require.True(t, hasRow)

	val, err := stmt.ColumnInt64(0)
	require.NoError(t, err)
	return val
}
