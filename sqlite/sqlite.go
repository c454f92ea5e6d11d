package sqlite

/*
#cgo LDFLAGS: -lsqlite3
#include <stdlib.h>
#include <sqlite3.h>

// sqlite3_db_config is variadic, which cgo cannot call directly.
static int db_config_toggle(sqlite3 *db, int op, int val, int *out) {
	return sqlite3_db_config(db, op, val, out);
}
*/
import "C"
import (
	"strings"
	"sync"
	"time"
	"unsafe"
)

// engineState tracks process-wide library initialization. The engine is
// initialized before the first connection opens and shut down only after
// the last one closes. Both native calls are harmless when repeated, the
// counter only keeps shutdown from running under live connections.
var engineState struct {
	mu    sync.Mutex
	conns int
}

func engineAcquire() error {
	engineState.mu.Lock()
	defer engineState.mu.Unlock()

	if engineState.conns == 0 {
		if rc := ResultCode(C.sqlite3_initialize()); rc != ResultOK {
			return newError(rc)
		}
	}
	engineState.conns++
	return nil
}

func engineRelease() {
	engineState.mu.Lock()
	defer engineState.mu.Unlock()

	engineState.conns--
	if engineState.conns == 0 {
		C.sqlite3_shutdown()
	}
}

// OpenFlags control how Open creates the connection.
//
// https://www.sqlite.org/c3ref/c_open_autoproxy.html
type OpenFlags int32

const (
	// OpenReadOnly opens the database read-only. The file must exist.
	OpenReadOnly OpenFlags = C.SQLITE_OPEN_READONLY
	// OpenReadWrite opens the database for reading and writing. The file
	// must exist unless OpenCreate is also given.
	OpenReadWrite OpenFlags = C.SQLITE_OPEN_READWRITE
	// OpenCreate creates the database if it does not exist. Must be
	// combined with OpenReadWrite.
	OpenCreate OpenFlags = C.SQLITE_OPEN_CREATE
	// OpenURI allows the path to be interpreted as a URI.
	OpenURI OpenFlags = C.SQLITE_OPEN_URI
	// OpenMemory opens an in-memory database. The path is used only for
	// cache sharing.
	OpenMemory OpenFlags = C.SQLITE_OPEN_MEMORY
	// OpenNoMutex opens the connection without the native per-handle
	// mutex. The caller takes over serialization, which is the model this
	// package documents.
	OpenNoMutex OpenFlags = C.SQLITE_OPEN_NOMUTEX
	// OpenSharedCache enables shared-cache mode for the connection.
	OpenSharedCache OpenFlags = C.SQLITE_OPEN_SHAREDCACHE
	// OpenPrivateCache disables shared-cache mode for the connection.
	OpenPrivateCache OpenFlags = C.SQLITE_OPEN_PRIVATECACHE
)

// MemoryPath is the reserved path that opens a private in-memory database.
const MemoryPath = ":memory:"

// Conn is an open connection to a SQLite database. It exclusively owns its
// native handle. A Conn must be used from one goroutine at a time.
//
// https://www.sqlite.org/c3ref/sqlite3.html
type Conn struct {
	cDB *C.sqlite3

	// stmtMu guards openStmts, the number of derived statements (and
	// backups) that have not been finalized yet. Close refuses to release
	// the native handle while this is non-zero.
	stmtMu    sync.Mutex
	openStmts int
}

// Open opens or creates a SQLite database. The path can be a filesystem
// path, the reserved string ":memory:", or a file: URI when OpenURI is in
// effect. When no flags are given the defaults are
// OpenReadWrite|OpenCreate|OpenURI.
//
// https://www.sqlite.org/c3ref/open.html
func Open(path string, flags ...OpenFlags) (*Conn, error) {
	combined := OpenReadWrite | OpenCreate | OpenURI
	if len(flags) > 0 {
		combined = 0
		for _, f := range flags {
			combined |= f
		}
	}

	if combined&OpenReadOnly != 0 && combined&(OpenReadWrite|OpenCreate) != 0 {
		return nil, &Error{
			Kind:     KindOpen,
			Code:     ResultMisuse,
			Extended: ResultMisuse,
			Message:  "read-only conflicts with read-write and create flags",
			Offset:   -1,
		}
	}

	if err := engineAcquire(); err != nil {
		return nil, err
	}

	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	var cDB *C.sqlite3
	rc := ResultCode(C.sqlite3_open_v2(cPath, &cDB, C.int(combined), nil))
	if rc != ResultOK {
		// A handle is usually allocated even on failure so the message can
		// be retrieved; it must still be released.
		err := connError(cDB, rc)
		err.Kind = KindOpen
		if cDB != nil {
			C.sqlite3_close(cDB)
		}
		engineRelease()
		return nil, err
	}

	C.sqlite3_extended_result_codes(cDB, 1)
	return &Conn{cDB: cDB}, nil
}

// Close releases the native handle. It fails with a KindBusy error while
// any statement prepared from this connection has not been finalized; the
// connection stays usable in that case. Close is idempotent once it has
// succeeded.
//
// https://www.sqlite.org/c3ref/close.html
func (conn *Conn) Close() error {
	if conn.cDB == nil {
		return nil
	}

	conn.stmtMu.Lock()
	open := conn.openStmts
	conn.stmtMu.Unlock()
	if open > 0 {
		return &Error{
			Kind:     KindBusy,
			Code:     ResultBusy,
			Extended: ResultBusy,
			Message:  "connection has unfinalized statements",
			Offset:   -1,
		}
	}

	if rc := ResultCode(C.sqlite3_close(conn.cDB)); rc != ResultOK {
		return connError(conn.cDB, rc)
	}
	conn.cDB = nil
	engineRelease()
	return nil
}

// Prepare compiles the first statement in sql. Any remaining text after
// the first statement is exposed through the returned statement's Tail.
// Multiple statements are never executed from one Prepare call; callers
// loop over the tail explicitly or use ExecuteBatch. If sql holds nothing
// to compile (whitespace or comments only), Prepare returns (nil, nil).
//
// https://www.sqlite.org/c3ref/prepare.html
func (conn *Conn) Prepare(sql string) (*Stmt, error) {
	if conn.cDB == nil {
		return nil, usageErrorf("prepare on a closed connection")
	}

	cSQL := C.CString(sql)
	defer C.free(unsafe.Pointer(cSQL))

	var cStmt *C.sqlite3_stmt
	var cTail *C.char
	rc := ResultCode(C.sqlite3_prepare_v2(conn.cDB, cSQL, C.int(-1), &cStmt, &cTail))
	if rc != ResultOK {
		return nil, prepareError(conn.cDB, rc)
	}
	if cStmt == nil {
		return nil, nil
	}

	var tail string
	if cTail != nil {
		consumed := int(uintptr(unsafe.Pointer(cTail)) - uintptr(unsafe.Pointer(cSQL)))
		if consumed >= 0 && consumed < len(sql) {
			tail = sql[consumed:]
		}
	}

	conn.retain()
	return &Stmt{
		conn:       conn,
		cStmt:      cStmt,
		state:      StateReady,
		Tail:       tail,
		colCount:   int(C.sqlite3_column_count(cStmt)),
		paramCount: int(C.sqlite3_bind_parameter_count(cStmt)),
	}, nil
}

// ExecuteBatch prepares, runs to completion, and finalizes every statement
// in sql in order, stopping at the first error. No rollback is performed;
// transaction demarcation belongs to the caller via explicit BEGIN and
// COMMIT statements in the batch.
func (conn *Conn) ExecuteBatch(sql string) error {
	for {
		stmt, err := conn.Prepare(sql)
		if err != nil {
			return err
		}
		if stmt == nil {
			return nil
		}

		sql = stmt.Tail
		if err := stmt.stepToCompletion(); err != nil {
			_ = stmt.Finalize()
			return err
		}
		if err := stmt.Finalize(); err != nil {
			return err
		}
		if strings.TrimSpace(sql) == "" {
			return nil
		}
	}
}

// Pragma runs "PRAGMA name" and returns the first column of the first
// result row, or NULL when the pragma produced no rows.
//
// https://www.sqlite.org/pragma.html
func (conn *Conn) Pragma(name string) (Value, error) {
	if !validPragmaName(name) {
		return Value{}, usageErrorf("invalid pragma name %q", name)
	}

	stmt, err := conn.Prepare("PRAGMA " + name)
	if err != nil {
		return Value{}, err
	}
	if stmt == nil {
		return Null(), nil
	}
	defer func() {
		_ = stmt.Finalize()
	}()

	hasRow, err := stmt.Step()
	if err != nil {
		return Value{}, err
	}
	if !hasRow {
		return Null(), nil
	}
	return stmt.Column(0)
}

// SetPragma runs "PRAGMA name = value". The value travels as SQL text, so
// it must be a pragma keyword or number, never caller data.
func (conn *Conn) SetPragma(name string, value string) error {
	if !validPragmaName(name) {
		return usageErrorf("invalid pragma name %q", name)
	}
	return conn.ExecuteBatch("PRAGMA " + name + " = " + value)
}

// validPragmaName accepts only identifier-shaped pragma names, including
// the schema-qualified form.
func validPragmaName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}

// Interrupt causes any in-progress operation on the connection to abort at
// its earliest opportunity; the interrupted Step fails with a
// KindInterrupted error. Interrupt is safe to call from another goroutine
// as long as the connection is not closed concurrently.
//
// https://www.sqlite.org/c3ref/interrupt.html
func (conn *Conn) Interrupt() {
	if conn.cDB != nil {
		C.sqlite3_interrupt(conn.cDB)
	}
}

// BusyTimeout forwards a lock-wait timeout to the native busy handler.
// A non-positive duration disables the handler, making contention surface
// immediately as KindBusy errors. This package performs no retries of its
// own on top of it.
//
// https://www.sqlite.org/c3ref/busy_timeout.html
func (conn *Conn) BusyTimeout(d time.Duration) {
	if conn.cDB != nil {
		C.sqlite3_busy_timeout(conn.cDB, C.int(d/time.Millisecond))
	}
}

// LastInsertRowID returns the row ID of the most recent successful INSERT
// on this connection.
//
// https://www.sqlite.org/c3ref/last_insert_rowid.html
func (conn *Conn) LastInsertRowID() int64 {
	return int64(C.sqlite3_last_insert_rowid(conn.cDB))
}

// Changes returns the number of rows modified, inserted, or deleted by the
// most recent statement on this connection.
//
// https://www.sqlite.org/c3ref/changes.html
func (conn *Conn) Changes() int64 {
	return int64(C.sqlite3_changes(conn.cDB))
}

// TotalChanges returns the number of rows changed since the connection was
// opened, including changes from triggers and foreign key actions.
//
// https://www.sqlite.org/c3ref/total_changes.html
func (conn *Conn) TotalChanges() int64 {
	return int64(C.sqlite3_total_changes(conn.cDB))
}

// AutoCommit reports whether the connection is outside an explicit
// transaction. BEGIN disables autocommit; COMMIT and ROLLBACK restore it.
//
// https://www.sqlite.org/c3ref/get_autocommit.html
func (conn *Conn) AutoCommit() bool {
	return C.sqlite3_get_autocommit(conn.cDB) != 0
}

// TxnState describes the transaction state of a schema on a connection.
type TxnState int32

const (
	// TxnNone means no transaction is open, or only a deferred one that
	// has not yet taken a lock.
	TxnNone TxnState = C.SQLITE_TXN_NONE
	// TxnRead means a read transaction holds a shared lock.
	TxnRead TxnState = C.SQLITE_TXN_READ
	// TxnWrite means a write transaction holds a reserved or stronger lock.
	TxnWrite TxnState = C.SQLITE_TXN_WRITE
)

// TxnState returns the transaction state of the given schema ("main" for
// the primary database). An empty schema reports the strongest state
// across all schemas of the connection.
//
// https://www.sqlite.org/c3ref/txn_state.html
func (conn *Conn) TxnState(schema string) TxnState {
	if conn.cDB == nil {
		return TxnNone
	}
	if schema == "" {
		return TxnState(C.sqlite3_txn_state(conn.cDB, nil))
	}
	cSchema := C.CString(schema)
	defer C.free(unsafe.Pointer(cSchema))
	return TxnState(C.sqlite3_txn_state(conn.cDB, cSchema))
}

// ConfigFlag selects a per-connection boolean option for Config and
// SetConfig.
//
// https://www.sqlite.org/c3ref/c_dbconfig_defensive.html
type ConfigFlag int32

const (
	// ConfigEnableForeignKeys toggles foreign key constraint enforcement.
	ConfigEnableForeignKeys ConfigFlag = C.SQLITE_DBCONFIG_ENABLE_FKEY
	// ConfigEnableTriggers toggles trigger execution.
	ConfigEnableTriggers ConfigFlag = C.SQLITE_DBCONFIG_ENABLE_TRIGGER
	// ConfigEnableViews toggles view resolution.
	ConfigEnableViews ConfigFlag = C.SQLITE_DBCONFIG_ENABLE_VIEW
	// ConfigDefensive disables language features that can corrupt the
	// database file from SQL.
	ConfigDefensive ConfigFlag = C.SQLITE_DBCONFIG_DEFENSIVE
	// ConfigWritableSchema allows direct writes to the sqlite_schema table.
	ConfigWritableSchema ConfigFlag = C.SQLITE_DBCONFIG_WRITABLE_SCHEMA
	// ConfigDQSDML accepts double-quoted string literals in DML.
	ConfigDQSDML ConfigFlag = C.SQLITE_DBCONFIG_DQS_DML
	// ConfigDQSDDL accepts double-quoted string literals in DDL.
	ConfigDQSDDL ConfigFlag = C.SQLITE_DBCONFIG_DQS_DDL
)

// SetConfig enables or disables a per-connection option.
//
// https://www.sqlite.org/c3ref/db_config.html
func (conn *Conn) SetConfig(flag ConfigFlag, enable bool) error {
	if conn.cDB == nil {
		return usageErrorf("config on a closed connection")
	}
	value := C.int(0)
	if enable {
		value = 1
	}
	var out C.int
	if rc := ResultCode(C.db_config_toggle(conn.cDB, C.int(flag), value, &out)); rc != ResultOK {
		return connError(conn.cDB, rc)
	}
	return nil
}

// Config reports the current value of a per-connection option without
// changing it.
func (conn *Conn) Config(flag ConfigFlag) (bool, error) {
	if conn.cDB == nil {
		return false, usageErrorf("config on a closed connection")
	}
	var out C.int
	// A negative value queries without toggling.
	if rc := ResultCode(C.db_config_toggle(conn.cDB, C.int(flag), -1, &out)); rc != ResultOK {
		return false, connError(conn.cDB, rc)
	}
	return out != 0, nil
}

// ReadOnly reports whether the given schema ("main" for the primary
// database) was opened read-only. An unknown schema name fails with a
// KindUsage error.
//
// https://www.sqlite.org/c3ref/db_readonly.html
func (conn *Conn) ReadOnly(schema string) (bool, error) {
	if conn.cDB == nil {
		return false, usageErrorf("read-only check on a closed connection")
	}

	cSchema := C.CString(schema)
	defer C.free(unsafe.Pointer(cSchema))

	switch C.sqlite3_db_readonly(conn.cDB, cSchema) {
	case 1:
		return true, nil
	case 0:
		return false, nil
	default:
		return false, usageErrorf("no schema named %q", schema)
	}
}

func (conn *Conn) retain() {
	conn.stmtMu.Lock()
	conn.openStmts++
	conn.stmtMu.Unlock()
}

func (conn *Conn) release() {
	conn.stmtMu.Lock()
	conn.openStmts--
	conn.stmtMu.Unlock()
}
