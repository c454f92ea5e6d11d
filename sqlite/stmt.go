package sqlite

/*
#include <stdlib.h>
#include <sqlite3.h>

// cgo cannot express the SQLITE_TRANSIENT pointer constant, so these
// helpers force SQLite to copy the payload before the Go memory moves.
static int bind_text_transient(sqlite3_stmt *stmt, int idx, const char *p, int n) {
	return sqlite3_bind_text(stmt, idx, p, n, SQLITE_TRANSIENT);
}
static int bind_blob_transient(sqlite3_stmt *stmt, int idx, const void *p, int n) {
	if (n == 0) {
		return sqlite3_bind_zeroblob(stmt, idx, 0);
	}
	return sqlite3_bind_blob(stmt, idx, p, n, SQLITE_TRANSIENT);
}
*/
import "C"
import (
	"unicode/utf8"
	"unsafe"

	"github.com/orsinium-labs/enum"
)

// StmtState is the execution state of a prepared statement.
type StmtState enum.Member[string]

var (
	// StateReady means the statement is compiled and ready to run from the
	// beginning. Parameters may be bound.
	StateReady = StmtState{Value: "ready"}
	// StateRow means Step produced a row whose columns can be read.
	// Parameters must not be rebound until Reset.
	StateRow = StmtState{Value: "row"}
	// StateDone means execution completed; no row is available.
	// Parameters may be rebound and the statement reset and rerun.
	StateDone = StmtState{Value: "done"}
	// StateFinalized means the native handle has been released. Every
	// further operation fails with a KindUsage error.
	StateFinalized = StmtState{Value: "finalized"}

	// StmtStates lists every statement state.
	StmtStates = enum.New(StateReady, StateRow, StateDone, StateFinalized)
)

// Stmt is a prepared statement. It exclusively owns its native handle and
// keeps a non-owning back-reference to the connection it was prepared on,
// used only for lifetime checks and error messages.
//
// https://www.sqlite.org/c3ref/stmt.html
type Stmt struct {
	// Tail is the unconsumed text that followed the first statement in the
	// SQL passed to Prepare. Empty when the text held a single statement.
	Tail string

	conn       *Conn
	cStmt      *C.sqlite3_stmt
	state      StmtState
	colCount   int
	paramCount int
}

// State returns the current execution state.
func (stmt *Stmt) State() StmtState {
	return stmt.state
}

// guard rejects operations on finalized statements and on statements whose
// connection has been closed underneath them. The latter cannot happen
// through this package's own API, Close refuses while statements live, but
// the check keeps a stray handle from reaching the native layer.
func (stmt *Stmt) guard(op string) error {
	if stmt.state == StateFinalized {
		return usageErrorf("%s on a finalized statement", op)
	}
	if stmt.conn == nil || stmt.conn.cDB == nil {
		return usageErrorf("%s on a statement whose connection is closed", op)
	}
	return nil
}

// bindGuard additionally enforces the rebinding rule: binding is allowed
// only before the first Step or after completion, never mid-row.
func (stmt *Stmt) bindGuard(index int) error {
	if err := stmt.guard("bind"); err != nil {
		return err
	}
	if stmt.state == StateRow {
		return usageErrorf("bind while a row is pending; call Reset first")
	}
	if index < 1 || index > stmt.paramCount {
		return usageErrorf("bind index %d out of range 1..%d", index, stmt.paramCount)
	}
	return nil
}

// BindParameterCount returns the number of SQL parameters in the
// statement. Indexes are 1-based, matching the native convention.
//
// https://www.sqlite.org/c3ref/bind_parameter_count.html
func (stmt *Stmt) BindParameterCount() int {
	return stmt.paramCount
}

// BindNull binds NULL at the given 1-based index.
func (stmt *Stmt) BindNull(index int) error {
	if err := stmt.bindGuard(index); err != nil {
		return err
	}
	return stmt.bindResult(C.sqlite3_bind_null(stmt.cStmt, C.int(index)))
}

// BindInt64 binds a signed 64-bit integer at the given 1-based index.
func (stmt *Stmt) BindInt64(index int, value int64) error {
	if err := stmt.bindGuard(index); err != nil {
		return err
	}
	return stmt.bindResult(C.sqlite3_bind_int64(stmt.cStmt, C.int(index), C.sqlite3_int64(value)))
}

// BindUint64 binds an unsigned 64-bit integer at the given 1-based index.
// SQLite integers are signed, so values above MaxInt64 fail with a
// KindConversion error instead of silently wrapping.
func (stmt *Stmt) BindUint64(index int, value uint64) error {
	if err := stmt.bindGuard(index); err != nil {
		return err
	}
	if value > 1<<63-1 {
		return conversionErrorf("uint64 value %d overflows the integer storage class", value)
	}
	return stmt.bindResult(C.sqlite3_bind_int64(stmt.cStmt, C.int(index), C.sqlite3_int64(value)))
}

// BindFloat64 binds a 64-bit float at the given 1-based index.
func (stmt *Stmt) BindFloat64(index int, value float64) error {
	if err := stmt.bindGuard(index); err != nil {
		return err
	}
	return stmt.bindResult(C.sqlite3_bind_double(stmt.cStmt, C.int(index), C.double(value)))
}

// BindText binds a UTF-8 string at the given 1-based index. Invalid UTF-8
// fails with a KindConversion error before any native call.
func (stmt *Stmt) BindText(index int, value string) error {
	if err := stmt.bindGuard(index); err != nil {
		return err
	}
	if !utf8.ValidString(value) {
		return conversionErrorf("text bound at index %d is not valid UTF-8", index)
	}

	cStr := C.CString(value)
	defer C.free(unsafe.Pointer(cStr))
	return stmt.bindResult(C.bind_text_transient(stmt.cStmt, C.int(index), cStr, C.int(len(value))))
}

// BindBlob binds a byte slice at the given 1-based index. A nil slice
// binds NULL; an empty non-nil slice binds a zero-length blob.
func (stmt *Stmt) BindBlob(index int, value []byte) error {
	if err := stmt.bindGuard(index); err != nil {
		return err
	}
	if value == nil {
		return stmt.bindResult(C.sqlite3_bind_null(stmt.cStmt, C.int(index)))
	}
	var p unsafe.Pointer
	if len(value) > 0 {
		p = unsafe.Pointer(&value[0])
	}
	return stmt.bindResult(C.bind_blob_transient(stmt.cStmt, C.int(index), p, C.int(len(value))))
}

// BindZeroBlob binds a zero-filled blob of n bytes at the given 1-based
// index, useful for reserving space ahead of incremental writes.
//
// https://www.sqlite.org/c3ref/bind_blob.html
func (stmt *Stmt) BindZeroBlob(index int, n int) error {
	if err := stmt.bindGuard(index); err != nil {
		return err
	}
	return stmt.bindResult(C.sqlite3_bind_zeroblob(stmt.cStmt, C.int(index), C.int(n)))
}

// BindValue binds a tagged Value at the given 1-based index.
func (stmt *Stmt) BindValue(index int, value Value) error {
	switch value.Type() {
	case TypeNull:
		return stmt.BindNull(index)
	case TypeInteger:
		return stmt.BindInt64(index, value.n)
	case TypeFloat:
		return stmt.BindFloat64(index, value.f)
	case TypeText:
		return stmt.BindText(index, value.s)
	case TypeBlob:
		return stmt.BindBlob(index, value.b)
	default:
		return conversionErrorf("cannot bind value of type %s", value.Type())
	}
}

// BindParameterIndex returns the 1-based index of a named parameter, or
// zero when the statement has no parameter with that name. The name must
// carry its prefix character, for example ":id", "@id", or "$id".
//
// https://www.sqlite.org/c3ref/bind_parameter_index.html
func (stmt *Stmt) BindParameterIndex(name string) int {
	if stmt.state == StateFinalized || stmt.cStmt == nil {
		return 0
	}
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	return int(C.sqlite3_bind_parameter_index(stmt.cStmt, cName))
}

// BindName binds a Value to a named parameter.
func (stmt *Stmt) BindName(name string, value Value) error {
	if err := stmt.guard("bind"); err != nil {
		return err
	}

	index := stmt.BindParameterIndex(name)
	if index == 0 {
		return usageErrorf("no parameter named %q", name)
	}
	return stmt.BindValue(index, value)
}

func (stmt *Stmt) bindResult(rc C.int) error {
	if ResultCode(rc) != ResultOK {
		return connError(stmt.conn.cDB, ResultCode(rc))
	}
	return nil
}

// Step executes the statement until the next row is produced or it
// completes. It returns true when a row is available for reading and false
// when execution is done. An interrupted step fails with a
// KindInterrupted error; a failed statement stays resettable.
//
// https://www.sqlite.org/c3ref/step.html
func (stmt *Stmt) Step() (bool, error) {
	if err := stmt.guard("step"); err != nil {
		return false, err
	}

	switch rc := ResultCode(C.sqlite3_step(stmt.cStmt)); rc.Primary() {
	case ResultRow:
		stmt.state = StateRow
		return true, nil
	case ResultDone:
		stmt.state = StateDone
		return false, nil
	default:
		// The native handle wants a reset before it can run again; Done
		// keeps column reads rejected while leaving Reset valid.
		stmt.state = StateDone
		return false, connError(stmt.conn.cDB, rc)
	}
}

// stepToCompletion drains the statement, discarding any produced rows.
func (stmt *Stmt) stepToCompletion() error {
	for {
		hasRow, err := stmt.Step()
		if err != nil {
			return err
		}
		if !hasRow {
			return nil
		}
	}
}

// Reset rewinds the statement to StateReady so it can be re-executed.
// Bound parameter values survive a reset; use ClearBindings to drop them.
// Any error from the preceding Step has already been reported there, so
// the native reset code is intentionally not surfaced again.
//
// https://www.sqlite.org/c3ref/reset.html
func (stmt *Stmt) Reset() error {
	if err := stmt.guard("reset"); err != nil {
		return err
	}
	C.sqlite3_reset(stmt.cStmt)
	stmt.state = StateReady
	return nil
}

// ClearBindings sets every parameter back to NULL. Reset does not do this.
//
// https://www.sqlite.org/c3ref/clear_bindings.html
func (stmt *Stmt) ClearBindings() error {
	if err := stmt.guard("clear bindings"); err != nil {
		return err
	}
	if rc := ResultCode(C.sqlite3_clear_bindings(stmt.cStmt)); rc != ResultOK {
		return connError(stmt.conn.cDB, rc)
	}
	return nil
}

// Finalize releases the compiled statement. It is idempotent; after the
// first call every other operation on the statement fails with a KindUsage
// error. The native finalize code only echoes errors Step already
// reported, so Finalize never fails on a valid handle.
//
// https://www.sqlite.org/c3ref/finalize.html
func (stmt *Stmt) Finalize() error {
	if stmt.state == StateFinalized {
		return nil
	}
	C.sqlite3_finalize(stmt.cStmt)
	stmt.cStmt = nil
	stmt.state = StateFinalized
	stmt.conn.release()
	return nil
}

// ColumnCount returns the number of columns the statement produces. Fixed
// at prepare time.
//
// https://www.sqlite.org/c3ref/column_count.html
func (stmt *Stmt) ColumnCount() int {
	return stmt.colCount
}

// ColumnName returns the name of column index (0-based). Fixed at prepare
// time.
//
// https://www.sqlite.org/c3ref/column_name.html
func (stmt *Stmt) ColumnName(index int) (string, error) {
	if err := stmt.columnMetaGuard(index); err != nil {
		return "", err
	}
	return C.GoString(C.sqlite3_column_name(stmt.cStmt, C.int(index))), nil
}

// DeclType returns the declared type of column index (0-based) from the
// table schema, or an empty string for expressions. Fixed at prepare time.
//
// https://www.sqlite.org/c3ref/column_decltype.html
func (stmt *Stmt) DeclType(index int) (string, error) {
	if err := stmt.columnMetaGuard(index); err != nil {
		return "", err
	}
	return C.GoString(C.sqlite3_column_decltype(stmt.cStmt, C.int(index))), nil
}

// ReadOnly reports whether the statement makes no direct changes to the
// database.
//
// https://www.sqlite.org/c3ref/stmt_readonly.html
func (stmt *Stmt) ReadOnly() bool {
	if stmt.cStmt == nil {
		return false
	}
	return C.sqlite3_stmt_readonly(stmt.cStmt) != 0
}

func (stmt *Stmt) columnMetaGuard(index int) error {
	if err := stmt.guard("column metadata"); err != nil {
		return err
	}
	if index < 0 || index >= stmt.colCount {
		return usageErrorf("column index %d out of range 0..%d", index, stmt.colCount-1)
	}
	return nil
}

// columnGuard enforces the Row-only rule for value reads.
func (stmt *Stmt) columnGuard(index int) error {
	if err := stmt.guard("column read"); err != nil {
		return err
	}
	if stmt.state != StateRow {
		return usageErrorf("column read outside a row; statement is %s", stmt.state.Value)
	}
	if index < 0 || index >= stmt.colCount {
		return usageErrorf("column index %d out of range 0..%d", index, stmt.colCount-1)
	}
	return nil
}

// ColumnType returns the storage class of column index in the current row.
// Valid only in StateRow.
//
// https://www.sqlite.org/c3ref/column_blob.html
func (stmt *Stmt) ColumnType(index int) (ColumnType, error) {
	if err := stmt.columnGuard(index); err != nil {
		return 0, err
	}
	return ColumnType(C.sqlite3_column_type(stmt.cStmt, C.int(index))), nil
}

// Column reads column index of the current row as a tagged Value. Text
// and blob payloads are copied out of SQLite's buffers before returning,
// so the Value stays valid across the next Step, Reset, or Finalize.
func (stmt *Stmt) Column(index int) (Value, error) {
	typ, err := stmt.ColumnType(index)
	if err != nil {
		return Value{}, err
	}

	switch typ {
	case TypeInteger:
		return Integer(int64(C.sqlite3_column_int64(stmt.cStmt, C.int(index)))), nil
	case TypeFloat:
		return Float(float64(C.sqlite3_column_double(stmt.cStmt, C.int(index)))), nil
	case TypeText:
		return Text(stmt.columnText(index)), nil
	case TypeBlob:
		return Blob(stmt.columnBlob(index)), nil
	default:
		return Null(), nil
	}
}

// ColumnInt64 reads column index of the current row, which must hold an
// INTEGER. Other storage classes, including NULL, fail with a
// KindConversion error; no implicit cast is performed.
func (stmt *Stmt) ColumnInt64(index int) (int64, error) {
	if err := stmt.requireColumnType(index, TypeInteger); err != nil {
		return 0, err
	}
	return int64(C.sqlite3_column_int64(stmt.cStmt, C.int(index))), nil
}

// ColumnFloat64 reads column index of the current row, which must hold a
// FLOAT.
func (stmt *Stmt) ColumnFloat64(index int) (float64, error) {
	if err := stmt.requireColumnType(index, TypeFloat); err != nil {
		return 0, err
	}
	return float64(C.sqlite3_column_double(stmt.cStmt, C.int(index))), nil
}

// ColumnText reads column index of the current row, which must hold TEXT.
// The returned string is a copy owned by the caller.
func (stmt *Stmt) ColumnText(index int) (string, error) {
	if err := stmt.requireColumnType(index, TypeText); err != nil {
		return "", err
	}
	return stmt.columnText(index), nil
}

// ColumnBlob reads column index of the current row, which must hold a
// BLOB. The returned slice is a copy owned by the caller.
func (stmt *Stmt) ColumnBlob(index int) ([]byte, error) {
	if err := stmt.requireColumnType(index, TypeBlob); err != nil {
		return nil, err
	}
	return stmt.columnBlob(index), nil
}

func (stmt *Stmt) requireColumnType(index int, want ColumnType) error {
	typ, err := stmt.ColumnType(index)
	if err != nil {
		return err
	}
	if typ != want {
		return conversionErrorf("column %d is %s, not %s", index, typ, want)
	}
	return nil
}

func (stmt *Stmt) columnText(index int) string {
	p := (*C.char)(unsafe.Pointer(C.sqlite3_column_text(stmt.cStmt, C.int(index))))
	if p == nil {
		return ""
	}
	n := C.sqlite3_column_bytes(stmt.cStmt, C.int(index))
	return C.GoStringN(p, n)
}

func (stmt *Stmt) columnBlob(index int) []byte {
	n := C.sqlite3_column_bytes(stmt.cStmt, C.int(index))
	if n == 0 {
		return []byte{}
	}
	p := C.sqlite3_column_blob(stmt.cStmt, C.int(index))
	if p == nil {
		return []byte{}
	}
	return C.GoBytes(p, n)
}
