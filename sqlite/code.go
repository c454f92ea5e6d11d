package sqlite

/*
#include <sqlite3.h>
*/
import "C"

// ResultCode is the numeric result code of a SQLite C API call. It can be
// either a primary or an extended result code.
//
// https://www.sqlite.org/rescode.html
type ResultCode int32

// Primary result codes.
//
// https://www.sqlite.org/rescode.html#primary_result_code_list
const (
	ResultOK         ResultCode = C.SQLITE_OK
	ResultError      ResultCode = C.SQLITE_ERROR
	ResultInternal   ResultCode = C.SQLITE_INTERNAL
	ResultPerm       ResultCode = C.SQLITE_PERM
	ResultAbort      ResultCode = C.SQLITE_ABORT
	ResultBusy       ResultCode = C.SQLITE_BUSY
	ResultLocked     ResultCode = C.SQLITE_LOCKED
	ResultNoMem      ResultCode = C.SQLITE_NOMEM
	ResultReadOnly   ResultCode = C.SQLITE_READONLY
	ResultInterrupt  ResultCode = C.SQLITE_INTERRUPT
	ResultIOErr      ResultCode = C.SQLITE_IOERR
	ResultCorrupt    ResultCode = C.SQLITE_CORRUPT
	ResultNotFound   ResultCode = C.SQLITE_NOTFOUND
	ResultFull       ResultCode = C.SQLITE_FULL
	ResultCantOpen   ResultCode = C.SQLITE_CANTOPEN
	ResultProtocol   ResultCode = C.SQLITE_PROTOCOL
	ResultEmpty      ResultCode = C.SQLITE_EMPTY
	ResultSchema     ResultCode = C.SQLITE_SCHEMA
	ResultTooBig     ResultCode = C.SQLITE_TOOBIG
	ResultConstraint ResultCode = C.SQLITE_CONSTRAINT
	ResultMismatch   ResultCode = C.SQLITE_MISMATCH
	ResultMisuse     ResultCode = C.SQLITE_MISUSE
	ResultNoLFS      ResultCode = C.SQLITE_NOLFS
	ResultAuth       ResultCode = C.SQLITE_AUTH
	ResultFormat     ResultCode = C.SQLITE_FORMAT
	ResultRange      ResultCode = C.SQLITE_RANGE
	ResultNotADB     ResultCode = C.SQLITE_NOTADB
	ResultNotice     ResultCode = C.SQLITE_NOTICE
	ResultWarning    ResultCode = C.SQLITE_WARNING
	ResultRow        ResultCode = C.SQLITE_ROW
	ResultDone       ResultCode = C.SQLITE_DONE
)

// Commonly encountered extended result codes.
//
// https://www.sqlite.org/rescode.html#extended_result_code_list
const (
	ResultBusyRecovery          ResultCode = C.SQLITE_BUSY_RECOVERY
	ResultBusySnapshot          ResultCode = C.SQLITE_BUSY_SNAPSHOT
	ResultLockedSharedCache     ResultCode = C.SQLITE_LOCKED_SHAREDCACHE
	ResultCantOpenIsDir         ResultCode = C.SQLITE_CANTOPEN_ISDIR
	ResultCantOpenFullPath      ResultCode = C.SQLITE_CANTOPEN_FULLPATH
	ResultReadOnlyRecovery      ResultCode = C.SQLITE_READONLY_RECOVERY
	ResultReadOnlyCantLock      ResultCode = C.SQLITE_READONLY_CANTLOCK
	ResultConstraintCheck       ResultCode = C.SQLITE_CONSTRAINT_CHECK
	ResultConstraintForeignKey  ResultCode = C.SQLITE_CONSTRAINT_FOREIGNKEY
	ResultConstraintNotNull     ResultCode = C.SQLITE_CONSTRAINT_NOTNULL
	ResultConstraintPrimaryKey  ResultCode = C.SQLITE_CONSTRAINT_PRIMARYKEY
	ResultConstraintTrigger     ResultCode = C.SQLITE_CONSTRAINT_TRIGGER
	ResultConstraintUnique      ResultCode = C.SQLITE_CONSTRAINT_UNIQUE
	ResultConstraintRowID       ResultCode = C.SQLITE_CONSTRAINT_ROWID
	ResultAbortRollback         ResultCode = C.SQLITE_ABORT_ROLLBACK
	ResultIOErrRead             ResultCode = C.SQLITE_IOERR_READ
	ResultIOErrWrite            ResultCode = C.SQLITE_IOERR_WRITE
	ResultIOErrFsync            ResultCode = C.SQLITE_IOERR_FSYNC
	ResultIOErrShortRead        ResultCode = C.SQLITE_IOERR_SHORT_READ
	ResultNoticeRecoverWAL      ResultCode = C.SQLITE_NOTICE_RECOVER_WAL
	ResultNoticeRecoverRollback ResultCode = C.SQLITE_NOTICE_RECOVER_ROLLBACK
)

// Primary strips the extended information from the code, leaving only the
// primary result code category.
func (rc ResultCode) Primary() ResultCode {
	return rc & 0xff
}

// IsSuccess reports whether the primary result code is one of ResultOK,
// ResultRow, or ResultDone. Every other code is an error.
func (rc ResultCode) IsSuccess() bool {
	switch rc.Primary() {
	case ResultOK, ResultRow, ResultDone:
		return true
	default:
		return false
	}
}

// String returns the English-language text that describes the result code.
//
// https://www.sqlite.org/c3ref/errcode.html
func (rc ResultCode) String() string {
	return C.GoString(C.sqlite3_errstr(C.int(rc)))
}
