package sqlite

/*
#include <sqlite3.h>
*/
import "C"
import (
	"errors"
	"fmt"
	"strings"

	"github.com/orsinium-labs/enum"
)

// ErrorKind classifies an Error into one of the categories callers are
// expected to branch on. It is a closed enumeration.
type ErrorKind enum.Member[string]

var (
	// KindOpen means the database file could not be opened or created.
	KindOpen = ErrorKind{Value: "open"}
	// KindSyntax means the SQL text failed to compile.
	KindSyntax = ErrorKind{Value: "syntax"}
	// KindSchema means a referenced database object is absent or changed.
	KindSchema = ErrorKind{Value: "schema"}
	// KindConstraint means a uniqueness, foreign key, not-null, or check
	// constraint was violated by a write.
	KindConstraint = ErrorKind{Value: "constraint"}
	// KindBusy means another connection holds a conflicting file lock.
	KindBusy = ErrorKind{Value: "busy"}
	// KindLocked means a conflicting lock within the same process, usually
	// a shared-cache conflict.
	KindLocked = ErrorKind{Value: "locked"}
	// KindConversion means a value does not fit the target type or is not
	// valid UTF-8.
	KindConversion = ErrorKind{Value: "conversion"}
	// KindUsage means the caller violated a state-machine or lifetime
	// precondition. It indicates a programming defect, not a runtime
	// condition worth retrying.
	KindUsage = ErrorKind{Value: "usage"}
	// KindInterrupted means the operation was cancelled via Conn.Interrupt.
	KindInterrupted = ErrorKind{Value: "interrupted"}
	// KindEngine is the catch-all for engine errors that do not fall into
	// a more specific category. The raw result code is preserved.
	KindEngine = ErrorKind{Value: "engine"}

	// ErrorKinds lists every error kind.
	ErrorKinds = enum.New(
		KindOpen, KindSyntax, KindSchema, KindConstraint, KindBusy,
		KindLocked, KindConversion, KindUsage, KindInterrupted, KindEngine,
	)
)

// Kind sentinels for errors.Is. Each one matches any *Error of the same
// kind, regardless of code and message.
var (
	ErrOpen        = &Error{Kind: KindOpen, Offset: -1}
	ErrSyntax      = &Error{Kind: KindSyntax, Offset: -1}
	ErrSchema      = &Error{Kind: KindSchema, Offset: -1}
	ErrConstraint  = &Error{Kind: KindConstraint, Offset: -1}
	ErrBusy        = &Error{Kind: KindBusy, Offset: -1}
	ErrLocked      = &Error{Kind: KindLocked, Offset: -1}
	ErrConversion  = &Error{Kind: KindConversion, Offset: -1}
	ErrUsage       = &Error{Kind: KindUsage, Offset: -1}
	ErrInterrupted = &Error{Kind: KindInterrupted, Offset: -1}
	ErrEngine      = &Error{Kind: KindEngine, Offset: -1}
)

// Error is a structured SQLite error. It carries the primary result code,
// the extended result code when one was available, and a message copied
// out of the C API before the producing handle could be invalidated.
type Error struct {
	// Kind is the error category, derived from the result code.
	Kind ErrorKind
	// Code is the primary result code that produced this error.
	Code ResultCode
	// Extended is the extended result code, or the primary code again when
	// no extended information was available.
	Extended ResultCode
	// Message is the human-readable message. Never empty; falls back to
	// the result code's English text.
	Message string
	// Offset is the byte offset into the SQL text of the token the error
	// refers to, or -1 when the engine reported none.
	Offset int
}

func (e *Error) Error() string {
	return fmt.Sprintf("sqlite: %s: %s", e.Kind.Value, e.Message)
}

// Is reports whether target is an *Error of the same kind, so that
// errors.Is can match against kind-only template errors.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf extracts the ErrorKind from err. The second return value is false
// when err has no *Error in its chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return ErrorKind{}, false
}

// kindForCode translates a result code into an error kind. Success codes
// never reach this function; Step surfaces ResultRow and ResultDone as its
// non-error variants.
func kindForCode(rc ResultCode) ErrorKind {
	switch rc.Primary() {
	case ResultCantOpen, ResultPerm, ResultNotADB, ResultFormat:
		return KindOpen
	case ResultSchema:
		return KindSchema
	case ResultConstraint:
		return KindConstraint
	case ResultBusy:
		return KindBusy
	case ResultLocked:
		return KindLocked
	case ResultInterrupt:
		return KindInterrupted
	case ResultMisuse, ResultRange:
		return KindUsage
	case ResultMismatch, ResultTooBig:
		return KindConversion
	default:
		return KindEngine
	}
}

// newError builds an Error from a bare result code, without consulting a
// database handle.
func newError(rc ResultCode) *Error {
	return &Error{
		Kind:     kindForCode(rc),
		Code:     rc.Primary(),
		Extended: rc,
		Message:  rc.String(),
		Offset:   -1,
	}
}

// connError builds an Error from the given result code, copying the
// extended code and message from the connection. The message pointer
// returned by sqlite3_errmsg is only valid until the next API call on the
// connection, so it is copied immediately.
func connError(cDB *C.sqlite3, rc ResultCode) *Error {
	if cDB == nil {
		return newError(rc)
	}
	extended := ResultCode(C.sqlite3_extended_errcode(cDB))
	if extended.Primary() != rc.Primary() {
		extended = rc
	}
	msg := C.GoString(C.sqlite3_errmsg(cDB))
	if msg == "" {
		msg = rc.String()
	}
	return &Error{
		Kind:     kindForCode(extended),
		Code:     rc.Primary(),
		Extended: extended,
		Message:  msg,
		Offset:   int(C.sqlite3_error_offset(cDB)),
	}
}

// prepareError refines a compile failure into syntax versus schema. SQLite
// reports both through the generic SQLITE_ERROR code, so the distinction
// comes from the message the parser produced.
func prepareError(cDB *C.sqlite3, rc ResultCode) *Error {
	err := connError(cDB, rc)
	if err.Code != ResultError {
		return err
	}
	lower := strings.ToLower(err.Message)
	if strings.HasPrefix(lower, "no such ") || strings.Contains(lower, "has no column") {
		err.Kind = KindSchema
	} else {
		err.Kind = KindSyntax
	}
	return err
}

// usageErrorf builds a KindUsage error without touching the native layer.
func usageErrorf(format string, args ...any) *Error {
	return &Error{
		Kind:     KindUsage,
		Code:     ResultMisuse,
		Extended: ResultMisuse,
		Message:  fmt.Sprintf(format, args...),
		Offset:   -1,
	}
}

// conversionErrorf builds a KindConversion error without touching the
// native layer.
func conversionErrorf(format string, args ...any) *Error {
	return &Error{
		Kind:     KindConversion,
		Code:     ResultMismatch,
		Extended: ResultMismatch,
		Message:  fmt.Sprintf(format, args...),
		Offset:   -1,
	}
}
