package sqlite

/*
#include <sqlite3.h>
*/
import "C"
import (
	"math"
	"unicode/utf8"
)

// ColumnType is one of the five storage classes SQLite uses for values.
//
// https://www.sqlite.org/datatype3.html
type ColumnType int32

const (
	TypeInteger ColumnType = C.SQLITE_INTEGER
	TypeFloat   ColumnType = C.SQLITE_FLOAT
	TypeText    ColumnType = C.SQLITE_TEXT
	TypeBlob    ColumnType = C.SQLITE_BLOB
	TypeNull    ColumnType = C.SQLITE_NULL
)

func (t ColumnType) String() string {
	switch t {
	case TypeInteger:
		return "INTEGER"
	case TypeFloat:
		return "FLOAT"
	case TypeText:
		return "TEXT"
	case TypeBlob:
		return "BLOB"
	case TypeNull:
		return "NULL"
	default:
		return "UNKNOWN"
	}
}

// Value is a tagged union over the five SQLite storage classes. The zero
// Value is NULL. Values are immutable once constructed; the typed
// accessors fail with a KindConversion error instead of coercing between
// classes.
type Value struct {
	typ ColumnType
	n   int64
	f   float64
	s   string
	b   []byte
}

// Null returns the NULL value.
func Null() Value {
	return Value{typ: TypeNull}
}

// Integer returns an INTEGER value.
func Integer(v int64) Value {
	return Value{typ: TypeInteger, n: v}
}

// Float returns a FLOAT value.
func Float(v float64) Value {
	return Value{typ: TypeFloat, f: v}
}

// Text returns a TEXT value. The string is not validated here; binding a
// TEXT value that is not valid UTF-8 fails with a KindConversion error
// before any native call is made.
func Text(v string) Value {
	return Value{typ: TypeText, s: v}
}

// Blob returns a BLOB value. A nil slice is the NULL value.
func Blob(v []byte) Value {
	if v == nil {
		return Null()
	}
	return Value{typ: TypeBlob, b: v}
}

// FromAny converts a Go value of a supported dynamic type into a Value.
// Supported types are nil, bool, the signed and unsigned integer types,
// float32/float64, string, and []byte. Unsigned values above the signed
// 64-bit range and strings that are not valid UTF-8 fail with a
// KindConversion error rather than being passed through.
func FromAny(v any) (Value, error) {
	switch v := v.(type) {
	case nil:
		return Null(), nil
	case bool:
		if v {
			return Integer(1), nil
		}
		return Integer(0), nil
	case int:
		return Integer(int64(v)), nil
	case int8:
		return Integer(int64(v)), nil
	case int16:
		return Integer(int64(v)), nil
	case int32:
		return Integer(int64(v)), nil
	case int64:
		return Integer(v), nil
	case uint:
		return FromAny(uint64(v))
	case uint8:
		return Integer(int64(v)), nil
	case uint16:
		return Integer(int64(v)), nil
	case uint32:
		return Integer(int64(v)), nil
	case uint64:
		if v > math.MaxInt64 {
			return Value{}, conversionErrorf("unsigned value %d overflows the signed 64-bit range", v)
		}
		return Integer(int64(v)), nil
	case float32:
		return Float(float64(v)), nil
	case float64:
		return Float(v), nil
	case string:
		if !utf8.ValidString(v) {
			return Value{}, conversionErrorf("text value is not valid UTF-8")
		}
		return Text(v), nil
	case []byte:
		return Blob(v), nil
	default:
		return Value{}, conversionErrorf("unsupported value type %T", v)
	}
}

// Type returns the storage class tag of the value.
func (v Value) Type() ColumnType {
	if v.typ == 0 {
		return TypeNull
	}
	return v.typ
}

// IsNull reports whether the value is NULL.
func (v Value) IsNull() bool {
	return v.Type() == TypeNull
}

// Int64 returns the INTEGER payload.
func (v Value) Int64() (int64, error) {
	if v.Type() != TypeInteger {
		return 0, conversionErrorf("value is %s, not INTEGER", v.Type())
	}
	return v.n, nil
}

// Float64 returns the FLOAT payload.
func (v Value) Float64() (float64, error) {
	if v.Type() != TypeFloat {
		return 0, conversionErrorf("value is %s, not FLOAT", v.Type())
	}
	return v.f, nil
}

// TextValue returns the TEXT payload.
func (v Value) TextValue() (string, error) {
	if v.Type() != TypeText {
		return "", conversionErrorf("value is %s, not TEXT", v.Type())
	}
	return v.s, nil
}

// BlobValue returns the BLOB payload. The returned slice is owned by the
// caller; it never aliases SQLite memory.
func (v Value) BlobValue() ([]byte, error) {
	if v.Type() != TypeBlob {
		return nil, conversionErrorf("value is %s, not BLOB", v.Type())
	}
	return v.b, nil
}

// Any returns the payload as a Go value: nil, int64, float64, string, or
// []byte depending on the storage class.
func (v Value) Any() any {
	switch v.Type() {
	case TypeInteger:
		return v.n
	case TypeFloat:
		return v.f
	case TypeText:
		return v.s
	case TypeBlob:
		return v.b
	default:
		return nil
	}
}
