package sqlite

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue(t *testing.T) {
	t.Run("ZeroValueIsNull", func(t *testing.T) {
		var v Value
		assert.Equal(t, TypeNull, v.Type())
		assert.True(t, v.IsNull())
		assert.Nil(t, v.Any())
	})

	t.Run("TaggedAccessors", func(t *testing.T) {
		n, err := Integer(42).Int64()
		assert.NoError(t, err)
		assert.Equal(t, int64(42), n)

		f, err := Float(3.14).Float64()
		assert.NoError(t, err)
		assert.Equal(t, 3.14, f)

		s, err := Text("hola").TextValue()
		assert.NoError(t, err)
		assert.Equal(t, "hola", s)

		b, err := Blob([]byte{1, 2, 3}).BlobValue()
		assert.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 3}, b)
	})

	t.Run("CrossClassAccessFails", func(t *testing.T) {
		_, err := Integer(1).Float64()
		kind, ok := KindOf(err)
		assert.True(t, ok)
		assert.Equal(t, KindConversion, kind)

		_, err = Text("1").Int64()
		kind, ok = KindOf(err)
		assert.True(t, ok)
		assert.Equal(t, KindConversion, kind)

		_, err = Null().BlobValue()
		kind, ok = KindOf(err)
		assert.True(t, ok)
		assert.Equal(t, KindConversion, kind)
	})

	t.Run("NilBlobIsNull", func(t *testing.T) {
		assert.True(t, Blob(nil).IsNull())
		assert.False(t, Blob([]byte{}).IsNull())
	})
}

func TestFromAny(t *testing.T) {
	t.Run("SupportedTypes", func(t *testing.T) {
		cases := []struct {
			in   any
			want Value
		}{
			{nil, Null()},
			{true, Integer(1)},
			{false, Integer(0)},
			{int(7), Integer(7)},
			{int8(-8), Integer(-8)},
			{int64(math.MinInt64), Integer(math.MinInt64)},
			{uint32(9), Integer(9)},
			{uint64(math.MaxInt64), Integer(math.MaxInt64)},
			{float32(0.5), Float(0.5)},
			{2.5, Float(2.5)},
			{"text", Text("text")},
			{[]byte{0xca, 0xfe}, Blob([]byte{0xca, 0xfe})},
		}
		for _, c := range cases {
			got, err := FromAny(c.in)
			assert.NoError(t, err)
			assert.Equal(t, c.want, got)
		}
	})

	t.Run("Uint64Overflow", func(t *testing.T) {
		_, err := FromAny(uint64(math.MaxInt64) + 1)
		kind, ok := KindOf(err)
		assert.True(t, ok)
		assert.Equal(t, KindConversion, kind)
	})

	t.Run("InvalidUTF8", func(t *testing.T) {
		_, err := FromAny(string([]byte{0x80, 0x81}))
		kind, ok := KindOf(err)
		assert.True(t, ok)
		assert.Equal(t, KindConversion, kind)
	})

	t.Run("UnsupportedType", func(t *testing.T) {
		_, err := FromAny(struct{}{})
		kind, ok := KindOf(err)
		assert.True(t, ok)
		assert.Equal(t, KindConversion, kind)
	})
}

func TestColumnTypeString(t *testing.T) {
	assert.Equal(t, "INTEGER", TypeInteger.String())
	assert.Equal(t, "FLOAT", TypeFloat.String())
	assert.Equal(t, "TEXT", TypeText.String())
	assert.Equal(t, "BLOB", TypeBlob.String())
	assert.Equal(t, "NULL", TypeNull.String())
}
