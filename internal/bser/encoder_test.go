package bser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeCanonicalOne(t *testing.T) {
	b, err := Encode(Number(1))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x01, 0x05, 0x02, 0x00, 0x00, 0x00, 0x03, 0x01}, b)
}

func TestEncodeOneAndOnePointZeroMatch(t *testing.T) {
	b1, err := Encode(Number(1))
	require.NoError(t, err)
	b2, err := Encode(Number(1.0))
	require.NoError(t, err)
	assert.Equal(t, b1, b2)
}

func TestEncodeNonIntegralUsesReal(t *testing.T) {
	b, err := Encode(Number(1.1))
	require.NoError(t, err)
	// Header + INT32 length + REAL tag + 8 byte double, in host endianness.
	assert.Equal(t, byte(0x00), b[0])
	assert.Equal(t, byte(0x01), b[1])
	assert.Equal(t, byte(TagReal), b[7])
	assert.Len(t, b, 16)
}

func TestEncodeIntegerWidthSelection(t *testing.T) {
	cases := []struct {
		v   int64
		tag Tag
	}{
		{127, TagInt8},
		{128, TagInt16},
		{32767, TagInt16},
		{32768, TagInt32},
		{2147483647, TagInt32},
		{2147483648, TagInt64},
	}
	for _, c := range cases {
		b, err := Encode(Number(c.v))
		require.NoError(t, err)
		assert.Equal(t, byte(c.tag), b[7], "value %d", c.v)
	}
}

func TestEncodeNegativeUsesAbsoluteValueForWidth(t *testing.T) {
	// -128's absolute value (128) exceeds INT8's range, so it is encoded
	// as INT16, not the tighter INT8. This is intentional (see spec
	// Open Question) and must not be "fixed".
	b, err := Encode(Number(-128))
	require.NoError(t, err)
	assert.Equal(t, byte(TagInt16), b[7])
}

func TestEncodePDUEnvelope(t *testing.T) {
	arr := Array{Number(1), Number(2), Number(3)}
	b, err := Encode(arr)
	require.NoError(t, err)

	assert.Equal(t, byte(0x00), b[0])
	assert.Equal(t, byte(0x01), b[1])
	assert.Equal(t, byte(TagInt32), b[2])

	payloadLen, err := decodeInt(NewAccumulatorFromBytes(b[2:7]))
	require.NoError(t, err)
	assert.EqualValues(t, len(b)-7, payloadLen)
}

func TestEncodeInt64CarrierAlwaysUsesInt64Tag(t *testing.T) {
	b, err := Encode(Int64(5))
	require.NoError(t, err)
	assert.Equal(t, byte(TagInt64), b[7])
	assert.Len(t, b, 7+1+8)
}

func TestEncodeObjectOmitsUndefined(t *testing.T) {
	obj := NewObject()
	obj.Set("x", Undefined)
	v, err := Decode(mustEncode(t, obj))
	require.NoError(t, err)
	decoded, ok := v.(*Object)
	require.True(t, ok)
	assert.Equal(t, 0, decoded.Len())
}

func TestEncodeObjectErrorIncludesPropertyName(t *testing.T) {
	obj := NewObject()
	obj.Set("bad", unsupportedValue{})
	_, err := Encode(obj)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'bad'")
}

func TestEncodeUnsupportedType(t *testing.T) {
	_, err := Encode(unsupportedValue{})
	require.Error(t, err)
}

type unsupportedValue struct{}

func (unsupportedValue) isValue() {}

func mustEncode(t *testing.T, v Value) []byte {
	t.Helper()
	b, err := Encode(v)
	require.NoError(t, err)
	return b
}
