package bser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRoundTripValues() []Value {
	nested := NewObject()
	nested.Set("struct", String("hello"))
	nested.Set("list", Array{Bool(true), Bool(false), Number(1), String("string")})

	fooObj := NewObject()
	fooObj.Set("foo", String("bar"))

	nestedWrap := NewObject()
	nestedWrap.Set("nested", nested)

	values := []Value{
		Number(1),
		String("hello"),
		Number(1.5),
		Bool(false),
		Bool(true),
		Int64(0x0123456789abcdef),
		Number(127), Number(128), Number(129),
		Number(32767), Number(32768), Number(32769),
		Number(65534), Number(65536), Number(65537),
		Number(2147483647), Number(2147483648), Number(2147483649),
		NullValue,
		Array{Number(1), Number(2), Number(3)},
		fooObj,
		nestedWrap,
	}
	return values
}

func TestRoundTripSeedValues(t *testing.T) {
	values := seedRoundTripValues()
	for _, v := range values {
		b, err := Encode(v)
		require.NoError(t, err)
		decoded, err := Decode(b)
		require.NoError(t, err)
		assert.True(t, Equal(v, decoded), "round trip mismatch for %#v -> %#v", v, decoded)
	}

	whole := Array(values)
	b, err := Encode(whole)
	require.NoError(t, err)
	decoded, err := Decode(b)
	require.NoError(t, err)
	assert.True(t, Equal(whole, decoded))
}

func TestRoundTripErasesUndefined(t *testing.T) {
	obj := NewObject()
	obj.Set("x", Undefined)
	b, err := Encode(obj)
	require.NoError(t, err)
	decoded, err := Decode(b)
	require.NoError(t, err)
	empty := NewObject()
	assert.True(t, Equal(empty, decoded))
}

func TestDecodeRejectsExcessData(t *testing.T) {
	b, err := Encode(Number(1))
	require.NoError(t, err)
	b = append(b, 0xff)
	_, err = Decode(b)
	require.Error(t, err)
}

func TestDecodeRejectsBadHeader(t *testing.T) {
	_, err := Decode([]byte{0x01, 0x02, 0x05, 0, 0, 0, 0})
	require.Error(t, err)
}

func TestDecodeUnknownTag(t *testing.T) {
	b, err := Encode(Number(1))
	require.NoError(t, err)
	// Corrupt the payload tag byte (offset 7) to an unknown value.
	b[7] = 0xee
	_, err = Decode(b)
	require.Error(t, err)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
}

func TestDecodeTemplate(t *testing.T) {
	// {name:"fred",age:20},{name:"pete",age:30},{age:25}
	acc := NewAccumulator(64)
	acc.Append(pduHeader[:])
	lenPlaceholder := acc.writeOffset
	acc.Append([]byte{byte(TagInt32), 0, 0, 0, 0})

	acc.Append([]byte{byte(TagTemplate)})
	keys := Array{String("name"), String("age")}
	require.NoError(t, encodeArray(acc, keys))
	encodeWidthSelectedInt(acc, 3)

	writeRow := func(name string, hasName bool, age int64) {
		if hasName {
			require.NoError(t, encodeString(acc, name))
		} else {
			acc.Append([]byte{byte(TagSkip)})
		}
		encodeWidthSelectedInt(acc, age)
	}
	writeRow("fred", true, 20)
	writeRow("pete", true, 30)
	writeRow("", false, 25)

	payloadLen := acc.writeOffset - 7
	encodeSignedInt(acc.buf[lenPlaceholder+1:lenPlaceholder+5], 4, int64(payloadLen))

	v, err := Decode(acc.buf[:acc.writeOffset])
	require.NoError(t, err)

	arr, ok := v.(Array)
	require.True(t, ok)
	require.Len(t, arr, 3)

	row0 := arr[0].(*Object)
	name, ok := row0.Get("name")
	require.True(t, ok)
	assert.Equal(t, String("fred"), name)
	age, _ := row0.Get("age")
	assert.Equal(t, Number(20), age)

	row2 := arr[2].(*Object)
	_, hasName := row2.Get("name")
	assert.False(t, hasName)
	age2, _ := row2.Get("age")
	assert.Equal(t, Number(25), age2)
}

func TestStreamDecoderFragmentedFeed(t *testing.T) {
	b, err := Encode(Array{Number(1), String("hello"), Bool(true)})
	require.NoError(t, err)

	var got []Value
	var gotErr error
	dec := NewStreamDecoder(
		func(v Value) { got = append(got, v) },
		func(err error) { gotErr = err },
	)

	for _, chunk := range splitBytes(b, 3) {
		dec.Feed(chunk)
	}

	require.NoError(t, gotErr)
	require.Len(t, got, 1)
	assert.True(t, Equal(Array{Number(1), String("hello"), Bool(true)}, got[0]))
}

func TestStreamDecoderMultiplePDUs(t *testing.T) {
	b1, _ := Encode(Number(1))
	b2, _ := Encode(String("two"))

	var got []Value
	dec := NewStreamDecoder(func(v Value) { got = append(got, v) }, nil)
	dec.Feed(append(append([]byte{}, b1...), b2...))

	require.Len(t, got, 2)
	assert.True(t, Equal(Number(1), got[0]))
	assert.True(t, Equal(String("two"), got[1]))
}

func splitBytes(b []byte, n int) [][]byte {
	var out [][]byte
	for len(b) > 0 {
		if n > len(b) {
			n = len(b)
		}
		out = append(out, b[:n])
		b = b[n:]
	}
	return out
}
