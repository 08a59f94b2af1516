package bser

import "fmt"

// Encode writes v as a complete PDU: the two header bytes, an INT32
// length placeholder that is back-patched once the payload size is
// known, then the BSER-encoded payload.
func Encode(v Value) ([]byte, error) {
	acc := NewAccumulator(64)
	acc.Append(pduHeader[:])

	lenOffset := acc.writeOffset
	acc.Append([]byte{byte(TagInt32), 0, 0, 0, 0})

	if err := encodeValue(acc, v); err != nil {
		return nil, err
	}

	payloadLen := acc.writeOffset - 7
	encodeSignedInt(acc.buf[lenOffset+1:lenOffset+5], 4, int64(payloadLen))

	return acc.buf[:acc.writeOffset], nil
}

// encodeValue writes v's tag and payload, with no PDU envelope, and is
// also the entry point the recursive array/object cases call.
func encodeValue(acc *Accumulator, v Value) error {
	switch t := v.(type) {
	case nil:
		return fmt.Errorf("bser: cannot serialize type <nil>")
	case nullValue:
		acc.Append([]byte{byte(TagNull)})
		return nil
	case undefinedValue:
		return fmt.Errorf("bser: cannot serialize undefined outside of an object property")
	case Bool:
		if t {
			acc.Append([]byte{byte(TagTrue)})
		} else {
			acc.Append([]byte{byte(TagFalse)})
		}
		return nil
	case String:
		return encodeString(acc, string(t))
	case Number:
		return encodeNumber(acc, t)
	case Int64:
		acc.Append([]byte{byte(TagInt64)})
		acc.WriteInt(8, int64(t))
		return nil
	case Array:
		return encodeArray(acc, t)
	case *Object:
		return encodeObject(acc, t)
	default:
		return fmt.Errorf("bser: cannot serialize type %T", v)
	}
}

func encodeString(acc *Accumulator, s string) error {
	acc.Append([]byte{byte(TagString)})
	encodeWidthSelectedInt(acc, int64(len(s)))
	acc.AppendString(s)
	return nil
}

func encodeNumber(acc *Accumulator, n Number) error {
	if n.IsIntegral() {
		encodeWidthSelectedInt(acc, int64(n))
		return nil
	}
	acc.Append([]byte{byte(TagReal)})
	acc.WriteDouble(float64(n))
	return nil
}

// encodeWidthSelectedInt picks the smallest integer tag whose range
// contains abs(v) — INT8 for |v|<=127, INT16 for |v|<=32767, INT32 for
// |v|<=2147483647, INT64 otherwise — and writes tag plus payload.
//
// The range check intentionally uses abs(v), not v's signed range, so
// e.g. -128 is encoded as INT16 rather than the tighter INT8. This
// matches the reference encoder byte-for-byte and must not be "fixed".
func encodeWidthSelectedInt(acc *Accumulator, v int64) {
	abs := v
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs <= 127:
		acc.Append([]byte{byte(TagInt8)})
		acc.WriteInt(1, v)
	case abs <= 32767:
		acc.Append([]byte{byte(TagInt16)})
		acc.WriteInt(2, v)
	case abs <= 2147483647:
		acc.Append([]byte{byte(TagInt32)})
		acc.WriteInt(4, v)
	default:
		acc.Append([]byte{byte(TagInt64)})
		acc.WriteInt(8, v)
	}
}

func encodeArray(acc *Accumulator, arr Array) error {
	acc.Append([]byte{byte(TagArray)})
	encodeWidthSelectedInt(acc, int64(len(arr)))
	for _, elem := range arr {
		if err := encodeValue(acc, elem); err != nil {
			return err
		}
	}
	return nil
}

func encodeObject(acc *Accumulator, obj *Object) error {
	count := 0
	for _, k := range obj.keys {
		if !IsUndefined(obj.values[k]) {
			count++
		}
	}

	acc.Append([]byte{byte(TagObject)})
	encodeWidthSelectedInt(acc, int64(count))

	for _, k := range obj.keys {
		val := obj.values[k]
		if IsUndefined(val) {
			continue
		}
		if err := encodeString(acc, k); err != nil {
			return withPropertyContext(k, err)
		}
		if err := encodeValue(acc, val); err != nil {
			return withPropertyContext(k, err)
		}
	}
	return nil
}
