package bser

import (
	"fmt"
	"math"
)

// Value is any BSER-representable value: Number, Int64, Bool, Null,
// String, Array, or *Object. It is a closed set implemented only by the
// types in this file.
type Value interface {
	isValue()
}

// Number is a generic BSER number. On encode, an integral, finite Number
// picks the smallest integer tag whose range contains its absolute value
// (INT8/INT16/INT32/INT64); any other Number is written as REAL. This
// mirrors the source's single JS "number" type, which does not
// distinguish 1 from 1.0.
type Number float64

func (Number) isValue() {}

// Int64 is the wide integer carrier: a value that must round-trip as a
// full 64-bit integer even when its magnitude would fit a narrower tag,
// and that may exceed the safe-integer range a plain Number can carry
// without loss. The decoder produces Int64 only for INT64 payloads whose
// magnitude exceeds safeIntegerLimit; narrower payloads, and INT64
// payloads within that range, decode to Number instead (see
// "conversion to a fitting numeric type when possible" in the spec).
type Int64 int64

func (Int64) isValue() {}

// Bool is a BSER boolean (TRUE/FALSE tag).
type Bool bool

func (Bool) isValue() {}

// nullValue is the type of the BSER null value (NULL tag). There is
// exactly one: use the package-level NullValue variable.
type nullValue struct{}

func (nullValue) isValue() {}

// NullValue is the singleton BSER null.
var NullValue Value = nullValue{}

// String is a BSER UTF-8 string. The decoder treats string payloads as
// opaque bytes interpreted as UTF-8; malformed UTF-8 is not rejected.
type String string

func (String) isValue() {}

// Array is an ordered sequence of BSER values.
type Array []Value

func (Array) isValue() {}

// undefinedValue marks an Object property that is present in the source
// collection but should be omitted on encode, mirroring the distinction
// the source makes between "present with value" and "present but
// undefined".
type undefinedValue struct{}

func (undefinedValue) isValue() {}

// Undefined is the omit-on-encode marker. Setting an Object key to
// Undefined keeps the key in iteration order but erases it from the
// encoded output; the decoder never produces Undefined.
var Undefined Value = undefinedValue{}

// IsUndefined reports whether v is the Undefined marker.
func IsUndefined(v Value) bool {
	_, ok := v.(undefinedValue)
	return ok
}

// Object is a string-keyed BSER value that preserves insertion order on
// decode. Use NewObject and Set/Get rather than constructing the zero
// value, so the key index stays consistent.
type Object struct {
	keys   []string
	values map[string]Value
}

func (*Object) isValue() {}

// NewObject returns an empty Object ready for Set calls.
func NewObject() *Object {
	return &Object{values: make(map[string]Value)}
}

// Set assigns key to v, appending key to the iteration order the first
// time it is used. Setting key to Undefined keeps it in that order but
// causes Encode to omit it.
func (o *Object) Set(key string, v Value) {
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// Get returns the value for key and whether it was present (including
// when present but Undefined).
func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Keys returns the object's keys in insertion order.
func (o *Object) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Len returns the number of keys, including any set to Undefined.
func (o *Object) Len() int {
	return len(o.keys)
}

// IsIntegral reports whether n is finite and equal to its own floor, the
// condition under which the encoder picks an integer tag over REAL.
func (n Number) IsIntegral() bool {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	return f == math.Trunc(f)
}

// Equal reports deep equality under the round-trip rules of the BSER
// spec: Number and Int64 compare by numeric value so that, e.g., a
// decoded INT64 payload within the safe-integer range (narrowed to
// Number) still equals the Int64 the caller originally encoded.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Number:
		return numberEqual(av, b)
	case Int64:
		return numberEqual(Number(av), b)
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case nullValue:
		_, ok := b.(nullValue)
		return ok
	case undefinedValue:
		_, ok := b.(undefinedValue)
		return ok
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Array:
		bv, ok := b.(Array)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case *Object:
		bv, ok := b.(*Object)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for _, k := range av.keys {
			bval, present := bv.Get(k)
			if !present || !Equal(av.values[k], bval) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func numberEqual(a Number, b Value) bool {
	switch bv := b.(type) {
	case Number:
		return a == bv
	case Int64:
		return float64(a) == float64(bv)
	default:
		return false
	}
}

// ToInt64 converts v to an int64 if it is a Number or Int64, for callers
// that know a value is integral by protocol contract.
func ToInt64(v Value) (int64, error) {
	switch t := v.(type) {
	case Number:
		return int64(t), nil
	case Int64:
		return int64(t), nil
	default:
		return 0, fmt.Errorf("bser: value is %T, not a number", v)
	}
}
