package bser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectPreservesInsertionOrder(t *testing.T) {
	obj := NewObject()
	obj.Set("z", Number(1))
	obj.Set("a", Number(2))
	obj.Set("m", Number(3))

	assert.Equal(t, []string{"z", "a", "m"}, obj.Keys())
	assert.Equal(t, 3, obj.Len())
}

func TestObjectSetOverwritesWithoutReordering(t *testing.T) {
	obj := NewObject()
	obj.Set("a", Number(1))
	obj.Set("b", Number(2))
	obj.Set("a", Number(99))

	assert.Equal(t, []string{"a", "b"}, obj.Keys())
	v, ok := obj.Get("a")
	require.True(t, ok)
	assert.Equal(t, Number(99), v)
}

func TestObjectGetMissingKey(t *testing.T) {
	obj := NewObject()
	_, ok := obj.Get("nope")
	assert.False(t, ok)
}

func TestIsUndefined(t *testing.T) {
	assert.True(t, IsUndefined(Undefined))
	assert.False(t, IsUndefined(Number(0)))
	assert.False(t, IsUndefined(NullValue))
}

func TestObjectUndefinedStaysInKeysUntilEncoded(t *testing.T) {
	obj := NewObject()
	obj.Set("present", Number(1))
	obj.Set("gone", Undefined)

	assert.Equal(t, []string{"present", "gone"}, obj.Keys())
	v, ok := obj.Get("gone")
	require.True(t, ok)
	assert.True(t, IsUndefined(v))
}

func TestEqualCrossesNumberAndInt64(t *testing.T) {
	assert.True(t, Equal(Number(5), Int64(5)))
	assert.True(t, Equal(Int64(5), Number(5)))
	assert.False(t, Equal(Number(5), Int64(6)))
}

func TestEqualArraysAndObjects(t *testing.T) {
	a := NewObject()
	a.Set("x", Array{Number(1), String("y")})
	b := NewObject()
	b.Set("x", Array{Number(1), String("y")})
	assert.True(t, Equal(a, b))

	c := NewObject()
	c.Set("x", Array{Number(1), String("z")})
	assert.False(t, Equal(a, c))
}

func TestEqualObjectKeyOrderIrrelevant(t *testing.T) {
	a := NewObject()
	a.Set("x", Number(1))
	a.Set("y", Number(2))

	b := NewObject()
	b.Set("y", Number(2))
	b.Set("x", Number(1))

	assert.True(t, Equal(a, b))
}

func TestEqualRejectsMismatchedTypes(t *testing.T) {
	assert.False(t, Equal(String("1"), Number(1)))
	assert.False(t, Equal(Bool(true), Number(1)))
	assert.False(t, Equal(NullValue, Undefined))
}

func TestNumberIsIntegral(t *testing.T) {
	assert.True(t, Number(1).IsIntegral())
	assert.True(t, Number(-128).IsIntegral())
	assert.False(t, Number(1.5).IsIntegral())
}

func TestToInt64(t *testing.T) {
	v, err := ToInt64(Number(42))
	require.NoError(t, err)
	assert.EqualValues(t, 42, v)

	v, err = ToInt64(Int64(0x0123456789abcdef))
	require.NoError(t, err)
	assert.EqualValues(t, 0x0123456789abcdef, v)

	_, err = ToInt64(String("no"))
	assert.Error(t, err)
}
