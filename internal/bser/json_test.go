package bser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromJSONScalars(t *testing.T) {
	v, err := FromJSON([]byte(`null`))
	require.NoError(t, err)
	assert.Equal(t, NullValue, v)

	v, err = FromJSON([]byte(`true`))
	require.NoError(t, err)
	assert.Equal(t, Bool(true), v)

	v, err = FromJSON([]byte(`"hello"`))
	require.NoError(t, err)
	assert.Equal(t, String("hello"), v)

	v, err = FromJSON([]byte(`42`))
	require.NoError(t, err)
	assert.Equal(t, Number(42), v)
}

func TestFromJSONArray(t *testing.T) {
	v, err := FromJSON([]byte(`["query", "/tmp/repo", {"expression": ["exists"]}]`))
	require.NoError(t, err)

	arr, ok := v.(Array)
	require.True(t, ok)
	require.Len(t, arr, 3)
	assert.Equal(t, String("query"), arr[0])
	assert.Equal(t, String("/tmp/repo"), arr[1])

	obj, ok := arr[2].(*Object)
	require.True(t, ok)
	expr, present := obj.Get("expression")
	require.True(t, present)
	assert.Equal(t, Array{String("exists")}, expr)
}

func TestFromJSONObjectKeysAreSorted(t *testing.T) {
	v, err := FromJSON([]byte(`{"z": 1, "a": 2, "m": 3}`))
	require.NoError(t, err)

	obj, ok := v.(*Object)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "m", "z"}, obj.Keys())
}

func TestFromJSONRejectsMalformedInput(t *testing.T) {
	_, err := FromJSON([]byte(`{not valid json`))
	assert.Error(t, err)
}

func TestToNativeConvertsResponseObject(t *testing.T) {
	obj := NewObject()
	obj.Set("version", String("2024.01.01.00"))
	obj.Set("clock", Int64(123456789012345))
	obj.Set("files", Array{String("a.txt"), String("b.txt")})
	obj.Set("is_fresh_instance", Bool(false))
	obj.Set("error", NullValue)

	native := ToNative(obj)
	m, ok := native.(map[string]any)
	require.True(t, ok)

	assert.Equal(t, "2024.01.01.00", m["version"])
	assert.Equal(t, int64(123456789012345), m["clock"])
	assert.Equal(t, []any{"a.txt", "b.txt"}, m["files"])
	assert.Equal(t, false, m["is_fresh_instance"])
	assert.Nil(t, m["error"])
}

func TestToNativeOmitsUndefinedKeys(t *testing.T) {
	obj := NewObject()
	obj.Set("present", Number(1))
	obj.Set("gone", Undefined)

	m, ok := ToNative(obj).(map[string]any)
	require.True(t, ok)
	_, present := m["gone"]
	assert.False(t, present)
	assert.Equal(t, float64(1), m["present"])
}
