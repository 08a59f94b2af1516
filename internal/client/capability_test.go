package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ratson/go-watchman/internal/bser"
)

func TestCompareDottedVersion(t *testing.T) {
	assert.Equal(t, 0, compareDottedVersion("3.1", "3.1"))
	assert.Equal(t, 0, compareDottedVersion("3.1.0", "3.1"))
	assert.Less(t, compareDottedVersion("3.0.9", "3.1"), 0)
	assert.Greater(t, compareDottedVersion("3.1.1", "3.1"), 0)
	assert.Less(t, compareDottedVersion("2.9.9", "3.1.1"), 0)
}

func TestSynthesizeCapabilityUnknownIsUnsupported(t *testing.T) {
	assert.False(t, synthesizeCapability("cmd-nonexistent", "99.0.0"))
}

func TestSynthesizeCapabilityAgainstTable(t *testing.T) {
	assert.True(t, synthesizeCapability("wildmatch", "3.7.0"))
	assert.False(t, synthesizeCapability("wildmatch", "3.6.9"))
	assert.True(t, synthesizeCapability("cmd-watch-del-all", "3.1.1"))
	assert.False(t, synthesizeCapability("cmd-watch-del-all", "3.1.0"))
}

func TestBuildCapabilityCommand(t *testing.T) {
	v := buildCapabilityCommand(CapabilityCheckRequest{
		Optional: []string{"a"},
		Required: []string{"b", "c"},
	})
	arr, ok := v.(bser.Array)
	require.True(t, ok)
	require.Len(t, arr, 2)
	assert.Equal(t, bser.String("version"), arr[0])

	opts, ok := arr[1].(*bser.Object)
	require.True(t, ok)
	optional, ok := opts.Get("optional")
	require.True(t, ok)
	assert.Equal(t, bser.Array{bser.String("a")}, optional)
	required, ok := opts.Get("required")
	require.True(t, ok)
	assert.Equal(t, bser.Array{bser.String("b"), bser.String("c")}, required)
}

func TestInterpretCapabilityResponseSynthesizesFromVersionTable(t *testing.T) {
	resp := bser.NewObject()
	resp.Set("version", bser.String("3.7.0"))

	got, err := interpretCapabilityResponse(CapabilityCheckRequest{
		Optional: []string{"wildmatch"},
		Required: []string{"term-dirname"},
	}, resp)
	require.NoError(t, err)
	assert.Equal(t, "3.7.0", got.Version)
	assert.True(t, got.Capabilities["wildmatch"])
	assert.True(t, got.Capabilities["term-dirname"])
}

func TestInterpretCapabilityResponseUsesServerSuppliedMap(t *testing.T) {
	caps := bser.NewObject()
	caps.Set("wildmatch", bser.Bool(true))
	caps.Set("relative_root", bser.Bool(false))

	resp := bser.NewObject()
	resp.Set("version", bser.String("4.9.0"))
	resp.Set("capabilities", caps)

	got, err := interpretCapabilityResponse(CapabilityCheckRequest{
		Required: []string{"wildmatch"},
	}, resp)
	require.NoError(t, err)
	assert.True(t, got.Capabilities["wildmatch"])
	assert.False(t, got.Capabilities["relative_root"])
}

func TestInterpretCapabilityResponseFailsOnMissingRequired(t *testing.T) {
	resp := bser.NewObject()
	resp.Set("version", bser.String("2.0.0"))

	_, err := interpretCapabilityResponse(CapabilityCheckRequest{
		Required: []string{"wildmatch"},
	}, resp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wildmatch")
}

func TestInterpretCapabilityResponseRejectsNonObject(t *testing.T) {
	_, err := interpretCapabilityResponse(CapabilityCheckRequest{}, bser.String("nope"))
	assert.Error(t, err)
}
