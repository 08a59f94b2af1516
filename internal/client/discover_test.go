package client

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverSocketPathHonorsEnvOverride(t *testing.T) {
	t.Setenv(sockEnvVar, "/tmp/whatever.sock")
	path, err := discoverSocketPath(context.Background(), "watchman")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/whatever.sock", path)
}

func TestDiscoverSocketPathViaCLI(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake CLI script is POSIX shell only")
	}
	bin := writeFakeWatchmanCLI(t, `#!/bin/sh
echo '{"sockname":"/tmp/fake.sock"}'
`)

	path, err := discoverSocketPath(context.Background(), bin)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/fake.sock", path)
}

func TestDiscoverSocketPathViaCLIServiceError(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake CLI script is POSIX shell only")
	}
	bin := writeFakeWatchmanCLI(t, `#!/bin/sh
echo '{"error":"boom"}'
`)

	_, err := discoverSocketPath(context.Background(), bin)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestDiscoverSocketPathViaCLINonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake CLI script is POSIX shell only")
	}
	bin := writeFakeWatchmanCLI(t, `#!/bin/sh
echo 'disaster' 1>&2
exit 7
`)

	_, err := discoverSocketPath(context.Background(), bin)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disaster")
	assert.Contains(t, err.Error(), "7")
}

func TestDiscoverSocketPathNotFound(t *testing.T) {
	_, err := discoverSocketPath(context.Background(), filepath.Join(t.TempDir(), "no-such-binary"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found in PATH")
}

func writeFakeWatchmanCLI(t *testing.T, script string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fake-watchman")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}
