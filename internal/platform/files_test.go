package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDirectoryIfNotExists(t *testing.T) {
	testDir := filepath.Join(t.TempDir(), "test_dir")

	_, err := os.Stat(testDir)
	require.True(t, os.IsNotExist(err), "test directory already exists: %s", testDir)

	require.NoError(t, CreateDirectoryIfNotExists(testDir))

	info, err := os.Stat(testDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Second call should not fail
	assert.NoError(t, CreateDirectoryIfNotExists(testDir))
}

func TestGetHomeDownloadsDir(t *testing.T) {
	t.Setenv("ANDROID_DATA", "")
	t.Setenv("ANDROID_ROOT", "")

	downloadsDir, err := GetHomeDownloadsDir()
	require.NoError(t, err)
	assert.NotEmpty(t, downloadsDir)
	assert.Equal(t, "Downloads", filepath.Base(downloadsDir))
}

func TestLookupBinary(t *testing.T) {
	if runtime.GOOS == OSWindows {
		t.Skip("uses a POSIX executable script")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "fake-ytdlp")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nexit 0\n"), 0755))

	path, err := LookupBinary(script)
	require.NoError(t, err)
	assert.Equal(t, script, path)

	t.Setenv("PATH", dir)
	path, err = LookupBinary("fake-ytdlp")
	require.NoError(t, err)
	assert.Equal(t, script, path)

	_, err = LookupBinary(filepath.Join(dir, "missing"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to locate")
}
