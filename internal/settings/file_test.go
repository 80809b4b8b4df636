package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile_DefaultsToFalse(t *testing.T) {
	f, err := NewFile(filepath.Join(t.TempDir(), "settings.yaml"))
	require.NoError(t, err)

	on, err := f.DarkMode()
	require.NoError(t, err)
	assert.False(t, on)
}

func TestFile_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")
	f, err := NewFile(path)
	require.NoError(t, err)
	require.NoError(t, f.SetDarkMode(true))

	reopened, err := NewFile(path)
	require.NoError(t, err)
	on, err := reopened.DarkMode()
	require.NoError(t, err)
	assert.True(t, on)
}

func TestFile_KeepsOtherKeys(t *testing.T) {
	f, err := NewFile(filepath.Join(t.TempDir(), "settings.yaml"))
	require.NoError(t, err)
	require.NoError(t, f.SetBool("compact", true))
	require.NoError(t, f.SetDarkMode(true))

	compact, err := f.Bool("compact")
	require.NoError(t, err)
	assert.True(t, compact)
}

func TestFile_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(filepath.Join(dir, "settings.yaml"))
	require.NoError(t, err)
	require.NoError(t, f.SetDarkMode(true))
	require.NoError(t, f.SetDarkMode(false))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "settings.yaml", entries[0].Name())
}

func TestFile_WrongType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("darkMode: sometimes\n"), 0o644))
	f, err := NewFile(path)
	require.NoError(t, err)

	_, err = f.DarkMode()
	assert.Error(t, err)
}
