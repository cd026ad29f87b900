package filelock

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")

	require.NoError(t, AtomicWrite(path, []byte("first\n")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(data))

	// Replacing an existing file works the same way.
	require.NoError(t, AtomicWrite(path, []byte("second\n")))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(data))
}

func TestAtomicWriteCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "results.csv")

	require.NoError(t, AtomicWrite(path, []byte("data")))
	assert.FileExists(t, path)
}

func TestAtomicWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results.csv")

	require.NoError(t, AtomicWrite(path, []byte("data")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "results.csv", entries[0].Name())
}

func TestTryLockContention(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "results.csv.lock")

	first := NewFileLock(lockPath)
	require.NoError(t, first.Lock())
	defer first.Unlock()

	second := NewFileLock(lockPath)
	acquired, err := second.TryLock()
	require.NoError(t, err)
	assert.False(t, acquired)

	require.NoError(t, first.Unlock())
	acquired, err = second.TryLock()
	require.NoError(t, err)
	assert.True(t, acquired)
	require.NoError(t, second.Unlock())
}

func TestLockAndWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")

	require.NoError(t, LockAndWrite(path, []byte("row\n")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "row\n", string(data))
	assert.FileExists(t, path+".lock")
}
