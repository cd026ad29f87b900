package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

func names(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}

func TestScanExports(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "export_b.csv"))
	touch(t, filepath.Join(dir, "export_a.CSV"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "nested", "export_c.csv"))

	files, err := ScanExports(dir, ScanOptions{})
	require.NoError(t, err)
	// Non-recursive: nested export not included, non-csv skipped, sorted.
	assert.Equal(t, []string{"export_a.CSV", "export_b.csv"}, names(files))
}

func TestScanExportsRecursive(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "export_a.csv"))
	touch(t, filepath.Join(dir, "nested", "export_c.csv"))
	touch(t, filepath.Join(dir, ".hidden", "export_d.csv"))

	files, err := ScanExports(dir, ScanOptions{Recursive: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"export_a.csv", "export_c.csv"}, names(files))
}

func TestScanExportsExcludesOwnOutputs(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "export_a.csv"))
	touch(t, filepath.Join(dir, "InterfaceTransactions.csv"))
	touch(t, filepath.Join(dir, "EST_ERRORS_20240512_103000.csv"))

	files, err := ScanExports(dir, ScanOptions{Exclude: []string{"InterfaceTransactions.csv"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"export_a.csv"}, names(files))
}

func TestScanExportsNotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain.csv")
	touch(t, file)

	_, err := ScanExports(file, ScanOptions{})
	assert.ErrorContains(t, err, "not a directory")
}

func TestScanExportsMissingDirectory(t *testing.T) {
	_, err := ScanExports(filepath.Join(t.TempDir(), "absent"), ScanOptions{})
	assert.ErrorContains(t, err, "failed to access directory")
}
