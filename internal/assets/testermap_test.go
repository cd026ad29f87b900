package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTesters(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "testers.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	content := `EST Testers,,
Serial Number,Asset Number,Location
SN123,A-55,Ward 3
SN456,A-77,Theatre
,A-99,ignored
SN000,,ignored
`
	testerMap, count, err := Load(writeTesters(t, content))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, "A-55", testerMap["SN123"])
	assert.Equal(t, "A-77", testerMap["SN456"])
}

func TestLoadSNHeaderVariant(t *testing.T) {
	content := `Tester S/N,Asset
SN1,A-1
`
	testerMap, count, err := Load(writeTesters(t, content))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, "A-1", testerMap["SN1"])
}

func TestLoadMissingFile(t *testing.T) {
	testerMap, count, err := Load(filepath.Join(t.TempDir(), "absent.csv"))
	require.NoError(t, err)
	assert.Empty(t, testerMap)
	assert.Zero(t, count)
}

func TestLoadNoHeader(t *testing.T) {
	testerMap, count, err := Load(writeTesters(t, "a,b\nc,d\n"))
	require.NoError(t, err)
	assert.Empty(t, testerMap)
	assert.Zero(t, count)
}
