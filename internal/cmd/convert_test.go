package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleExport = `Test Setup,,,,,,,
,,,DUT Information,,,,
Operator ID :,,TECH1,,Equipment Number :,,EQ-100,
Serial Number :,,SN123,,Model :,,PUMP-X,
Date & Time :,,2024-05-12 10:30,,Other :,,,
Template Name :,,_0001 - 3551 TYPE BF CLASS 1,,Standard :,,,
,,,,,,,
,,,,,,,
ESA615 Test Results,,,,,,,
Test Name,,,,Value,High Limits,Low Limits,Status
Protective Earth Resistance - Normal Condition - Run 1,,,,0.12 Ohm,0.2,,PASS
Insulation Resistance - Normal Condition - 500V,,,,250 MOhm,,,PASS
`

func resetConvertFlags() {
	convertConfigPath = ""
	convertDir = ""
	convertRecursive = false
	convertResultsPath = ""
	convertLimitsPath = ""
	convertTestersPath = ""
	convertOutputDir = ""
	convertNoDB = false
	convertVerbose = false
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestConvertCommand(t *testing.T) {
	resetConvertFlags()
	dir := t.TempDir()
	export := filepath.Join(dir, "export.csv")
	require.NoError(t, os.WriteFile(export, []byte(sampleExport), 0644))
	results := filepath.Join(dir, "InterfaceTransactions.csv")

	stdout, stderr, err := runCLI(t, "convert", export,
		"--results", results,
		"--limits", filepath.Join(dir, "limits.csv"),
		"--testers", filepath.Join(dir, "testers.csv"),
		"--output", dir,
		"--no-db",
	)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Converted: 1")
	assert.Contains(t, stdout, "Failed: 0")
	assert.Contains(t, stderr, "[1/1] export.csv")

	data, err := os.ReadFile(results)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "EQ-100")
}

func TestConvertCommandDirScan(t *testing.T) {
	resetConvertFlags()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte(sampleExport), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.csv"), []byte(sampleExport), 0644))
	results := filepath.Join(dir, "InterfaceTransactions.csv")

	stdout, _, err := runCLI(t, "convert",
		"--dir", dir,
		"--results", results,
		"--limits", filepath.Join(dir, "limits.csv"),
		"--testers", filepath.Join(dir, "testers.csv"),
		"--output", dir,
		"--no-db",
	)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Converted: 2")
}

func TestConvertCommandNoInputs(t *testing.T) {
	resetConvertFlags()
	_, _, err := runCLI(t, "convert", "--no-db")
	assert.ErrorContains(t, err, "no export files given")
}

func TestConvertCommandAllFilesFail(t *testing.T) {
	resetConvertFlags()
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("a,b\nc,d\n"), 0644))

	stdout, _, err := runCLI(t, "convert", bad,
		"--results", filepath.Join(dir, "InterfaceTransactions.csv"),
		"--limits", filepath.Join(dir, "limits.csv"),
		"--testers", filepath.Join(dir, "testers.csv"),
		"--output", dir,
		"--no-db",
	)
	assert.ErrorContains(t, err, "all 1 files failed")
	assert.Contains(t, stdout, "Failed: 1")

	// The error report lands in the output directory.
	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	var found bool
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "EST_ERRORS_") {
			found = true
		}
	}
	assert.True(t, found, "expected an EST_ERRORS report")
}

func TestConvertCommandRecordsBatch(t *testing.T) {
	resetConvertFlags()
	dir := t.TempDir()
	export := filepath.Join(dir, "export.csv")
	require.NoError(t, os.WriteFile(export, []byte(sampleExport), 0644))
	dbPath := filepath.Join(dir, "audit.db")
	cfgPath := filepath.Join(dir, "config.yaml")
	cfgContent := "results_path: " + filepath.Join(dir, "InterfaceTransactions.csv") + "\n" +
		"limits_path: " + filepath.Join(dir, "limits.csv") + "\n" +
		"tester_map_path: " + filepath.Join(dir, "testers.csv") + "\n" +
		"output_dir: " + dir + "\n" +
		"audit:\n  enabled: true\n  db_path: " + dbPath + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgContent), 0644))

	_, _, err := runCLI(t, "convert", export, "--config", cfgPath)
	require.NoError(t, err)
	assert.FileExists(t, dbPath)
}
