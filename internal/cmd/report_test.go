package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetReportFlags() {
	reportConfigPath = ""
	reportBatchID = ""
	reportFormat = "markdown"
	reportOutPath = ""
}

// convertedBatchConfig runs one conversion with the audit database enabled
// and returns the config path for follow-up report commands.
func convertedBatchConfig(t *testing.T) string {
	t.Helper()
	resetConvertFlags()

	dir := t.TempDir()
	export := filepath.Join(dir, "export.csv")
	require.NoError(t, os.WriteFile(export, []byte(sampleExport), 0644))

	cfgPath := filepath.Join(dir, "config.yaml")
	cfgContent := "results_path: " + filepath.Join(dir, "InterfaceTransactions.csv") + "\n" +
		"limits_path: " + filepath.Join(dir, "limits.csv") + "\n" +
		"tester_map_path: " + filepath.Join(dir, "testers.csv") + "\n" +
		"output_dir: " + dir + "\n" +
		"audit:\n  enabled: true\n  db_path: " + filepath.Join(dir, "audit.db") + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgContent), 0644))

	_, _, err := runCLI(t, "convert", export, "--config", cfgPath)
	require.NoError(t, err)
	return cfgPath
}

func TestReportCommandLatestBatch(t *testing.T) {
	cfgPath := convertedBatchConfig(t)
	resetReportFlags()

	stdout, _, err := runCLI(t, "report", "--config", cfgPath)
	require.NoError(t, err)

	assert.Contains(t, stdout, "# Conversion Batch ")
	assert.Contains(t, stdout, "**Converted:** 1")
	assert.Contains(t, stdout, "EQ-100")
}

func TestReportCommandHTMLToFile(t *testing.T) {
	cfgPath := convertedBatchConfig(t)
	resetReportFlags()

	outPath := filepath.Join(t.TempDir(), "report.html")
	stdout, _, err := runCLI(t, "report", "--config", cfgPath, "--format", "html", "--out", outPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote report to "+outPath)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<!DOCTYPE html>")
	assert.Contains(t, string(data), "EQ-100")
}

func TestReportCommandInvalidFormat(t *testing.T) {
	cfgPath := convertedBatchConfig(t)
	resetReportFlags()

	_, _, err := runCLI(t, "report", "--config", cfgPath, "--format", "pdf")
	assert.ErrorContains(t, err, "invalid format")
}

func TestReportCommandNoDatabase(t *testing.T) {
	resetReportFlags()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	cfgContent := "audit:\n  db_path: " + filepath.Join(dir, "absent.db") + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgContent), 0644))

	_, _, err := runCLI(t, "report", "--config", cfgPath)
	assert.ErrorContains(t, err, "no audit database")
}
