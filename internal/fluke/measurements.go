package fluke

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/harrison/estconvert/internal/models"
	"github.com/harrison/estconvert/internal/rules"
)

// Fallback column indices used when no header cell names the value or
// status column. These match the layout of unmodified instrument exports.
const (
	defaultValueColumn  = 5
	defaultStatusColumn = 8
)

// findResultsHeader returns the index of the results header row: the first
// row whose leading cell is TEST NAME and which also carries a Value or
// Result cell. The second condition matters because TEST NAME shows up in
// unrelated header rows too.
func findResultsHeader(rows [][]string) (int, error) {
	for idx, row := range rows {
		if len(row) == 0 {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(row[0]), "TEST NAME") {
			continue
		}
		for _, cell := range row {
			upper := strings.ToUpper(cell)
			if strings.Contains(upper, "VALUE") || strings.Contains(upper, "RESULT") {
				return idx, nil
			}
		}
	}
	return 0, ErrResultsHeaderNotFound
}

// resolveColumns scans the header row for the value and status columns.
// When several cells match, the rightmost wins; when none match, the fixed
// fallback indices are used.
func resolveColumns(header []string) (valueCol, statusCol int) {
	valueCol = defaultValueColumn
	statusCol = defaultStatusColumn

	for idx, cell := range header {
		if cell == "" {
			continue
		}
		upper := strings.ToUpper(cell)
		if strings.Contains(upper, "VALUE") || strings.Contains(upper, "RESULT") {
			valueCol = idx
		}
		if strings.Contains(upper, "STATUS") || strings.Contains(upper, "PASS") || strings.Contains(upper, "P/F") {
			statusCol = idx
		}
	}
	return valueCol, statusCol
}

var valueNoise = regexp.MustCompile(`[A-Za-z\s><=]`)

// cleanValue strips units and comparison symbols from a value cell and
// parses the remainder as a float. "0.15 Ohm" -> 0.15, "> 1000 MOhm" ->
// 1000.
func cleanValue(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	cleaned := strings.TrimSpace(valueNoise.ReplaceAllString(raw, ""))
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseMeasurements extracts one measurement per data row below the results
// header. Rows with an unrecognized group or an unparsable value are
// skipped silently; exports legitimately contain informational rows outside
// the tested taxonomy.
func parseMeasurements(rows [][]string, headerIdx int) []models.Measurement {
	valueCol, statusCol := resolveColumns(rows[headerIdx])
	maxCol := valueCol
	if statusCol > maxCol {
		maxCol = statusCol
	}

	var measurements []models.Measurement
	for _, row := range rows[headerIdx+1:] {
		if len(row) <= maxCol {
			continue
		}
		testName := strings.TrimSpace(row[0])
		if testName == "" {
			continue
		}

		// Test names are "Group - Condition - Subtest", with the
		// trailing parts optional.
		parts := strings.Split(testName, "-")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		rawGroup := parts[0]
		rawCond := ""
		if len(parts) > 1 {
			rawCond = parts[1]
		}
		subtest := testName
		if len(parts) > 2 {
			subtest = parts[2]
		}

		group := rules.CanonicalGroup(rawGroup)
		if group == models.GroupUnknown {
			continue
		}

		value, ok := cleanValue(strings.TrimSpace(row[valueCol]))
		if !ok {
			continue
		}

		status := strings.ToUpper(strings.TrimSpace(row[statusCol]))

		measurements = append(measurements, models.Measurement{
			Group:     group,
			Condition: rules.NormalizeCondition(rawCond),
			Subtest:   subtest,
			Value:     value,
			Passed:    strings.HasPrefix(status, "P"),
		})
	}
	return measurements
}
