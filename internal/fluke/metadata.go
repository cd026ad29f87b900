package fluke

import (
	"strings"
)

// metadataRowLimit bounds the header scan; instrument exports keep their
// key/value grid within the first 20 rows.
const metadataRowLimit = 20

// testerSerialColumnLimit restricts the SERIAL key to the left-hand columns
// of the grid. The tester's own serial sits on the left; the DUT serial
// appears under the same key further right.
const testerSerialColumnLimit = 5

// metadata holds the raw key/value fields extracted from the export header.
type metadata struct {
	operator  string
	equipment string
	testerSN  string
	template  string
	rawDate   string
}

// extractMetadata scans the first rows of an export for colon-terminated
// keys laid out in a multi-column grid. The value for a key sits two cells
// to its right (one intentionally blank spacer between them); when that
// cell is empty the cell immediately to the right is used instead. The
// first occurrence of each key wins; duplicates in later rows are ignored.
func extractMetadata(rows [][]string) (metadata, error) {
	var md metadata

	limit := metadataRowLimit
	if len(rows) < limit {
		limit = len(rows)
	}

	for _, row := range rows[:limit] {
		if len(row) < 2 {
			continue
		}
		for i, cell := range row {
			if cell == "" || !strings.Contains(cell, ":") {
				continue
			}
			key := strings.ToUpper(strings.TrimSpace(cell))
			value := cellValueFor(row, i)

			switch {
			case strings.Contains(key, "OPERATOR") && md.operator == "":
				md.operator = value
			case (strings.Contains(key, "EQUIPMENT") || strings.Contains(key, "ASSET")) && md.equipment == "":
				md.equipment = value
			case strings.Contains(key, "SERIAL") && i < testerSerialColumnLimit && md.testerSN == "":
				md.testerSN = value
			case strings.Contains(key, "TEMPLATE") && md.template == "":
				md.template = value
			case strings.Contains(key, "DATE") && strings.Contains(key, "TIME") && md.rawDate == "":
				md.rawDate = value
			}
		}
	}

	if md.equipment == "" {
		return md, &MissingMetadataError{Field: "Equipment Number"}
	}
	if md.testerSN == "" {
		return md, &MissingMetadataError{Field: "Tester S/N"}
	}
	if md.template == "" {
		return md, &MissingMetadataError{Field: "Template Name"}
	}
	return md, nil
}

// cellValueFor resolves the value cell for the key at index i: two columns
// right when available and non-empty, otherwise one column right.
func cellValueFor(row []string, i int) string {
	idx := i + 2
	if idx >= len(row) {
		idx = i + 1
	}
	value := ""
	if idx < len(row) {
		value = strings.TrimSpace(row[idx])
	}
	if value == "" {
		idx = i + 1
		if idx < len(row) {
			value = strings.TrimSpace(row[idx])
		}
	}
	return value
}
