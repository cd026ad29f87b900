// Package limits resolves the pass/fail limit for a measurement channel
// from an external limits table, with built-in defaults per standard.
//
// A Resolver is built once per conversion batch and is read-only
// afterwards, so it can be shared freely across files.
package limits

import (
	"os"
	"strings"

	"github.com/harrison/estconvert/internal/models"
	"github.com/harrison/estconvert/internal/reader"
)

// headerScanLimit bounds the search for the limits table header row.
const headerScanLimit = 10

// key identifies one limit entry. Class is empty for entries generic to a
// standard.
type key struct {
	standard string
	class    string
	field    string
}

// Resolver answers limit lookups for (standard, class, field) triples.
// Lookup order: exact entry, then the standard's generic entry, then the
// built-in default table for the standard.
type Resolver struct {
	table map[key]string
}

// default limit tables, used when the external table has no entry. The
// 3760 set deliberately omits the patient-leakage and mains-contact fields.
var defaults3551 = map[string]string{
	"earth_bond":           "0.2",
	"insulation":           "1.0",
	"earth_leakage_nc":     "5000",
	"earth_leakage_no":     "5000",
	"enclosure_leakage_nc": "500",
	"enclosure_leakage_no": "500",
	"enclosure_leakage_eo": "500",
	"patient_leakage_nc":   "500",
	"patient_leakage_no":   "500",
	"patient_leakage_eo":   "500",
	"mains_contact":        "25000",
}

var defaults3760 = map[string]string{
	"earth_bond":           "1",
	"insulation":           "1.0",
	"earth_leakage_nc":     "5000",
	"earth_leakage_no":     "5000",
	"enclosure_leakage_nc": "1000",
	"enclosure_leakage_no": "1000",
	"enclosure_leakage_eo": "1000",
}

// NewResolver returns a resolver backed only by the built-in defaults.
func NewResolver() *Resolver {
	return &Resolver{table: make(map[key]string)}
}

// Load builds a resolver from the external limits table at path and returns
// the number of entries loaded. A missing file is not a failure: the
// resolver then operates purely on defaults with zero entries, and the
// caller is expected to log that. A present but malformed table (no header
// row) likewise falls back to defaults.
func Load(path string) (*Resolver, int, error) {
	r := NewResolver()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return r, 0, nil
	}

	rows, err := reader.ReadRows(path)
	if err != nil {
		return nil, 0, err
	}

	headerIdx := -1
	limit := headerScanLimit
	if len(rows) < limit {
		limit = len(rows)
	}
	for idx, row := range rows[:limit] {
		if rowContains(row, "Standard") && rowContains(row, "Field") {
			headerIdx = idx
			break
		}
	}
	if headerIdx < 0 {
		return r, 0, nil
	}

	count := 0
	for _, row := range rows[headerIdx+1:] {
		if len(row) == 0 || row[0] == "" {
			continue
		}
		standard := strings.TrimSpace(row[0])
		class := ""
		if len(row) > 1 {
			class = strings.TrimSpace(row[1])
		}
		field := ""
		if len(row) > 2 {
			field = strings.ToLower(strings.TrimSpace(row[2]))
		}
		limitText := ""
		if len(row) > 3 {
			limitText = strings.TrimSpace(row[3])
		}
		if standard == "" || field == "" || limitText == "" {
			continue
		}
		r.table[key{standard, class, field}] = limitText
		count++
	}
	return r, count, nil
}

func rowContains(row []string, sub string) bool {
	for _, cell := range row {
		if strings.Contains(cell, sub) {
			return true
		}
	}
	return false
}

// Limit resolves the limit text for a field. The fallback chain ends at the
// default table; a field absent everywhere yields an empty string, which
// deliberately does not distinguish "not applicable under this standard"
// from "missing in the external table".
func (r *Resolver) Limit(standard models.Standard, classType, field string) string {
	if v, ok := r.table[key{string(standard), classType, field}]; ok {
		return v
	}
	if v, ok := r.table[key{string(standard), "", field}]; ok {
		return v
	}
	if standard == models.Standard3760 {
		return defaults3760[field]
	}
	return defaults3551[field]
}

// Len reports the number of externally loaded entries.
func (r *Resolver) Len() int {
	return len(r.table)
}
