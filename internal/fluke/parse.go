// Package fluke parses Fluke ESA615 CSV exports into ParsedRecords:
// metadata extraction from the multi-column header grid, results table
// location, and per-row measurement canonicalization.
package fluke

import (
	"time"

	"github.com/araddon/dateparse"

	"github.com/harrison/estconvert/internal/models"
	"github.com/harrison/estconvert/internal/reader"
)

// minRows is the minimum row count of a plausible export; anything shorter
// is rejected before metadata extraction.
const minRows = 10

// Parser turns export files into ParsedRecords. The clock is injectable so
// the fallback timestamp for exports without a Date & Time field is
// deterministic under test.
type Parser struct {
	now func() time.Time
}

// NewParser returns a Parser using the wall clock.
func NewParser() *Parser {
	return &Parser{now: time.Now}
}

// NewParserWithClock returns a Parser using the given clock for timestamp
// fallbacks.
func NewParserWithClock(now func() time.Time) *Parser {
	return &Parser{now: now}
}

// ParseFile parses one export file. Fatal conditions (undecodable file,
// missing mandatory metadata, no results header) are returned as errors;
// individual unrecognized or unparsable measurements are dropped silently.
func (p *Parser) ParseFile(path string) (*models.ParsedRecord, error) {
	rows, err := reader.ReadRows(path)
	if err != nil {
		return nil, err
	}
	return p.parseRows(rows)
}

func (p *Parser) parseRows(rows [][]string) (*models.ParsedRecord, error) {
	if len(rows) < minRows {
		return nil, ErrFileTooShort
	}

	md, err := extractMetadata(rows)
	if err != nil {
		return nil, err
	}

	headerIdx, err := findResultsHeader(rows)
	if err != nil {
		return nil, err
	}

	return &models.ParsedRecord{
		Operator:     md.operator,
		Equipment:    md.equipment,
		TesterSerial: md.testerSN,
		Template:     md.template,
		TestedAt:     p.parseTimestamp(md.rawDate),
		Measurements: parseMeasurements(rows, headerIdx),
	}, nil
}

// parseTimestamp parses the free-form Date & Time value. Absent or
// unparsable text falls back to the current time; a bad date never fails
// the file.
func (p *Parser) parseTimestamp(raw string) time.Time {
	if raw == "" {
		return p.now()
	}
	ts, err := dateparse.ParseAny(raw)
	if err != nil {
		return p.now()
	}
	return ts
}
