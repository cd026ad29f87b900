package store

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/harrison/estconvert/internal/filelock"
	"github.com/harrison/estconvert/internal/models"
	"github.com/harrison/estconvert/internal/reader"
)

// CSVSink appends interface rows to the shared results CSV. The file is
// read and rewritten under an exclusive lock so concurrent runs cannot
// interleave or clobber each other's rows.
type CSVSink struct {
	path string
}

// NewCSVSink returns a sink for the results file at path. The file and its
// header row are created on first append.
func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

// Path returns the results file path.
func (s *CSVSink) Path() string {
	return s.path
}

// Append adds rows to the results file, creating it with the column header
// when absent. The whole read-modify-write runs under the file lock and the
// final write is atomic.
func (s *CSVSink) Append(rows []*models.InterfaceRow) error {
	if len(rows) == 0 {
		return nil
	}

	lock := filelock.NewFileLock(s.path + ".lock")
	if err := lock.Lock(); err != nil {
		return err
	}
	defer lock.Unlock()

	existing, err := s.readExisting()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, record := range existing {
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write results row: %w", err)
		}
	}
	for _, row := range rows {
		if err := w.Write(row.Columns()); err != nil {
			return fmt.Errorf("failed to write results row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush results: %w", err)
	}

	return filelock.AtomicWrite(s.path, buf.Bytes())
}

// readExisting returns the current file content as records, seeding the
// header when the file does not exist yet. Ragged rows from hand-edited
// files are preserved as-is.
func (s *CSVSink) readExisting() ([][]string, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return [][]string{models.ColumnHeaders}, nil
	}

	records, err := reader.ReadRows(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read results file: %w", err)
	}
	if len(records) == 0 {
		return [][]string{models.ColumnHeaders}, nil
	}
	return records, nil
}
