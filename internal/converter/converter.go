// Package converter orchestrates a conversion batch: it parses each
// instrument export, builds the interface row, and collects per-file
// failures without aborting the batch.
package converter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"time"

	"github.com/harrison/estconvert/internal/assets"
	"github.com/harrison/estconvert/internal/filelock"
	"github.com/harrison/estconvert/internal/fluke"
	"github.com/harrison/estconvert/internal/limits"
	"github.com/harrison/estconvert/internal/logger"
	"github.com/harrison/estconvert/internal/mapper"
	"github.com/harrison/estconvert/internal/models"
)

// FileError records one export that failed to convert.
type FileError struct {
	Path string
	Err  error
}

// Summary is the outcome of a batch. Rows holds successfully converted
// rows in submission order; Errors holds one entry per failed file.
type Summary struct {
	Rows      []*models.InterfaceRow
	Succeeded int
	Failed    int
	Errors    []FileError
}

// Options configures a conversion batch.
type Options struct {
	// LimitsPath points at the external limits table. Missing file is
	// tolerated; built-in defaults apply.
	LimitsPath string
	// TesterMapPath points at the tester serial to asset table. Missing
	// file is tolerated; rows then carry the raw serial.
	TesterMapPath string
	// Logger receives progress output. Nil disables logging.
	Logger logger.Logger
	// Clock overrides the time source, used when an export omits its
	// test date. Nil means time.Now.
	Clock func() time.Time
}

// Converter converts a batch of exports with shared lookup tables. Build
// one per batch via New.
type Converter struct {
	parser  *fluke.Parser
	builder *mapper.Builder
	testers map[string]string
	log     logger.Logger
}

// New loads the lookup tables and returns a ready converter.
func New(opts Options) (*Converter, error) {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	resolver, limitCount, err := limits.Load(opts.LimitsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load limits table: %w", err)
	}
	if limitCount == 0 {
		log.Warnf("no limits loaded from %s, using built-in defaults", opts.LimitsPath)
	} else {
		log.Debugf("loaded %d limit entries from %s", limitCount, opts.LimitsPath)
	}

	testers, testerCount, err := assets.Load(opts.TesterMapPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load tester map: %w", err)
	}
	if testerCount == 0 {
		log.Warnf("no tester mappings loaded from %s, asset numbers fall back to serials", opts.TesterMapPath)
	} else {
		log.Debugf("loaded %d tester mappings from %s", testerCount, opts.TesterMapPath)
	}

	parser := fluke.NewParser()
	if opts.Clock != nil {
		parser = fluke.NewParserWithClock(opts.Clock)
	}

	return &Converter{
		parser:  parser,
		builder: mapper.NewBuilder(resolver),
		testers: testers,
		log:     log,
	}, nil
}

// Run converts the given export files in order. A failing file is logged,
// recorded in the summary, and skipped; the batch always runs to the end.
func (c *Converter) Run(paths []string) *Summary {
	summary := &Summary{}

	total := len(paths)
	for i, path := range paths {
		c.log.Infof("[%d/%d] %s", i+1, total, filepath.Base(path))

		row, err := c.convertFile(path)
		if err != nil {
			c.log.Errorf("%s: %v", filepath.Base(path), err)
			summary.Failed++
			summary.Errors = append(summary.Errors, FileError{Path: path, Err: err})
			continue
		}

		summary.Rows = append(summary.Rows, row)
		summary.Succeeded++
		c.log.Debugf("%s: equipment %s, %s", filepath.Base(path), row.EquipmentNumber, row.Standard)
	}

	return summary
}

func (c *Converter) convertFile(path string) (*models.InterfaceRow, error) {
	record, err := c.parser.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return c.builder.Build(record, c.testers)
}

// WriteErrorReport writes the batch's failures as a CSV next to the
// results file and returns its path. No file is written for an empty
// error list.
func WriteErrorReport(dir string, errs []FileError, now time.Time) (string, error) {
	if len(errs) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"File", "Error"}); err != nil {
		return "", fmt.Errorf("failed to write error report header: %w", err)
	}
	for _, fe := range errs {
		if err := w.Write([]string{fe.Path, fe.Err.Error()}); err != nil {
			return "", fmt.Errorf("failed to write error report row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush error report: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("EST_ERRORS_%s.csv", now.Format("20060102_150405")))
	if err := filelock.AtomicWrite(path, buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to write error report: %w", err)
	}
	return path, nil
}
