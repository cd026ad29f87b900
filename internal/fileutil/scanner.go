// Package fileutil provides filesystem helpers for locating instrument
// export files.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScanOptions configures export discovery in a directory.
type ScanOptions struct {
	// Recursive enables descending into subdirectories.
	Recursive bool
	// Exclude lists file names to skip even when they carry the csv
	// extension, such as the results file the converter itself writes.
	Exclude []string
}

// ScanExports returns the sorted absolute paths of all .csv files under
// dir. Hidden directories are skipped. The exclusion list keeps the
// converter from re-ingesting its own outputs when they live alongside the
// exports.
func ScanExports(dir string, opts ScanOptions) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	excluded := make(map[string]bool)
	for _, name := range opts.Exclude {
		excluded[strings.ToLower(name)] = true
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("error accessing %s: %w", path, err)
		}
		if path == dir {
			return nil
		}

		if d.IsDir() {
			if !opts.Recursive || strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()
		if !strings.EqualFold(filepath.Ext(name), ".csv") {
			return nil
		}
		if excluded[strings.ToLower(name)] {
			return nil
		}
		// Error report files from earlier runs also end in .csv.
		if strings.HasPrefix(name, "EST_ERRORS_") {
			return nil
		}

		absPath, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("failed to resolve path %s: %w", path, err)
		}
		files = append(files, absPath)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	sort.Strings(files)
	return files, nil
}
