// Package assets loads the tester-serial to asset-number map used to stamp
// output rows with the owning asset. Loaded once per conversion batch,
// read-only afterwards.
package assets

import (
	"os"
	"strings"

	"github.com/harrison/estconvert/internal/reader"
)

// headerScanLimit bounds the search for the serial/asset header row.
const headerScanLimit = 10

// Load reads the tester table at path and returns the serial -> asset map
// and its entry count. A missing file or an unrecognizable header yields an
// empty map without error; unmapped serials then fall back to the serial
// itself downstream.
func Load(path string) (map[string]string, int, error) {
	testerMap := make(map[string]string)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return testerMap, 0, nil
	}

	rows, err := reader.ReadRows(path)
	if err != nil {
		return nil, 0, err
	}

	snCol, assetCol, headerIdx := -1, -1, -1
	limit := headerScanLimit
	if len(rows) < limit {
		limit = len(rows)
	}
	for idx, row := range rows[:limit] {
		for colIdx, cell := range row {
			if cell == "" {
				continue
			}
			upper := strings.ToUpper(cell)
			if strings.Contains(upper, "SERIAL") || strings.Contains(upper, "S/N") {
				snCol = colIdx
				headerIdx = idx
			}
			if strings.Contains(upper, "ASSET") {
				assetCol = colIdx
			}
		}
	}
	if snCol < 0 || assetCol < 0 || headerIdx < 0 {
		return testerMap, 0, nil
	}

	maxCol := snCol
	if assetCol > maxCol {
		maxCol = assetCol
	}
	for _, row := range rows[headerIdx+1:] {
		if len(row) <= maxCol {
			continue
		}
		sn := strings.TrimSpace(row[snCol])
		asset := strings.TrimSpace(row[assetCol])
		if sn != "" && asset != "" {
			testerMap[sn] = asset
		}
	}
	return testerMap, len(testerMap), nil
}
