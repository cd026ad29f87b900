package fluke

import (
	"errors"
	"fmt"
)

// ErrFileTooShort marks an export with fewer rows than any real instrument
// export carries.
var ErrFileTooShort = errors.New("export file too short")

// ErrResultsHeaderNotFound marks an export with no TEST NAME header row
// carrying a Value or Result column.
var ErrResultsHeaderNotFound = errors.New("could not find results header")

// MissingMetadataError reports a mandatory metadata field absent after the
// header scan. Field holds the display name, e.g. "Equipment Number".
type MissingMetadataError struct {
	Field string
}

func (e *MissingMetadataError) Error() string {
	return fmt.Sprintf("missing %s", e.Field)
}
