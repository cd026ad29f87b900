// Package reader opens tabular export files whose character encoding is not
// known in advance. Handheld testers produce CSV in UTF-8 (with or without
// a byte order mark) or in Western single-byte encodings depending on
// firmware, so decoding walks a fixed fallback chain until one encoding
// accepts the whole file.
package reader

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// DecodeError reports that no encoding in the fallback chain could decode
// the file. It carries the last underlying failure for diagnostics.
type DecodeError struct {
	Path string
	Last error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("could not decode %s with any supported encoding: %v", e.Path, e.Last)
}

func (e *DecodeError) Unwrap() error {
	return e.Last
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeAttempt is one step of the fallback chain. decode must return an
// error rather than substituting replacement characters; decoding is
// all-or-nothing per attempt.
type decodeAttempt struct {
	name   string
	decode func(data []byte) (string, error)
}

// attempts is the ordered fallback chain: UTF-8 with signature, plain
// UTF-8, Windows-1252, Latin-1, and a final ISO 8859-1 fallback. The last
// entry accepts every byte sequence, so in practice only a file that cannot
// be read at all fails outright.
var attempts = []decodeAttempt{
	{"utf-8-sig", func(data []byte) (string, error) {
		trimmed := bytes.TrimPrefix(data, utf8BOM)
		if !utf8.Valid(trimmed) {
			return "", fmt.Errorf("invalid UTF-8 sequence")
		}
		return string(trimmed), nil
	}},
	{"utf-8", func(data []byte) (string, error) {
		if !utf8.Valid(data) {
			return "", fmt.Errorf("invalid UTF-8 sequence")
		}
		return string(data), nil
	}},
	{"windows-1252", charmapDecoder(charmap.Windows1252)},
	{"latin-1", charmapDecoder(charmap.ISO8859_1)},
	{"iso-8859-1", charmapDecoder(charmap.ISO8859_1)},
}

// charmapDecoder adapts a single-byte character map into a decodeAttempt
// function. Bytes with no mapping (Windows-1252 leaves five code points
// undefined) decode to U+FFFD, which is treated as a decode failure so the
// chain can fall through to the next encoding.
func charmapDecoder(cm *charmap.Charmap) func(data []byte) (string, error) {
	return func(data []byte) (string, error) {
		decoded, _, err := transform.Bytes(cm.NewDecoder(), data)
		if err != nil {
			return "", err
		}
		if bytes.ContainsRune(decoded, utf8.RuneError) {
			return "", fmt.Errorf("byte with no mapping in %s", cm.String())
		}
		return string(decoded), nil
	}
}

// ReadRows reads a tabular export and returns its rows as cell strings,
// trying each encoding in the fallback chain in order. Returns a
// *DecodeError only when every encoding fails.
func ReadRows(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var text string
	var lastErr error
	decoded := false
	for _, attempt := range attempts {
		text, lastErr = attempt.decode(data)
		if lastErr == nil {
			decoded = true
			break
		}
	}
	if !decoded {
		return nil, &DecodeError{Path: path, Last: lastErr}
	}

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return rows, nil
}
