// Package matrix turns generated markdown into downloadable artifacts and
// runs the upload-to-matrix pipeline.
package matrix

import (
	"errors"
	"strings"
)

// ErrConversionUnavailable means the markdown holds no table that could be
// turned into a spreadsheet. Callers fall back to the markdown download.
var ErrConversionUnavailable = errors.New("matrix: no markdown table to convert")

// Table is a parsed markdown table. Rows may have a different number of
// cells than Header; nothing is padded or realigned.
type Table struct {
	Header []string
	Rows   [][]string
}

// ParseTable collects every pipe-containing line of md, drops separator
// lines and splits the rest into cells. The first surviving line is the
// header. Fewer than two table lines is ErrConversionUnavailable.
//
// A literal "|" inside a cell is treated as a delimiter, which shifts the
// rest of that row.
func ParseTable(md string) (Table, error) {
	var lines [][]string
	for _, ln := range strings.Split(md, "\n") {
		if !strings.Contains(ln, "|") {
			continue
		}
		if isSeparator(ln) {
			continue
		}
		lines = append(lines, splitRow(ln))
	}
	if len(lines) < 2 {
		return Table{}, ErrConversionUnavailable
	}
	return Table{Header: lines[0], Rows: lines[1:]}, nil
}

// isSeparator reports whether ln consists only of pipes, dashes, colons
// and spaces, with at least one dash.
func isSeparator(ln string) bool {
	ln = strings.TrimSpace(ln)
	if !strings.Contains(ln, "-") {
		return false
	}
	for _, r := range ln {
		switch r {
		case '|', '-', ':', ' ', '\t':
		default:
			return false
		}
	}
	return true
}

func splitRow(ln string) []string {
	parts := strings.Split(strings.TrimSpace(ln), "|")
	if len(parts) > 0 && strings.TrimSpace(parts[0]) == "" {
		parts = parts[1:]
	}
	if n := len(parts); n > 0 && strings.TrimSpace(parts[n-1]) == "" {
		parts = parts[:n-1]
	}
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}
