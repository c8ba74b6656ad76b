// Package etl implements the normalization core: column resolution, field
// normalizers, conflict-resolving deduplication, and post-clean validation.
package etl

import "strings"

// Table is a parsed input file: one header row plus string cell rows, exactly
// as read. Empty or whitespace-only cells are treated as null downstream.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Cell returns the trimmed value at (row, col), or "" when the row is ragged
// and has no such column.
func (t *Table) Cell(row, col int) string {
	if col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][col])
}

// columnIndex returns the index of the named header, or -1.
func (t *Table) columnIndex(name string) int {
	for i, h := range t.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// isBlankRow reports whether every cell of the row is empty after trimming.
func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
