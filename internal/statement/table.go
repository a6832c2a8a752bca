package statement

import (
	"fmt"
	"strings"
)

// Table is an ordered tabular source: a header row of column labels plus
// data rows. Cells are raw strings exactly as extracted from the file.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Cell returns the value of the named column in the given data row, or ""
// when the column is unknown or the row is short.
func (t *Table) Cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	for i, c := range t.Columns {
		if c == column && i < len(row) {
			return row[i]
		}
	}
	return ""
}

// CleanColumns replaces blank, duplicate or placeholder column labels with
// unique _col_N names so role resolution always sees usable labels.
func CleanColumns(columns []string) []string {
	seen := make(map[string]bool, len(columns))
	out := make([]string, len(columns))
	for i, c := range columns {
		s := strings.TrimSpace(c)
		lower := strings.ToLower(s)
		if s == "" || lower == "nan" || lower == "none" || strings.HasPrefix(s, "Unnamed") || seen[lower] {
			s = fmt.Sprintf("_col_%d", i)
		}
		seen[strings.ToLower(s)] = true
		out[i] = s
	}
	return out
}

// NewTable builds a Table from a header row and data rows, sanitizing the
// column labels.
func NewTable(header []string, rows [][]string) *Table {
	return &Table{Columns: CleanColumns(header), Rows: rows}
}
