package dataset

import (
	"fmt"
	"sort"

	apperrors "creditstudy/internal/errors"
)

// Missing is the canonical in-memory marker for an absent cell. The loader
// rewrites the file's sentinel (`?` in the credit screening data) to this
// value, so downstream code never sees the raw sentinel.
const Missing = ""

// ColumnKind describes how a column's values are interpreted when encoding
type ColumnKind int

const (
	// Nominal columns hold unordered category labels
	Nominal ColumnKind = iota
	// Numeric columns hold continuous values parsed as float64
	Numeric
)

// String returns the string representation of the kind
func (k ColumnKind) String() string {
	switch k {
	case Nominal:
		return "nominal"
	case Numeric:
		return "numeric"
	default:
		return "unknown"
	}
}

// Table is an ordered sequence of records sharing a fixed schema.
// Column order and naming are stable for the pipeline's lifetime.
// Mutating operations return a new Table; the receiver is never modified.
type Table struct {
	columns []string
	kinds   []ColumnKind
	rows    [][]string
}

// NewTable builds a Table from column names and rows. Every row must have
// exactly len(columns) cells. All columns start out Nominal.
func NewTable(columns []string, rows [][]string) (*Table, error) {
	if len(columns) == 0 {
		return nil, apperrors.NewInvalidArgumentError("table requires at least one column", nil)
	}
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if _, dup := seen[c]; dup {
			return nil, apperrors.NewInvalidArgumentError(fmt.Sprintf("duplicate column name %q", c), nil)
		}
		seen[c] = struct{}{}
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("row %d has %d fields, want %d", i, len(row), len(columns)), nil)
		}
	}

	t := &Table{
		columns: append([]string(nil), columns...),
		kinds:   make([]ColumnKind, len(columns)),
		rows:    make([][]string, len(rows)),
	}
	for i, row := range rows {
		t.rows[i] = append([]string(nil), row...)
	}
	return t, nil
}

// Columns returns the ordered column names
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Kind returns the kind of the named column
func (t *Table) Kind(column string) (ColumnKind, error) {
	idx, err := t.ColumnIndex(column)
	if err != nil {
		return Nominal, err
	}
	return t.kinds[idx], nil
}

// NumRows returns the number of records
func (t *Table) NumRows() int {
	return len(t.rows)
}

// NumColumns returns the number of columns
func (t *Table) NumColumns() int {
	return len(t.columns)
}

// ColumnIndex returns the position of the named column
func (t *Table) ColumnIndex(column string) (int, error) {
	for i, c := range t.columns {
		if c == column {
			return i, nil
		}
	}
	return -1, apperrors.NewInvalidArgumentError(fmt.Sprintf("unknown column %q", column), nil)
}

// Cell returns the value at (row, column index)
func (t *Table) Cell(row, col int) string {
	return t.rows[row][col]
}

// Value returns the value at (row, named column)
func (t *Table) Value(row int, column string) (string, error) {
	idx, err := t.ColumnIndex(column)
	if err != nil {
		return "", err
	}
	return t.rows[row][idx], nil
}

// Row returns a copy of one record's cells
func (t *Table) Row(row int) []string {
	return append([]string(nil), t.rows[row]...)
}

// IsMissing reports whether the cell at (row, col) holds the missing marker
func (t *Table) IsMissing(row, col int) bool {
	return t.rows[row][col] == Missing
}

// Column returns a copy of the named column's values in row order
func (t *Table) Column(column string) ([]string, error) {
	idx, err := t.ColumnIndex(column)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[idx]
	}
	return out, nil
}

// Select returns a new Table containing the given rows, in the given order.
// Row indices outside [0, NumRows) are an error.
func (t *Table) Select(indices []int) (*Table, error) {
	rows := make([][]string, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(t.rows) {
			return nil, apperrors.NewInvalidArgumentError(fmt.Sprintf("row index %d out of range", idx), nil)
		}
		rows[i] = append([]string(nil), t.rows[idx]...)
	}
	out := &Table{
		columns: append([]string(nil), t.columns...),
		kinds:   append([]ColumnKind(nil), t.kinds...),
		rows:    rows,
	}
	return out, nil
}

// WithRows returns a new Table with the receiver's schema and kinds but the
// given rows. Every row must match the schema's column count.
func (t *Table) WithRows(rows [][]string) (*Table, error) {
	out, err := NewTable(t.columns, rows)
	if err != nil {
		return nil, err
	}
	out.kinds = append([]ColumnKind(nil), t.kinds...)
	return out, nil
}

// CompleteCases returns the subset of records with no missing cell in any
// column, plus the number of records dropped.
func (t *Table) CompleteCases() (*Table, int) {
	var keep []int
	for i := range t.rows {
		complete := true
		for j := range t.columns {
			if t.IsMissing(i, j) {
				complete = false
				break
			}
		}
		if complete {
			keep = append(keep, i)
		}
	}
	out, _ := t.Select(keep)
	return out, len(t.rows) - len(keep)
}

// MissingCells returns the total number of missing cells in the table
func (t *Table) MissingCells() int {
	n := 0
	for i := range t.rows {
		for j := range t.columns {
			if t.IsMissing(i, j) {
				n++
			}
		}
	}
	return n
}

// ClassCounts tallies the distinct values of the named column.
// Missing cells are counted under the Missing marker like any other value.
func (t *Table) ClassCounts(column string) (map[string]int, error) {
	values, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, v := range values {
		counts[v]++
	}
	return counts, nil
}

// Levels returns the sorted distinct non-missing values of the named column
func (t *Table) Levels(column string) ([]string, error) {
	values, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var levels []string
	for _, v := range values {
		if v == Missing {
			continue
		}
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			levels = append(levels, v)
		}
	}
	sort.Strings(levels)
	return levels, nil
}
