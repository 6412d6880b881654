package dataset

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strings"

	apperrors "creditstudy/internal/errors"
)

// LoadOptions configures how a delimited file is read into a Table
type LoadOptions struct {
	Delimiter     rune   // field separator, ',' if zero
	MissingMarker string // file sentinel for absent values, normalized to Missing
	Columns       int    // required field count per record
	ColumnPrefix  string // positional column names, "A" if empty (A1..An)
}

// Load reads a headerless delimited file into a Table with deterministic
// positional column names. It fails with an IO error when the file is absent
// and a parsing error when any record has the wrong field count. All columns
// start out Nominal; use ConvertNumeric for the numeric-conversion contract.
func Load(path string, opts LoadOptions) (*Table, error) {
	if opts.Columns <= 0 {
		return nil, apperrors.NewInvalidArgumentError("load options require a positive column count", nil)
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	if opts.ColumnPrefix == "" {
		opts.ColumnPrefix = "A"
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewIOError(fmt.Sprintf("open dataset %s", path), err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = opts.Delimiter
	reader.FieldsPerRecord = opts.Columns

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("read dataset %s", path), err)
	}
	if len(records) == 0 {
		return nil, apperrors.NewParsingError(fmt.Sprintf("dataset %s contains no records", path), nil)
	}

	columns := make([]string, opts.Columns)
	for i := range columns {
		columns[i] = fmt.Sprintf("%s%d", opts.ColumnPrefix, i+1)
	}

	normalized := 0
	for _, row := range records {
		for j, cell := range row {
			cell = strings.TrimSpace(cell)
			if cell == opts.MissingMarker {
				cell = Missing
				normalized++
			}
			row[j] = cell
		}
	}

	table, err := NewTable(columns, records)
	if err != nil {
		return nil, err
	}

	slog.Debug("loaded dataset",
		slog.String("path", path),
		slog.Int("records", table.NumRows()),
		slog.Int("columns", table.NumColumns()),
		slog.Int("missing_cells", normalized))

	return table, nil
}
