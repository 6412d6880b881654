package dataset

import (
	"fmt"
	"math"
	"strconv"

	apperrors "creditstudy/internal/errors"
)

// ConvertNumeric returns a copy of the table with the named columns marked
// Numeric. Non-missing values that do not parse as floats become missing; the
// returned map reports how many cells each column lost that way. This is the
// loader's post-load normalization contract: the credit screening file stores
// two lexically numeric columns (A2, A14) as text.
func (t *Table) ConvertNumeric(columns []string) (*Table, map[string]int, error) {
	out := &Table{
		columns: append([]string(nil), t.columns...),
		kinds:   append([]ColumnKind(nil), t.kinds...),
		rows:    make([][]string, len(t.rows)),
	}
	for i, row := range t.rows {
		out.rows[i] = append([]string(nil), row...)
	}

	lost := make(map[string]int)
	for _, col := range columns {
		idx, err := out.ColumnIndex(col)
		if err != nil {
			return nil, nil, err
		}
		out.kinds[idx] = Numeric
		for i := range out.rows {
			cell := out.rows[i][idx]
			if cell == Missing {
				continue
			}
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				out.rows[i][idx] = Missing
				lost[col]++
			}
		}
	}
	return out, lost, nil
}

// Feature describes one encoded predictor column
type Feature struct {
	Name   string
	Kind   ColumnKind
	Levels []string // sorted category labels for nominal features, nil for numeric
}

// Matrix is the model-ready encoding of a Table: predictors as float64 with
// NaN for missing cells, nominal columns label-encoded against sorted levels,
// and the response kept as string labels.
type Matrix struct {
	Features []Feature
	X        [][]float64
	Labels   []string
}

// Encoder maps tables sharing one schema onto a fixed feature space. Build
// it once from the source table so that train and test splits — and any
// imputed variant — encode nominal levels identically.
type Encoder struct {
	features       []Feature
	featureColumns []string
	responseColumn string
}

// NewEncoder derives the feature space from a table: every column except the
// response becomes a predictor, nominal levels captured in sorted order.
func NewEncoder(t *Table, responseColumn string) (*Encoder, error) {
	respIdx, err := t.ColumnIndex(responseColumn)
	if err != nil {
		return nil, err
	}

	e := &Encoder{responseColumn: responseColumn}
	for i, col := range t.columns {
		if i == respIdx {
			continue
		}
		f := Feature{Name: col, Kind: t.kinds[i]}
		if f.Kind == Nominal {
			levels, err := t.Levels(col)
			if err != nil {
				return nil, err
			}
			f.Levels = levels
		}
		e.features = append(e.features, f)
		e.featureColumns = append(e.featureColumns, col)
	}
	return e, nil
}

// Features returns the encoder's predictor descriptors
func (e *Encoder) Features() []Feature {
	return append([]Feature(nil), e.features...)
}

// Encode turns a table into a Matrix over the encoder's feature space.
// Records with a missing response are rejected: the study's response column
// is always observed, so a missing label indicates corrupted input rather
// than ordinary missingness.
func (e *Encoder) Encode(t *Table) (*Matrix, error) {
	respIdx, err := t.ColumnIndex(e.responseColumn)
	if err != nil {
		return nil, err
	}
	featureIdx := make([]int, len(e.featureColumns))
	for j, col := range e.featureColumns {
		if featureIdx[j], err = t.ColumnIndex(col); err != nil {
			return nil, err
		}
	}

	m := &Matrix{
		Features: e.Features(),
		X:        make([][]float64, len(t.rows)),
		Labels:   make([]string, len(t.rows)),
	}

	for r, row := range t.rows {
		label := row[respIdx]
		if label == Missing {
			return nil, apperrors.NewParsingError(fmt.Sprintf("record %d has a missing response", r), nil)
		}
		m.Labels[r] = label

		vec := make([]float64, len(e.features))
		for j, f := range e.features {
			vec[j], err = encodeCell(row[featureIdx[j]], f)
			if err != nil {
				return nil, err
			}
		}
		m.X[r] = vec
	}
	return m, nil
}

// Encode builds a Matrix with the feature space derived from the table
// itself. Shorthand for NewEncoder followed by Encode on the same table.
func Encode(t *Table, responseColumn string) (*Matrix, error) {
	e, err := NewEncoder(t, responseColumn)
	if err != nil {
		return nil, err
	}
	return e.Encode(t)
}

// encodeCell maps one cell to its float encoding, NaN when missing
func encodeCell(cell string, f Feature) (float64, error) {
	if cell == Missing {
		return math.NaN(), nil
	}
	if f.Kind == Numeric {
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return 0, apperrors.NewParsingError(fmt.Sprintf("column %s: non-numeric cell %q", f.Name, cell), err)
		}
		return v, nil
	}
	for k, level := range f.Levels {
		if level == cell {
			return float64(k), nil
		}
	}
	return 0, apperrors.NewParsingError(fmt.Sprintf("column %s: unknown level %q", f.Name, cell), nil)
}

// DecodeCell maps a float encoding back to the cell representation used by
// Table. Nominal codes are rounded to the nearest level; out-of-range codes
// clamp to the extremes. NaN decodes to the missing marker.
func DecodeCell(v float64, f Feature) string {
	if math.IsNaN(v) {
		return Missing
	}
	if f.Kind == Numeric {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	k := int(math.Round(v))
	if k < 0 {
		k = 0
	}
	if k >= len(f.Levels) {
		k = len(f.Levels) - 1
	}
	if k < 0 {
		return Missing
	}
	return f.Levels[k]
}

// NumFeatures returns the number of predictor columns in the matrix
func (m *Matrix) NumFeatures() int {
	return len(m.Features)
}

// NumRows returns the number of records in the matrix
func (m *Matrix) NumRows() int {
	return len(m.X)
}

// MissingCells counts NaN cells across the predictor matrix
func (m *Matrix) MissingCells() int {
	n := 0
	for _, row := range m.X {
		for _, v := range row {
			if math.IsNaN(v) {
				n++
			}
		}
	}
	return n
}
