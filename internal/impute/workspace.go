package impute

import (
	"math"
	"sort"

	"creditstudy/internal/dataset"
)

// workspace holds the mutable imputation state: the encoded predictor matrix
// extended with the response as one more nominal feature, plus the mask of
// originally missing cells. Observed cells never change; donor values are
// always drawn from them.
type workspace struct {
	features []dataset.Feature // predictors + response, response last
	x        [][]float64
	mask     [][]bool // originally missing, predictor columns only

	source  *dataset.Table
	srcCols []int      // predictor index -> source column index
	imputed [][]string // donor source text for filled cells

	predictors   int // number of predictor columns (response excluded)
	missingByCol []int
	totalMissing int
}

// newWorkspace builds the working state from an encoded matrix
func newWorkspace(m *dataset.Matrix, table *dataset.Table, responseColumn string) *workspace {
	respLevels, _ := table.Levels(responseColumn)
	respIdx, _ := table.ColumnIndex(responseColumn)

	w := &workspace{
		features:     append(append([]dataset.Feature(nil), m.Features...), dataset.Feature{Name: responseColumn, Kind: dataset.Nominal, Levels: respLevels}),
		x:            make([][]float64, m.NumRows()),
		mask:         make([][]bool, m.NumRows()),
		source:       table,
		imputed:      make([][]string, m.NumRows()),
		predictors:   m.NumFeatures(),
		missingByCol: make([]int, m.NumFeatures()),
	}
	for c := 0; c < table.NumColumns(); c++ {
		if c != respIdx {
			w.srcCols = append(w.srcCols, c)
		}
	}

	for r, row := range m.X {
		vec := make([]float64, len(row)+1)
		copy(vec, row)
		vec[len(row)] = respCode(m.Labels[r], respLevels)

		w.mask[r] = make([]bool, len(row))
		w.imputed[r] = make([]string, len(row))
		for c, v := range row {
			if math.IsNaN(v) {
				w.mask[r][c] = true
				w.missingByCol[c]++
				w.totalMissing++
			}
		}
		w.x[r] = vec
	}
	return w
}

func respCode(label string, levels []string) float64 {
	for i, l := range levels {
		if l == label {
			return float64(i)
		}
	}
	return math.NaN()
}

// remaining counts predictor cells still unfilled
func (w *workspace) remaining() int {
	n := 0
	for _, row := range w.x {
		for c := 0; c < w.predictors; c++ {
			if math.IsNaN(row[c]) {
				n++
			}
		}
	}
	return n
}

// columnsByMissingCount returns predictor columns that still have unfilled
// cells, ascending by their original missing count, stable by index
func (w *workspace) columnsByMissingCount() []int {
	var cols []int
	for c := 0; c < w.predictors; c++ {
		if len(w.missingRows(c)) > 0 {
			cols = append(cols, c)
		}
	}
	sort.SliceStable(cols, func(a, b int) bool {
		return w.missingByCol[cols[a]] < w.missingByCol[cols[b]]
	})
	return cols
}

// missingRows returns rows whose cell in col is still unfilled
func (w *workspace) missingRows(col int) []int {
	var rows []int
	for r, row := range w.x {
		if math.IsNaN(row[col]) {
			rows = append(rows, r)
		}
	}
	return rows
}

// observedRows returns rows whose cell in col was observed in the source
func (w *workspace) observedRows(col int) []int {
	var rows []int
	for r := range w.x {
		if !w.mask[r][col] {
			rows = append(rows, r)
		}
	}
	return rows
}

// featureVector returns the row's cells with column col removed, matching
// the feature layout of the forest grown for col
func (w *workspace) featureVector(row, col int) []float64 {
	vec := make([]float64, 0, len(w.x[row])-1)
	for c, v := range w.x[row] {
		if c == col {
			continue
		}
		vec = append(vec, v)
	}
	return vec
}

// fill copies a donor's value into an imputed cell: the encoded value feeds
// later sweeps, the donor's source text the final table
func (w *workspace) fill(row, col, donor int) {
	w.x[row][col] = w.x[donor][col]
	w.imputed[row][col] = w.source.Cell(donor, w.srcCols[col])
}

// featureName returns the column's name
func (w *workspace) featureName(col int) string {
	return w.features[col].Name
}

// toTable rebuilds a dense Table in the source schema. Observed cells are
// copied verbatim from the source table; only originally-missing cells take
// the donor text recorded at fill time.
func (w *workspace) toTable() (*dataset.Table, error) {
	rows := make([][]string, len(w.x))
	for r := range w.x {
		row := w.source.Row(r)
		for fi, c := range w.srcCols {
			if w.mask[r][fi] {
				row[c] = w.imputed[r][fi]
			}
		}
		rows[r] = row
	}
	return w.source.WithRows(rows)
}
