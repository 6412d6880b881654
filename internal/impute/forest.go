package impute

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"creditstudy/internal/dataset"
	"creditstudy/internal/tree"
)

// forest is a proximity forest for one target column. Trees are grown on
// bootstrap samples of the rows where the target is observed; proximity
// between a missing record and a donor is the number of trees in which the
// two land in the same terminal node.
type forest struct {
	trees    []*tree.Classifier
	buckets  []map[int][]int // per tree: leaf ID -> observed rows
	observed []int
	rowPos   map[int]int // observed row -> position in observed
}

// growForest builds the donor forest for one target column. The forest's
// feature space is every workspace column except the target; its training
// labels are the target's observed values, numeric targets discretized into
// equal-frequency bins so the trees group rows with similar target values.
func (imp *Imputer) growForest(ctx context.Context, work *workspace, col int, observedRows []int, rng *rand.Rand) (*forest, error) {
	features := make([]dataset.Feature, 0, len(work.features)-1)
	for c, f := range work.features {
		if c != col {
			features = append(features, f)
		}
	}

	labels := targetLabels(work, col)

	m := &dataset.Matrix{
		Features: features,
		X:        make([][]float64, len(work.x)),
		Labels:   labels,
	}
	for r := range work.x {
		m.X[r] = work.featureVector(r, col)
	}

	maxFeatures := int(math.Ceil(math.Sqrt(float64(len(features)))))

	f := &forest{
		observed: observedRows,
		rowPos:   make(map[int]int, len(observedRows)),
	}
	for pos, row := range observedRows {
		f.rowPos[row] = pos
	}

	for i := 0; i < imp.params.Trees; i++ {
		sample := make([]int, len(observedRows))
		for j := range sample {
			sample[j] = observedRows[rng.Intn(len(observedRows))]
		}

		t := tree.New(
			tree.WithMinSamplesSplit(5),
			tree.WithMinSamplesLeaf(2),
			tree.WithMaxFeatures(maxFeatures),
			tree.WithSeed(rng.Int63()),
		)
		if err := t.FitSubset(ctx, m, sample); err != nil {
			return nil, fmt.Errorf("grow tree %d for column %s: %w", i, work.featureName(col), err)
		}

		bucket := make(map[int][]int)
		for _, row := range observedRows {
			leaf := t.Leaf(m.X[row])
			bucket[leaf] = append(bucket[leaf], row)
		}

		f.trees = append(f.trees, t)
		f.buckets = append(f.buckets, bucket)
	}
	return f, nil
}

// nearestDonors ranks observed rows by proximity to x and returns the top-k
// donor rows. Ties resolve to the lower row index, and rows that share no
// leaf with x pad the list in index order when fewer than k candidates score.
func (f *forest) nearestDonors(x []float64, k int) []int {
	counts := make([]int, len(f.observed))
	for ti, t := range f.trees {
		leaf := t.Leaf(x)
		for _, row := range f.buckets[ti][leaf] {
			counts[f.rowPos[row]]++
		}
	}

	order := make([]int, len(f.observed))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		if counts[order[a]] != counts[order[b]] {
			return counts[order[a]] > counts[order[b]]
		}
		return f.observed[order[a]] < f.observed[order[b]]
	})

	if k > len(order) {
		k = len(order)
	}
	donors := make([]int, k)
	for i := 0; i < k; i++ {
		donors[i] = f.observed[order[i]]
	}
	return donors
}

// targetLabels derives forest training labels from the target column.
// Nominal targets use their category labels directly; numeric targets are
// discretized into up to eight equal-frequency bins over the observed values.
// Rows with an unfilled target get a placeholder label that no bootstrap
// sample ever touches.
func targetLabels(work *workspace, col int) []string {
	f := work.features[col]
	labels := make([]string, len(work.x))

	if f.Kind == dataset.Nominal {
		for r := range work.x {
			v := work.x[r][col]
			if math.IsNaN(v) {
				labels[r] = "?"
				continue
			}
			labels[r] = dataset.DecodeCell(v, f)
		}
		return labels
	}

	var values []float64
	for r := range work.x {
		if v := work.x[r][col]; !math.IsNaN(v) {
			values = append(values, v)
		}
	}
	edges := binEdges(values, 8)

	for r := range work.x {
		v := work.x[r][col]
		if math.IsNaN(v) {
			labels[r] = "?"
			continue
		}
		labels[r] = fmt.Sprintf("bin%d", binIndex(v, edges))
	}
	return labels
}

// binEdges returns ascending cut points that partition the values into at
// most bins equal-frequency groups
func binEdges(values []float64, bins int) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var edges []float64
	for b := 1; b < bins; b++ {
		cut := sorted[b*len(sorted)/bins]
		if len(edges) == 0 || cut > edges[len(edges)-1] {
			edges = append(edges, cut)
		}
	}
	return edges
}

// binIndex returns the index of the bin containing v
func binIndex(v float64, edges []float64) int {
	return sort.SearchFloat64s(edges, v)
}
