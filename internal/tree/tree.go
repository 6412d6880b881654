// Package tree implements an unpruned CART-style decision-tree classifier
// over encoded dataset matrices.
//
// Splits minimize Gini impurity. Nominal features use equality splits against
// a single level code; numeric features use threshold splits. No
// cost-complexity pruning is applied: the study compares two trees in raw
// form, so both are grown with the same stopping rules only. Ties between
// candidate splits go to the earliest column in schema order, which keeps
// fitting fully deterministic.
//
// Missing predictor values are handled on both sides of the contract: during
// fitting, rows with a missing candidate value are routed to whichever child
// yields the larger impurity reduction; at inference, a missing value follows
// the default branch, defined as the child that received the majority of
// training records.
package tree

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"creditstudy/internal/dataset"
	apperrors "creditstudy/internal/errors"
)

// Option is a functional configuration for a Classifier
type Option func(*Classifier)

// WithMaxDepth limits tree depth (root depth = 0). 0 means no limit.
func WithMaxDepth(d int) Option { return func(c *Classifier) { c.maxDepth = d } }

// WithMinSamplesSplit sets the minimum record count to attempt a split
func WithMinSamplesSplit(n int) Option { return func(c *Classifier) { c.minSamplesSplit = n } }

// WithMinSamplesLeaf sets the minimum record count required in each child
func WithMinSamplesLeaf(n int) Option { return func(c *Classifier) { c.minSamplesLeaf = n } }

// WithMaxFeatures samples this many candidate features per split. 0 means
// all features. Used by the imputation forest, not the study classifiers.
func WithMaxFeatures(k int) Option { return func(c *Classifier) { c.maxFeatures = k } }

// WithSeed seeds the feature-subsampling stream
func WithSeed(seed int64) Option { return func(c *Classifier) { c.seed = seed } }

// Classifier is a trained decision tree bound to one training matrix.
// Immutable once fitted; Fit may be called exactly once.
type Classifier struct {
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int
	seed            int64

	features   []dataset.Feature
	classes    []string  // sorted label set
	root       *node
	importance []float64 // raw accumulated impurity decrease per feature
	numLeaves  int
	fitted     bool
}

// node is one tree node. Internal nodes carry the split; leaves carry the
// class distribution of their training records.
type node struct {
	feature     int
	threshold   float64
	isCat       bool
	defaultLeft bool // majority-path child for missing values at inference
	left        *node
	right       *node

	leaf   bool
	leafID int
	n      int
	counts []int
	pred   int // index into classes
}

// New creates an untrained classifier with the study defaults: unlimited
// depth, split nodes of at least 20 records, leaves of at least 7.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		minSamplesSplit: 20,
		minSamplesLeaf:  7,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Classes returns the sorted label set seen during fitting
func (c *Classifier) Classes() []string {
	return append([]string(nil), c.classes...)
}

// NumLeaves returns the number of terminal nodes
func (c *Classifier) NumLeaves() int {
	return c.numLeaves
}

// Fit grows the tree on the full matrix
func (c *Classifier) Fit(ctx context.Context, m *dataset.Matrix) error {
	idx := make([]int, m.NumRows())
	for i := range idx {
		idx[i] = i
	}
	return c.FitSubset(ctx, m, idx)
}

// FitSubset grows the tree on the given rows of the matrix. The imputation
// forest uses this entry point with bootstrap samples.
func (c *Classifier) FitSubset(ctx context.Context, m *dataset.Matrix, indices []int) error {
	if c.fitted {
		return apperrors.NewInvalidArgumentError("classifier is already fitted", nil)
	}
	if len(indices) == 0 {
		return apperrors.NewInvalidArgumentError("cannot fit on an empty sample", nil)
	}
	if m.NumFeatures() == 0 {
		return apperrors.NewInvalidArgumentError("matrix has no predictor columns", nil)
	}

	c.features = m.Features
	c.importance = make([]float64, len(m.Features))

	classSet := make(map[string]struct{})
	for _, i := range indices {
		classSet[m.Labels[i]] = struct{}{}
	}
	c.classes = make([]string, 0, len(classSet))
	for class := range classSet {
		c.classes = append(c.classes, class)
	}
	sort.Strings(c.classes)

	rng := rand.New(rand.NewSource(c.seed))
	c.root = c.grow(m, indices, 0, len(indices), rng)
	c.fitted = true

	// normalize importance to percentages over used predictors
	total := 0.0
	for _, v := range c.importance {
		total += v
	}
	if total > 0 {
		for i := range c.importance {
			c.importance[i] = 100 * c.importance[i] / total
		}
	}

	slog.DebugContext(ctx, "decision tree fitted",
		slog.Int("records", len(indices)),
		slog.Int("features", len(c.features)),
		slog.Int("classes", len(c.classes)),
		slog.Int("leaves", c.numLeaves))

	return nil
}

// Predict classifies a single encoded record
func (c *Classifier) Predict(x []float64) (string, error) {
	if !c.fitted {
		return "", apperrors.NewInvalidArgumentError("classifier is not fitted", nil)
	}
	nd := c.root
	for !nd.leaf {
		v := x[nd.feature]
		switch {
		case math.IsNaN(v):
			if nd.defaultLeft {
				nd = nd.left
			} else {
				nd = nd.right
			}
		case nd.isCat:
			if v == nd.threshold {
				nd = nd.left
			} else {
				nd = nd.right
			}
		default:
			if v <= nd.threshold {
				nd = nd.left
			} else {
				nd = nd.right
			}
		}
	}
	return c.classes[nd.pred], nil
}

// PredictAll classifies every record in the matrix
func (c *Classifier) PredictAll(m *dataset.Matrix) ([]string, error) {
	out := make([]string, m.NumRows())
	for i, x := range m.X {
		pred, err := c.Predict(x)
		if err != nil {
			return nil, err
		}
		out[i] = pred
	}
	return out, nil
}

// Leaf returns the terminal node ID the record lands in. IDs are stable for
// a fitted tree and dense in [0, NumLeaves). Used for forest proximity.
func (c *Classifier) Leaf(x []float64) int {
	nd := c.root
	for !nd.leaf {
		v := x[nd.feature]
		switch {
		case math.IsNaN(v):
			if nd.defaultLeft {
				nd = nd.left
			} else {
				nd = nd.right
			}
		case nd.isCat:
			if v == nd.threshold {
				nd = nd.left
			} else {
				nd = nd.right
			}
		default:
			if v <= nd.threshold {
				nd = nd.left
			} else {
				nd = nd.right
			}
		}
	}
	return nd.leafID
}

// Importance is the relative contribution of one predictor to the tree's
// total impurity reduction
type Importance struct {
	Feature string
	Percent float64
}

// Importances returns per-predictor importance percentages for predictors
// the tree actually split on, descending, summing to 100.
func (c *Classifier) Importances() []Importance {
	var out []Importance
	for i, v := range c.importance {
		if v > 0 {
			out = append(out, Importance{Feature: c.features[i].Name, Percent: v})
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Percent != out[b].Percent {
			return out[a].Percent > out[b].Percent
		}
		return out[a].Feature < out[b].Feature
	})
	return out
}

// grow recursively builds the tree below one sample of rows
func (c *Classifier) grow(m *dataset.Matrix, idx []int, depth, nTotal int, rng *rand.Rand) *node {
	counts := c.countClasses(m, idx)

	nd := &node{n: len(idx)}
	makeLeaf := func() *node {
		nd.leaf = true
		nd.leafID = c.numLeaves
		nd.counts = counts
		nd.pred = argmax(counts)
		c.numLeaves++
		return nd
	}

	if isPure(counts) || len(idx) < c.minSamplesSplit {
		return makeLeaf()
	}
	if c.maxDepth > 0 && depth >= c.maxDepth {
		return makeLeaf()
	}

	best := c.findBestSplit(m, idx, counts, rng)
	if best.feature < 0 {
		return makeLeaf()
	}

	c.importance[best.feature] += float64(len(idx)) / float64(nTotal) * best.gain

	nd.feature = best.feature
	nd.threshold = best.threshold
	nd.isCat = best.isCat
	nd.left = c.grow(m, best.leftIdx, depth+1, nTotal, rng)
	nd.right = c.grow(m, best.rightIdx, depth+1, nTotal, rng)
	nd.defaultLeft = nd.left.n >= nd.right.n
	return nd
}

// splitCandidate holds the best split found for the current node
type splitCandidate struct {
	gain      float64
	feature   int
	threshold float64
	isCat     bool
	leftIdx   []int
	rightIdx  []int
}

// findBestSplit scans candidate features in schema order. Strict gain
// comparison means equal-gain ties resolve to the earliest column.
func (c *Classifier) findBestSplit(m *dataset.Matrix, idx []int, counts []int, rng *rand.Rand) splitCandidate {
	parent := gini(counts)
	best := splitCandidate{feature: -1}

	candidates := c.candidateFeatures(rng)
	for _, f := range candidates {
		c.scanFeature(m, idx, f, parent, &best)
	}
	return best
}

// candidateFeatures returns the feature indices to consider, ascending.
// With maxFeatures set, a random subset is drawn but re-sorted so the
// first-column tie-break still applies within the subset.
func (c *Classifier) candidateFeatures(rng *rand.Rand) []int {
	p := len(c.features)
	all := make([]int, p)
	for i := range all {
		all[i] = i
	}
	if c.maxFeatures <= 0 || c.maxFeatures >= p {
		return all
	}
	rng.Shuffle(p, func(a, b int) { all[a], all[b] = all[b], all[a] })
	subset := append([]int(nil), all[:c.maxFeatures]...)
	sort.Ints(subset)
	return subset
}

// valueIndex pairs a feature value with its row index
type valueIndex struct {
	v float64
	i int
}

// scanFeature evaluates every candidate split on one feature, updating best
// in place. Rows missing the feature are tried on both children and kept on
// whichever side yields the larger gain.
func (c *Classifier) scanFeature(m *dataset.Matrix, idx []int, f int, parent float64, best *splitCandidate) {
	var observed []valueIndex
	var missing []int
	for _, i := range idx {
		v := m.X[i][f]
		if math.IsNaN(v) {
			missing = append(missing, i)
		} else {
			observed = append(observed, valueIndex{v, i})
		}
	}
	if len(observed) < 2 {
		return
	}

	if c.features[f].Kind == dataset.Nominal {
		levels := uniqueValues(observed)
		for _, level := range levels {
			var left, right []int
			for _, vi := range observed {
				if vi.v == level {
					left = append(left, vi.i)
				} else {
					right = append(right, vi.i)
				}
			}
			c.trySplit(m, idx, f, level, true, left, right, missing, parent, best)
		}
		return
	}

	sort.Slice(observed, func(a, b int) bool { return observed[a].v < observed[b].v })
	for s := 1; s < len(observed); s++ {
		if observed[s].v == observed[s-1].v {
			continue
		}
		thr := (observed[s-1].v + observed[s].v) / 2
		left := rowIndices(observed[:s])
		right := rowIndices(observed[s:])
		c.trySplit(m, idx, f, thr, false, left, right, missing, parent, best)
	}
}

// trySplit evaluates one (feature, threshold) split with the missing rows on
// each side in turn
func (c *Classifier) trySplit(m *dataset.Matrix, idx []int, f int, threshold float64, isCat bool, left, right, missing []int, parent float64, best *splitCandidate) {
	arrangements := [][2][]int{
		{appendRows(left, missing), append([]int(nil), right...)},
	}
	if len(missing) > 0 {
		arrangements = append(arrangements,
			[2][]int{append([]int(nil), left...), appendRows(right, missing)})
	}

	for _, arr := range arrangements {
		l, r := arr[0], arr[1]
		if len(l) < c.minSamplesLeaf || len(r) < c.minSamplesLeaf {
			continue
		}
		lc := c.countClasses(m, l)
		rc := c.countClasses(m, r)
		weighted := float64(len(l))/float64(len(idx))*gini(lc) +
			float64(len(r))/float64(len(idx))*gini(rc)
		gain := parent - weighted
		if gain > best.gain {
			*best = splitCandidate{
				gain:      gain,
				feature:   f,
				threshold: threshold,
				isCat:     isCat,
				leftIdx:   l,
				rightIdx:  r,
			}
		}
	}
}

// countClasses tallies class membership for the given rows
func (c *Classifier) countClasses(m *dataset.Matrix, idx []int) []int {
	counts := make([]int, len(c.classes))
	for _, i := range idx {
		counts[c.classIndex(m.Labels[i])]++
	}
	return counts
}

// classIndex returns the position of the label in the sorted class set
func (c *Classifier) classIndex(label string) int {
	for i, cl := range c.classes {
		if cl == label {
			return i
		}
	}
	return 0
}

func appendRows(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

func rowIndices(vis []valueIndex) []int {
	out := make([]int, len(vis))
	for i, vi := range vis {
		out[i] = vi.i
	}
	return out
}

func uniqueValues(vis []valueIndex) []float64 {
	seen := make(map[float64]struct{})
	var out []float64
	for _, vi := range vis {
		if _, ok := seen[vi.v]; !ok {
			seen[vi.v] = struct{}{}
			out = append(out, vi.v)
		}
	}
	sort.Float64s(out)
	return out
}

func gini(counts []int) float64 {
	n := 0.0
	for _, c := range counts {
		n += float64(c)
	}
	if n == 0 {
		return 0
	}
	res := 0.0
	for _, c := range counts {
		p := float64(c) / n
		res += p * (1 - p)
	}
	return res
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func argmax(counts []int) int {
	best := 0
	for i := 1; i < len(counts); i++ {
		if counts[i] > counts[best] {
			best = i
		}
	}
	return best
}
