// Package split partitions a dataset table into disjoint train and test
// subsets with stratified random sampling on the response column.
package split

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"creditstudy/internal/dataset"
	apperrors "creditstudy/internal/errors"
)

// Split is a pair of disjoint tables whose union, as a set of records,
// equals the source table. Immutable once created.
type Split struct {
	Train *dataset.Table
	Test  *dataset.Table

	// Source row indices of each partition, ascending. Kept for the
	// determinism checks in tests and the run manifest.
	TrainIndices []int
	TestIndices  []int
}

// Splitter performs seeded stratified sampling
type Splitter struct {
	logger *slog.Logger
}

// NewSplitter creates a splitter
func NewSplitter(logger *slog.Logger) *Splitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Splitter{logger: logger}
}

// Stratified partitions the table so that round(p·|stratum|) records of each
// response class land in the train subset. Deterministic for a fixed seed:
// identical source and seed produce identical partitions. Fails with an
// invalid-argument error when p is outside (0,1) or any class has fewer than
// two records.
func (s *Splitter) Stratified(ctx context.Context, table *dataset.Table, responseColumn string, trainProportion float64, seed int64) (*Split, error) {
	if trainProportion <= 0 || trainProportion >= 1 {
		return nil, apperrors.NewInvalidArgumentError(
			fmt.Sprintf("train proportion %.3f outside (0,1)", trainProportion), nil)
	}

	respIdx, err := table.ColumnIndex(responseColumn)
	if err != nil {
		return nil, err
	}

	// group source row indices by class, in row order
	strata := make(map[string][]int)
	for i := 0; i < table.NumRows(); i++ {
		class := table.Cell(i, respIdx)
		strata[class] = append(strata[class], i)
	}

	classes := make([]string, 0, len(strata))
	for class := range strata {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	for _, class := range classes {
		if len(strata[class]) < 2 {
			return nil, apperrors.NewInvalidArgumentError(
				fmt.Sprintf("class %q has %d record(s), too few to stratify", class, len(strata[class])), nil)
		}
	}

	rng := rand.New(rand.NewSource(seed))
	var trainIdx, testIdx []int

	// classes iterated in sorted order so the rng stream is reproducible
	for _, class := range classes {
		stratum := append([]int(nil), strata[class]...)
		rng.Shuffle(len(stratum), func(a, b int) {
			stratum[a], stratum[b] = stratum[b], stratum[a]
		})

		nTrain := int(math.Round(trainProportion * float64(len(stratum))))
		// both halves keep at least one record per class
		if nTrain < 1 {
			nTrain = 1
		}
		if nTrain > len(stratum)-1 {
			nTrain = len(stratum) - 1
		}

		trainIdx = append(trainIdx, stratum[:nTrain]...)
		testIdx = append(testIdx, stratum[nTrain:]...)
	}

	sort.Ints(trainIdx)
	sort.Ints(testIdx)

	train, err := table.Select(trainIdx)
	if err != nil {
		return nil, err
	}
	test, err := table.Select(testIdx)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "stratified split complete",
		slog.Int("source", table.NumRows()),
		slog.Int("train", train.NumRows()),
		slog.Int("test", test.NumRows()),
		slog.Float64("train_proportion", trainProportion),
		slog.Int64("seed", seed))

	return &Split{
		Train:        train,
		Test:         test,
		TrainIndices: trainIdx,
		TestIndices:  testIdx,
	}, nil
}
