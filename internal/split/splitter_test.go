package split

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditstudy/internal/dataset"
	apperrors "creditstudy/internal/errors"
)

// syntheticTable builds a two-class table with the given class sizes
func syntheticTable(t *testing.T, positives, negatives int) *dataset.Table {
	t.Helper()
	var rows [][]string
	for i := 0; i < positives; i++ {
		rows = append(rows, []string{fmt.Sprintf("p%d", i), "+"})
	}
	for i := 0; i < negatives; i++ {
		rows = append(rows, []string{fmt.Sprintf("n%d", i), "-"})
	}
	table, err := dataset.NewTable([]string{"A1", "A16"}, rows)
	require.NoError(t, err)
	return table
}

func classProportion(t *testing.T, table *dataset.Table, class string) float64 {
	t.Helper()
	counts, err := table.ClassCounts("A16")
	require.NoError(t, err)
	return float64(counts[class]) / float64(table.NumRows())
}

func TestStratified_DisjointUnion(t *testing.T) {
	table := syntheticTable(t, 60, 40)

	s, err := NewSplitter(nil).Stratified(context.Background(), table, "A16", 0.8, 42)
	require.NoError(t, err)

	assert.Equal(t, table.NumRows(), s.Train.NumRows()+s.Test.NumRows())

	seen := make(map[int]int)
	for _, idx := range s.TrainIndices {
		seen[idx]++
	}
	for _, idx := range s.TestIndices {
		seen[idx]++
	}
	require.Len(t, seen, table.NumRows())
	for idx, count := range seen {
		assert.Equal(t, 1, count, "row %d assigned %d times", idx, count)
	}
}

func TestStratified_ProportionPreserved(t *testing.T) {
	table := syntheticTable(t, 307, 383) // credit screening class balance

	s, err := NewSplitter(nil).Stratified(context.Background(), table, "A16", 0.8, 42)
	require.NoError(t, err)

	source := classProportion(t, table, "+")
	assert.InDelta(t, source, classProportion(t, s.Train, "+"), 0.05)
	assert.InDelta(t, source, classProportion(t, s.Test, "+"), 0.05)

	// 80/20 of 690 records
	assert.InDelta(t, 552, s.Train.NumRows(), 1)
	assert.InDelta(t, 138, s.Test.NumRows(), 1)
}

func TestStratified_Deterministic(t *testing.T) {
	table := syntheticTable(t, 30, 50)
	splitter := NewSplitter(nil)

	a, err := splitter.Stratified(context.Background(), table, "A16", 0.8, 7)
	require.NoError(t, err)
	b, err := splitter.Stratified(context.Background(), table, "A16", 0.8, 7)
	require.NoError(t, err)

	assert.Equal(t, a.TrainIndices, b.TrainIndices)
	assert.Equal(t, a.TestIndices, b.TestIndices)

	c, err := splitter.Stratified(context.Background(), table, "A16", 0.8, 8)
	require.NoError(t, err)
	assert.NotEqual(t, a.TrainIndices, c.TrainIndices)
}

func TestStratified_InvalidProportion(t *testing.T) {
	table := syntheticTable(t, 10, 10)
	splitter := NewSplitter(nil)

	for _, p := range []float64{0, 1, -0.2, 1.5} {
		t.Run(fmt.Sprintf("p=%v", p), func(t *testing.T) {
			_, err := splitter.Stratified(context.Background(), table, "A16", p, 1)
			require.Error(t, err)
			assert.True(t, apperrors.IsInvalidArgument(err))
		})
	}
}

func TestStratified_DegenerateClass(t *testing.T) {
	table := syntheticTable(t, 1, 20)

	_, err := NewSplitter(nil).Stratified(context.Background(), table, "A16", 0.8, 1)
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidArgument(err))
}

func TestStratified_SmallStratumKeepsBothSides(t *testing.T) {
	table := syntheticTable(t, 2, 50)

	s, err := NewSplitter(nil).Stratified(context.Background(), table, "A16", 0.9, 3)
	require.NoError(t, err)

	trainCounts, err := s.Train.ClassCounts("A16")
	require.NoError(t, err)
	testCounts, err := s.Test.ClassCounts("A16")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, trainCounts["+"], 1)
	assert.GreaterOrEqual(t, testCounts["+"], 1)
}
