package missingness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditstudy/internal/dataset"
)

const na = dataset.Missing

func buildTable(t *testing.T, rows [][]string) *dataset.Table {
	t.Helper()
	table, err := dataset.NewTable([]string{"A1", "A2", "A3", "A16"}, rows)
	require.NoError(t, err)
	return table
}

func TestProfile_PerColumn(t *testing.T) {
	table := buildTable(t, [][]string{
		{"b", "30", "u", "+"},
		{na, "22", "u", "-"},
		{na, na, "y", "-"},
		{"a", "41", "y", "+"},
	})

	profile, err := NewProfiler(nil).Profile(context.Background(), table, "A16")
	require.NoError(t, err)

	assert.Equal(t, 4, profile.TotalRecords)
	assert.Equal(t, 16, profile.TotalCells)
	assert.Equal(t, 3, profile.MissingCells)
	assert.InDelta(t, 18.75, profile.OverallPercent, 1e-9)

	require.Len(t, profile.Columns, 4)
	assert.Equal(t, ColumnStat{Column: "A1", MissingCount: 2, MissingPercent: 50}, profile.Columns[0])
	assert.Equal(t, ColumnStat{Column: "A2", MissingCount: 1, MissingPercent: 25}, profile.Columns[1])
	assert.Equal(t, ColumnStat{Column: "A3"}, profile.Columns[2])
	assert.Equal(t, ColumnStat{Column: "A16"}, profile.Columns[3])
}

func TestProfile_PerClass(t *testing.T) {
	table := buildTable(t, [][]string{
		{"b", "30", "u", "+"},
		{na, "22", "u", "-"},
		{na, na, "y", "-"},
		{"a", "41", "y", "+"},
	})

	profile, err := NewProfiler(nil).Profile(context.Background(), table, "A16")
	require.NoError(t, err)

	// classes sorted: "+", "-"; three predictor columns per class
	require.Len(t, profile.ByClass, 6)

	stats := make(map[string]ClassStat)
	for _, s := range profile.ByClass {
		stats[s.Class+"/"+s.Column] = s
	}

	assert.Equal(t, 0, stats["+/A1"].MissingCount)
	assert.Equal(t, 2, stats["-/A1"].MissingCount)
	assert.InDelta(t, 100, stats["-/A1"].MissingPercent, 1e-9)
	assert.InDelta(t, 50, stats["-/A2"].MissingPercent, 1e-9)
	assert.Zero(t, stats["+/A3"].MissingPercent)
}

func TestProfile_Patterns(t *testing.T) {
	table := buildTable(t, [][]string{
		{na, "30", "u", "+"},
		{na, "22", "u", "-"},
		{na, na, "y", "-"},
		{"a", "41", "y", "+"},
	})

	profile, err := NewProfiler(nil).Profile(context.Background(), table, "A16")
	require.NoError(t, err)

	// exact-match grouping: {A1}x2 and {A1,A2}x1; the fully observed
	// record contributes nothing
	require.Len(t, profile.Patterns, 2)
	assert.Equal(t, Pattern{Columns: []string{"A1"}, Count: 2}, profile.Patterns[0])
	assert.Equal(t, Pattern{Columns: []string{"A1", "A2"}, Count: 1}, profile.Patterns[1])
	assert.Equal(t, "A1+A2", profile.Patterns[1].Key())
}

func TestProfile_NoMissing(t *testing.T) {
	table := buildTable(t, [][]string{
		{"b", "30", "u", "+"},
		{"a", "22", "y", "-"},
	})

	profile, err := NewProfiler(nil).Profile(context.Background(), table, "A16")
	require.NoError(t, err)

	assert.Zero(t, profile.MissingCells)
	assert.Zero(t, profile.OverallPercent)
	assert.Empty(t, profile.Patterns)
}

func TestProfile_UnknownResponse(t *testing.T) {
	table := buildTable(t, [][]string{{"b", "30", "u", "+"}})

	_, err := NewProfiler(nil).Profile(context.Background(), table, "A99")
	assert.Error(t, err)
}
