package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTable(t *testing.T, columns []string, rows [][]string) *Table {
	t.Helper()
	table, err := NewTable(columns, rows)
	require.NoError(t, err)
	return table
}

func TestNewTable_Validation(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		rows    [][]string
		wantErr bool
	}{
		{
			name:    "valid",
			columns: []string{"A1", "A2"},
			rows:    [][]string{{"a", "1"}, {"b", "2"}},
		},
		{
			name:    "no columns",
			columns: nil,
			wantErr: true,
		},
		{
			name:    "duplicate column",
			columns: []string{"A1", "A1"},
			wantErr: true,
		},
		{
			name:    "ragged row",
			columns: []string{"A1", "A2"},
			rows:    [][]string{{"a"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(tt.columns, tt.rows)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTable_CompleteCases(t *testing.T) {
	table := mustTable(t,
		[]string{"A1", "A2", "A3"},
		[][]string{
			{"a", "1", "x"},
			{"b", Missing, "y"},
			{"c", "3", "z"},
			{Missing, Missing, "w"},
		})

	complete, dropped := table.CompleteCases()
	assert.Equal(t, 2, complete.NumRows())
	assert.Equal(t, 2, dropped)
	assert.Equal(t, 0, complete.MissingCells())

	// source table is untouched
	assert.Equal(t, 4, table.NumRows())
	assert.Equal(t, 3, table.MissingCells())
}

func TestTable_Select(t *testing.T) {
	table := mustTable(t,
		[]string{"A1", "A2"},
		[][]string{{"a", "1"}, {"b", "2"}, {"c", "3"}})

	subset, err := table.Select([]int{2, 0})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "3"}, subset.Row(0))
	assert.Equal(t, []string{"a", "1"}, subset.Row(1))

	_, err = table.Select([]int{5})
	assert.Error(t, err)
}

func TestTable_ClassCountsAndLevels(t *testing.T) {
	table := mustTable(t,
		[]string{"A1", "A16"},
		[][]string{{"b", "+"}, {"a", "-"}, {Missing, "-"}, {"b", "-"}})

	counts, err := table.ClassCounts("A16")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"+": 1, "-": 3}, counts)

	levels, err := table.Levels("A1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, levels)

	_, err = table.Levels("A99")
	assert.Error(t, err)
}
