package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "creditstudy/internal/errors"
)

func writeDataFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crx.data")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeDataFile(t, "b,30.83,u,+\na,?,y,-\n?,24.50,u,+\n")

	table, err := Load(path, LoadOptions{MissingMarker: "?", Columns: 4})
	require.NoError(t, err)

	assert.Equal(t, 3, table.NumRows())
	assert.Equal(t, []string{"A1", "A2", "A3", "A4"}, table.Columns())

	// sentinel cells are normalized to the missing marker
	assert.True(t, table.IsMissing(1, 1))
	assert.True(t, table.IsMissing(2, 0))
	assert.Equal(t, 2, table.MissingCells())

	v, err := table.Value(0, "A2")
	require.NoError(t, err)
	assert.Equal(t, "30.83", v)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.data"), LoadOptions{MissingMarker: "?", Columns: 4})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeIO))
}

func TestLoad_WrongFieldCount(t *testing.T) {
	path := writeDataFile(t, "b,30.83,u,+\na,22.67,y\n")

	_, err := Load(path, LoadOptions{MissingMarker: "?", Columns: 4})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeDataFile(t, "")

	_, err := Load(path, LoadOptions{MissingMarker: "?", Columns: 4})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
}

func TestLoad_InvalidOptions(t *testing.T) {
	_, err := Load("whatever", LoadOptions{MissingMarker: "?"})
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidArgument(err))
}
