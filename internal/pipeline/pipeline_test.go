package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditstudy/internal/config"
	"creditstudy/internal/testutil"
)

// writeStudyFile writes a headerless 4-column file with a numeric signal in
// the second column and scattered "?" cells outside the response column.
func writeStudyFile(t *testing.T) string {
	t.Helper()

	var sb strings.Builder
	for i := 0; i < 80; i++ {
		a1 := "u"
		if i%2 == 0 {
			a1 = "v"
		}
		a2 := fmt.Sprintf("%d.5", i)
		a3 := "g"
		if i%3 == 0 {
			a3 = "h"
		}
		label := "+"
		if i < 40 {
			label = "-"
		}

		// every 7th record loses its nominal cell, every 11th its numeric one
		if i%7 == 3 {
			a1 = "?"
		}
		if i%11 == 5 {
			a2 = "?"
		}
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s\n", a1, a2, a3, label))
	}

	path := filepath.Join(t.TempDir(), "study.data")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
	return path
}

func studyConfig(path string) *config.Config {
	cfg := config.Default()
	cfg.Data.InputPath = path
	cfg.Data.Columns = 4
	cfg.Data.NumericColumns = []string{"A2"}
	cfg.Data.ResponseColumn = "A4"
	cfg.Impute.Trees = 15
	return &cfg
}

func runOnce(t *testing.T, cfg *config.Config) *RunResult {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	p, err := New(cfg, logger, nil)
	require.NoError(t, err)

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	return result
}

func TestPipelineEndToEnd(t *testing.T) {
	cfg := studyConfig(writeStudyFile(t))
	result := runOnce(t, cfg)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 80, result.SourceRecords)
	assert.Equal(t, result.SourceRecords, result.TrainRecords+result.TestRecords)
	assert.Equal(t, map[string]int{"+": 40, "-": 40}, result.SourceClassStats)

	// stratification keeps the even class balance on both sides
	assert.Equal(t, result.TrainClassStats["+"], result.TrainClassStats["-"])
	assert.Equal(t, result.TestClassStats["+"], result.TestClassStats["-"])

	require.NotNil(t, result.Profile)
	assert.Equal(t, 80, result.Profile.TotalRecords)

	// reduced model trained on strictly fewer records than the imputed one
	assert.Equal(t, result.TrainRecords, result.Reduced.TrainRecords+result.Reduced.DroppedRows)
	assert.Positive(t, result.Reduced.DroppedRows)
	assert.Equal(t, result.TrainRecords, result.Imputed.TrainRecords)
	assert.Positive(t, result.Imputed.ImputedCells)

	assert.NotEmpty(t, result.Reduced.RenderedTree)
	assert.NotEmpty(t, result.Imputed.Importances)
}

func TestPipelineFourEvaluations(t *testing.T) {
	cfg := studyConfig(writeStudyFile(t))
	result := runOnce(t, cfg)

	require.Len(t, result.Evaluations, 4)

	seen := make(map[string]bool)
	for _, res := range result.Evaluations {
		seen[res.Model+"/"+res.TestVariant] = true
		assert.Equal(t, res.Records, res.Matrix.Total(), "cells must account for every record")
		assert.Equal(t, "-", res.Matrix.Positive)
	}
	for _, want := range []string{
		ModelReduced + "/" + TestOriginal,
		ModelReduced + "/" + TestCompleteCase,
		ModelImputed + "/" + TestOriginal,
		ModelImputed + "/" + TestCompleteCase,
	} {
		assert.True(t, seen[want], "missing evaluation %s", want)
	}

	// complete-case variant scores only the intact test records
	for _, res := range result.Evaluations {
		switch res.TestVariant {
		case TestOriginal:
			assert.Equal(t, result.TestRecords, res.Records)
		case TestCompleteCase:
			assert.Equal(t, result.TestCompleteRecords, res.Records)
		}
	}
	assert.Equal(t, result.TestRecords, result.TestCompleteRecords+result.TestDroppedRows)
}

func TestPipelineLearnsSignal(t *testing.T) {
	cfg := studyConfig(writeStudyFile(t))
	result := runOnce(t, cfg)

	// the label is a clean threshold on A2, both models should find it
	for _, res := range result.Evaluations {
		assert.Greater(t, res.Matrix.Accuracy(), 0.8,
			"%s on %s test", res.Model, res.TestVariant)
	}
}

func TestPipelineDeterministic(t *testing.T) {
	path := writeStudyFile(t)

	first := runOnce(t, studyConfig(path))
	second := runOnce(t, studyConfig(path))

	require.Len(t, second.Evaluations, len(first.Evaluations))
	for i := range first.Evaluations {
		assert.Equal(t, first.Evaluations[i].Matrix, second.Evaluations[i].Matrix)
	}
	assert.Equal(t, first.Reduced.RenderedTree, second.Reduced.RenderedTree)
	assert.Equal(t, first.Imputed.RenderedTree, second.Imputed.RenderedTree)
}

func TestPipelineLogsStages(t *testing.T) {
	cfg := studyConfig(writeStudyFile(t))
	logger, captured := testutil.NewCaptureLogger()

	p, err := New(cfg, logger, nil)
	require.NoError(t, err)
	_, err = p.Run(context.Background())
	require.NoError(t, err)

	captured.AssertLogged(t, slog.LevelInfo, "starting study run")
	captured.AssertLogged(t, slog.LevelInfo, "complete-case filtering")
	captured.AssertLogged(t, slog.LevelInfo, "study run complete")
}

func TestPipelineRequiresConfig(t *testing.T) {
	_, err := New(nil, nil, nil)
	assert.Error(t, err)
}
