// Package impute fills missing cells in a dataset table with a
// random-forest donor procedure.
//
// For each column with missing values, a small forest is grown on the rows
// where that column is observed, using every other column (response included)
// as a predictor. Forest proximity — how often two records share a terminal
// node — ranks the observed rows as donor candidates for each missing cell,
// and the imputed value is drawn from the k nearest donors with a seeded RNG.
// Sampling from donors rather than averaging keeps the imputed column's
// variance realistic. The procedure sweeps columns in ascending order of
// missing count until no missing cell remains, then enforces that as a hard
// invariant.
package impute

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"creditstudy/internal/dataset"
	apperrors "creditstudy/internal/errors"
)

// Params configures the imputation procedure
type Params struct {
	Neighbors int   // donor candidates per missing cell (k)
	Trees     int   // trees per column forest
	MaxSweeps int   // upper bound on column sweeps
	Seed      int64 // RNG seed, fixed for reproducibility
}

// DefaultParams returns the study's reference parameters
func DefaultParams() Params {
	return Params{Neighbors: 5, Trees: 50, MaxSweeps: 10, Seed: 1357}
}

// Imputer fills missing values in tables
type Imputer struct {
	params Params
	logger *slog.Logger
}

// NewImputer creates an imputer with the given parameters
func NewImputer(params Params, logger *slog.Logger) *Imputer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Imputer{params: params, logger: logger}
}

// Impute returns a copy of the table with every missing predictor cell
// filled. The input table is not modified. Fails with an invariant-violation
// error if any missing cell survives, and with an invalid-argument error when
// a column has no observed values to learn from.
func (imp *Imputer) Impute(ctx context.Context, table *dataset.Table, responseColumn string) (*dataset.Table, error) {
	if imp.params.Neighbors < 1 {
		return nil, apperrors.NewInvalidArgumentError("neighbor count must be at least 1", nil)
	}
	if imp.params.Trees < 1 {
		return nil, apperrors.NewInvalidArgumentError("tree count must be at least 1", nil)
	}

	m, err := dataset.Encode(table, responseColumn)
	if err != nil {
		return nil, err
	}

	work := newWorkspace(m, table, responseColumn)
	if work.totalMissing == 0 {
		imp.logger.InfoContext(ctx, "no missing cells, imputation is a no-op")
		return table, nil
	}

	rng := rand.New(rand.NewSource(imp.params.Seed))

	sweeps := 0
	for work.remaining() > 0 {
		if sweeps >= imp.params.MaxSweeps {
			return nil, apperrors.NewInvariantError(
				fmt.Sprintf("imputation left %d missing cell(s) after %d sweeps", work.remaining(), sweeps), nil)
		}
		sweeps++

		filled := 0
		for _, col := range work.columnsByMissingCount() {
			n, err := imp.imputeColumn(ctx, work, col, rng)
			if err != nil {
				return nil, err
			}
			filled += n
		}
		if filled == 0 {
			return nil, apperrors.NewInvariantError(
				fmt.Sprintf("imputation sweep made no progress, %d missing cell(s) remain", work.remaining()), nil)
		}
	}

	result, err := work.toTable()
	if err != nil {
		return nil, err
	}

	// runtime invariant: downstream training requires a fully dense table
	if residual := result.MissingCells(); residual != 0 {
		return nil, apperrors.NewInvariantError(
			fmt.Sprintf("imputed table still has %d missing cell(s)", residual), nil)
	}

	imp.logger.InfoContext(ctx, "imputation complete",
		slog.Int("cells_filled", work.totalMissing),
		slog.Int("sweeps", sweeps),
		slog.Int64("seed", imp.params.Seed))

	return result, nil
}

// imputeColumn fills the missing cells of one column from forest-proximity
// donors, returning the number of cells filled
func (imp *Imputer) imputeColumn(ctx context.Context, work *workspace, col int, rng *rand.Rand) (int, error) {
	missingRows := work.missingRows(col)
	if len(missingRows) == 0 {
		return 0, nil
	}
	observedRows := work.observedRows(col)
	if len(observedRows) == 0 {
		return 0, apperrors.NewInvalidArgumentError(
			fmt.Sprintf("column %s has no observed values to learn from", work.featureName(col)), nil)
	}

	f, err := imp.growForest(ctx, work, col, observedRows, rng)
	if err != nil {
		return 0, err
	}

	filled := 0
	for _, row := range missingRows {
		donors := f.nearestDonors(work.featureVector(row, col), imp.params.Neighbors)
		donor := donors[rng.Intn(len(donors))]
		work.fill(row, col, donor)
		filled++
	}

	imp.logger.DebugContext(ctx, "imputed column",
		slog.String("column", work.featureName(col)),
		slog.Int("cells", filled),
		slog.Int("donor_pool", len(observedRows)))

	return filled, nil
}
