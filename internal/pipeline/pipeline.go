// Package pipeline wires the study's five stages into one run: load,
// profile, split, train (reduced and imputed, concurrently) and evaluate.
//
// Data flows strictly forward and every artifact is run-local. A failure at
// any stage aborts the whole run; there are no retries because every stage
// is deterministic under its seed.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"creditstudy/internal/config"
	"creditstudy/internal/dataset"
	"creditstudy/internal/evaluate"
	"creditstudy/internal/impute"
	"creditstudy/internal/infrastructure"
	"creditstudy/internal/missingness"
	"creditstudy/internal/split"
	"creditstudy/internal/tree"
)

// Model names and test-variant names used across results and reports
const (
	ModelReduced = "reduced"
	ModelImputed = "imputed"

	TestOriginal     = "original"
	TestCompleteCase = "complete-case"
)

// ModelResult is one trained classifier with its training bookkeeping
type ModelResult struct {
	Name         string
	TrainRecords int // records the tree was actually fitted on
	DroppedRows  int // complete-case filtering, reduced path only
	ImputedCells int // filled cells, imputed path only
	Classifier   *tree.Classifier
	Importances  []tree.Importance
	RenderedTree string
}

// RunResult is everything one pipeline run produces for the report
type RunResult struct {
	RunID string
	Cfg   config.Config

	SourceRecords    int
	SourceClassStats map[string]int
	NumericCellsLost map[string]int

	Profile *missingness.Profile

	TrainRecords    int
	TestRecords     int
	TrainClassStats map[string]int
	TestClassStats  map[string]int

	Reduced ModelResult
	Imputed ModelResult

	TestCompleteRecords int
	TestDroppedRows     int

	Evaluations []*evaluate.Result
}

// Pipeline runs the study end to end
type Pipeline struct {
	cfg    *config.Config
	logger *slog.Logger
	otel   *infrastructure.OTelProviders
}

// New creates a pipeline
func New(cfg *config.Config, logger *slog.Logger, providers *infrastructure.OTelProviders) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("pipeline requires a configuration")
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if providers == nil {
		var err error
		providers, err = infrastructure.InitializeOTel(&infrastructure.OTelConfig{EnableTracing: false}, logger)
		if err != nil {
			return nil, fmt.Errorf("initialize tracing: %w", err)
		}
	}
	return &Pipeline{cfg: cfg, logger: logger, otel: providers}, nil
}

// Run executes all stages and returns the assembled result
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	ctx = infrastructure.EnsureRunID(ctx)
	result := &RunResult{RunID: infrastructure.GetRunID(ctx), Cfg: *p.cfg}

	p.logger.InfoContext(ctx, "starting study run",
		slog.String("input", p.cfg.Data.InputPath),
		slog.Float64("train_proportion", p.cfg.Split.TrainProportion),
		slog.Int64("split_seed", p.cfg.Split.Seed),
		slog.Int("impute_neighbors", p.cfg.Impute.Neighbors),
		slog.String("positive_class", p.cfg.Evaluate.PositiveClass))

	table, err := p.load(ctx, result)
	if err != nil {
		return nil, fmt.Errorf("load stage: %w", err)
	}

	if err := p.profile(ctx, table, result); err != nil {
		return nil, fmt.Errorf("profile stage: %w", err)
	}

	sp, err := p.split(ctx, table, result)
	if err != nil {
		return nil, fmt.Errorf("split stage: %w", err)
	}

	encoder, err := dataset.NewEncoder(table, p.cfg.Data.ResponseColumn)
	if err != nil {
		return nil, fmt.Errorf("derive feature space: %w", err)
	}

	if err := p.train(ctx, sp.Train, encoder, result); err != nil {
		return nil, err
	}

	if err := p.evaluate(ctx, sp.Test, encoder, result); err != nil {
		return nil, fmt.Errorf("evaluate stage: %w", err)
	}

	p.logger.InfoContext(ctx, "study run complete",
		slog.Int("evaluations", len(result.Evaluations)))

	return result, nil
}

// load reads, normalizes and numeric-converts the source table
func (p *Pipeline) load(ctx context.Context, result *RunResult) (*dataset.Table, error) {
	ctx, end := p.otel.StartStage(ctx, "load",
		attribute.String("path", p.cfg.Data.InputPath))

	table, err := dataset.Load(p.cfg.Data.InputPath, dataset.LoadOptions{
		Delimiter:     rune(p.cfg.Data.Delimiter[0]),
		MissingMarker: p.cfg.Data.MissingMarker,
		Columns:       p.cfg.Data.Columns,
	})
	if err != nil {
		end(err)
		return nil, err
	}

	table, lost, err := table.ConvertNumeric(p.cfg.Data.NumericColumns)
	if err != nil {
		end(err)
		return nil, err
	}
	for col, n := range lost {
		p.logger.WarnContext(ctx, "non-numeric cells became missing",
			slog.String("column", col), slog.Int("cells", n))
	}

	result.SourceRecords = table.NumRows()
	result.NumericCellsLost = lost
	result.SourceClassStats, err = table.ClassCounts(p.cfg.Data.ResponseColumn)
	end(err)
	return table, err
}

// profile computes the missingness summary of the full source table
func (p *Pipeline) profile(ctx context.Context, table *dataset.Table, result *RunResult) error {
	ctx, end := p.otel.StartStage(ctx, "profile")

	profile, err := missingness.NewProfiler(p.logger).Profile(ctx, table, p.cfg.Data.ResponseColumn)
	end(err)
	if err != nil {
		return err
	}
	result.Profile = profile
	return nil
}

// split partitions the source with stratified sampling
func (p *Pipeline) split(ctx context.Context, table *dataset.Table, result *RunResult) (*split.Split, error) {
	ctx, end := p.otel.StartStage(ctx, "split",
		attribute.Float64("train_proportion", p.cfg.Split.TrainProportion),
		attribute.Int64("seed", p.cfg.Split.Seed))

	sp, err := split.NewSplitter(p.logger).Stratified(ctx, table,
		p.cfg.Data.ResponseColumn, p.cfg.Split.TrainProportion, p.cfg.Split.Seed)
	if err != nil {
		end(err)
		return nil, err
	}

	result.TrainRecords = sp.Train.NumRows()
	result.TestRecords = sp.Test.NumRows()
	if result.TrainClassStats, err = sp.Train.ClassCounts(p.cfg.Data.ResponseColumn); err != nil {
		end(err)
		return nil, err
	}
	result.TestClassStats, err = sp.Test.ClassCounts(p.cfg.Data.ResponseColumn)
	end(err)
	if err != nil {
		return nil, err
	}
	return sp, nil
}

// train fits the reduced and imputed classifiers. The two trainers share no
// state once the split exists, so they run concurrently.
func (p *Pipeline) train(ctx context.Context, train *dataset.Table, encoder *dataset.Encoder, result *RunResult) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		mr, err := p.trainReduced(gctx, train, encoder)
		if err != nil {
			return fmt.Errorf("reduced trainer: %w", err)
		}
		result.Reduced = *mr
		return nil
	})

	g.Go(func() error {
		mr, err := p.trainImputed(gctx, train, encoder)
		if err != nil {
			return fmt.Errorf("imputed trainer: %w", err)
		}
		result.Imputed = *mr
		return nil
	})

	return g.Wait()
}

// trainReduced drops incomplete records, then fits the tree
func (p *Pipeline) trainReduced(ctx context.Context, train *dataset.Table, encoder *dataset.Encoder) (*ModelResult, error) {
	ctx, end := p.otel.StartStage(ctx, "train-reduced")

	complete, dropped := train.CompleteCases()
	p.logger.InfoContext(ctx, "complete-case filtering",
		slog.Int("dropped_rows", dropped),
		slog.Int("remaining", complete.NumRows()))

	mr, err := p.fitModel(ctx, ModelReduced, complete, encoder)
	if err != nil {
		end(err)
		return nil, err
	}
	mr.DroppedRows = dropped
	end(nil)
	return mr, nil
}

// trainImputed fills missing cells, then fits the tree on the dense table
func (p *Pipeline) trainImputed(ctx context.Context, train *dataset.Table, encoder *dataset.Encoder) (*ModelResult, error) {
	ctx, end := p.otel.StartStage(ctx, "train-imputed",
		attribute.Int("neighbors", p.cfg.Impute.Neighbors),
		attribute.Int64("seed", p.cfg.Impute.Seed))

	missingBefore := train.MissingCells()
	imputer := impute.NewImputer(impute.Params{
		Neighbors: p.cfg.Impute.Neighbors,
		Trees:     p.cfg.Impute.Trees,
		MaxSweeps: p.cfg.Impute.MaxSweeps,
		Seed:      p.cfg.Impute.Seed,
	}, p.logger)

	dense, err := imputer.Impute(ctx, train, p.cfg.Data.ResponseColumn)
	if err != nil {
		end(err)
		return nil, err
	}

	mr, err := p.fitModel(ctx, ModelImputed, dense, encoder)
	if err != nil {
		end(err)
		return nil, err
	}
	mr.ImputedCells = missingBefore
	end(nil)
	return mr, nil
}

// fitModel encodes a training table and grows an unpruned tree on it
func (p *Pipeline) fitModel(ctx context.Context, name string, train *dataset.Table, encoder *dataset.Encoder) (*ModelResult, error) {
	m, err := encoder.Encode(train)
	if err != nil {
		return nil, err
	}

	clf := tree.New()
	if err := clf.Fit(ctx, m); err != nil {
		return nil, err
	}

	return &ModelResult{
		Name:         name,
		TrainRecords: train.NumRows(),
		Classifier:   clf,
		Importances:  clf.Importances(),
		RenderedTree: clf.Render(),
	}, nil
}

// evaluate scores both classifiers against the original test split and its
// complete-case subset
func (p *Pipeline) evaluate(ctx context.Context, test *dataset.Table, encoder *dataset.Encoder, result *RunResult) error {
	ctx, end := p.otel.StartStage(ctx, "evaluate")

	testComplete, dropped := test.CompleteCases()
	result.TestCompleteRecords = testComplete.NumRows()
	result.TestDroppedRows = dropped

	// encode each variant once, both models score the same matrices
	variants := []struct {
		name  string
		table *dataset.Table
		m     *dataset.Matrix
	}{
		{name: TestOriginal, table: test},
		{name: TestCompleteCase, table: testComplete},
	}
	for i := range variants {
		m, err := encoder.Encode(variants[i].table)
		if err != nil {
			end(err)
			return err
		}
		variants[i].m = m
	}
	models := []*ModelResult{&result.Reduced, &result.Imputed}

	evaluator := evaluate.NewEvaluator(p.cfg.Evaluate.PositiveClass, p.logger)
	for _, model := range models {
		for _, variant := range variants {
			res, err := evaluator.Evaluate(ctx, model.Name, variant.name, model.Classifier, variant.m)
			if err != nil {
				end(err)
				return err
			}
			result.Evaluations = append(result.Evaluations, res)
		}
	}
	end(nil)
	return nil
}
