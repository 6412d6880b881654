// Package evaluate scores trained classifiers against test tables with
// confusion matrices and the study's derived metrics.
//
// The positive class is a configuration input, never inferred: the study
// quotes sensitivity for the "-" (not approved) class, and which class a
// model library happens to treat as positive is implementation-dependent.
package evaluate

import (
	"context"
	"fmt"
	"log/slog"

	"creditstudy/internal/dataset"
	apperrors "creditstudy/internal/errors"
	"creditstudy/internal/tree"
)

// ConfusionMatrix is the 2x2 cross-tabulation of predicted against actual
// class, expressed relative to the designated positive class
type ConfusionMatrix struct {
	Positive string
	Negative string

	TruePositives  int
	FalsePositives int
	TrueNegatives  int
	FalseNegatives int
}

// Total returns the number of scored records. Always equals the test table's
// record count: every record lands in exactly one cell.
func (cm ConfusionMatrix) Total() int {
	return cm.TruePositives + cm.FalsePositives + cm.TrueNegatives + cm.FalseNegatives
}

// Accuracy is the fraction of correct predictions
func (cm ConfusionMatrix) Accuracy() float64 {
	if cm.Total() == 0 {
		return 0
	}
	return float64(cm.TruePositives+cm.TrueNegatives) / float64(cm.Total())
}

// Sensitivity is the true-positive rate for the designated positive class
func (cm ConfusionMatrix) Sensitivity() float64 {
	denom := cm.TruePositives + cm.FalseNegatives
	if denom == 0 {
		return 0
	}
	return float64(cm.TruePositives) / float64(denom)
}

// Specificity is the true-negative rate, the sensitivity of the
// complementary class
func (cm ConfusionMatrix) Specificity() float64 {
	denom := cm.TrueNegatives + cm.FalsePositives
	if denom == 0 {
		return 0
	}
	return float64(cm.TrueNegatives) / float64(denom)
}

// Result scores one (classifier, test variant) pair
type Result struct {
	Model       string // which trained model, e.g. "reduced"
	TestVariant string // which test table, e.g. "complete-case"
	Records     int
	Matrix      ConfusionMatrix
}

// Evaluator applies classifiers to encoded test tables
type Evaluator struct {
	positiveClass string
	logger        *slog.Logger
}

// NewEvaluator creates an evaluator with an explicit positive class
func NewEvaluator(positiveClass string, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{positiveClass: positiveClass, logger: logger}
}

// Evaluate predicts every record of the encoded test table and builds the
// confusion matrix. The classifier tolerates missing predictor values via
// its default-branch policy, so the original (incomplete) test split scores
// without preprocessing. Fails when the labels are not binary or the
// designated positive class never occurs.
func (e *Evaluator) Evaluate(ctx context.Context, model, testVariant string, clf *tree.Classifier, test *dataset.Matrix) (*Result, error) {
	preds, err := clf.PredictAll(test)
	if err != nil {
		return nil, fmt.Errorf("predict %s on %s: %w", model, testVariant, err)
	}

	classes := make(map[string]struct{})
	for _, l := range test.Labels {
		classes[l] = struct{}{}
	}
	for _, p := range preds {
		classes[p] = struct{}{}
	}
	if len(classes) > 2 {
		return nil, apperrors.NewInvalidArgumentError(
			fmt.Sprintf("expected a binary response, saw %d classes", len(classes)), nil)
	}
	if _, ok := classes[e.positiveClass]; !ok {
		return nil, apperrors.NewInvalidArgumentError(
			fmt.Sprintf("positive class %q absent from labels and predictions", e.positiveClass), nil)
	}

	negative := ""
	for c := range classes {
		if c != e.positiveClass {
			negative = c
		}
	}

	cm := ConfusionMatrix{Positive: e.positiveClass, Negative: negative}
	for i, actual := range test.Labels {
		predicted := preds[i]
		switch {
		case actual == e.positiveClass && predicted == e.positiveClass:
			cm.TruePositives++
		case actual == e.positiveClass:
			cm.FalseNegatives++
		case predicted == e.positiveClass:
			cm.FalsePositives++
		default:
			cm.TrueNegatives++
		}
	}

	result := &Result{
		Model:       model,
		TestVariant: testVariant,
		Records:     test.NumRows(),
		Matrix:      cm,
	}

	e.logger.InfoContext(ctx, "evaluated classifier",
		slog.String("model", model),
		slog.String("test_variant", testVariant),
		slog.Int("records", result.Records),
		slog.Float64("accuracy", cm.Accuracy()),
		slog.Float64("sensitivity", cm.Sensitivity()),
		slog.Float64("specificity", cm.Specificity()))

	return result, nil
}
