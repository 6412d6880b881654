package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"creditstudy/internal/pipeline"
)

// renderText builds the full human-readable report
func renderText(result *pipeline.RunResult) string {
	var b strings.Builder

	title := "CREDIT APPROVAL MISSING-DATA STUDY"
	fmt.Fprintf(&b, "%s\n%s\n\n", title, strings.Repeat("=", len(title)))
	fmt.Fprintf(&b, "Run ID: %s\n", result.RunID)
	fmt.Fprintf(&b, "Generated: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Input: %s\n", result.Cfg.Data.InputPath)
	fmt.Fprintf(&b, "Positive class: %q\n\n", result.Cfg.Evaluate.PositiveClass)

	writeDatasetSection(&b, result)
	writeProfileSection(&b, result)
	writeSplitSection(&b, result)
	writeModelSection(&b, result)
	writeEvaluationSection(&b, result)

	return b.String()
}

func section(b *strings.Builder, name string) {
	fmt.Fprintf(b, "%s\n%s\n", name, strings.Repeat("-", len(name)))
}

func writeDatasetSection(b *strings.Builder, result *pipeline.RunResult) {
	section(b, "DATASET")
	fmt.Fprintf(b, "Records: %d\n", result.SourceRecords)
	for _, class := range sortedKeys(result.SourceClassStats) {
		count := result.SourceClassStats[class]
		fmt.Fprintf(b, "Class %q: %d (%.1f%%)\n", class, count,
			100*float64(count)/float64(result.SourceRecords))
	}
	for _, col := range sortedKeys(result.NumericCellsLost) {
		fmt.Fprintf(b, "Column %s: %d non-numeric cells treated as missing\n",
			col, result.NumericCellsLost[col])
	}
	fmt.Fprintln(b)
}

func writeProfileSection(b *strings.Builder, result *pipeline.RunResult) {
	p := result.Profile
	section(b, "MISSINGNESS PROFILE")
	fmt.Fprintf(b, "Missing cells: %d of %d (%.2f%%)\n\n",
		p.MissingCells, p.TotalCells, p.OverallPercent)

	fmt.Fprintf(b, "%-10s %10s %10s\n", "Column", "Missing", "Percent")
	for _, cs := range p.Columns {
		fmt.Fprintf(b, "%-10s %10d %9.2f%%\n", cs.Column, cs.MissingCount, cs.MissingPercent)
	}
	fmt.Fprintln(b)

	if len(p.ByClass) > 0 {
		fmt.Fprintf(b, "By response class (percent of class records):\n")
		fmt.Fprintf(b, "%-10s %-8s %10s %10s\n", "Column", "Class", "Missing", "Percent")
		for _, cs := range p.ByClass {
			if cs.MissingCount == 0 {
				continue
			}
			fmt.Fprintf(b, "%-10s %-8s %10d %9.2f%%\n",
				cs.Column, cs.Class, cs.MissingCount, cs.MissingPercent)
		}
		fmt.Fprintln(b)
	}

	if len(p.Patterns) > 0 {
		fmt.Fprintf(b, "Co-missingness patterns (exact column sets):\n")
		for _, pattern := range p.Patterns {
			fmt.Fprintf(b, "%6d  %s\n", pattern.Count, pattern.Key())
		}
		fmt.Fprintln(b)
	}
}

func writeSplitSection(b *strings.Builder, result *pipeline.RunResult) {
	section(b, "TRAIN/TEST SPLIT")
	fmt.Fprintf(b, "Proportion: %.2f train, seed %d\n",
		result.Cfg.Split.TrainProportion, result.Cfg.Split.Seed)
	fmt.Fprintf(b, "Train: %d records (%s)\n", result.TrainRecords,
		classBreakdown(result.TrainClassStats))
	fmt.Fprintf(b, "Test:  %d records (%s)\n\n", result.TestRecords,
		classBreakdown(result.TestClassStats))
}

func writeModelSection(b *strings.Builder, result *pipeline.RunResult) {
	section(b, "MODELS")

	fmt.Fprintf(b, "Reduced: trained on %d complete records, %d incomplete records dropped\n\n",
		result.Reduced.TrainRecords, result.Reduced.DroppedRows)
	writeModelDetail(b, &result.Reduced)

	fmt.Fprintf(b, "Imputed: trained on all %d records, %d missing cells filled by donor imputation\n",
		result.Imputed.TrainRecords, result.Imputed.ImputedCells)
	fmt.Fprintf(b, "(neighbors=%d, trees=%d, seed=%d)\n\n",
		result.Cfg.Impute.Neighbors, result.Cfg.Impute.Trees, result.Cfg.Impute.Seed)
	writeModelDetail(b, &result.Imputed)
}

func writeModelDetail(b *strings.Builder, model *pipeline.ModelResult) {
	fmt.Fprintf(b, "%s\n", model.RenderedTree)
	if len(model.Importances) > 0 {
		fmt.Fprintf(b, "Variable importance:\n")
		for _, imp := range model.Importances {
			fmt.Fprintf(b, "  %-10s %6.2f%%\n", imp.Feature, imp.Percent)
		}
	}
	fmt.Fprintln(b)
}

func writeEvaluationSection(b *strings.Builder, result *pipeline.RunResult) {
	section(b, "EVALUATION")
	fmt.Fprintf(b, "Original test: %d records. Complete-case test: %d records (%d dropped).\n\n",
		result.TestRecords, result.TestCompleteRecords, result.TestDroppedRows)

	for _, res := range result.Evaluations {
		cm := res.Matrix
		fmt.Fprintf(b, "%s model on %s test (%d records):\n", res.Model, res.TestVariant, res.Records)
		fmt.Fprintf(b, "                   predicted %-4q predicted %-4q\n", cm.Positive, cm.Negative)
		fmt.Fprintf(b, "  actual %-4q %12d %14d\n", cm.Positive, cm.TruePositives, cm.FalseNegatives)
		fmt.Fprintf(b, "  actual %-4q %12d %14d\n", cm.Negative, cm.FalsePositives, cm.TrueNegatives)
		fmt.Fprintf(b, "  accuracy %.4f  sensitivity %.4f  specificity %.4f\n\n",
			cm.Accuracy(), cm.Sensitivity(), cm.Specificity())
	}

	fmt.Fprintf(b, "%-10s %-15s %10s %12s %12s\n",
		"Model", "Test", "Accuracy", "Sensitivity", "Specificity")
	for _, res := range result.Evaluations {
		cm := res.Matrix
		fmt.Fprintf(b, "%-10s %-15s %10.4f %12.4f %12.4f\n",
			res.Model, res.TestVariant, cm.Accuracy(), cm.Sensitivity(), cm.Specificity())
	}
}

func classBreakdown(counts map[string]int) string {
	parts := make([]string, 0, len(counts))
	for _, class := range sortedKeys(counts) {
		parts = append(parts, fmt.Sprintf("%q: %d", class, counts[class]))
	}
	return strings.Join(parts, ", ")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
