package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"creditstudy/internal/pipeline"
)

// writeWorkbook renders the run into a three-sheet XLSX workbook:
// Summary, Missingness and Metrics.
func writeWorkbook(path string, result *pipeline.RunResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}
	if err := writeRows(f, "Summary", summaryRows(result)); err != nil {
		return err
	}

	if _, err := f.NewSheet("Missingness"); err != nil {
		return fmt.Errorf("add missingness sheet: %w", err)
	}
	missRows := [][]interface{}{{"Column", "Missing", "Percent"}}
	for _, cs := range result.Profile.Columns {
		missRows = append(missRows, []interface{}{cs.Column, cs.MissingCount, cs.MissingPercent})
	}
	if err := writeRows(f, "Missingness", missRows); err != nil {
		return err
	}

	if _, err := f.NewSheet("Metrics"); err != nil {
		return fmt.Errorf("add metrics sheet: %w", err)
	}
	metricRows := [][]interface{}{{"Model", "Test", "Records", "TP", "FP", "TN", "FN",
		"Accuracy", "Sensitivity", "Specificity"}}
	for _, res := range result.Evaluations {
		cm := res.Matrix
		metricRows = append(metricRows, []interface{}{
			res.Model, res.TestVariant, res.Records,
			cm.TruePositives, cm.FalsePositives, cm.TrueNegatives, cm.FalseNegatives,
			cm.Accuracy(), cm.Sensitivity(), cm.Specificity(),
		})
	}
	if err := writeRows(f, "Metrics", metricRows); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func summaryRows(result *pipeline.RunResult) [][]interface{} {
	rows := [][]interface{}{
		{"Run ID", result.RunID},
		{"Input", result.Cfg.Data.InputPath},
		{"Records", result.SourceRecords},
		{"Missing cells", result.Profile.MissingCells},
		{"Train records", result.TrainRecords},
		{"Test records", result.TestRecords},
		{"Reduced model train records", result.Reduced.TrainRecords},
		{"Reduced model dropped rows", result.Reduced.DroppedRows},
		{"Imputed model train records", result.Imputed.TrainRecords},
		{"Imputed cells", result.Imputed.ImputedCells},
		{"Positive class", result.Cfg.Evaluate.PositiveClass},
		{"Split seed", result.Cfg.Split.Seed},
		{"Imputation seed", result.Cfg.Impute.Seed},
	}
	return rows
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell name for row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
