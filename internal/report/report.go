// Package report renders a completed study run into human-readable and
// machine-readable artifacts: a text report, CSV tables and an XLSX workbook.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"creditstudy/internal/config"
	"creditstudy/internal/pipeline"
)

// Artifacts lists the files one Write call produced
type Artifacts struct {
	TextPath     string
	MetricsCSV   string
	ProfileCSV   string
	WorkbookXLSX string
}

// Writer persists run results under the configured output directory
type Writer struct {
	cfg    config.ReportConfig
	logger *slog.Logger
}

// NewWriter creates a report writer
func NewWriter(cfg config.ReportConfig, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{cfg: cfg, logger: logger}
}

// Write renders every enabled artifact for the run. The text report is
// always written; CSV and XLSX follow the configuration.
func (w *Writer) Write(ctx context.Context, result *pipeline.RunResult) (*Artifacts, error) {
	if result == nil {
		return nil, fmt.Errorf("nothing to report")
	}
	if err := os.MkdirAll(w.cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	artifacts := &Artifacts{}

	artifacts.TextPath = filepath.Join(w.cfg.OutputDir, "study_report.txt")
	if err := os.WriteFile(artifacts.TextPath, []byte(renderText(result)), 0644); err != nil {
		return nil, fmt.Errorf("write text report: %w", err)
	}
	w.logger.InfoContext(ctx, "wrote text report", slog.String("path", artifacts.TextPath))

	if w.cfg.CSV {
		artifacts.MetricsCSV = filepath.Join(w.cfg.OutputDir, "metrics.csv")
		if err := writeCSV(artifacts.MetricsCSV, metricsHeaders, metricsRecords(result)); err != nil {
			return nil, fmt.Errorf("write metrics csv: %w", err)
		}
		artifacts.ProfileCSV = filepath.Join(w.cfg.OutputDir, "missingness.csv")
		if err := writeCSV(artifacts.ProfileCSV, profileHeaders, profileRecords(result)); err != nil {
			return nil, fmt.Errorf("write missingness csv: %w", err)
		}
		w.logger.InfoContext(ctx, "wrote csv exports",
			slog.String("metrics", artifacts.MetricsCSV),
			slog.String("missingness", artifacts.ProfileCSV))
	}

	if w.cfg.XLSX {
		artifacts.WorkbookXLSX = filepath.Join(w.cfg.OutputDir, "study_report.xlsx")
		if err := writeWorkbook(artifacts.WorkbookXLSX, result); err != nil {
			return nil, fmt.Errorf("write workbook: %w", err)
		}
		w.logger.InfoContext(ctx, "wrote workbook", slog.String("path", artifacts.WorkbookXLSX))
	}

	return artifacts, nil
}

var metricsHeaders = []string{
	"model", "test_variant", "records",
	"true_positives", "false_positives", "true_negatives", "false_negatives",
	"accuracy", "sensitivity", "specificity",
}

func metricsRecords(result *pipeline.RunResult) [][]string {
	records := make([][]string, 0, len(result.Evaluations))
	for _, res := range result.Evaluations {
		cm := res.Matrix
		records = append(records, []string{
			res.Model,
			res.TestVariant,
			strconv.Itoa(res.Records),
			strconv.Itoa(cm.TruePositives),
			strconv.Itoa(cm.FalsePositives),
			strconv.Itoa(cm.TrueNegatives),
			strconv.Itoa(cm.FalseNegatives),
			formatRatio(cm.Accuracy()),
			formatRatio(cm.Sensitivity()),
			formatRatio(cm.Specificity()),
		})
	}
	return records
}

var profileHeaders = []string{"column", "missing_count", "missing_percent"}

func profileRecords(result *pipeline.RunResult) [][]string {
	records := make([][]string, 0, len(result.Profile.Columns))
	for _, cs := range result.Profile.Columns {
		records = append(records, []string{
			cs.Column,
			strconv.Itoa(cs.MissingCount),
			formatPercent(cs.MissingPercent),
		})
	}
	return records
}

func formatRatio(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
