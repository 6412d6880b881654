// Command creditstudy runs the credit approval missing-data study end to
// end: it loads the screening dataset, profiles missingness, splits it,
// trains the reduced and imputed classifiers and writes the report.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"creditstudy/internal/config"
	"creditstudy/internal/infrastructure"
	"creditstudy/internal/pipeline"
	"creditstudy/internal/report"
)

func main() {
	configFile := flag.String("config", "", "optional YAML configuration file")
	inputPath := flag.String("input", "", "dataset file (overrides configuration)")
	outputDir := flag.String("out", "", "report output directory (overrides configuration)")
	tracing := flag.Bool("trace", false, "emit stage spans to stdout")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *inputPath != "" {
		cfg.Data.InputPath = *inputPath
	}
	if *outputDir != "" {
		cfg.Report.OutputDir = *outputDir
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	otelCfg := infrastructure.DefaultOTelConfig()
	otelCfg.EnableTracing = *tracing
	providers, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		logger.Error("Failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	ctx := infrastructure.EnsureRunID(context.Background())
	defer func() {
		if err := providers.Shutdown(ctx); err != nil {
			logger.Warn("Tracing shutdown failed", "error", err)
		}
	}()

	p, err := pipeline.New(cfg, logger, providers)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to build pipeline", "error", err)
		os.Exit(1)
	}

	result, err := p.Run(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Study run failed", "error", err)
		os.Exit(1)
	}

	writer := report.NewWriter(cfg.Report, logger)
	artifacts, err := writer.Write(ctx, result)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to write report", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Report written to %s\n", artifacts.TextPath)
	if artifacts.MetricsCSV != "" {
		fmt.Printf("Metrics CSV: %s\n", artifacts.MetricsCSV)
	}
	if artifacts.WorkbookXLSX != "" {
		fmt.Printf("Workbook: %s\n", artifacts.WorkbookXLSX)
	}

	for _, res := range result.Evaluations {
		fmt.Printf("%-10s %-15s accuracy=%.4f sensitivity=%.4f specificity=%.4f\n",
			res.Model, res.TestVariant,
			res.Matrix.Accuracy(), res.Matrix.Sensitivity(), res.Matrix.Specificity())
	}
}
