// Command kpireport rolls the cumulative ledger up into a monthly KPI
// table over an inclusive year-month range.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"clinicpulse/internal/config"
	"clinicpulse/internal/exporter"
	"clinicpulse/internal/infrastructure"
	"clinicpulse/internal/kpi"
	"clinicpulse/internal/pipeline"
)

func main() {
	startMonth := flag.String("start", "", "first month of the range, YYYY-MM (required)")
	endMonth := flag.String("end", "", "last month of the range, YYYY-MM (required)")
	counts := flag.Bool("counts", false, "report visit purposes as raw counts instead of percentages")
	flag.Parse()

	if *startMonth == "" || *endMonth == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	paths := config.NewPaths(cfg.Paths)
	if err := paths.EnsureDirectories(); err != nil {
		logger.Error("failed to create directories", "error", err)
		os.Exit(1)
	}

	opts := kpi.RollupOptions{
		PurposeAsPercent: cfg.Pipeline.KPIPurposeAsPercent && !*counts,
		IncludePurposes:  true,
	}

	runner := pipeline.NewRunner(logger, &pipeline.KPIStage{
		Logger:     logger,
		Paths:      paths,
		Rollup:     kpi.NewRollup(logger, opts),
		CSV:        exporter.NewCSVWriter(logger),
		StartMonth: *startMonth,
		EndMonth:   *endMonth,
	})

	if err := runner.Run(context.Background(), &pipeline.State{}); err != nil {
		logger.Error("kpi report failed", "error", err)
		os.Exit(1)
	}
}
