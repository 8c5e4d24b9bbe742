// Command pipeline runs the weekly patient analytics batch: ledger merge,
// per-patient summary, scoring, roster snapshot, and roster diff.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"clinicpulse/internal/config"
	"clinicpulse/internal/exporter"
	"clinicpulse/internal/files"
	"clinicpulse/internal/infrastructure"
	"clinicpulse/internal/ingest"
	"clinicpulse/internal/ledger"
	"clinicpulse/internal/pipeline"
	"clinicpulse/internal/roster"
	"clinicpulse/internal/scoring"
)

func main() {
	batchDir := flag.String("batch", "", "directory holding this week's transaction batch files (defaults to <data>/batches)")
	tagPath := flag.String("tags", "", "optional patient tag export to join onto the ledger")
	asOfArg := flag.String("as-of", "", "as-of date YYYY-MM-DD (defaults to today)")
	flag.Parse()

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

	asOf, err := pipeline.ParseAsOf(*asOfArg)
	if err != nil {
		logger.Error("invalid as-of date", "error", err)
		os.Exit(1)
	}
	if *batchDir == "" {
		*batchDir = filepath.Join(paths.DataDir, "batches")
	}

	strategy, err := scoring.NewStrategy(cfg.Pipeline.Strategy, scoring.Deps{Logger: logger})
	if err != nil {
		logger.Error("invalid scoring strategy", "error", err)
		os.Exit(1)
	}

	csvWriter := exporter.NewCSVWriter(logger)
	workbooks := exporter.NewWorkbookWriter(logger)

	runner := pipeline.NewRunner(logger,
		&pipeline.MergeStage{
			Logger: logger,
			Paths:  paths,
			Reader: ingest.NewReader(logger, ingest.DefaultSynonyms()),
			Merger: ledger.NewMerger(logger, ledger.MergeOptions{
				ExcludedNames:    cfg.Pipeline.ExcludedNames,
				ConsultOnlyStaff: cfg.Pipeline.ConsultOnlyStaff,
			}),
		},
		&pipeline.SummarizeStage{
			Logger: logger,
			Paths:  paths,
			Summarizer: ledger.NewSummarizer(logger, ledger.SummarizeOptions{
				ReservationFees: cfg.Pipeline.ReservationFees,
			}),
		},
		&pipeline.ClassifyStage{
			Logger:    logger,
			Paths:     paths,
			Strategy:  strategy,
			Segments:  scoring.DefaultSegments(),
			CSV:       csvWriter,
			Workbooks: workbooks,
		},
		&pipeline.SnapshotStage{
			Logger: logger,
			Paths:  paths,
			Builder: roster.NewSnapshotBuilder(logger, roster.SnapshotOptions{
				VIPThreshold:      cfg.Pipeline.VIPThreshold,
				VVIPThreshold:     cfg.Pipeline.VVIPThreshold,
				RecencyWindowDays: cfg.Pipeline.RecencyWindowDays,
			}),
			CSV: csvWriter,
		},
		&pipeline.DiffStage{
			Logger:    logger,
			Paths:     paths,
			Discovery: files.NewDiscovery(paths.SnapshotsDir),
			Engine:    roster.NewDiffEngine(logger),
			CSV:       csvWriter,
		},
	)

	state := &pipeline.State{AsOf: asOf, BatchDir: *batchDir, TagPath: *tagPath}
	if err := runner.Run(context.Background(), state); err != nil {
		logger.Error("pipeline run failed", "error", err)
		os.Exit(1)
	}
}
