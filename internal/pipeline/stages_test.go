package pipeline

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicpulse/internal/config"
	"clinicpulse/internal/exporter"
	"clinicpulse/internal/files"
	"clinicpulse/internal/ingest"
	"clinicpulse/internal/ledger"
	"clinicpulse/internal/roster"
	"clinicpulse/internal/scoring"
	"clinicpulse/pkg/contracts/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPaths(t *testing.T) *config.Paths {
	t.Helper()
	root := t.TempDir()
	paths := config.NewPaths(config.PathsConfig{
		DataDir: filepath.Join(root, "data"),
		LogsDir: filepath.Join(root, "logs"),
	})
	require.NoError(t, paths.EnsureDirectories())
	return paths
}

// A skipped merge must not starve the rest of the run: the summary stage
// falls back to the persisted ledger, so the dated snapshot reflects the
// real patient base instead of publishing an empty roster.
func TestRunner_SkippedMergeUsesPersistedLedger(t *testing.T) {
	logger := quietLogger()
	paths := testPaths(t)
	asOf := time.Date(2025, 8, 21, 0, 0, 0, 0, time.UTC)

	persisted := domain.Ledger{
		{
			PatientID:    "100",
			PatientName:  "Kim",
			VisitDate:    time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
			GrossRevenue: 12_000_000,
		},
	}
	require.NoError(t, ledger.WriteLedger(context.Background(), logger, paths.LedgerPath(), persisted))

	strategy, err := scoring.NewStrategy(scoring.StrategyCohort, scoring.Deps{Logger: logger})
	require.NoError(t, err)
	csvWriter := exporter.NewCSVWriter(logger)

	runner := NewRunner(logger,
		&MergeStage{
			Logger: logger,
			Paths:  paths,
			Reader: ingest.NewReader(logger, nil),
			Merger: ledger.NewMerger(logger, ledger.MergeOptions{}),
		},
		&SummarizeStage{
			Logger:     logger,
			Paths:      paths,
			Summarizer: ledger.NewSummarizer(logger, ledger.DefaultSummarizeOptions()),
		},
		&ClassifyStage{
			Logger:    logger,
			Paths:     paths,
			Strategy:  strategy,
			CSV:       csvWriter,
			Workbooks: exporter.NewWorkbookWriter(logger),
		},
		&SnapshotStage{
			Logger:  logger,
			Paths:   paths,
			Builder: roster.NewSnapshotBuilder(logger, roster.DefaultSnapshotOptions()),
			CSV:     csvWriter,
		},
	)

	state := &State{
		AsOf:     asOf,
		BatchDir: filepath.Join(paths.DataDir, "no-such-batches"),
	}
	require.NoError(t, runner.Run(context.Background(), state), "missing batch drop skips merge, run continues")

	require.Len(t, state.Summaries, 1)
	assert.Equal(t, 12_000_000.0, state.Summaries[0].NetRevenueTotal)

	require.Len(t, state.Snapshot.Entries, 1)
	assert.Equal(t, domain.TierVVIP, state.Snapshot.Entries[0].Grade)

	content, err := os.ReadFile(paths.SnapshotPath(asOf))
	require.NoError(t, err)
	assert.Contains(t, string(content), "Kim", "published snapshot carries the persisted patient base")
}

func TestMergeStage_SkipsEmptyBatchFile(t *testing.T) {
	logger := quietLogger()
	paths := testPaths(t)

	batchDir := filepath.Join(paths.DataDir, "batches")
	require.NoError(t, os.MkdirAll(batchDir, 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(batchDir, "a_export.csv"),
		[]byte("Patient ID,Visit Date,Gross Revenue\n"), 0644))
	require.NoError(t, os.WriteFile(
		filepath.Join(batchDir, "b_export.csv"),
		[]byte("Patient ID,Visit Date,Gross Revenue\n100,2025-08-01,50000\n"), 0644))

	stage := &MergeStage{
		Logger: logger,
		Paths:  paths,
		Reader: ingest.NewReader(logger, nil),
		Merger: ledger.NewMerger(logger, ledger.MergeOptions{}),
	}

	state := &State{BatchDir: batchDir}
	require.NoError(t, stage.Run(context.Background(), state), "a header-only file is skipped, not fatal")
	require.Len(t, state.Ledger, 1)
	assert.Equal(t, "100", state.Ledger[0].PatientID)
}

func TestDiffStage_SkipsWithSingleSnapshot(t *testing.T) {
	logger := quietLogger()
	paths := testPaths(t)
	asOf := time.Date(2025, 8, 21, 0, 0, 0, 0, time.UTC)

	require.NoError(t, os.WriteFile(
		paths.SnapshotPath(asOf),
		[]byte("PatientName,Contact,NetRevenue,LastVisitDate,Grade\nKim,,12000000,2025-08-01,VVIP\n"), 0644))

	runner := NewRunner(logger, &DiffStage{
		Logger:    logger,
		Paths:     paths,
		Discovery: files.NewDiscovery(paths.SnapshotsDir),
		Engine:    roster.NewDiffEngine(logger),
		CSV:       exporter.NewCSVWriter(logger),
	})

	state := &State{AsOf: asOf}
	require.NoError(t, runner.Run(context.Background(), state))
	assert.Empty(t, state.Diff)

	_, err := os.Stat(paths.DiffPath(asOf))
	assert.True(t, os.IsNotExist(err), "no diff artifact is published for a skipped stage")
}
