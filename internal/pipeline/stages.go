package pipeline

import (
	"context"
	"log/slog"

	"clinicpulse/internal/config"
	"clinicpulse/internal/errors"
	"clinicpulse/internal/exporter"
	"clinicpulse/internal/files"
	"clinicpulse/internal/ingest"
	"clinicpulse/internal/kpi"
	"clinicpulse/internal/ledger"
	"clinicpulse/internal/roster"
	"clinicpulse/internal/scoring"
)

// Stage identifiers.
const (
	StageIDMerge     = "merge"
	StageIDSummarize = "summarize"
	StageIDClassify  = "classify"
	StageIDSnapshot  = "snapshot"
	StageIDDiff      = "diff"
)

// MergeStage ingests the weekly batch drop, folds it into the cumulative
// ledger, and persists the result.
type MergeStage struct {
	Logger *slog.Logger
	Paths  *config.Paths
	Reader *ingest.Reader
	Merger *ledger.Merger
}

func (s *MergeStage) ID() string   { return StageIDMerge }
func (s *MergeStage) Name() string { return "Ledger Merge" }

func (s *MergeStage) Run(ctx context.Context, state *State) error {
	existing, err := ledger.LoadLedger(ctx, s.Logger, s.Paths.LedgerPath())
	if err != nil {
		return err
	}

	batchPaths, err := files.FindBatchFiles(state.BatchDir)
	if err != nil {
		return errors.NewMissingInputError(state.BatchDir, err)
	}
	if len(batchPaths) == 0 {
		return errors.NewMissingInputError(state.BatchDir, nil)
	}

	merged := existing
	for _, path := range batchPaths {
		batch, err := s.Reader.ReadTransactions(ctx, path)
		if err != nil {
			if errors.IsType(err, errors.ErrTypeEmptyResult) {
				s.Logger.WarnContext(ctx, "batch file has no usable rows, skipping it",
					slog.String("path", path))
				continue
			}
			return err
		}
		merged = s.Merger.Merge(ctx, merged, batch)
	}

	if state.TagPath != "" {
		tags, err := ingest.ReadTagTable(ctx, s.Logger, state.TagPath)
		if err != nil {
			if !errors.IsType(err, errors.ErrTypeMissingInput) {
				return err
			}
			s.Logger.WarnContext(ctx, "tag table missing, keeping existing tags",
				slog.String("path", state.TagPath))
		} else {
			ledger.ApplyTags(merged, tags)
		}
	}

	if err := ledger.WriteLedger(ctx, s.Logger, s.Paths.LedgerPath(), merged); err != nil {
		return err
	}
	state.Ledger = merged
	return nil
}

// SummarizeStage recomputes the per-patient aggregate table from the merged
// ledger. When the merge stage was skipped the in-memory ledger is empty, so
// the stage reloads the persisted ledger rather than summarizing nothing and
// publishing hollow downstream artifacts.
type SummarizeStage struct {
	Logger     *slog.Logger
	Paths      *config.Paths
	Summarizer *ledger.Summarizer
}

func (s *SummarizeStage) ID() string   { return StageIDSummarize }
func (s *SummarizeStage) Name() string { return "Patient Summary" }

func (s *SummarizeStage) Run(ctx context.Context, state *State) error {
	if len(state.Ledger) == 0 {
		l, err := ledger.LoadLedger(ctx, s.Logger, s.Paths.LedgerPath())
		if err != nil {
			return err
		}
		state.Ledger = l
	}
	if len(state.Ledger) == 0 {
		s.Logger.WarnContext(ctx, "ledger is empty, summary will have no rows")
	}
	state.Summaries = s.Summarizer.Summarize(ctx, state.Ledger, state.AsOf)
	return nil
}

// ClassifyStage scores and grades the summary table, persists the dated
// summary artifact, and exports the hand-off workbooks.
type ClassifyStage struct {
	Logger    *slog.Logger
	Paths     *config.Paths
	Strategy  scoring.Strategy
	Segments  []scoring.Segment
	CSV       *exporter.CSVWriter
	Workbooks *exporter.WorkbookWriter
}

func (s *ClassifyStage) ID() string   { return StageIDClassify }
func (s *ClassifyStage) Name() string { return "Scoring and Classification" }

func (s *ClassifyStage) Run(ctx context.Context, state *State) error {
	classified, err := s.Strategy.Classify(ctx, state.Summaries, state.AsOf)
	if err != nil {
		return err
	}
	state.Classified = classified

	if err := s.CSV.WriteSummaries(s.Paths.SummaryPath(state.AsOf), classified); err != nil {
		return err
	}
	if err := s.Workbooks.WriteClassified(s.Paths.ClassifiedWorkbookPath(state.AsOf), classified); err != nil {
		return err
	}

	// Audience lists only make sense for cohort-labelled output.
	if s.Strategy.Name() != scoring.StrategyCohort || len(s.Segments) == 0 {
		return nil
	}
	for _, list := range scoring.ExtractAudiences(ctx, s.Logger, classified, s.Segments, state.AsOf) {
		path := s.Paths.AudienceWorkbookPath(state.AsOf, list.Name)
		if err := s.Workbooks.WriteAudience(path, list.Name, list.Members); err != nil {
			return err
		}
	}
	return nil
}

// SnapshotStage captures and persists the dated VIP roster.
type SnapshotStage struct {
	Logger  *slog.Logger
	Paths   *config.Paths
	Builder *roster.SnapshotBuilder
	CSV     *exporter.CSVWriter
}

func (s *SnapshotStage) ID() string   { return StageIDSnapshot }
func (s *SnapshotStage) Name() string { return "VIP Roster Snapshot" }

func (s *SnapshotStage) Run(ctx context.Context, state *State) error {
	state.Snapshot = s.Builder.Snapshot(ctx, state.Classified, state.AsOf)
	return s.CSV.WriteSnapshot(s.Paths.SnapshotPath(state.AsOf), state.Snapshot)
}

// DiffStage compares the two most recent persisted snapshots and writes the
// transition report. With fewer than two snapshots on disk the stage
// reports a missing input, which the runner downgrades to a skip.
type DiffStage struct {
	Logger    *slog.Logger
	Paths     *config.Paths
	Discovery *files.Discovery
	Engine    *roster.DiffEngine
	CSV       *exporter.CSVWriter
}

func (s *DiffStage) ID() string   { return StageIDDiff }
func (s *DiffStage) Name() string { return "Roster Transition Diff" }

func (s *DiffStage) Run(ctx context.Context, state *State) error {
	priorFile, currentFile, err := s.Discovery.LatestPair()
	if err != nil {
		return err
	}

	prior, err := roster.LoadSnapshot(ctx, s.Logger, priorFile.Path, priorFile.CaptureDate)
	if err != nil {
		return err
	}
	current, err := roster.LoadSnapshot(ctx, s.Logger, currentFile.Path, currentFile.CaptureDate)
	if err != nil {
		return err
	}

	state.Diff = s.Engine.Diff(ctx, prior, current)
	return s.CSV.WriteDiff(s.Paths.DiffPath(state.AsOf), state.Diff)
}

// KPIStage is used by the reporting CLI rather than the weekly run; it
// rolls up the persisted ledger over a month range.
type KPIStage struct {
	Logger *slog.Logger
	Paths  *config.Paths
	Rollup *kpi.Rollup
	CSV    *exporter.CSVWriter

	StartMonth string
	EndMonth   string
}

func (s *KPIStage) ID() string   { return "kpi" }
func (s *KPIStage) Name() string { return "KPI Rollup" }

func (s *KPIStage) Run(ctx context.Context, state *State) error {
	l, err := ledger.LoadLedger(ctx, s.Logger, s.Paths.LedgerPath())
	if err != nil {
		return err
	}
	if len(l) == 0 {
		return errors.NewMissingInputError(s.Paths.LedgerPath(), nil)
	}
	state.Ledger = l

	start, err := parseYearMonth(s.StartMonth)
	if err != nil {
		return err
	}
	end, err := parseYearMonth(s.EndMonth)
	if err != nil {
		return err
	}

	records := s.Rollup.Build(ctx, l, start, end)
	return s.CSV.WriteKPI(s.Paths.KPIPath(s.StartMonth, s.EndMonth), records)
}
