// Package pipeline sequences the weekly run. Stages execute strictly in
// order; each stage's persisted artifact is the next stage's input, so
// there is no concurrent execution to coordinate.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"clinicpulse/internal/errors"
	"clinicpulse/internal/infrastructure"
	"clinicpulse/pkg/contracts/domain"
)

// Stage is one step of the weekly run.
type Stage interface {
	ID() string
	Name() string
	Run(ctx context.Context, state *State) error
}

// State is the in-memory hand-off between stages within one run. Every
// stage also persists its artifact, so a later run can start from disk.
type State struct {
	AsOf     time.Time
	BatchDir string
	TagPath  string

	Ledger     domain.Ledger
	Summaries  []domain.PatientSummary
	Classified []domain.PatientSummary
	Snapshot   domain.RosterSnapshot
	Diff       []domain.RosterDiffRecord
}

// Runner executes stages sequentially under a shared run ID.
type Runner struct {
	logger *slog.Logger
	stages []Stage
}

// NewRunner creates a stage runner.
func NewRunner(logger *slog.Logger, stages ...Stage) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{logger: logger, stages: stages}
}

// Run executes every stage in order. A stage failing on a missing input is
// skipped with a warning and the run continues; any other stage error stops
// the run. Each stage either completes and publishes its artifact or leaves
// no partial output behind.
func (r *Runner) Run(ctx context.Context, state *State) error {
	runID := uuid.New().String()
	ctx = infrastructure.WithRunID(ctx, runID)

	r.logger.InfoContext(ctx, "pipeline run starting",
		slog.Int("stage_count", len(r.stages)),
		slog.String("as_of", state.AsOf.Format("2006-01-02")))

	started := time.Now()
	for _, stage := range r.stages {
		stageStart := time.Now()
		r.logger.InfoContext(ctx, "stage starting",
			slog.String("stage", stage.ID()),
			slog.String("name", stage.Name()))

		if err := stage.Run(ctx, state); err != nil {
			if errors.IsType(err, errors.ErrTypeMissingInput) {
				r.logger.WarnContext(ctx, "stage skipped, input missing",
					slog.String("stage", stage.ID()),
					slog.String("error", err.Error()))
				continue
			}
			r.logger.ErrorContext(ctx, "stage failed",
				slog.String("stage", stage.ID()),
				slog.String("error", err.Error()),
				slog.Duration("elapsed", time.Since(stageStart)))
			return errors.NewAppError(errors.ErrTypeValidation, "stage "+stage.ID()+" failed", err)
		}

		r.logger.InfoContext(ctx, "stage completed",
			slog.String("stage", stage.ID()),
			slog.Duration("elapsed", time.Since(stageStart)))
	}

	r.logger.InfoContext(ctx, "pipeline run completed",
		slog.Duration("elapsed", time.Since(started)))
	return nil
}
