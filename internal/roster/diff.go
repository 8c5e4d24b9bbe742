package roster

import (
	"context"
	"log/slog"
	"sort"

	"clinicpulse/pkg/contracts/domain"
)

// DiffEngine classifies membership transitions between two consecutive
// roster snapshots.
type DiffEngine struct {
	logger *slog.Logger
}

// NewDiffEngine creates a roster diff engine.
func NewDiffEngine(logger *slog.Logger) *DiffEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &DiffEngine{logger: logger}
}

// Diff full-outer-joins two snapshots by patient name and classifies every
// patient's transition. A patient absent from one side defaults to the
// standard grade there. Output is sorted by transition state, then patient
// name; every patient present in either snapshot appears exactly once.
func (e *DiffEngine) Diff(ctx context.Context, prior, current domain.RosterSnapshot) []domain.RosterDiffRecord {
	names := make([]string, 0, len(prior.Entries)+len(current.Entries))
	seen := make(map[string]struct{})
	for _, entry := range prior.Entries {
		if _, ok := seen[entry.PatientName]; !ok {
			seen[entry.PatientName] = struct{}{}
			names = append(names, entry.PatientName)
		}
	}
	for _, entry := range current.Entries {
		if _, ok := seen[entry.PatientName]; !ok {
			seen[entry.PatientName] = struct{}{}
			names = append(names, entry.PatientName)
		}
	}

	records := make([]domain.RosterDiffRecord, 0, len(names))
	for _, name := range names {
		priorGrade := prior.GradeByName(name)
		currentGrade := current.GradeByName(name)
		records = append(records, domain.RosterDiffRecord{
			PatientName:  name,
			PriorGrade:   priorGrade,
			CurrentGrade: currentGrade,
			Transition:   ClassifyTransition(priorGrade, currentGrade),
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Transition != records[j].Transition {
			return records[i].Transition < records[j].Transition
		}
		return records[i].PatientName < records[j].PatientName
	})

	e.logger.InfoContext(ctx, "built roster diff",
		slog.String("prior_capture", prior.CaptureDate.Format("2006-01-02")),
		slog.String("current_capture", current.CaptureDate.Format("2006-01-02")),
		slog.Int("record_count", len(records)))

	return records
}

// ClassifyTransition is a pure function of the two grades.
func ClassifyTransition(prior, current domain.RevenueTier) domain.TransitionState {
	priorVIP := prior.IsVIP()
	currentVIP := current.IsVIP()
	switch {
	case priorVIP && currentVIP && prior == current:
		return domain.TransitionRetained
	case priorVIP && currentVIP:
		return domain.TransitionGradeChanged
	case priorVIP && !currentVIP:
		return domain.TransitionDropped
	case !priorVIP && currentVIP:
		return domain.TransitionNew
	default:
		return domain.TransitionOther
	}
}
