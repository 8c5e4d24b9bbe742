// Package scoring assigns engagement scores and grades to patient summaries.
// Two selectable strategies share the same contract: the cohort strategy
// scales features within cohort groups and applies an absolute score cut,
// the quantile strategy scales against population percentiles and splits
// grades by tertile.
package scoring

import (
	"context"
	"time"

	"clinicpulse/internal/errors"
	"clinicpulse/pkg/contracts/domain"
)

// Strategy names accepted by configuration.
const (
	StrategyCohort   = "cohort"
	StrategyQuantile = "quantile"
)

// ForcedRecencyDays is the staleness bound beyond which a patient bypasses
// scoring and lands in the lowest grade tier.
const ForcedRecencyDays = 90

// Strategy scores and grades a summary table as of a date. Implementations
// return a new slice; the input is not mutated.
type Strategy interface {
	Name() string
	Classify(ctx context.Context, summaries []domain.PatientSummary, asOf time.Time) ([]domain.PatientSummary, error)
}

// NewStrategy resolves a strategy by its configured name.
func NewStrategy(name string, deps Deps) (Strategy, error) {
	switch name {
	case StrategyCohort:
		return NewCohortStrategy(deps), nil
	case StrategyQuantile:
		return NewQuantileStrategy(deps), nil
	default:
		return nil, errors.NewConfigError("unknown scoring strategy: "+name, nil)
	}
}

// Deps carries the collaborators a strategy needs.
type Deps struct {
	Logger   Logger
	Resolver CohortResolver
}

// Logger is the slog surface strategies use. Kept minimal so tests can pass
// a silent logger.
type Logger interface {
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
}

// featureVector is the three-feature input to both strategies.
type featureVector struct {
	revenue   float64
	count     float64
	avgTicket float64
}

func featuresOf(p domain.PatientSummary) featureVector {
	return featureVector{
		revenue:   p.NetRevenueTotal,
		count:     float64(p.PurchaseCount),
		avgTicket: p.AvgTicket,
	}
}

// staleOrUnknown reports whether the patient's last visit is at least
// ForcedRecencyDays before asOf, treating an unknown last visit as stale.
func staleOrUnknown(p domain.PatientSummary, asOf time.Time) bool {
	days, ok := p.DaysSinceLastVisit(asOf)
	if !ok {
		return true
	}
	return days >= ForcedRecencyDays
}
