package scoring

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"clinicpulse/pkg/contracts/domain"
)

// Outreach band bounds in days since last visit, inclusive. Patients inside
// this band are recent enough to recognize the clinic but at risk of
// lapsing.
const (
	AudienceBandMinDays = 45
	AudienceBandMaxDays = 90
)

// SegmentRule is one conjunctive predicate over a classified summary. A rule
// matches when every set field matches; rules within a segment are OR-ed.
type SegmentRule struct {
	Cohorts      []string
	Grades       []string
	MinScore     *float64
	MaxScore     *float64
	MaxExclusive bool
}

// Segment is a named outreach audience. All segments additionally require
// the patient's recency to fall inside the outreach band.
type Segment struct {
	Name  string
	Rules []SegmentRule
}

// AudienceList is one extracted segment, sorted by score descending with
// unscored rows last.
type AudienceList struct {
	Name    string
	Members []domain.PatientSummary
}

func scorePtr(v float64) *float64 { return &v }

// DefaultSegments returns the clinic's standing outreach lists for the
// cohort strategy's output.
func DefaultSegments() []Segment {
	return []Segment{
		{
			Name: "prime_reactivation",
			Rules: []SegmentRule{
				{Cohorts: []string{"A"}, Grades: []string{"A1", "A2"}, MinScore: scorePtr(50), MaxScore: scorePtr(100)},
			},
		},
		{
			Name: "cohort_c_outreach",
			Rules: []SegmentRule{
				{Cohorts: []string{"C"}},
			},
		},
		{
			Name: "growth_candidates",
			Rules: []SegmentRule{
				{Cohorts: []string{"A"}, MinScore: scorePtr(30), MaxScore: scorePtr(50), MaxExclusive: true},
				{Cohorts: []string{"D", "E"}, MinScore: scorePtr(40)},
			},
		},
	}
}

// ExtractAudiences filters a classified table into the configured outreach
// segments as of a date. A patient may appear in more than one segment.
func ExtractAudiences(ctx context.Context, logger Logger, classified []domain.PatientSummary, segments []Segment, asOf time.Time) []AudienceList {
	if logger == nil {
		logger = slog.Default()
	}

	lists := make([]AudienceList, 0, len(segments))
	for _, seg := range segments {
		members := make([]domain.PatientSummary, 0)
		for _, p := range classified {
			if !inAudienceBand(p, asOf) {
				continue
			}
			if seg.matches(p) {
				members = append(members, p)
			}
		}
		sortByScoreDesc(members)
		lists = append(lists, AudienceList{Name: seg.Name, Members: members})

		logger.InfoContext(ctx, "extracted audience segment",
			slog.String("segment", seg.Name),
			slog.Int("member_count", len(members)))
	}
	return lists
}

func (s Segment) matches(p domain.PatientSummary) bool {
	for _, rule := range s.Rules {
		if rule.matches(p) {
			return true
		}
	}
	return false
}

func (r SegmentRule) matches(p domain.PatientSummary) bool {
	if len(r.Cohorts) > 0 && !containsString(r.Cohorts, p.CohortLabel) {
		return false
	}
	if len(r.Grades) > 0 && !containsString(r.Grades, p.Grade) {
		return false
	}
	if r.MinScore != nil || r.MaxScore != nil {
		if p.Score == nil {
			return false
		}
		if r.MinScore != nil && *p.Score < *r.MinScore {
			return false
		}
		if r.MaxScore != nil {
			if r.MaxExclusive {
				if *p.Score >= *r.MaxScore {
					return false
				}
			} else if *p.Score > *r.MaxScore {
				return false
			}
		}
	}
	return true
}

func inAudienceBand(p domain.PatientSummary, asOf time.Time) bool {
	days, ok := p.DaysSinceLastVisit(asOf)
	if !ok {
		return false
	}
	return days >= AudienceBandMinDays && days <= AudienceBandMaxDays
}

// sortByScoreDesc orders members by score descending, keeping unscored rows
// at the end and breaking ties by patient ID for determinism.
func sortByScoreDesc(members []domain.PatientSummary) {
	sort.SliceStable(members, func(i, j int) bool {
		si, sj := members[i].Score, members[j].Score
		switch {
		case si == nil && sj == nil:
			return members[i].PatientID < members[j].PatientID
		case si == nil:
			return false
		case sj == nil:
			return true
		case *si != *sj:
			return *si > *sj
		default:
			return members[i].PatientID < members[j].PatientID
		}
	})
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
