package domain

import (
	"time"
)

// RosterEntry is one VIP/VVIP patient captured in a roster snapshot.
type RosterEntry struct {
	PatientName   string      `json:"patient_name" csv:"PatientName"`
	Contact       string      `json:"contact,omitempty" csv:"Contact"`
	NetRevenue    float64     `json:"net_revenue" csv:"NetRevenue"`
	LastVisitDate *time.Time  `json:"last_visit_date,omitempty" csv:"LastVisitDate"`
	Grade         RevenueTier `json:"grade" csv:"Grade"`
}

// RosterSnapshot is a dated, immutable capture of the VIP/VVIP roster.
// Membership is evaluated only at capture time and never retroactively
// corrected.
type RosterSnapshot struct {
	CaptureDate time.Time     `json:"capture_date"`
	Entries     []RosterEntry `json:"entries"`
}

// GradeByName returns the grade recorded for a patient name, or TierStandard
// when the patient is absent from the snapshot.
func (s RosterSnapshot) GradeByName(name string) RevenueTier {
	for _, e := range s.Entries {
		if e.PatientName == name {
			return e.Grade
		}
	}
	return TierStandard
}

// TransitionState classifies a patient's week-over-week roster membership
// change. The numeric order is the documented report sort order.
type TransitionState int

const (
	// TransitionRetained: VIP both weeks, same grade.
	TransitionRetained TransitionState = iota
	// TransitionGradeChanged: VIP both weeks, grade moved (e.g. VIP -> VVIP).
	TransitionGradeChanged
	// TransitionDropped: VIP last week, off the roster this week.
	TransitionDropped
	// TransitionNew: on the roster this week, absent last week.
	TransitionNew
	// TransitionOther: VIP in neither week.
	TransitionOther
)

// String returns the report label for the transition state.
func (ts TransitionState) String() string {
	switch ts {
	case TransitionRetained:
		return "retained"
	case TransitionGradeChanged:
		return "grade changed"
	case TransitionDropped:
		return "dropped"
	case TransitionNew:
		return "new"
	case TransitionOther:
		return "other"
	default:
		return "unknown"
	}
}

// RosterDiffRecord is one patient's transition between two consecutive
// snapshots. Grades default to TierStandard for the side the patient was
// absent from.
type RosterDiffRecord struct {
	PatientName  string          `json:"patient_name" csv:"PatientName"`
	PriorGrade   RevenueTier     `json:"prior_grade" csv:"PriorGrade"`
	CurrentGrade RevenueTier     `json:"current_grade" csv:"CurrentGrade"`
	Transition   TransitionState `json:"transition" csv:"Transition"`
}
