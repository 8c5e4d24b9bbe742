package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTransactionRecord_NetRevenue(t *testing.T) {
	tests := []struct {
		name string
		rec  TransactionRecord
		want float64
	}{
		{
			name: "all components",
			rec:  TransactionRecord{GrossRevenue: 100000, Discount: 10000, Refund: 5000, Receivable: 20000},
			want: 75000,
		},
		{
			name: "gross only",
			rec:  TransactionRecord{GrossRevenue: 350000},
			want: 350000,
		},
		{
			name: "may be negative",
			rec:  TransactionRecord{GrossRevenue: 1000, Receivable: 5000},
			want: -4000,
		},
		{
			name: "zero row",
			rec:  TransactionRecord{},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.NetRevenue())
		})
	}
}

func TestTransactionRecord_Key(t *testing.T) {
	dated := TransactionRecord{PatientID: "100", VisitDate: date(2025, 1, 1)}
	assert.Equal(t, "100|2025-01-01", dated.Key())

	undated := TransactionRecord{PatientID: "100"}
	assert.Equal(t, "100|undated", undated.Key())
}

func TestLedger_HasDuplicateKeys(t *testing.T) {
	l := Ledger{
		{PatientID: "100", VisitDate: date(2025, 1, 1)},
		{PatientID: "100", VisitDate: date(2025, 1, 2)},
		{PatientID: "200", VisitDate: date(2025, 1, 1)},
	}
	assert.False(t, l.HasDuplicateKeys())

	l = append(l, TransactionRecord{PatientID: "100", VisitDate: date(2025, 1, 1), GrossRevenue: 999})
	assert.True(t, l.HasDuplicateKeys())
}

func TestTierForRevenue(t *testing.T) {
	tests := []struct {
		total float64
		want  RevenueTier
	}{
		{0, TierStandard},
		{4_999_999, TierStandard},
		{5_000_000, TierVIP},
		{9_999_999, TierVIP},
		{10_000_000, TierVVIP},
		{25_000_000, TierVVIP},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TierForRevenue(tt.total), "total %v", tt.total)
	}
}

func TestPatientSummary_DaysSinceLastVisit(t *testing.T) {
	asOf := date(2025, 8, 1)

	last := date(2025, 7, 2)
	p := PatientSummary{LastVisitDate: &last}
	days, ok := p.DaysSinceLastVisit(asOf)
	assert.True(t, ok)
	assert.Equal(t, 30, days)

	days, ok = PatientSummary{}.DaysSinceLastVisit(asOf)
	assert.False(t, ok)
	assert.Zero(t, days)
}

func TestPatientSummary_IsValid(t *testing.T) {
	valid := PatientSummary{PatientID: "100", PurchaseCount: 4, NetRevenueTotal: 400000, AvgTicket: 100000}
	assert.True(t, valid.IsValid())

	inconsistent := valid
	inconsistent.AvgTicket = 90000
	assert.False(t, inconsistent.IsValid())

	assert.False(t, PatientSummary{PurchaseCount: 1}.IsValid())
}

func TestTransitionState_Ordering(t *testing.T) {
	// The numeric order is the documented report sort order.
	assert.True(t, TransitionRetained < TransitionGradeChanged)
	assert.True(t, TransitionGradeChanged < TransitionDropped)
	assert.True(t, TransitionDropped < TransitionNew)
	assert.True(t, TransitionNew < TransitionOther)

	assert.Equal(t, "retained", TransitionRetained.String())
	assert.Equal(t, "grade changed", TransitionGradeChanged.String())
	assert.Equal(t, "dropped", TransitionDropped.String())
	assert.Equal(t, "new", TransitionNew.String())
	assert.Equal(t, "other", TransitionOther.String())
}

func TestRosterSnapshot_GradeByName(t *testing.T) {
	snap := RosterSnapshot{Entries: []RosterEntry{
		{PatientName: "Kim", Grade: TierVIP},
		{PatientName: "Choi", Grade: TierVVIP},
	}}
	assert.Equal(t, TierVIP, snap.GradeByName("Kim"))
	assert.Equal(t, TierVVIP, snap.GradeByName("Choi"))
	assert.Equal(t, TierStandard, snap.GradeByName("absent"))
}

func TestKPIPeriodRecord_IsValid(t *testing.T) {
	arpu := 50000.0
	valid := KPIPeriodRecord{
		YearMonth: "2025-01", VisitCount: 10, UniquePatients: 4,
		NewPatients: 1, ReturningPatients: 3, ARPU: &arpu,
	}
	assert.True(t, valid.IsValid())

	splitWrong := valid
	splitWrong.NewPatients = 2
	assert.False(t, splitWrong.IsValid())

	emptyBucket := KPIPeriodRecord{YearMonth: "2025-02"}
	assert.True(t, emptyBucket.IsValid())

	arpuOnEmpty := emptyBucket
	arpuOnEmpty.ARPU = &arpu
	assert.False(t, arpuOnEmpty.IsValid())
}
