package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicpulse/pkg/contracts/domain"
)

func summarizeOne(t *testing.T, visits []domain.TransactionRecord, asOf time.Time) domain.PatientSummary {
	t.Helper()
	s := NewSummarizer(nil, DefaultSummarizeOptions())
	summaries := s.Summarize(context.Background(), visits, asOf)
	require.Len(t, summaries, 1)
	return summaries[0]
}

func TestSummarizer_Aggregates(t *testing.T) {
	asOf := date(2025, 3, 1)
	visits := []domain.TransactionRecord{
		{PatientID: "100", PatientName: "Kim", VisitDate: date(2025, 1, 10), GrossRevenue: 300000, Discount: 50000},
		{PatientID: "100", PatientName: "Kim", VisitDate: date(2025, 2, 10), GrossRevenue: 200000, Refund: 10000},
		{PatientID: "100", PatientName: "Kim", VisitDate: date(2025, 2, 20), GrossRevenue: 100000, Receivable: 20000},
	}

	p := summarizeOne(t, visits, asOf)

	assert.Equal(t, "100", p.PatientID)
	assert.Equal(t, "Kim", p.Name)
	assert.Equal(t, 540000.0, p.NetRevenueTotal)
	assert.Equal(t, 3, p.PurchaseCount)
	assert.InDelta(t, 180000.0, p.AvgTicket, 0.001)
	require.NotNil(t, p.LastVisitDate)
	assert.Equal(t, date(2025, 2, 20), *p.LastVisitDate)
	require.NotNil(t, p.FirstPurchaseDate)
	assert.Equal(t, date(2025, 1, 10), *p.FirstPurchaseDate)
	assert.Equal(t, domain.TierStandard, p.RevenueTier)
	assert.True(t, p.IsValid())
}

func TestSummarizer_AvgTicketConsistency(t *testing.T) {
	asOf := date(2025, 3, 1)
	visits := []domain.TransactionRecord{
		{PatientID: "1", VisitDate: date(2025, 2, 1), GrossRevenue: 70000},
		{PatientID: "1", VisitDate: date(2025, 2, 2), GrossRevenue: 50000},
		{PatientID: "1", VisitDate: date(2025, 2, 3)},
	}
	p := summarizeOne(t, visits, asOf)
	assert.Equal(t, p.NetRevenueTotal/float64(p.PurchaseCount), p.AvgTicket)
}

func TestSummarizer_FirstPurchaseSkipsReservationFee(t *testing.T) {
	asOf := date(2025, 6, 1)
	visits := []domain.TransactionRecord{
		{PatientID: "100", VisitDate: date(2025, 5, 1), GrossRevenue: 100000}, // reservation deposit
		{PatientID: "100", VisitDate: date(2025, 5, 8), GrossRevenue: 250000},
		{PatientID: "100", VisitDate: date(2025, 5, 15), GrossRevenue: 400000},
	}
	p := summarizeOne(t, visits, asOf)
	assert.Equal(t, 250000.0, p.FirstPurchaseAmount)
}

func TestSummarizer_FirstPurchaseKeepsLoneDeposit(t *testing.T) {
	asOf := date(2025, 6, 1)
	visits := []domain.TransactionRecord{
		{PatientID: "100", VisitDate: date(2025, 5, 1), GrossRevenue: 100000},
	}
	p := summarizeOne(t, visits, asOf)
	assert.Equal(t, 100000.0, p.FirstPurchaseAmount)
}

func TestSummarizer_UndatedRowsOrderAfterDated(t *testing.T) {
	asOf := date(2025, 6, 1)
	visits := []domain.TransactionRecord{
		{PatientID: "100", VisitDate: date(2025, 3, 1), GrossRevenue: 250000},
		{PatientID: "100", GrossRevenue: 999999}, // undated
	}
	p := summarizeOne(t, visits, asOf)

	// The undated row must not pose as the first purchase; amount and date
	// both come from the dated history.
	assert.Equal(t, 250000.0, p.FirstPurchaseAmount)
	require.NotNil(t, p.FirstPurchaseDate)
	assert.Equal(t, date(2025, 3, 1), *p.FirstPurchaseDate)

	// With no dated rows at all, the undated amount is still used.
	p = summarizeOne(t, []domain.TransactionRecord{{PatientID: "100", GrossRevenue: 999999}}, asOf)
	assert.Equal(t, 999999.0, p.FirstPurchaseAmount)
	assert.Nil(t, p.FirstPurchaseDate)
}

func TestSummarizer_LifecycleStatus(t *testing.T) {
	asOf := date(2025, 8, 1)
	tests := []struct {
		name   string
		visits []domain.TransactionRecord
		want   domain.LifecycleStatus
	}{
		{
			name: "lapsed by staleness",
			visits: []domain.TransactionRecord{
				{PatientID: "1", VisitDate: date(2025, 1, 1), GrossRevenue: 500000},
			},
			want: domain.StatusLapsed,
		},
		{
			name: "lapsed by missing dates",
			visits: []domain.TransactionRecord{
				{PatientID: "1", GrossRevenue: 500000},
			},
			want: domain.StatusLapsed,
		},
		{
			name: "partial purchaser",
			visits: []domain.TransactionRecord{
				{PatientID: "1", VisitDate: date(2025, 6, 1), GrossRevenue: 500000},
				{PatientID: "1", VisitDate: date(2025, 7, 1), GrossRevenue: 50000},
				{PatientID: "1", VisitDate: date(2025, 7, 20), GrossRevenue: 50000},
			},
			want: domain.StatusPartial,
		},
		{
			name: "full purchaser",
			visits: []domain.TransactionRecord{
				{PatientID: "1", VisitDate: date(2025, 6, 1), GrossRevenue: 200000},
				{PatientID: "1", VisitDate: date(2025, 7, 20), GrossRevenue: 250000},
			},
			want: domain.StatusFull,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := summarizeOne(t, tt.visits, asOf)
			assert.Equal(t, tt.want, p.LifecycleStatus)
		})
	}
}

func TestSummarizer_RevenueTiers(t *testing.T) {
	asOf := date(2025, 8, 1)
	visits := []domain.TransactionRecord{
		{PatientID: "1", VisitDate: date(2025, 7, 1), GrossRevenue: 6_000_000},
		{PatientID: "2", VisitDate: date(2025, 7, 1), GrossRevenue: 12_000_000},
		{PatientID: "3", VisitDate: date(2025, 7, 1), GrossRevenue: 10_000},
	}
	s := NewSummarizer(nil, DefaultSummarizeOptions())
	summaries := s.Summarize(context.Background(), visits, asOf)
	require.Len(t, summaries, 3)

	// Output is sorted by patient ID.
	assert.Equal(t, domain.TierVIP, summaries[0].RevenueTier)
	assert.Equal(t, domain.TierVVIP, summaries[1].RevenueTier)
	assert.Equal(t, domain.TierStandard, summaries[2].RevenueTier)
}

func TestSummarizer_LatestContactWins(t *testing.T) {
	asOf := date(2025, 8, 1)
	visits := []domain.TransactionRecord{
		{PatientID: "1", PatientName: "Kim", Contact: "010-1111", VisitDate: date(2025, 6, 1), GrossRevenue: 1000},
		{PatientID: "1", PatientName: "Kim", Contact: "", VisitDate: date(2025, 7, 1), GrossRevenue: 1000},
		{PatientID: "1", PatientName: "KimA", Contact: "010-2222", VisitDate: date(2025, 7, 15), GrossRevenue: 1000},
	}
	p := summarizeOne(t, visits, asOf)
	assert.Equal(t, "KimA", p.Name)
	assert.Equal(t, "010-2222", p.Contact)
}
