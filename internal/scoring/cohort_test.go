package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"clinicpulse/pkg/contracts/domain"
)

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestTrailingLetterResolver(t *testing.T) {
	resolver := TrailingLetterResolver{}

	tests := []struct {
		name      string
		patient   domain.PatientSummary
		wantLabel string
		wantName  string
	}{
		{
			name:      "trailing cohort letter",
			patient:   domain.PatientSummary{Name: "김서연C"},
			wantLabel: "C",
			wantName:  "김서연C",
		},
		{
			name:      "last alphabetic wins",
			patient:   domain.PatientSummary{Name: "A팀 박지민E"},
			wantLabel: "E",
			wantName:  "A팀 박지민E",
		},
		{
			name:      "lowercase letter normalized",
			patient:   domain.PatientSummary{Name: "이준호d"},
			wantLabel: "D",
			wantName:  "이준호d",
		},
		{
			name:      "2024 first purchase falls back to A",
			patient:   domain.PatientSummary{Name: "최유진", FirstPurchaseDate: datePtr(2024, 3, 1)},
			wantLabel: "A",
			wantName:  "최유진A",
		},
		{
			name:      "2025 first purchase falls back to E",
			patient:   domain.PatientSummary{Name: "정민수", FirstPurchaseDate: datePtr(2025, 1, 15)},
			wantLabel: "E",
			wantName:  "정민수E",
		},
		{
			name:      "other year defaults to A",
			patient:   domain.PatientSummary{Name: "한소희", FirstPurchaseDate: datePtr(2023, 6, 1)},
			wantLabel: "A",
			wantName:  "한소희A",
		},
		{
			name:      "no date defaults to A",
			patient:   domain.PatientSummary{Name: "오세훈"},
			wantLabel: "A",
			wantName:  "오세훈A",
		},
		{
			name:      "unrecognized letter falls through to year rule",
			patient:   domain.PatientSummary{Name: "강민주B", FirstPurchaseDate: datePtr(2025, 2, 1)},
			wantLabel: "E",
			wantName:  "강민주BE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, name := resolver.Resolve(tt.patient)
			assert.Equal(t, tt.wantLabel, label)
			assert.Equal(t, tt.wantName, name)
		})
	}
}
