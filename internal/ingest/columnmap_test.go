package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicpulse/internal/errors"
)

func TestResolveColumns(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    map[Field]int
	}{
		{
			name:    "standard export",
			headers: []string{"Patient ID", "Patient Name", "Visit Date", "Gross Revenue", "Discount"},
			want: map[Field]int{
				FieldPatientID:    0,
				FieldPatientName:  1,
				FieldVisitDate:    2,
				FieldGrossRevenue: 3,
				FieldDiscount:     4,
			},
		},
		{
			name:    "synonym headers",
			headers: []string{"Chart No", "Name", "Treatment Date", "Total Sales Revenue"},
			want: map[Field]int{
				FieldPatientID:    0,
				FieldPatientName:  1,
				FieldVisitDate:    2,
				FieldGrossRevenue: 3,
			},
		},
		{
			name:    "case and whitespace tolerant",
			headers: []string{"  PATIENT id  ", "visit DATE", "REVENUE"},
			want: map[Field]int{
				FieldPatientID:    0,
				FieldVisitDate:    1,
				FieldGrossRevenue: 2,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			colMap, err := ResolveColumns(tt.headers, DefaultSynonyms(), requiredFields)
			require.NoError(t, err)
			for field, idx := range tt.want {
				require.True(t, colMap.Has(field), "field %s", field)
				assert.Equal(t, idx, colMap[field], "field %s", field)
			}
		})
	}
}

func TestResolveColumns_PriorityOrder(t *testing.T) {
	// "net revenue" outranks plain "revenue" for the summary artifact even
	// when the plain header appears first.
	headers := []string{"Revenue Raw", "Net Revenue", "Name", "Last Visit"}
	colMap, err := ResolveColumns(headers, SummarySynonyms(), []Field{FieldGrossRevenue})
	require.NoError(t, err)
	assert.Equal(t, 1, colMap[FieldGrossRevenue])
}

func TestResolveColumns_MissingRequired(t *testing.T) {
	headers := []string{"Patient Name", "Visit Date", "Gross Revenue"}
	_, err := ResolveColumns(headers, DefaultSynonyms(), requiredFields)
	require.Error(t, err)
	assert.True(t, errors.IsMissingColumn(err))
	assert.Contains(t, err.Error(), "patient_id")
}

func TestColumnMap_Value(t *testing.T) {
	colMap := ColumnMap{FieldPatientID: 0, FieldContact: 5}
	row := []string{" 100 ", "kim"}

	assert.Equal(t, "100", colMap.Value(row, FieldPatientID))
	// Short row and unresolved field both come back empty.
	assert.Equal(t, "", colMap.Value(row, FieldContact))
	assert.Equal(t, "", colMap.Value(row, FieldVisitDate))
}
