package ledger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicpulse/pkg/contracts/domain"
)

func TestLoadLedger_MissingFileIsEmptyLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patient_ledger.csv")
	l, err := LoadLedger(context.Background(), nil, path)
	require.NoError(t, err)
	assert.Empty(t, l)
}

func TestWriteAndLoadLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patient_ledger.csv")
	original := domain.Ledger{
		{
			PatientID: "100", PatientName: "Kim", VisitDate: date(2025, 1, 1),
			GrossRevenue: 350000, Discount: 50000, Refund: 0, Receivable: 10000,
			VisitPurpose: "treatment", AttendingStaff: "dr. yoon",
			Contact: "010-1234", PatientTag: "program a",
		},
		{PatientID: "200", PatientName: "Lee", GrossRevenue: 100000},
	}

	require.NoError(t, WriteLedger(context.Background(), nil, path, original))

	loaded, err := LoadLedger(context.Background(), nil, path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, original[0], loaded[0])

	// The undated row survives with a zero visit date.
	assert.False(t, loaded[1].HasVisitDate())
	assert.Equal(t, original[1].GrossRevenue, loaded[1].GrossRevenue)
}

func TestWriteLedger_PublishesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patient_ledger.csv")
	require.NoError(t, WriteLedger(context.Background(), nil, path, domain.Ledger{
		{PatientID: "100", VisitDate: date(2025, 1, 1)},
	}))

	// No temporary leftovers next to the published artifact.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "patient_ledger.csv", entries[0].Name())
}
