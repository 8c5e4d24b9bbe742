package roster

import (
	"context"
	"log/slog"
	"time"

	"clinicpulse/internal/ingest"
	"clinicpulse/pkg/contracts/domain"
)

// snapshotRequiredFields must resolve for a snapshot file to be diffable.
var snapshotRequiredFields = []ingest.Field{
	ingest.FieldPatientName, ingest.FieldGrossRevenue, ingest.FieldGrade,
}

// LoadSnapshot reads a persisted roster snapshot back for diffing. Columns
// resolve through the summary synonym list, so operator-edited headers still
// load. The capture date comes from the artifact name, which discovery
// already parsed.
func LoadSnapshot(ctx context.Context, logger *slog.Logger, path string, captureDate time.Time) (domain.RosterSnapshot, error) {
	if logger == nil {
		logger = slog.Default()
	}

	headers, rows, err := ingest.ReadTable(path)
	if err != nil {
		return domain.RosterSnapshot{}, err
	}

	colMap, err := ingest.ResolveColumns(headers, ingest.SummarySynonyms(), snapshotRequiredFields)
	if err != nil {
		return domain.RosterSnapshot{}, err
	}

	entries := make([]domain.RosterEntry, 0, len(rows))
	for _, row := range rows {
		name := colMap.Value(row, ingest.FieldPatientName)
		if name == "" {
			continue
		}
		entry := domain.RosterEntry{
			PatientName: name,
			Contact:     colMap.Value(row, ingest.FieldContact),
			NetRevenue:  ingest.NumberOrZero(colMap.Value(row, ingest.FieldGrossRevenue)),
			Grade:       domain.RevenueTier(colMap.Value(row, ingest.FieldGrade)),
		}
		if d := ingest.CoerceDate(colMap.Value(row, ingest.FieldVisitDate)); d != nil {
			entry.LastVisitDate = d
		}
		entries = append(entries, entry)
	}

	logger.InfoContext(ctx, "loaded roster snapshot",
		slog.String("path", path),
		slog.String("capture_date", captureDate.Format("2006-01-02")),
		slog.Int("entry_count", len(entries)))

	return domain.RosterSnapshot{CaptureDate: captureDate, Entries: entries}, nil
}
