package ledger

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"clinicpulse/internal/errors"
	"clinicpulse/internal/ingest"
	"clinicpulse/pkg/contracts/domain"
)

// ledgerHeaders is the canonical column order of the persisted ledger CSV.
// The ledger is our own artifact, so headers are fixed, not synonym-matched.
var ledgerHeaders = []string{
	"PatientID", "PatientName", "VisitDate",
	"GrossRevenue", "Discount", "Refund", "Receivable",
	"VisitPurpose", "AttendingStaff", "Contact", "PatientTag",
}

// LoadLedger reads the cumulative ledger CSV. A missing file is not an
// error: the pipeline starts from an empty ledger and warns, so the very
// first weekly run needs no bootstrap step.
func LoadLedger(ctx context.Context, logger *slog.Logger, path string) (domain.Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := os.Stat(path); err != nil {
		logger.WarnContext(ctx, "ledger file not found, starting from empty ledger",
			slog.String("path", path))
		return domain.Ledger{}, nil
	}

	headers, rows, err := ingest.ReadTable(path)
	if err != nil {
		return nil, err
	}
	if len(headers) != len(ledgerHeaders) {
		return nil, errors.NewParsingError(
			fmt.Sprintf("ledger file has %d columns, want %d", len(headers), len(ledgerHeaders)), nil,
		).WithContext("path", path)
	}

	l := make(domain.Ledger, 0, len(rows))
	for _, row := range rows {
		if len(row) < len(ledgerHeaders) {
			continue
		}
		rec := domain.TransactionRecord{
			PatientID:      row[0],
			PatientName:    row[1],
			GrossRevenue:   ingest.NumberOrZero(row[3]),
			Discount:       ingest.NumberOrZero(row[4]),
			Refund:         ingest.NumberOrZero(row[5]),
			Receivable:     ingest.NumberOrZero(row[6]),
			VisitPurpose:   row[7],
			AttendingStaff: row[8],
			Contact:        row[9],
			PatientTag:     row[10],
		}
		if d := ingest.CoerceDate(row[2]); d != nil {
			rec.VisitDate = *d
		}
		if rec.IsValid() {
			l = append(l, rec)
		}
	}

	logger.InfoContext(ctx, "loaded ledger",
		slog.String("path", path),
		slog.Int("row_count", len(l)))

	return l, nil
}

// WriteLedger persists the ledger atomically: rows go to a temporary file in
// the target directory which is renamed over the destination on success, so
// a failed run never leaves a partial ledger behind.
func WriteLedger(ctx context.Context, logger *slog.Logger, path string, l domain.Ledger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewStorageError("failed to create ledger directory", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".ledger-*.csv")
	if err != nil {
		return errors.NewStorageError("failed to create temporary ledger file", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	writer := csv.NewWriter(tmp)
	if err := writer.Write(ledgerHeaders); err != nil {
		tmp.Close()
		return errors.NewStorageError("failed to write ledger header", err)
	}
	for _, rec := range l {
		date := ""
		if rec.HasVisitDate() {
			date = rec.VisitDate.Format("2006-01-02")
		}
		row := []string{
			rec.PatientID,
			rec.PatientName,
			date,
			formatAmount(rec.GrossRevenue),
			formatAmount(rec.Discount),
			formatAmount(rec.Refund),
			formatAmount(rec.Receivable),
			rec.VisitPurpose,
			rec.AttendingStaff,
			rec.Contact,
			rec.PatientTag,
		}
		if err := writer.Write(row); err != nil {
			tmp.Close()
			return errors.NewStorageError("failed to write ledger row", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		return errors.NewStorageError("failed to flush ledger rows", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.NewStorageError("failed to close temporary ledger file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.NewStorageError("failed to publish ledger file", err)
	}

	logger.InfoContext(ctx, "wrote ledger",
		slog.String("path", path),
		slog.Int("row_count", len(l)))

	return nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
