// Package exporter writes pipeline artifacts as CSV files and styled Excel
// workbooks. CSV output carries a UTF-8 BOM so spreadsheet tools open the
// Korean text correctly, and every write publishes atomically via a
// temporary file.
package exporter

import (
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"clinicpulse/internal/errors"
	"clinicpulse/pkg/contracts/domain"
)

// CSVWriter provides CSV export functionality.
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance.
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger}
}

// WriteOptions configures CSV writing behavior.
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file. The rows go to a temporary file in
// the target directory which replaces the destination on success.
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	w.logger.Info("writing csv artifact",
		slog.String("path", filePath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return errors.NewStorageError("failed to create output directory", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(filePath), ".artifact-*.csv")
	if err != nil {
		return errors.NewStorageError("failed to create temporary file", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if options.BOMPrefix {
		if _, err := tmp.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			tmp.Close()
			return errors.NewStorageError("failed to write BOM", err)
		}
	}

	writer := csv.NewWriter(tmp)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			tmp.Close()
			return errors.NewStorageError("failed to write headers", err)
		}
	}
	for _, record := range options.Records {
		if err := writer.Write(record); err != nil {
			tmp.Close()
			return errors.NewStorageError("failed to write record", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		return errors.NewStorageError("failed to flush records", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.NewStorageError("failed to close temporary file", err)
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		return errors.NewStorageError("failed to publish artifact", err)
	}
	return nil
}

// WriteSummaries exports the per-patient summary table.
func (w *CSVWriter) WriteSummaries(filePath string, summaries []domain.PatientSummary) error {
	headers := []string{
		"PatientID", "Name", "Contact", "PatientTag", "Cohort",
		"NetRevenueTotal", "PurchaseCount", "AvgTicket",
		"FirstPurchaseAmount", "FirstPurchaseDate", "LastVisitDate",
		"RevenueTier", "LifecycleStatus", "Score", "Grade",
	}
	records := make([][]string, 0, len(summaries))
	for _, p := range summaries {
		records = append(records, []string{
			p.PatientID, p.Name, p.Contact, p.PatientTag, p.CohortLabel,
			FormatAmount(p.NetRevenueTotal),
			FormatCount(p.PurchaseCount),
			FormatAmount(p.AvgTicket),
			FormatAmount(p.FirstPurchaseAmount),
			FormatDate(p.FirstPurchaseDate),
			FormatDate(p.LastVisitDate),
			string(p.RevenueTier),
			string(p.LifecycleStatus),
			FormatScore(p.Score),
			p.Grade,
		})
	}
	return w.WriteCSV(filePath, WriteOptions{Headers: headers, Records: records, BOMPrefix: true})
}

// WriteSnapshot exports a dated roster snapshot.
func (w *CSVWriter) WriteSnapshot(filePath string, snapshot domain.RosterSnapshot) error {
	headers := []string{"PatientName", "Contact", "NetRevenue", "LastVisitDate", "Grade"}
	records := make([][]string, 0, len(snapshot.Entries))
	for _, e := range snapshot.Entries {
		records = append(records, []string{
			e.PatientName,
			e.Contact,
			FormatAmount(e.NetRevenue),
			FormatDate(e.LastVisitDate),
			string(e.Grade),
		})
	}
	return w.WriteCSV(filePath, WriteOptions{Headers: headers, Records: records, BOMPrefix: true})
}

// WriteDiff exports the roster transition report.
func (w *CSVWriter) WriteDiff(filePath string, records []domain.RosterDiffRecord) error {
	headers := []string{"PatientName", "PriorGrade", "CurrentGrade", "Transition"}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.PatientName,
			string(r.PriorGrade),
			string(r.CurrentGrade),
			r.Transition.String(),
		})
	}
	return w.WriteCSV(filePath, WriteOptions{Headers: headers, Records: rows, BOMPrefix: true})
}

// WriteKPI exports the monthly KPI table. Purpose distributions become one
// column per purpose, unioned across all buckets so every row has the same
// shape.
func (w *CSVWriter) WriteKPI(filePath string, records []domain.KPIPeriodRecord) error {
	purposeSet := make(map[string]struct{})
	for _, r := range records {
		for purpose := range r.PurposeDistribution {
			purposeSet[purpose] = struct{}{}
		}
	}
	purposes := make([]string, 0, len(purposeSet))
	for purpose := range purposeSet {
		purposes = append(purposes, purpose)
	}
	sort.Strings(purposes)

	headers := []string{
		"YearMonth", "VisitCount", "UniquePatients", "NewPatients",
		"ReturningPatients", "NetRevenue", "ARPU",
	}
	headers = append(headers, purposes...)

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := []string{
			r.YearMonth,
			FormatCount(r.VisitCount),
			FormatCount(r.UniquePatients),
			FormatCount(r.NewPatients),
			FormatCount(r.ReturningPatients),
			FormatAmount(r.NetRevenue),
			FormatScore(r.ARPU),
		}
		for _, purpose := range purposes {
			if v, ok := r.PurposeDistribution[purpose]; ok {
				row = append(row, FormatAmount(v))
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}
	return w.WriteCSV(filePath, WriteOptions{Headers: headers, Records: rows, BOMPrefix: true})
}
