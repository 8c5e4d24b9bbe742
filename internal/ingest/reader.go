package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"clinicpulse/internal/errors"
	"clinicpulse/pkg/contracts/domain"
)

// Reader loads transaction batches from delimited text or workbook files and
// coerces them into typed records. Column resolution happens exactly once per
// file.
type Reader struct {
	logger   *slog.Logger
	synonyms FieldSynonyms
}

// NewReader creates a batch reader with the given synonym configuration.
// A nil synonyms map falls back to DefaultSynonyms.
func NewReader(logger *slog.Logger, synonyms FieldSynonyms) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	if synonyms == nil {
		synonyms = DefaultSynonyms()
	}
	return &Reader{logger: logger, synonyms: synonyms}
}

// ReadTransactions loads a batch file and returns the typed transaction
// records. Value-level quality issues coerce to missing and are counted as
// warnings; only a structurally absent required column aborts. A file whose
// columns resolve but which yields no usable rows returns an EmptyResult
// error so callers can skip it.
func (r *Reader) ReadTransactions(ctx context.Context, path string) ([]domain.TransactionRecord, error) {
	headers, rows, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	if len(headers) == 0 {
		return nil, errors.NewParsingError("input file has no header row", nil).WithContext("path", path)
	}

	colMap, err := ResolveColumns(headers, r.synonyms, requiredFields)
	if err != nil {
		return nil, err
	}

	records := make([]domain.TransactionRecord, 0, len(rows))
	var dateWarnings, amountWarnings int

	for _, row := range rows {
		id := CleanPatientID(colMap.Value(row, FieldPatientID))
		if id == "" {
			continue // no identifier, row cannot join anything
		}

		rec := domain.TransactionRecord{
			PatientID:      id,
			PatientName:    colMap.Value(row, FieldPatientName),
			VisitPurpose:   colMap.Value(row, FieldVisitPurpose),
			AttendingStaff: colMap.Value(row, FieldAttendingStaff),
			Contact:        colMap.Value(row, FieldContact),
			PatientTag:     colMap.Value(row, FieldPatientTag),
		}

		rawDate := colMap.Value(row, FieldVisitDate)
		if d := CoerceDate(rawDate); d != nil {
			rec.VisitDate = *d
		} else if rawDate != "" {
			dateWarnings++
		}

		rawGross := colMap.Value(row, FieldGrossRevenue)
		if v := CoerceNumber(rawGross); v != nil {
			rec.GrossRevenue = *v
		} else if rawGross != "" {
			amountWarnings++
		}
		rec.Discount = NumberOrZero(colMap.Value(row, FieldDiscount))
		rec.Refund = NumberOrZero(colMap.Value(row, FieldRefund))
		rec.Receivable = NumberOrZero(colMap.Value(row, FieldReceivable))

		records = append(records, rec)
	}

	if dateWarnings > 0 || amountWarnings > 0 {
		r.logger.WarnContext(ctx, "data quality issues coerced to missing",
			slog.String("path", filepath.Base(path)),
			slog.Int("unparseable_dates", dateWarnings),
			slog.Int("unparseable_amounts", amountWarnings))
	}

	if len(records) == 0 {
		return nil, errors.NewEmptyResultError("batch file produced no transaction rows").
			WithContext("path", path)
	}

	r.logger.InfoContext(ctx, "loaded transaction batch",
		slog.String("path", filepath.Base(path)),
		slog.Int("row_count", len(records)))

	return records, nil
}

// ReadTable reads a CSV or workbook file into headers plus data rows.
// Returns a MissingInput error when the file does not exist.
func ReadTable(path string) ([]string, [][]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil, errors.NewMissingInputError(path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readWorkbook(path)
	default:
		return readCSV(path)
	}
}

// readCSV reads a delimited text file, tolerating a UTF-8 BOM and ragged
// row lengths.
func readCSV(path string) ([]string, [][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.NewStorageError("failed to read input file", err)
	}
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1 // exports are frequently ragged
	reader.LazyQuotes = true    // EMR exports wrap IDs as ="0012345"
	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, errors.NewParsingError("failed to parse CSV input", err).WithContext("path", path)
	}
	if len(all) == 0 {
		return nil, nil, nil
	}
	return all[0], all[1:], nil
}

// readWorkbook reads the first sheet of an Excel workbook.
func readWorkbook(path string) ([]string, [][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, errors.NewParsingError("failed to open workbook", err).WithContext("path", path)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, errors.NewParsingError("workbook has no sheets", nil).WithContext("path", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, errors.NewParsingError("failed to read workbook rows", err).WithContext("path", path)
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}
	return rows[0], rows[1:], nil
}
