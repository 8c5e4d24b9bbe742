package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"clinicpulse/internal/errors"
	"clinicpulse/pkg/contracts/domain"
)

// Workbook sheet columns for classified and audience exports.
var workbookHeaders = []string{
	"Name", "Contact", "NetRevenueTotal", "PurchaseCount", "AvgTicket",
	"FirstPurchaseDate", "LastVisitDate", "ScoreLabel", "Score", "Grade",
}

// scoreColumn is the numeric sort column, hidden in the finished sheet.
const scoreColumn = "I"

// WorkbookWriter exports styled Excel workbooks for the weekly hand-off.
type WorkbookWriter struct {
	logger *slog.Logger
}

// NewWorkbookWriter creates a workbook writer.
func NewWorkbookWriter(logger *slog.Logger) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookWriter{logger: logger}
}

// WriteClassified exports the full classified table.
func (w *WorkbookWriter) WriteClassified(filePath string, classified []domain.PatientSummary) error {
	return w.write(filePath, "Classification", classified)
}

// WriteAudience exports one outreach audience list.
func (w *WorkbookWriter) WriteAudience(filePath, segment string, members []domain.PatientSummary) error {
	return w.write(filePath, segment, members)
}

func (w *WorkbookWriter) write(filePath, sheet string, rows []domain.PatientSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return errors.NewStorageError("failed to name sheet", err)
	}

	for col, header := range workbookHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return errors.NewStorageError("failed to write header cell", err)
		}
	}
	for i, p := range rows {
		values := []any{
			p.Name, p.Contact, p.NetRevenueTotal, p.PurchaseCount, p.AvgTicket,
			FormatDate(p.FirstPurchaseDate), FormatDate(p.LastVisitDate),
			scoreLabel(p), scoreValue(p.Score), p.Grade,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return errors.NewStorageError("failed to write cell", err)
			}
		}
	}

	if err := w.style(f, sheet, len(rows)); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return errors.NewStorageError("failed to create output directory", err)
	}
	if err := f.SaveAs(filePath); err != nil {
		return errors.NewStorageError("failed to save workbook", err)
	}

	w.logger.Info("wrote workbook artifact",
		slog.String("path", filePath),
		slog.String("sheet", sheet),
		slog.Int("row_count", len(rows)))

	return nil
}

// style applies the hand-off formatting: centered cells, thousands
// separators on the money columns, fixed widths, an auto filter, a frozen
// header row, and the hidden numeric sort column.
func (w *WorkbookWriter) style(f *excelize.File, sheet string, rowCount int) error {
	lastRow := rowCount + 1
	lastCol, _ := excelize.ColumnNumberToName(len(workbookHeaders))

	center := &excelize.Alignment{Horizontal: "center", Vertical: "center"}
	baseStyle, err := f.NewStyle(&excelize.Style{Alignment: center})
	if err != nil {
		return errors.NewStorageError("failed to create style", err)
	}
	if err := f.SetCellStyle(sheet, "A1", fmt.Sprintf("%s%d", lastCol, lastRow), baseStyle); err != nil {
		return errors.NewStorageError("failed to apply style", err)
	}

	if rowCount > 0 {
		intFmt := "#,##0"
		moneyStyle, err := f.NewStyle(&excelize.Style{Alignment: center, CustomNumFmt: &intFmt})
		if err != nil {
			return errors.NewStorageError("failed to create number style", err)
		}
		decFmt := "#,##0.##"
		avgStyle, err := f.NewStyle(&excelize.Style{Alignment: center, CustomNumFmt: &decFmt})
		if err != nil {
			return errors.NewStorageError("failed to create number style", err)
		}
		for _, rng := range []struct {
			col   string
			style int
		}{
			{"C", moneyStyle}, {"D", moneyStyle}, {"E", avgStyle}, {scoreColumn, moneyStyle},
		} {
			start := fmt.Sprintf("%s2", rng.col)
			end := fmt.Sprintf("%s%d", rng.col, lastRow)
			if err := f.SetCellStyle(sheet, start, end, rng.style); err != nil {
				return errors.NewStorageError("failed to apply number style", err)
			}
		}
	}

	widths := map[string]float64{
		"A": 18, "B": 16, "C": 16, "D": 12, "E": 14,
		"F": 16, "G": 16, "H": 16, "I": 10, "J": 10,
	}
	for col, width := range widths {
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return errors.NewStorageError("failed to set column width", err)
		}
	}

	filterRange := fmt.Sprintf("A1:%s%d", lastCol, lastRow)
	if err := f.AutoFilter(sheet, filterRange, nil); err != nil {
		return errors.NewStorageError("failed to set auto filter", err)
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return errors.NewStorageError("failed to freeze header row", err)
	}
	if err := f.SetColVisible(sheet, scoreColumn, false); err != nil {
		return errors.NewStorageError("failed to hide sort column", err)
	}
	return nil
}

// scoreLabel is the human-readable score text shown next to the hidden
// numeric column.
func scoreLabel(p domain.PatientSummary) string {
	if p.Score == nil {
		return fmt.Sprintf("cohort %s score -", p.CohortLabel)
	}
	return fmt.Sprintf("cohort %s score %d", p.CohortLabel, int(*p.Score))
}

// scoreValue fills the hidden sort column; unscored rows sort to the
// bottom.
func scoreValue(score *float64) float64 {
	if score == nil {
		return -1
	}
	return *score
}
