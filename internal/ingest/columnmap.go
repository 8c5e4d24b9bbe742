package ingest

import (
	"strings"

	"clinicpulse/internal/errors"
)

// Field identifies a logical column the pipeline consumes. Physical headers
// vary between EMR exports; fields are resolved once per file through a
// configured synonym list, never re-guessed per stage.
type Field string

const (
	FieldPatientID      Field = "patient_id"
	FieldPatientName    Field = "patient_name"
	FieldVisitDate      Field = "visit_date"
	FieldGrossRevenue   Field = "gross_revenue"
	FieldDiscount       Field = "discount"
	FieldRefund         Field = "refund"
	FieldReceivable     Field = "receivable"
	FieldVisitPurpose   Field = "visit_purpose"
	FieldAttendingStaff Field = "attending_staff"
	FieldContact        Field = "contact"
	FieldPatientTag     Field = "patient_tag"
	FieldGrade          Field = "grade"
)

// requiredFields are structurally essential; a file that cannot resolve one
// of these aborts the stage with a MissingColumnError naming the field.
var requiredFields = []Field{FieldPatientID, FieldVisitDate, FieldGrossRevenue}

// FieldSynonyms is an ordered priority list of keyword groups per logical
// field. A header matches a group when it contains every keyword in the
// group; earlier groups win over later ones.
type FieldSynonyms map[Field][][]string

// DefaultSynonyms covers the header variants seen across the clinic's EMR
// exports.
func DefaultSynonyms() FieldSynonyms {
	return FieldSynonyms{
		FieldPatientID:      {{"patient", "id"}, {"patient", "no"}, {"patient", "number"}, {"chart", "no"}},
		FieldPatientName:    {{"patient", "name"}, {"name"}},
		FieldVisitDate:      {{"visit", "date"}, {"treatment", "date"}, {"date"}},
		FieldGrossRevenue:   {{"gross", "revenue"}, {"total", "revenue"}, {"revenue"}, {"sales"}},
		FieldDiscount:       {{"discount"}},
		FieldRefund:         {{"refund"}},
		FieldReceivable:     {{"receivable"}, {"outstanding"}},
		FieldVisitPurpose:   {{"visit", "purpose"}, {"purpose"}},
		FieldAttendingStaff: {{"attending"}, {"staff"}, {"doctor"}},
		FieldContact:        {{"contact"}, {"phone"}, {"mobile"}},
		FieldPatientTag:     {{"tag"}},
	}
}

// SummarySynonyms resolves aggregate artifacts such as roster snapshots,
// which carry per-patient columns instead of raw visit columns. Snapshots
// pass back through Excel on an operator's desk, so their headers get the
// same synonym tolerance as EMR exports.
func SummarySynonyms() FieldSynonyms {
	return FieldSynonyms{
		FieldPatientName:  {{"name"}},
		FieldContact:      {{"contact"}, {"phone"}},
		FieldGrossRevenue: {{"net", "revenue"}, {"adjusted", "revenue"}, {"total", "revenue"}, {"revenue"}},
		FieldVisitDate:    {{"last", "visit"}, {"recent", "visit"}, {"last", "purchase"}},
		FieldGrade:        {{"grade"}, {"tier"}},
	}
}

// ColumnMap maps logical fields to header indexes for one input file.
type ColumnMap map[Field]int

// Has reports whether the logical field resolved against the headers.
func (m ColumnMap) Has(field Field) bool {
	_, ok := m[field]
	return ok
}

// Value returns the cell for a logical field, or "" when the field is
// unresolved or the row is short.
func (m ColumnMap) Value(row []string, field Field) string {
	idx, ok := m[field]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// ResolveColumns matches headers against the synonym list and returns the
// resolved column map. Every field in required must resolve; the first one
// that does not aborts with a MissingColumnError naming the logical field.
func ResolveColumns(headers []string, synonyms FieldSynonyms, required []Field) (ColumnMap, error) {
	lowered := make([]string, len(headers))
	for i, h := range headers {
		lowered[i] = strings.ToLower(strings.TrimSpace(h))
	}

	colMap := make(ColumnMap)
	for field, groups := range synonyms {
		if idx, ok := findColumn(lowered, groups); ok {
			colMap[field] = idx
		}
	}

	for _, field := range required {
		if !colMap.Has(field) {
			return nil, errors.NewMissingColumnError(string(field))
		}
	}
	return colMap, nil
}

// findColumn returns the first header index matching any keyword group, in
// group priority order.
func findColumn(lowered []string, groups [][]string) (int, bool) {
	for _, group := range groups {
		for i, header := range lowered {
			if headerMatches(header, group) {
				return i, true
			}
		}
	}
	return 0, false
}

func headerMatches(header string, keywords []string) bool {
	for _, kw := range keywords {
		if !strings.Contains(header, kw) {
			return false
		}
	}
	return true
}
