package domain

import (
	"fmt"
	"time"
)

// TransactionRecord represents a single clinic visit row from a weekly batch
// export. Monetary fields are in KRW. A zero VisitDate means the source value
// was missing or unparseable; such rows are kept but excluded from date-based
// aggregates.
type TransactionRecord struct {
	PatientID      string    `json:"patient_id" csv:"PatientID"`
	PatientName    string    `json:"patient_name" csv:"PatientName"`
	VisitDate      time.Time `json:"visit_date" csv:"VisitDate"`
	GrossRevenue   float64   `json:"gross_revenue" csv:"GrossRevenue"`
	Discount       float64   `json:"discount" csv:"Discount"`
	Refund         float64   `json:"refund" csv:"Refund"`
	Receivable     float64   `json:"receivable" csv:"Receivable"`
	VisitPurpose   string    `json:"visit_purpose,omitempty" csv:"VisitPurpose"`
	AttendingStaff string    `json:"attending_staff,omitempty" csv:"AttendingStaff"`
	Contact        string    `json:"contact,omitempty" csv:"Contact"`
	PatientTag     string    `json:"patient_tag,omitempty" csv:"PatientTag"`
}

// NetRevenue returns the adjusted revenue for the visit:
// gross - discount + refund - receivable. May be negative.
func (t TransactionRecord) NetRevenue() float64 {
	return t.GrossRevenue - t.Discount + t.Refund - t.Receivable
}

// HasVisitDate reports whether the visit date was successfully parsed.
func (t TransactionRecord) HasVisitDate() bool {
	return !t.VisitDate.IsZero()
}

// Key returns the ledger uniqueness key (patient_id, visit_date).
// Rows without a visit date key on the patient ID alone plus a marker so they
// never collide with dated rows.
func (t TransactionRecord) Key() string {
	if !t.HasVisitDate() {
		return t.PatientID + "|undated"
	}
	return fmt.Sprintf("%s|%s", t.PatientID, t.VisitDate.Format("2006-01-02"))
}

// IsValid checks that the record carries the minimum fields the ledger needs.
func (t TransactionRecord) IsValid() bool {
	return t.PatientID != ""
}

// Ledger is the cumulative, deduplicated collection of transaction records.
// Uniqueness is by (patient_id, visit_date); see TransactionRecord.Key.
type Ledger []TransactionRecord

// HasDuplicateKeys reports whether any (patient_id, visit_date) pair occurs
// more than once. A well-formed ledger always returns false.
func (l Ledger) HasDuplicateKeys() bool {
	seen := make(map[string]struct{}, len(l))
	for _, rec := range l {
		key := rec.Key()
		if _, ok := seen[key]; ok {
			return true
		}
		seen[key] = struct{}{}
	}
	return false
}

// PatientIDs returns the distinct patient identifiers in ledger order.
func (l Ledger) PatientIDs() []string {
	seen := make(map[string]struct{}, len(l))
	ids := make([]string, 0, len(l))
	for _, rec := range l {
		if _, ok := seen[rec.PatientID]; ok {
			continue
		}
		seen[rec.PatientID] = struct{}{}
		ids = append(ids, rec.PatientID)
	}
	return ids
}
