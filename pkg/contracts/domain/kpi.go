package domain

// KPIPeriodRecord holds the calendar-month KPI rollup for one year-month
// bucket. ARPU is nil when the bucket has no unique patients; it is never
// reported as zero in that case.
type KPIPeriodRecord struct {
	YearMonth         string   `json:"year_month" csv:"YearMonth"`
	VisitCount        int      `json:"visit_count" csv:"VisitCount"`
	UniquePatients    int      `json:"unique_patients" csv:"UniquePatients"`
	NewPatients       int      `json:"new_patients" csv:"NewPatients"`
	ReturningPatients int      `json:"returning_patients" csv:"ReturningPatients"`
	NetRevenue        float64  `json:"net_revenue" csv:"NetRevenue"`
	ARPU              *float64 `json:"arpu,omitempty" csv:"ARPU"`

	// PurposeDistribution maps visit purpose to either a percentage of the
	// bucket total or a raw count, per rollup options.
	PurposeDistribution map[string]float64 `json:"purpose_distribution,omitempty"`
}

// IsValid checks internal consistency of the bucket counts.
func (k KPIPeriodRecord) IsValid() bool {
	if k.YearMonth == "" || k.VisitCount < 0 || k.UniquePatients < 0 {
		return false
	}
	if k.NewPatients+k.ReturningPatients != k.UniquePatients {
		return false
	}
	if k.UniquePatients == 0 && k.ARPU != nil {
		return false
	}
	return true
}
