package domain

import (
	"time"
)

// RevenueTier classifies a patient by lifetime net revenue.
type RevenueTier string

const (
	// TierVVIP is assigned at lifetime net revenue >= 10,000,000.
	TierVVIP RevenueTier = "VVIP"
	// TierVIP is assigned at lifetime net revenue >= 5,000,000.
	TierVIP RevenueTier = "VIP"
	// TierStandard is everyone else, and the default grade a roster diff
	// assumes for a patient absent from a snapshot.
	TierStandard RevenueTier = "standard"
)

// Revenue thresholds for tier assignment, in KRW.
const (
	VVIPRevenueThreshold = 10_000_000
	VIPRevenueThreshold  = 5_000_000
)

// TierForRevenue returns the revenue tier for a lifetime net revenue total.
func TierForRevenue(total float64) RevenueTier {
	switch {
	case total >= VVIPRevenueThreshold:
		return TierVVIP
	case total >= VIPRevenueThreshold:
		return TierVIP
	default:
		return TierStandard
	}
}

// IsVIP reports whether the tier qualifies for roster membership.
func (rt RevenueTier) IsVIP() bool {
	return rt == TierVIP || rt == TierVVIP
}

// LifecycleStatus describes where a patient sits in the purchase lifecycle.
type LifecycleStatus string

const (
	// StatusLapsed: no visit recorded, or more than LapsedAfterDays since the
	// last one.
	StatusLapsed LifecycleStatus = "lapsed"
	// StatusPartial: active but averaging below the partial-purchase ratio of
	// the first purchase amount.
	StatusPartial LifecycleStatus = "partial purchaser"
	// StatusFull: active and purchasing at or above the first-purchase level.
	StatusFull LifecycleStatus = "full purchaser"
)

// Lifecycle classification parameters.
const (
	LapsedAfterDays      = 120
	PartialPurchaseRatio = 0.66
)

// PatientSummary holds per-patient lifetime aggregates plus the outputs of
// the scoring stage. Score is nil for patients forced into the lowest grade
// tier and for rows the selected strategy has not scored yet.
type PatientSummary struct {
	PatientID           string          `json:"patient_id" csv:"PatientID"`
	Name                string          `json:"name" csv:"Name"`
	Contact             string          `json:"contact,omitempty" csv:"Contact"`
	PatientTag          string          `json:"patient_tag,omitempty" csv:"PatientTag"`
	CohortLabel         string          `json:"cohort_label,omitempty" csv:"CohortLabel"`
	NetRevenueTotal     float64         `json:"net_revenue_total" csv:"NetRevenueTotal"`
	PurchaseCount       int             `json:"purchase_count" csv:"PurchaseCount"`
	AvgTicket           float64         `json:"avg_ticket" csv:"AvgTicket"`
	FirstPurchaseAmount float64         `json:"first_purchase_amount" csv:"FirstPurchaseAmount"`
	FirstPurchaseDate   *time.Time      `json:"first_purchase_date,omitempty" csv:"FirstPurchaseDate"`
	LastVisitDate       *time.Time      `json:"last_visit_date,omitempty" csv:"LastVisitDate"`
	RevenueTier         RevenueTier     `json:"revenue_tier" csv:"RevenueTier"`
	LifecycleStatus     LifecycleStatus `json:"lifecycle_status" csv:"LifecycleStatus"`
	Score               *float64        `json:"score,omitempty" csv:"Score"`
	Grade               string          `json:"grade,omitempty" csv:"Grade"`
}

// DaysSinceLastVisit returns whole days between the last visit and asOf.
// The boolean is false when no last visit date is known.
func (p PatientSummary) DaysSinceLastVisit(asOf time.Time) (int, bool) {
	if p.LastVisitDate == nil {
		return 0, false
	}
	return int(asOf.Sub(*p.LastVisitDate).Hours() / 24), true
}

// IsValid checks internal consistency of the aggregate fields.
func (p PatientSummary) IsValid() bool {
	if p.PatientID == "" || p.PurchaseCount < 0 {
		return false
	}
	if p.PurchaseCount > 0 {
		want := p.NetRevenueTotal / float64(p.PurchaseCount)
		diff := p.AvgTicket - want
		if diff < -0.01 || diff > 0.01 {
			return false
		}
	}
	return true
}
