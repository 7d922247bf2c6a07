// Package report holds the read models produced by the invoicing and
// reporting aggregations over the lending ledger.
package report

import (
	"time"

	"github.com/microlend/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Activity labels shown on a customer's timeline
const (
	ActivityLabelOffer    = "Offer"
	ActivityLabelAccepted = "Accepted"
	ActivityLabelClosed   = "Closed"
)

// ActivityTimeLayout is the display format for activity timestamps
const ActivityTimeLayout = "2006-01-02 15:04:05"

// InvoicingRow aggregates capital and interest over every acceptance
// in a time window, in minor currency units. The downstream revenue
// split is presentation, not part of this row.
type InvoicingRow struct {
	PeriodStart   int64 `json:"period_start"`
	PeriodEnd     int64 `json:"period_end"`
	TotalCapital  int64 `json:"total_capital"`
	TotalInterest int64 `json:"total_interest"`
}

// RevenueSplit is the presentation-layer 60/40 division of the
// invoiced interest between provider and supplier, in major units.
type RevenueSplit struct {
	ProviderShare decimal.Decimal `json:"provider_share"`
	SupplierShare decimal.Decimal `json:"supplier_share"`
}

// ProviderRatio is the provider's share of invoiced interest
var ProviderRatio = decimal.NewFromFloat(0.6)

// SupplierRatio is the supplier's share of invoiced interest
var SupplierRatio = decimal.NewFromFloat(0.4)

// SplitInterest divides the invoiced interest between provider and
// supplier at the fixed 60/40 ratio
func (r InvoicingRow) SplitInterest() RevenueSplit {
	interest := valueobject.NewMoneyEUR(r.TotalInterest)
	return RevenueSplit{
		ProviderShare: interest.Split(ProviderRatio),
		SupplierShare: interest.Split(SupplierRatio),
	}
}

// ReportingRow is the windowed operational report over the offer and
// repayment funnels. Loan totals cover proposals accepted in the
// window; gain totals cover loans repaid in the window.
type ReportingRow struct {
	PeriodStart         int64 `json:"period_start"`
	PeriodEnd           int64 `json:"period_end"`
	OffersCount         int64 `json:"offers_count"`
	AcceptedOffersCount int64 `json:"accepted_offers_count"`
	TotalCapitalLoans   int64 `json:"total_capital_loans"`
	TotalInterestLoans  int64 `json:"total_interest_loans"`
	ClosedTopUpsCount   int64 `json:"closed_topups_count"`
	TotalCapitalGain    int64 `json:"total_capital_gain"`
	TotalInterestGain   int64 `json:"total_interest_gain"`
}

// ActivityEntry is one line on a customer's chronological timeline
type ActivityEntry struct {
	PhoneHash valueobject.PhoneHash `json:"phone_hash"`
	Label     string                `json:"label"`
	Timestamp int64                 `json:"timestamp"`
	Time      string                `json:"time"`
	Detail    string                `json:"detail,omitempty"`
}

// NewActivityEntry builds a timeline entry with the formatted display
// time derived from the epoch timestamp
func NewActivityEntry(phone valueobject.PhoneHash, label string, timestamp int64, detail string) ActivityEntry {
	return ActivityEntry{
		PhoneHash: phone,
		Label:     label,
		Timestamp: timestamp,
		Time:      time.Unix(timestamp, 0).UTC().Format(ActivityTimeLayout),
		Detail:    detail,
	}
}
