package report

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel/attribute"

	"github.com/microlend/backend/internal/domain/billing"
	"github.com/microlend/backend/internal/domain/offering"
	"github.com/microlend/backend/internal/domain/report"
	"github.com/microlend/backend/internal/domain/shared/valueobject"
	"github.com/microlend/backend/internal/infrastructure/telemetry"
)

// ReportingService computes the invoicing, reporting, and activity
// aggregates over the lending ledger. All methods are read-only
// snapshots; they never mutate an aggregate and publish no events.
type ReportingService struct {
	customerRepo billing.CustomerRepository
	proposalRepo offering.ProposalRepository
	offerRepo    offering.OfferRepository
	productRepo  offering.ProductRepository
}

// NewReportingService creates a new ReportingService
func NewReportingService(
	customerRepo billing.CustomerRepository,
	proposalRepo offering.ProposalRepository,
	offerRepo offering.OfferRepository,
	productRepo offering.ProductRepository,
) *ReportingService {
	return &ReportingService{
		customerRepo: customerRepo,
		proposalRepo: proposalRepo,
		offerRepo:    offerRepo,
		productRepo:  productRepo,
	}
}

// GenerateInvoicing sums capital and interest over every loan accepted
// in [startTime, endTime], both bounds inclusive. The proposal terms
// are resolved through the accepted product.
func (s *ReportingService) GenerateInvoicing(ctx context.Context, startTime, endTime int64) (*report.InvoicingRow, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reporting", "generate_invoicing",
		attribute.Int64("period_start", startTime),
		attribute.Int64("period_end", endTime))
	defer span.End()

	terms, err := s.loadProposalTerms(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	customers, err := s.customerRepo.FindAll(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	row := &report.InvoicingRow{PeriodStart: startTime, PeriodEnd: endTime}
	for i := range customers {
		for j := range customers[i].History {
			entry := &customers[i].History[j]
			if !inWindow(entry.AcceptanceTimestamp, startTime, endTime) {
				continue
			}
			proposal, err := terms.byProduct(entry.ProductID)
			if err != nil {
				telemetry.RecordError(span, err)
				return nil, err
			}
			row.TotalCapital += proposal.Capital
			row.TotalInterest += proposal.Interest
		}
	}
	return row, nil
}

// GenerateReporting computes the windowed funnel report: offers made,
// offers accepted, loan volumes for the acceptances, and repayment
// counts and gains for the loans settled in the window.
func (s *ReportingService) GenerateReporting(ctx context.Context, startTime, endTime int64) (*report.ReportingRow, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reporting", "generate_reporting",
		attribute.Int64("period_start", startTime),
		attribute.Int64("period_end", endTime))
	defer span.End()

	terms, err := s.loadProposalTerms(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	offers, err := s.offerRepo.FindAll(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	row := &report.ReportingRow{PeriodStart: startTime, PeriodEnd: endTime}
	for i := range offers {
		if inWindow(offers[i].Timestamp, startTime, endTime) {
			row.OffersCount++
		}
		if offers[i].Status == offering.OfferStatusAccepted && inWindow(offers[i].AcceptedAt, startTime, endTime) {
			row.AcceptedOffersCount++
		}
	}

	products, err := s.productRepo.FindAll(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	for i := range products {
		proposal, ok := terms.byID(products[i].ProposalID)
		if !ok {
			continue
		}
		if inWindow(products[i].Timestamp, startTime, endTime) {
			row.TotalCapitalLoans += proposal.Capital
			row.TotalInterestLoans += proposal.Interest
		}
		if !products[i].IsActive() && inWindow(products[i].ClosedAt, startTime, endTime) {
			row.ClosedTopUpsCount++
			row.TotalCapitalGain += proposal.Capital
			row.TotalInterestGain += proposal.Interest
		}
	}
	return row, nil
}

// CustomerActivitiesLog produces a customer's timeline over the
// window: one "Offer" entry per match, one "Accepted" per acceptance,
// one "Closed" per repayment, in ascending timestamp order. Ties keep
// the order the underlying records were created in.
func (s *ReportingService) CustomerActivitiesLog(ctx context.Context, phone valueobject.PhoneHash, startTime, endTime int64) ([]report.ActivityEntry, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reporting", "customer_activities_log",
		attribute.String("phone_hash", phone.String()),
		attribute.Int64("period_start", startTime),
		attribute.Int64("period_end", endTime))
	defer span.End()

	entries := make([]report.ActivityEntry, 0)

	offers, err := s.offerRepo.FindByPhone(ctx, phone)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	for i := range offers {
		if inWindow(offers[i].Timestamp, startTime, endTime) {
			entries = append(entries, report.NewActivityEntry(
				phone, report.ActivityLabelOffer, offers[i].Timestamp, offers[i].Ref))
		}
	}

	customer, err := s.customerRepo.FindByPhone(ctx, phone)
	if err == nil {
		for i := range customer.History {
			entry := &customer.History[i]
			if inWindow(entry.AcceptanceTimestamp, startTime, endTime) {
				entries = append(entries, report.NewActivityEntry(
					phone, report.ActivityLabelAccepted, entry.AcceptanceTimestamp, entry.Ref))
			}
			if !entry.IsOpen() && inWindow(entry.PaidTimestamp, startTime, endTime) {
				entries = append(entries, report.NewActivityEntry(
					phone, report.ActivityLabelClosed, entry.PaidTimestamp, entry.Ref))
			}
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp < entries[j].Timestamp
	})
	return entries, nil
}

// proposalTerms resolves the capital and interest behind a product
type proposalTerms struct {
	proposals map[uint64]*offering.Proposal
	products  map[uint64]uint64 // product id -> proposal id
}

func (s *ReportingService) loadProposalTerms(ctx context.Context) (*proposalTerms, error) {
	proposals, err := s.proposalRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.productRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	terms := &proposalTerms{
		proposals: make(map[uint64]*offering.Proposal, len(proposals)),
		products:  make(map[uint64]uint64, len(products)),
	}
	for i := range proposals {
		terms.proposals[proposals[i].ID] = &proposals[i]
	}
	for i := range products {
		terms.products[products[i].ID] = products[i].ProposalID
	}
	return terms, nil
}

func (t *proposalTerms) byID(proposalID uint64) (*offering.Proposal, bool) {
	proposal, ok := t.proposals[proposalID]
	return proposal, ok
}

func (t *proposalTerms) byProduct(productID uint64) (*offering.Proposal, error) {
	proposalID, ok := t.products[productID]
	if !ok {
		return nil, fmt.Errorf("billing history references unknown product %d", productID)
	}
	proposal, ok := t.proposals[proposalID]
	if !ok {
		return nil, fmt.Errorf("product %d references unknown proposal %d", productID, proposalID)
	}
	return proposal, nil
}

// inWindow reports whether ts falls in [start, end], both inclusive
func inWindow(ts, start, end int64) bool {
	return ts >= start && ts <= end
}
