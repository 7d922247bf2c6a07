package offering

import (
	"time"

	"github.com/microlend/backend/internal/domain/shared"
)

// ProposalStatus represents the status of a loan proposal
type ProposalStatus uint8

const (
	ProposalStatusActive ProposalStatus = 0
	ProposalStatusClosed ProposalStatus = 1
)

// Offering-specific domain errors. Messages follow the operator-facing
// wording established by the ledger contract.
var (
	ErrProposalNotFound      = shared.NewDomainError("PROPOSAL_NOT_FOUND", "Proposal doesn't exist")
	ErrOfferNotFound         = shared.NewDomainError("OFFER_NOT_FOUND", "Offer doesn't exist")
	ErrProposalAlreadyClosed = shared.NewDomainError("PROPOSAL_CLOSED", "Proposal is already closed")
	ErrOfferAlreadyAccepted  = shared.NewDomainError("OFFER_ACCEPTED", "Offer is already accepted")
	ErrProductAlreadyClosed  = shared.NewDomainError("PRODUCT_CLOSED", "Product is already closed")
)

// Proposal is a loan template: an eligibility threshold plus the
// capital lent and the interest owed, both in minor currency units.
// Immutable once created except for its status.
type Proposal struct {
	shared.BaseAggregateRoot
	MinScoring  uint64         `gorm:"not null;default:0"`
	Capital     int64          `gorm:"not null"`
	Interest    int64          `gorm:"not null"`
	Description string         `gorm:"type:varchar(200);not null"`
	Status      ProposalStatus `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (Proposal) TableName() string {
	return "proposals"
}

// NewProposal creates a new proposal in the Active state
func NewProposal(id, minScoring uint64, capital, interest int64, description string) (*Proposal, error) {
	if capital < 0 {
		return nil, shared.NewDomainError("INVALID_CAPITAL", "Capital cannot be negative")
	}
	if interest < 0 {
		return nil, shared.NewDomainError("INVALID_INTEREST", "Interest cannot be negative")
	}
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot be empty")
	}

	proposal := &Proposal{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(id),
		MinScoring:        minScoring,
		Capital:           capital,
		Interest:          interest,
		Description:       description,
		Status:            ProposalStatusActive,
	}

	proposal.AddDomainEvent(NewProposalAddedEvent(proposal))

	return proposal, nil
}

// IsActive reports whether the proposal may still be offered
func (p *Proposal) IsActive() bool {
	return p.Status == ProposalStatusActive
}

// IsEligible reports whether a score snapshot clears the threshold.
// Closed proposals are never eligible, whatever the score.
func (p *Proposal) IsEligible(score uint64) bool {
	return p.IsActive() && p.MinScoring <= score
}

// Close retires the proposal. Closing twice is an error and must not
// re-emit ProposalClosed.
func (p *Proposal) Close() error {
	if p.Status == ProposalStatusClosed {
		return ErrProposalAlreadyClosed
	}

	p.Status = ProposalStatusClosed
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProposalClosedEvent(p))

	return nil
}
