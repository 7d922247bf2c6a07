package offering

import (
	"strconv"

	"github.com/microlend/backend/internal/domain/shared"
	"github.com/microlend/backend/internal/domain/shared/valueobject"
)

// Aggregate type constants
const (
	AggregateTypeProposal = "Proposal"
	AggregateTypeOffer    = "Offer"
	AggregateTypeProduct  = "Product"
)

// Event type constants
const (
	EventTypeProposalAdded      = "ProposalAdded"
	EventTypeProposalClosed     = "ProposalClosed"
	EventTypeLowBalanceReceived = "LowBalanceReceived"
	EventTypeOfferSent          = "OfferSent"
	EventTypeProductCreated     = "ProductCreated"
	EventTypeProductClosed      = "ProductClosed"
)

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// ProposalAddedEvent is published when a proposal enters the catalog
type ProposalAddedEvent struct {
	shared.BaseDomainEvent
	ProposalID  uint64 `json:"proposal_id"`
	MinScoring  uint64 `json:"min_scoring"`
	Capital     int64  `json:"capital"`
	Interest    int64  `json:"interest"`
	Description string `json:"description"`
}

// NewProposalAddedEvent creates a new ProposalAddedEvent
func NewProposalAddedEvent(p *Proposal) *ProposalAddedEvent {
	return &ProposalAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProposalAdded, AggregateTypeProposal, formatID(p.ID)),
		ProposalID:      p.ID,
		MinScoring:      p.MinScoring,
		Capital:         p.Capital,
		Interest:        p.Interest,
		Description:     p.Description,
	}
}

// ProposalClosedEvent is published when a proposal is retired
type ProposalClosedEvent struct {
	shared.BaseDomainEvent
	ProposalID uint64 `json:"proposal_id"`
}

// NewProposalClosedEvent creates a new ProposalClosedEvent
func NewProposalClosedEvent(p *Proposal) *ProposalClosedEvent {
	return &ProposalClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProposalClosed, AggregateTypeProposal, formatID(p.ID)),
		ProposalID:      p.ID,
	}
}

// LowBalanceReceivedEvent acknowledges the operator's low-balance signal
type LowBalanceReceivedEvent struct {
	shared.BaseDomainEvent
	PhoneHash valueobject.PhoneHash `json:"phone_hash"`
	Ref       string                `json:"ref"`
}

// NewLowBalanceReceivedEvent creates a new LowBalanceReceivedEvent
func NewLowBalanceReceivedEvent(o *Offer) *LowBalanceReceivedEvent {
	return &LowBalanceReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLowBalanceReceived, AggregateTypeOffer, formatID(o.ID)),
		PhoneHash:       o.PhoneHash,
		Ref:             o.Ref,
	}
}

// OfferSentEvent carries the matched candidate list toward the relay.
// The list may be empty; whether an empty offer is delivered to the
// operator is relay policy.
type OfferSentEvent struct {
	shared.BaseDomainEvent
	OfferID     uint64                `json:"offer_id"`
	PhoneHash   valueobject.PhoneHash `json:"phone_hash"`
	Ref         string                `json:"ref"`
	Timestamp   int64                 `json:"timestamp"`
	ProposalIDs []uint64              `json:"proposal_ids"`
}

// NewOfferSentEvent creates a new OfferSentEvent
func NewOfferSentEvent(o *Offer) *OfferSentEvent {
	return &OfferSentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOfferSent, AggregateTypeOffer, formatID(o.ID)),
		OfferID:         o.ID,
		PhoneHash:       o.PhoneHash,
		Ref:             o.Ref,
		Timestamp:       o.Timestamp,
		ProposalIDs:     o.ProposalIDs,
	}
}

// ProductCreatedEvent is published when a loan is minted
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	ProductID  uint64                `json:"product_id"`
	PhoneHash  valueobject.PhoneHash `json:"phone_hash"`
	Timestamp  int64                 `json:"timestamp"`
	OfferID    uint64                `json:"offer_id"`
	ProposalID uint64                `json:"proposal_id"`
}

// NewProductCreatedEvent creates a new ProductCreatedEvent
func NewProductCreatedEvent(p *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCreated, AggregateTypeProduct, formatID(p.ID)),
		ProductID:       p.ID,
		PhoneHash:       p.PhoneHash,
		Timestamp:       p.Timestamp,
		OfferID:         p.OfferID,
		ProposalID:      p.ProposalID,
	}
}

// ProductClosedEvent is published when a loan is settled
type ProductClosedEvent struct {
	shared.BaseDomainEvent
	ProductID uint64                `json:"product_id"`
	PhoneHash valueobject.PhoneHash `json:"phone_hash"`
	ClosedAt  int64                 `json:"closed_at"`
}

// NewProductClosedEvent creates a new ProductClosedEvent
func NewProductClosedEvent(p *Product) *ProductClosedEvent {
	return &ProductClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductClosed, AggregateTypeProduct, formatID(p.ID)),
		ProductID:       p.ID,
		PhoneHash:       p.PhoneHash,
		ClosedAt:        p.ClosedAt,
	}
}
