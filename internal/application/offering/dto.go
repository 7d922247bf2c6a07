package offering

import (
	"time"

	"github.com/microlend/backend/internal/domain/offering"
	"github.com/microlend/backend/internal/domain/shared/valueobject"
)

// AddProposalRequest represents a request to add a loan proposal
type AddProposalRequest struct {
	MinScoring  uint64 `json:"min_scoring"`
	Capital     int64  `json:"capital" validate:"gte=0"`
	Interest    int64  `json:"interest" validate:"gte=0"`
	Description string `json:"description" validate:"required,max=200"`
}

// ProposalResponse represents a proposal in responses
type ProposalResponse struct {
	ID          uint64    `json:"id"`
	MinScoring  uint64    `json:"min_scoring"`
	Capital     int64     `json:"capital"`
	Interest    int64     `json:"interest"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OfferResponse represents a matched offer in responses
type OfferResponse struct {
	ID          uint64                `json:"id"`
	PhoneHash   valueobject.PhoneHash `json:"phone_hash"`
	Ref         string                `json:"ref"`
	Timestamp   int64                 `json:"timestamp"`
	ProposalIDs []uint64              `json:"proposal_ids"`
	Status      string                `json:"status"`
	AcceptedAt  int64                 `json:"accepted_at"`
}

// ProductResponse represents an instantiated loan in responses
type ProductResponse struct {
	ID         uint64                `json:"id"`
	PhoneHash  valueobject.PhoneHash `json:"phone_hash"`
	Timestamp  int64                 `json:"timestamp"`
	OfferID    uint64                `json:"offer_id"`
	ProposalID uint64                `json:"proposal_id"`
	Status     string                `json:"status"`
	ClosedAt   int64                 `json:"closed_at"`
}

// ToProposalResponse converts a Proposal to ProposalResponse
func ToProposalResponse(p *offering.Proposal) ProposalResponse {
	status := "active"
	if p.Status == offering.ProposalStatusClosed {
		status = "closed"
	}
	return ProposalResponse{
		ID:          p.ID,
		MinScoring:  p.MinScoring,
		Capital:     p.Capital,
		Interest:    p.Interest,
		Description: p.Description,
		Status:      status,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ToOfferResponse converts an Offer to OfferResponse
func ToOfferResponse(o *offering.Offer) OfferResponse {
	status := "new"
	if o.Status == offering.OfferStatusAccepted {
		status = "accepted"
	}
	return OfferResponse{
		ID:          o.ID,
		PhoneHash:   o.PhoneHash,
		Ref:         o.Ref,
		Timestamp:   o.Timestamp,
		ProposalIDs: o.ProposalIDs,
		Status:      status,
		AcceptedAt:  o.AcceptedAt,
	}
}

// ToProductResponse converts a Product to ProductResponse
func ToProductResponse(p *offering.Product) ProductResponse {
	status := "active"
	if p.Status == offering.ProductStatusClosed {
		status = "closed"
	}
	return ProductResponse{
		ID:         p.ID,
		PhoneHash:  p.PhoneHash,
		Timestamp:  p.Timestamp,
		OfferID:    p.OfferID,
		ProposalID: p.ProposalID,
		Status:     status,
		ClosedAt:   p.ClosedAt,
	}
}
