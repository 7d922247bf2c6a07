package offering

import (
	"context"

	"github.com/microlend/backend/internal/domain/shared/valueobject"
)

// ProposalRepository defines the interface for proposal persistence
type ProposalRepository interface {
	// FindByID finds a proposal by ID
	FindByID(ctx context.Context, id uint64) (*Proposal, error)

	// FindAll returns every proposal in ascending ID order
	FindAll(ctx context.Context) ([]Proposal, error)

	// Save creates or updates a proposal
	Save(ctx context.Context, proposal *Proposal) error

	// Count counts all proposals, open or closed
	Count(ctx context.Context) (int64, error)
}

// OfferRepository defines the interface for offer persistence
type OfferRepository interface {
	// FindByID finds an offer by ID
	FindByID(ctx context.Context, id uint64) (*Offer, error)

	// FindAll returns every offer in ascending ID order
	FindAll(ctx context.Context) ([]Offer, error)

	// FindByPhone returns a customer's offers in ascending ID order
	FindByPhone(ctx context.Context, phone valueobject.PhoneHash) ([]Offer, error)

	// Save creates or updates an offer
	Save(ctx context.Context, offer *Offer) error

	// Count counts all offers
	Count(ctx context.Context) (int64, error)

	// CountByPhone counts a customer's offers
	CountByPhone(ctx context.Context, phone valueobject.PhoneHash) (int64, error)
}

// ProductRepository defines the interface for loan product persistence
type ProductRepository interface {
	// FindByID finds a product by ID
	FindByID(ctx context.Context, id uint64) (*Product, error)

	// FindAll returns every product in ascending ID order
	FindAll(ctx context.Context) ([]Product, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// Count counts all products
	Count(ctx context.Context) (int64, error)
}
