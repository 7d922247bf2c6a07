package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/microlend/backend/internal/domain/offering"
	"github.com/microlend/backend/internal/domain/shared"
	"github.com/microlend/backend/internal/domain/shared/valueobject"
)

// MemoryProposalRepository implements offering.ProposalRepository in memory
type MemoryProposalRepository struct {
	mu   sync.RWMutex
	byID map[uint64]offering.Proposal
}

// NewMemoryProposalRepository creates an empty MemoryProposalRepository
func NewMemoryProposalRepository() *MemoryProposalRepository {
	return &MemoryProposalRepository{byID: make(map[uint64]offering.Proposal)}
}

// FindByID finds a proposal by ID
func (r *MemoryProposalRepository) FindByID(ctx context.Context, id uint64) (*offering.Proposal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	proposal, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := proposal
	clone.ClearDomainEvents()
	return &clone, nil
}

// FindAll returns every proposal in ascending ID order
func (r *MemoryProposalRepository) FindAll(ctx context.Context) ([]offering.Proposal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	proposals := make([]offering.Proposal, 0, len(r.byID))
	for _, proposal := range r.byID {
		clone := proposal
		clone.ClearDomainEvents()
		proposals = append(proposals, clone)
	}
	sort.Slice(proposals, func(i, j int) bool { return proposals[i].ID < proposals[j].ID })
	return proposals, nil
}

// Save creates or updates a proposal
func (r *MemoryProposalRepository) Save(ctx context.Context, proposal *offering.Proposal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *proposal
	clone.ClearDomainEvents()
	r.byID[proposal.ID] = clone
	return nil
}

// Count counts all proposals, open or closed
func (r *MemoryProposalRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.byID)), nil
}

// MemoryOfferRepository implements offering.OfferRepository in memory
type MemoryOfferRepository struct {
	mu   sync.RWMutex
	byID map[uint64]offering.Offer
}

// NewMemoryOfferRepository creates an empty MemoryOfferRepository
func NewMemoryOfferRepository() *MemoryOfferRepository {
	return &MemoryOfferRepository{byID: make(map[uint64]offering.Offer)}
}

// FindByID finds an offer by ID
func (r *MemoryOfferRepository) FindByID(ctx context.Context, id uint64) (*offering.Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	offer, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return copyOffer(offer), nil
}

// FindAll returns every offer in ascending ID order
func (r *MemoryOfferRepository) FindAll(ctx context.Context) ([]offering.Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	offers := make([]offering.Offer, 0, len(r.byID))
	for _, offer := range r.byID {
		offers = append(offers, *copyOffer(offer))
	}
	sort.Slice(offers, func(i, j int) bool { return offers[i].ID < offers[j].ID })
	return offers, nil
}

// FindByPhone returns a customer's offers in ascending ID order
func (r *MemoryOfferRepository) FindByPhone(ctx context.Context, phone valueobject.PhoneHash) ([]offering.Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var offers []offering.Offer
	for _, offer := range r.byID {
		if offer.PhoneHash == phone {
			offers = append(offers, *copyOffer(offer))
		}
	}
	sort.Slice(offers, func(i, j int) bool { return offers[i].ID < offers[j].ID })
	return offers, nil
}

// Save creates or updates an offer
func (r *MemoryOfferRepository) Save(ctx context.Context, offer *offering.Offer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[offer.ID] = *copyOffer(*offer)
	return nil
}

// Count counts all offers
func (r *MemoryOfferRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.byID)), nil
}

// CountByPhone counts a customer's offers
func (r *MemoryOfferRepository) CountByPhone(ctx context.Context, phone valueobject.PhoneHash) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, offer := range r.byID {
		if offer.PhoneHash == phone {
			count++
		}
	}
	return count, nil
}

func copyOffer(offer offering.Offer) *offering.Offer {
	clone := offer
	clone.ProposalIDs = make([]uint64, len(offer.ProposalIDs))
	copy(clone.ProposalIDs, offer.ProposalIDs)
	clone.ClearDomainEvents()
	return &clone
}

// MemoryProductRepository implements offering.ProductRepository in memory
type MemoryProductRepository struct {
	mu   sync.RWMutex
	byID map[uint64]offering.Product
}

// NewMemoryProductRepository creates an empty MemoryProductRepository
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{byID: make(map[uint64]offering.Product)}
}

// FindByID finds a product by ID
func (r *MemoryProductRepository) FindByID(ctx context.Context, id uint64) (*offering.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	product, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := product
	clone.ClearDomainEvents()
	return &clone, nil
}

// FindAll returns every product in ascending ID order
func (r *MemoryProductRepository) FindAll(ctx context.Context) ([]offering.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	products := make([]offering.Product, 0, len(r.byID))
	for _, product := range r.byID {
		clone := product
		clone.ClearDomainEvents()
		products = append(products, clone)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

// Save creates or updates a product
func (r *MemoryProductRepository) Save(ctx context.Context, product *offering.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *product
	clone.ClearDomainEvents()
	r.byID[product.ID] = clone
	return nil
}

// Count counts all products
func (r *MemoryProductRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.byID)), nil
}
