package offering

import (
	"time"

	"github.com/microlend/backend/internal/domain/shared"
	"github.com/microlend/backend/internal/domain/shared/valueobject"
)

// ProductStatus represents the status of an instantiated loan
type ProductStatus uint8

const (
	ProductStatusActive ProductStatus = 0
	ProductStatusClosed ProductStatus = 1
)

// Product is an active loan minted from an accepted offer and one of
// its proposals. It is closed exactly once, on repayment; Closed is
// final.
type Product struct {
	shared.BaseAggregateRoot
	PhoneHash valueobject.PhoneHash `gorm:"type:varchar(128);not null;index"`
	// Timestamp is the creation time in seconds since epoch
	Timestamp  int64         `gorm:"not null"`
	OfferID    uint64        `gorm:"not null"`
	ProposalID uint64        `gorm:"not null"`
	Status     ProductStatus `gorm:"not null;default:0"`
	// ClosedAt is 0 until the product is closed
	ClosedAt int64 `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "loan_products"
}

// NewProduct creates an active loan record
func NewProduct(id uint64, phone valueobject.PhoneHash, timestamp int64, offerID, proposalID uint64) *Product {
	product := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(id),
		PhoneHash:         phone,
		Timestamp:         timestamp,
		OfferID:           offerID,
		ProposalID:        proposalID,
		Status:            ProductStatusActive,
	}

	product.AddDomainEvent(NewProductCreatedEvent(product))

	return product
}

// IsActive reports whether the loan is still open
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// Close settles the loan at the given repayment time
func (p *Product) Close(timestamp int64) error {
	if p.Status == ProductStatusClosed {
		return ErrProductAlreadyClosed
	}

	p.Status = ProductStatusClosed
	p.ClosedAt = timestamp
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductClosedEvent(p))

	return nil
}
