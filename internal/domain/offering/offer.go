package offering

import (
	"time"

	"github.com/microlend/backend/internal/domain/shared"
	"github.com/microlend/backend/internal/domain/shared/valueobject"
)

// OfferStatus represents the status of an offer
type OfferStatus uint8

const (
	OfferStatusNew      OfferStatus = 0
	OfferStatusAccepted OfferStatus = 1
)

// Offer is a customer-specific shortlist of eligible proposals,
// produced from a low-balance signal against a point-in-time score
// snapshot. The candidate list is frozen at match time; it is not
// re-evaluated when proposals change afterwards.
type Offer struct {
	shared.BaseAggregateRoot
	PhoneHash valueobject.PhoneHash `gorm:"type:varchar(128);not null;index"`
	Ref       string                `gorm:"type:varchar(100);not null"`
	// Timestamp is the match time in seconds since epoch
	Timestamp   int64       `gorm:"not null"`
	ProposalIDs []uint64    `gorm:"serializer:json"`
	Status      OfferStatus `gorm:"not null;default:0"`
	// AcceptedAt is 0 until the offer is accepted
	AcceptedAt int64 `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (Offer) TableName() string {
	return "offers"
}

// NewOffer creates a new offer holding the matched candidate list.
// An empty candidate list is still stored and announced; suppressing
// empty deliveries is the relay's call.
func NewOffer(id uint64, phone valueobject.PhoneHash, ref string, timestamp int64, proposalIDs []uint64) *Offer {
	offer := &Offer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(id),
		PhoneHash:         phone,
		Ref:               ref,
		Timestamp:         timestamp,
		ProposalIDs:       proposalIDs,
		Status:            OfferStatusNew,
	}

	offer.AddDomainEvent(NewLowBalanceReceivedEvent(offer))
	offer.AddDomainEvent(NewOfferSentEvent(offer))

	return offer
}

// IsNew reports whether the offer can still be accepted
func (o *Offer) IsNew() bool {
	return o.Status == OfferStatusNew
}

// ProposalCount returns the size of the candidate list
func (o *Offer) ProposalCount() int {
	return len(o.ProposalIDs)
}

// ProposalAt returns the candidate proposal id at the given position
func (o *Offer) ProposalAt(index int) (uint64, error) {
	if index < 0 || index >= len(o.ProposalIDs) {
		return 0, shared.ErrInvalidArgument
	}
	return o.ProposalIDs[index], nil
}

// Accept marks the offer accepted at the given time
func (o *Offer) Accept(timestamp int64) error {
	if !o.IsNew() {
		return ErrOfferAlreadyAccepted
	}

	o.Status = OfferStatusAccepted
	o.AcceptedAt = timestamp
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	return nil
}
