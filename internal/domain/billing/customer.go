package billing

import (
	"time"

	"github.com/microlend/backend/internal/domain/shared"
	"github.com/microlend/backend/internal/domain/shared/valueobject"
)

// ScoreStep is the fixed increment applied by each top-up score event
const ScoreStep = 12

// CustomerStatus represents the status of a customer
type CustomerStatus uint8

const (
	CustomerStatusNew    CustomerStatus = 0
	CustomerStatusActive CustomerStatus = 1
	CustomerStatusClosed CustomerStatus = 2
)

// String returns the human-readable status label
func (s CustomerStatus) String() string {
	switch s {
	case CustomerStatusNew:
		return "new"
	case CustomerStatusActive:
		return "active"
	case CustomerStatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// LoanStatus represents the status of one loan's billing record
type LoanStatus uint8

const (
	LoanStatusActive LoanStatus = 0
	LoanStatusClosed LoanStatus = 1
)

// Billing-specific domain errors. Messages follow the operator-facing
// wording established by the ledger contract.
var (
	ErrCustomerBlocked = shared.NewDomainError("CUSTOMER_BLOCKED", "Blocked or Unknowed customer")
	ErrNotRegistered   = shared.NewDomainError("NOT_REGISTERED", "Phone is not registered")
	ErrNoActiveProduct = shared.NewDomainError("NO_ACTIVE_PRODUCT", "The customer has no product to refund")
	ErrLoanAlreadyOpen = shared.NewDomainError("LOAN_ALREADY_OPEN", "The customer already has an open loan")
)

// HistoryEntry is the billing record of one loan's acceptance and
// repayment. Entries form an ordered list per customer.
type HistoryEntry struct {
	ID                  uint64                `gorm:"primaryKey;autoIncrement"`
	CustomerID          uint64                `gorm:"not null;index"`
	Ref                 string                `gorm:"type:varchar(100);not null"`
	AcceptanceTimestamp int64                 `gorm:"not null"`
	PaidTimestamp       int64                 `gorm:"not null;default:0"` // 0 = unpaid
	ProductID           uint64                `gorm:"not null"`
	Status              LoanStatus            `gorm:"not null;default:0"`
	PhoneHash           valueobject.PhoneHash `gorm:"type:varchar(128);not null;index"`
}

// IsOpen reports whether the loan is still unpaid
func (h *HistoryEntry) IsOpen() bool {
	return h.Status == LoanStatusActive
}

// Customer is the aggregate root of the scoring and billing ledger.
// The numeric ID is assigned exactly once, on first sight of the
// phone hash.
type Customer struct {
	shared.BaseAggregateRoot
	PhoneHash  valueobject.PhoneHash `gorm:"type:varchar(128);not null;uniqueIndex"`
	Status     CustomerStatus        `gorm:"not null;default:0"`
	Score      uint64                `gorm:"not null;default:0"`
	TopUpCount uint64                `gorm:"not null;default:0"`
	// Amount is the outstanding amount in minor currency units
	Amount int64 `gorm:"not null;default:0"`
	// LastAcceptanceID is the index of the most recent history entry
	LastAcceptanceID int `gorm:"not null;default:0"`
	// ActiveLoanIndex points at the currently open history entry,
	// nil when the customer has no open loan
	ActiveLoanIndex *int           `gorm:""`
	History         []HistoryEntry `gorm:"foreignKey:CustomerID"`
}

// TableName returns the table name for GORM
func (Customer) TableName() string {
	return "customers"
}

// NewCustomer registers a customer on first sight of the phone hash.
// The record starts Active with score 0 and top-up count 1.
func NewCustomer(id uint64, phone valueobject.PhoneHash) *Customer {
	return &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(id),
		PhoneHash:         phone,
		Status:            CustomerStatusActive,
		Score:             0,
		TopUpCount:        1,
	}
}

// NewBlankCustomer registers a customer record with zero-value fields,
// used when a privileged write targets a phone never seen before and
// policy allows auto-registration.
func NewBlankCustomer(id uint64, phone valueobject.PhoneHash) *Customer {
	return &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(id),
		PhoneHash:         phone,
		Status:            CustomerStatusNew,
	}
}

// IsActive reports whether the customer may accept offers
func (c *Customer) IsActive() bool {
	return c.Status == CustomerStatusActive
}

// AddToScore increments the score by the fixed step. Every call
// increments; callers wanting register-once must check status first.
func (c *Customer) AddToScore() {
	c.Score += ScoreStep
	c.touch()
	c.AddDomainEvent(NewScoreChangedEvent(c))
}

// ChangeStatus sets the customer status
func (c *Customer) ChangeStatus(status CustomerStatus) {
	c.Status = status
	c.touch()
	c.AddDomainEvent(NewCustomerStatusChangeEvent(c))
}

// SetScore overwrites the score (not additive)
func (c *Customer) SetScore(score uint64) {
	c.Score = score
	c.touch()
	c.AddDomainEvent(NewScoreChangedEvent(c))
}

// RecordAcceptance appends the billing record for an accepted loan.
// Fails when the customer is not Active, or when a loan is already
// open (no overlapping loans).
func (c *Customer) RecordAcceptance(ref string, timestamp int64, productID uint64) error {
	if !c.IsActive() {
		return ErrCustomerBlocked
	}
	if c.ActiveLoanIndex != nil {
		return ErrLoanAlreadyOpen
	}

	c.History = append(c.History, HistoryEntry{
		CustomerID:          c.ID,
		Ref:                 ref,
		AcceptanceTimestamp: timestamp,
		PaidTimestamp:       0,
		ProductID:           productID,
		Status:              LoanStatusActive,
		PhoneHash:           c.PhoneHash,
	})
	idx := len(c.History) - 1
	c.LastAcceptanceID = idx
	c.ActiveLoanIndex = &idx
	c.touch()

	c.AddDomainEvent(NewAcceptanceReceivedEvent(c, ref, timestamp, productID))
	c.AddDomainEvent(NewConfirmationSentEvent(c, ref, timestamp, productID))

	return nil
}

// RecordTopUp closes the open loan with the paid timestamp and
// increments the top-up count. Returns the closed entry so the caller
// can settle the matching product.
func (c *Customer) RecordTopUp(timestamp int64) (*HistoryEntry, error) {
	if c.ActiveLoanIndex == nil {
		return nil, ErrNoActiveProduct
	}

	entry := &c.History[*c.ActiveLoanIndex]
	entry.PaidTimestamp = timestamp
	entry.Status = LoanStatusClosed
	c.TopUpCount++
	c.ActiveLoanIndex = nil
	c.touch()

	c.AddDomainEvent(NewTopUpReceivedEvent(c, entry.Ref))
	c.AddDomainEvent(NewAcknowledgeSentEvent(c, entry.Ref))

	return entry, nil
}

func (c *Customer) touch() {
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}
