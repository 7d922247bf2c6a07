package billing

import (
	"github.com/microlend/backend/internal/domain/shared"
	"github.com/microlend/backend/internal/domain/shared/valueobject"
)

// Aggregate type constant
const AggregateTypeCustomer = "Customer"

// Event type constants
const (
	EventTypeScoreChanged         = "ScoreChanged"
	EventTypeCustomerStatusChange = "CustomerStatusChange"
	EventTypeAcceptanceReceived   = "AcceptanceReceived"
	EventTypeConfirmationSent     = "ConfirmationSent"
	EventTypeTopUpReceived        = "TopUpReceived"
	EventTypeAcknowledgeSent      = "AcknowledgeSent"
)

// ScoreChangedEvent is published whenever a customer's score moves
type ScoreChangedEvent struct {
	shared.BaseDomainEvent
	PhoneHash valueobject.PhoneHash `json:"phone_hash"`
	Score     uint64                `json:"score"`
}

// NewScoreChangedEvent creates a new ScoreChangedEvent
func NewScoreChangedEvent(c *Customer) *ScoreChangedEvent {
	return &ScoreChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeScoreChanged, AggregateTypeCustomer, c.PhoneHash.String()),
		PhoneHash:       c.PhoneHash,
		Score:           c.Score,
	}
}

// CustomerStatusChangeEvent is published when a customer's status is set
type CustomerStatusChangeEvent struct {
	shared.BaseDomainEvent
	PhoneHash valueobject.PhoneHash `json:"phone_hash"`
	Status    CustomerStatus        `json:"status"`
}

// NewCustomerStatusChangeEvent creates a new CustomerStatusChangeEvent
func NewCustomerStatusChangeEvent(c *Customer) *CustomerStatusChangeEvent {
	return &CustomerStatusChangeEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerStatusChange, AggregateTypeCustomer, c.PhoneHash.String()),
		PhoneHash:       c.PhoneHash,
		Status:          c.Status,
	}
}

// AcceptanceReceivedEvent is published when an acceptance is billed
type AcceptanceReceivedEvent struct {
	shared.BaseDomainEvent
	PhoneHash           valueobject.PhoneHash `json:"phone_hash"`
	Ref                 string                `json:"ref"`
	AcceptanceTimestamp int64                 `json:"acceptance_timestamp"`
	ProductID           uint64                `json:"product_id"`
}

// NewAcceptanceReceivedEvent creates a new AcceptanceReceivedEvent
func NewAcceptanceReceivedEvent(c *Customer, ref string, timestamp int64, productID uint64) *AcceptanceReceivedEvent {
	return &AcceptanceReceivedEvent{
		BaseDomainEvent:     shared.NewBaseDomainEvent(EventTypeAcceptanceReceived, AggregateTypeCustomer, c.PhoneHash.String()),
		PhoneHash:           c.PhoneHash,
		Ref:                 ref,
		AcceptanceTimestamp: timestamp,
		ProductID:           productID,
	}
}

// ConfirmationSentEvent mirrors AcceptanceReceived for the operator
// relay; same payload, separate downstream consumer.
type ConfirmationSentEvent struct {
	shared.BaseDomainEvent
	PhoneHash           valueobject.PhoneHash `json:"phone_hash"`
	Ref                 string                `json:"ref"`
	AcceptanceTimestamp int64                 `json:"acceptance_timestamp"`
	ProductID           uint64                `json:"product_id"`
}

// NewConfirmationSentEvent creates a new ConfirmationSentEvent
func NewConfirmationSentEvent(c *Customer, ref string, timestamp int64, productID uint64) *ConfirmationSentEvent {
	return &ConfirmationSentEvent{
		BaseDomainEvent:     shared.NewBaseDomainEvent(EventTypeConfirmationSent, AggregateTypeCustomer, c.PhoneHash.String()),
		PhoneHash:           c.PhoneHash,
		Ref:                 ref,
		AcceptanceTimestamp: timestamp,
		ProductID:           productID,
	}
}

// TopUpReceivedEvent is published when a repayment top-up is billed
type TopUpReceivedEvent struct {
	shared.BaseDomainEvent
	PhoneHash valueobject.PhoneHash `json:"phone_hash"`
	Ref       string                `json:"ref"`
}

// NewTopUpReceivedEvent creates a new TopUpReceivedEvent
func NewTopUpReceivedEvent(c *Customer, ref string) *TopUpReceivedEvent {
	return &TopUpReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTopUpReceived, AggregateTypeCustomer, c.PhoneHash.String()),
		PhoneHash:       c.PhoneHash,
		Ref:             ref,
	}
}

// AcknowledgeSentEvent mirrors TopUpReceived for the operator relay
type AcknowledgeSentEvent struct {
	shared.BaseDomainEvent
	PhoneHash valueobject.PhoneHash `json:"phone_hash"`
	Ref       string                `json:"ref"`
}

// NewAcknowledgeSentEvent creates a new AcknowledgeSentEvent
func NewAcknowledgeSentEvent(c *Customer, ref string) *AcknowledgeSentEvent {
	return &AcknowledgeSentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAcknowledgeSent, AggregateTypeCustomer, c.PhoneHash.String()),
		PhoneHash:       c.PhoneHash,
		Ref:             ref,
	}
}
