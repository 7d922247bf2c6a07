package billing

import (
	"time"

	"github.com/microlend/backend/internal/domain/billing"
	"github.com/microlend/backend/internal/domain/shared/valueobject"
)

// CustomerResponse represents a customer ledger record in responses
type CustomerResponse struct {
	ID               uint64                 `json:"id"`
	PhoneHash        valueobject.PhoneHash  `json:"phone_hash"`
	Status           string                 `json:"status"`
	Score            uint64                 `json:"score"`
	TopUpCount       uint64                 `json:"topup_count"`
	Amount           int64                  `json:"amount"`
	LastAcceptanceID int                    `json:"last_acceptance_id"`
	HasOpenLoan      bool                   `json:"has_open_loan"`
	History          []HistoryEntryResponse `json:"history"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// HistoryEntryResponse represents one loan billing record
type HistoryEntryResponse struct {
	Ref                 string `json:"ref"`
	AcceptanceTimestamp int64  `json:"acceptance_timestamp"`
	PaidTimestamp       int64  `json:"paid_timestamp"`
	ProductID           uint64 `json:"product_id"`
	Status              string `json:"status"`
}

// TopUpBillingResponse reports the loan entry closed by a top-up so
// the caller can settle the matching product
type TopUpBillingResponse struct {
	Customer  CustomerResponse `json:"customer"`
	Ref       string           `json:"ref"`
	ProductID uint64           `json:"product_id"`
	PaidAt    int64            `json:"paid_at"`
}

// ToCustomerResponse converts a Customer to CustomerResponse
func ToCustomerResponse(c *billing.Customer) CustomerResponse {
	history := make([]HistoryEntryResponse, 0, len(c.History))
	for i := range c.History {
		history = append(history, ToHistoryEntryResponse(&c.History[i]))
	}
	return CustomerResponse{
		ID:               c.ID,
		PhoneHash:        c.PhoneHash,
		Status:           c.Status.String(),
		Score:            c.Score,
		TopUpCount:       c.TopUpCount,
		Amount:           c.Amount,
		LastAcceptanceID: c.LastAcceptanceID,
		HasOpenLoan:      c.ActiveLoanIndex != nil,
		History:          history,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

// ToHistoryEntryResponse converts a HistoryEntry to its response form
func ToHistoryEntryResponse(h *billing.HistoryEntry) HistoryEntryResponse {
	status := "active"
	if h.Status == billing.LoanStatusClosed {
		status = "closed"
	}
	return HistoryEntryResponse{
		Ref:                 h.Ref,
		AcceptanceTimestamp: h.AcceptanceTimestamp,
		PaidTimestamp:       h.PaidTimestamp,
		ProductID:           h.ProductID,
		Status:              status,
	}
}
