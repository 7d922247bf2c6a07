package lending

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	appbilling "github.com/microlend/backend/internal/application/billing"
	appoffering "github.com/microlend/backend/internal/application/offering"
	"github.com/microlend/backend/internal/domain/billing"
	"github.com/microlend/backend/internal/domain/shared"
	"github.com/microlend/backend/internal/domain/shared/valueobject"
	"github.com/microlend/backend/internal/infrastructure/telemetry"
)

// LendingService orchestrates the lending life cycle across the
// billing ledger and the offering catalog. It is the only surface the
// operator relay talks to: authorization happens here and nowhere
// below, and every composite write runs in one transactional scope
// with its domain events published only after commit.
type LendingService struct {
	billing        *appbilling.BillingService
	offering       *appoffering.OfferingService
	authorizer     Authorizer
	tx             shared.TxManager
	eventPublisher shared.EventPublisher

	// now supplies match timestamps; replaceable in tests
	now func() int64
}

// NewLendingService creates a new LendingService
func NewLendingService(
	billingService *appbilling.BillingService,
	offeringService *appoffering.OfferingService,
	authorizer Authorizer,
	tx shared.TxManager,
) *LendingService {
	return &LendingService{
		billing:    billingService,
		offering:   offeringService,
		authorizer: authorizer,
		tx:         tx,
		now:        func() int64 { return time.Now().Unix() },
	}
}

// SetEventPublisher sets the post-commit sink for domain events
func (s *LendingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetClock replaces the timestamp source
func (s *LendingService) SetClock(now func() int64) {
	s.now = now
}

// AddToScore credits one score step to the customer, registering the
// phone on first sight
func (s *LendingService) AddToScore(ctx context.Context, phone valueobject.PhoneHash) (*appbilling.CustomerResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "lending", "add_to_score",
		attribute.String("phone_hash", phone.String()))
	defer span.End()

	if err := s.authorizer.Authorize(ctx); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var response *appbilling.CustomerResponse
	err := s.runTx(ctx, func(txCtx context.Context) error {
		var err error
		response, err = s.billing.AddToScore(txCtx, phone)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return response, nil
}

// ChangeCustomerStatus sets a customer's status
func (s *LendingService) ChangeCustomerStatus(ctx context.Context, phone valueobject.PhoneHash, status billing.CustomerStatus) (*appbilling.CustomerResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "lending", "change_customer_status",
		attribute.String("phone_hash", phone.String()))
	defer span.End()

	if err := s.authorizer.Authorize(ctx); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var response *appbilling.CustomerResponse
	err := s.runTx(ctx, func(txCtx context.Context) error {
		var err error
		response, err = s.billing.ChangeCustomerStatus(txCtx, phone, status)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return response, nil
}

// ChangeScore overwrites a customer's score
func (s *LendingService) ChangeScore(ctx context.Context, phone valueobject.PhoneHash, score uint64) (*appbilling.CustomerResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "lending", "change_score",
		attribute.String("phone_hash", phone.String()))
	defer span.End()

	if err := s.authorizer.Authorize(ctx); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var response *appbilling.CustomerResponse
	err := s.runTx(ctx, func(txCtx context.Context) error {
		var err error
		response, err = s.billing.ChangeScore(txCtx, phone, score)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return response, nil
}

// LowBalance handles a low-balance signal: the customer must be
// Active, the score is read once, and the catalog is matched against
// that snapshot
func (s *LendingService) LowBalance(ctx context.Context, phone valueobject.PhoneHash, ref string) (*appoffering.OfferResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "lending", "low_balance",
		attribute.String("phone_hash", phone.String()),
		attribute.String("ref", ref))
	defer span.End()

	if err := s.authorizer.Authorize(ctx); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var response *appoffering.OfferResponse
	err := s.runTx(ctx, func(txCtx context.Context) error {
		customer, err := s.billing.GetCustomer(txCtx, phone)
		if err != nil {
			if errors.Is(err, billing.ErrNotRegistered) {
				return billing.ErrCustomerBlocked
			}
			return err
		}
		if customer.Status != billing.CustomerStatusActive.String() {
			return billing.ErrCustomerBlocked
		}

		response, err = s.offering.LowBalanceOffering(txCtx, phone, ref, s.now(), customer.Score)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return response, nil
}

// Acceptance handles an accepted offer: the loan product is minted
// first, then the billing record is appended against it. Either
// failure aborts the whole operation.
func (s *LendingService) Acceptance(ctx context.Context, phone valueobject.PhoneHash, ref string, acceptanceTimestamp int64, offerID, proposalID uint64) (*appoffering.ProductResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "lending", "acceptance",
		attribute.String("phone_hash", phone.String()),
		attribute.Int64("offer_id", int64(offerID)),
		attribute.Int64("proposal_id", int64(proposalID)))
	defer span.End()

	if err := s.authorizer.Authorize(ctx); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var response *appoffering.ProductResponse
	err := s.runTx(ctx, func(txCtx context.Context) error {
		product, err := s.offering.CreateProduct(txCtx, phone, acceptanceTimestamp, offerID, proposalID)
		if err != nil {
			return err
		}

		if _, err := s.billing.AcceptanceBilling(txCtx, phone, ref, acceptanceTimestamp, product.ID); err != nil {
			return err
		}

		response = product
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return response, nil
}

// TopUp handles a repayment: the billing ledger settles the open loan
// and the matching product is closed in the same scope
func (s *LendingService) TopUp(ctx context.Context, phone valueobject.PhoneHash, paidTimestamp int64) (*appbilling.TopUpBillingResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "lending", "top_up",
		attribute.String("phone_hash", phone.String()))
	defer span.End()

	if err := s.authorizer.Authorize(ctx); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var response *appbilling.TopUpBillingResponse
	err := s.runTx(ctx, func(txCtx context.Context) error {
		settled, err := s.billing.TopUpBilling(txCtx, phone, paidTimestamp)
		if err != nil {
			return err
		}

		if _, err := s.offering.CloseProduct(txCtx, settled.ProductID, paidTimestamp); err != nil {
			return err
		}

		response = settled
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return response, nil
}

// AddProposal adds a loan proposal to the catalog
func (s *LendingService) AddProposal(ctx context.Context, req appoffering.AddProposalRequest) (*appoffering.ProposalResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "lending", "add_proposal")
	defer span.End()

	if err := s.authorizer.Authorize(ctx); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var response *appoffering.ProposalResponse
	err := s.runTx(ctx, func(txCtx context.Context) error {
		var err error
		response, err = s.offering.AddProposal(txCtx, req)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return response, nil
}

// CloseProposal retires a proposal from matching
func (s *LendingService) CloseProposal(ctx context.Context, id uint64) (*appoffering.ProposalResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "lending", "close_proposal",
		attribute.Int64("proposal_id", int64(id)))
	defer span.End()

	if err := s.authorizer.Authorize(ctx); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var response *appoffering.ProposalResponse
	err := s.runTx(ctx, func(txCtx context.Context) error {
		var err error
		response, err = s.offering.CloseProposal(txCtx, id)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return response, nil
}

// GetCustomer returns the ledger record for a registered phone
func (s *LendingService) GetCustomer(ctx context.Context, phone valueobject.PhoneHash) (*appbilling.CustomerResponse, error) {
	return s.billing.GetCustomer(ctx, phone)
}

// IsActiveCustomer reports whether the phone belongs to an Active customer
func (s *LendingService) IsActiveCustomer(ctx context.Context, phone valueobject.PhoneHash) (bool, error) {
	return s.billing.IsActiveCustomer(ctx, phone)
}

// ProposalsCount counts every proposal in the catalog
func (s *LendingService) ProposalsCount(ctx context.Context) (int64, error) {
	return s.offering.ProposalsCount(ctx)
}

// OffersCount counts every matched offer
func (s *LendingService) OffersCount(ctx context.Context) (int64, error) {
	return s.offering.OffersCount(ctx)
}

// CustomerOffersCount counts a customer's offers
func (s *LendingService) CustomerOffersCount(ctx context.Context, phone valueobject.PhoneHash) (int64, error) {
	return s.offering.CustomerOffersCount(ctx, phone)
}

// GetOfferProposalCount returns the size of an offer's candidate list
func (s *LendingService) GetOfferProposalCount(ctx context.Context, offerID uint64) (int, error) {
	return s.offering.GetOfferProposalCount(ctx, offerID)
}

// GetOfferProposalAt returns the candidate proposal id at a position
func (s *LendingService) GetOfferProposalAt(ctx context.Context, offerID uint64, index int) (uint64, error) {
	return s.offering.GetOfferProposalAt(ctx, offerID, index)
}

// runTx runs fn inside the transactional scope with an event buffer
// attached. Buffered events reach the outbound publisher only when the
// scope commits; an aborted scope publishes nothing.
func (s *LendingService) runTx(ctx context.Context, fn func(ctx context.Context) error) error {
	txCtx, buffer := shared.WithEventBuffer(ctx)
	if err := s.tx.WithinTx(txCtx, fn); err != nil {
		return err
	}

	if s.eventPublisher != nil {
		for _, event := range buffer.Drain() {
			// Delivery is best effort once the write has committed
			_ = s.eventPublisher.Publish(ctx, event)
		}
	}
	return nil
}
