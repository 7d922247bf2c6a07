package billing

import (
	"context"
	"errors"

	"github.com/microlend/backend/internal/domain/billing"
	"github.com/microlend/backend/internal/domain/shared"
	"github.com/microlend/backend/internal/domain/shared/valueobject"
)

// BillingService maintains the customer scoring and billing ledger
type BillingService struct {
	customerRepo   billing.CustomerRepository
	sequence       shared.Sequence
	eventPublisher shared.EventPublisher

	// autoRegister controls whether privileged writes (status or score)
	// on an unseen phone create a blank record instead of failing
	autoRegister bool
}

// NewBillingService creates a new BillingService
func NewBillingService(customerRepo billing.CustomerRepository, sequence shared.Sequence, autoRegister bool) *BillingService {
	return &BillingService{
		customerRepo: customerRepo,
		sequence:     sequence,
		autoRegister: autoRegister,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *BillingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// AddToScore credits the fixed score step to the customer identified
// by the phone hash. The first call for an unseen phone registers the
// customer as Active with a top-up count of one, then credits the
// step, so the first observable score is the step itself. Scoring
// accrues regardless of status; status only gates offer matching.
func (s *BillingService) AddToScore(ctx context.Context, phone valueobject.PhoneHash) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByPhone(ctx, phone)
	if errors.Is(err, shared.ErrNotFound) {
		id, seqErr := s.sequence.Next(ctx, shared.SequenceCustomer)
		if seqErr != nil {
			return nil, seqErr
		}
		customer = billing.NewCustomer(id, phone)
	} else if err != nil {
		return nil, err
	}

	customer.AddToScore()

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, &customer.BaseAggregateRoot)

	response := ToCustomerResponse(customer)
	return &response, nil
}

// ChangeCustomerStatus sets the customer status. An unseen phone is an
// error unless auto-registration policy is enabled.
func (s *BillingService) ChangeCustomerStatus(ctx context.Context, phone valueobject.PhoneHash, status billing.CustomerStatus) (*CustomerResponse, error) {
	customer, err := s.findOrAutoRegister(ctx, phone)
	if err != nil {
		return nil, err
	}

	customer.ChangeStatus(status)

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, &customer.BaseAggregateRoot)

	response := ToCustomerResponse(customer)
	return &response, nil
}

// ChangeScore overwrites the customer score. Unlike AddToScore this is
// not additive. An unseen phone is an error unless auto-registration
// policy is enabled.
func (s *BillingService) ChangeScore(ctx context.Context, phone valueobject.PhoneHash, score uint64) (*CustomerResponse, error) {
	customer, err := s.findOrAutoRegister(ctx, phone)
	if err != nil {
		return nil, err
	}

	customer.SetScore(score)

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, &customer.BaseAggregateRoot)

	response := ToCustomerResponse(customer)
	return &response, nil
}

// AcceptanceBilling appends the billing record for an accepted loan.
// An unseen or blocked phone fails with the blocked-customer error.
func (s *BillingService) AcceptanceBilling(ctx context.Context, phone valueobject.PhoneHash, ref string, timestamp int64, productID uint64) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, billing.ErrCustomerBlocked
		}
		return nil, err
	}

	if err := customer.RecordAcceptance(ref, timestamp, productID); err != nil {
		return nil, err
	}

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, &customer.BaseAggregateRoot)

	response := ToCustomerResponse(customer)
	return &response, nil
}

// TopUpBilling settles the customer's open loan at the given time and
// returns the closed entry so the caller can settle the product too.
// A blocked customer can still repay; only registration and an open
// loan are required.
func (s *BillingService) TopUpBilling(ctx context.Context, phone valueobject.PhoneHash, timestamp int64) (*TopUpBillingResponse, error) {
	customer, err := s.customerRepo.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, billing.ErrNotRegistered
		}
		return nil, err
	}

	entry, err := customer.RecordTopUp(timestamp)
	if err != nil {
		return nil, err
	}

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, &customer.BaseAggregateRoot)

	return &TopUpBillingResponse{
		Customer:  ToCustomerResponse(customer),
		Ref:       entry.Ref,
		ProductID: entry.ProductID,
		PaidAt:    entry.PaidTimestamp,
	}, nil
}

// IsActiveCustomer reports whether the phone belongs to an Active
// customer. An unseen phone is simply not active.
func (s *BillingService) IsActiveCustomer(ctx context.Context, phone valueobject.PhoneHash) (bool, error) {
	customer, err := s.customerRepo.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return customer.IsActive(), nil
}

// GetCustomer returns the ledger record for a registered phone
func (s *BillingService) GetCustomer(ctx context.Context, phone valueobject.PhoneHash) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, billing.ErrNotRegistered
		}
		return nil, err
	}

	response := ToCustomerResponse(customer)
	return &response, nil
}

// CustomersCount returns the number of registered customers
func (s *BillingService) CustomersCount(ctx context.Context) (int64, error) {
	return s.customerRepo.Count(ctx)
}

func (s *BillingService) findOrAutoRegister(ctx context.Context, phone valueobject.PhoneHash) (*billing.Customer, error) {
	customer, err := s.customerRepo.FindByPhone(ctx, phone)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if !s.autoRegister {
		return nil, billing.ErrNotRegistered
	}

	id, err := s.sequence.Next(ctx, shared.SequenceCustomer)
	if err != nil {
		return nil, err
	}
	return billing.NewBlankCustomer(id, phone), nil
}

func (s *BillingService) publishEvents(ctx context.Context, root *shared.BaseAggregateRoot) {
	if s.eventPublisher == nil {
		root.ClearDomainEvents()
		return
	}
	for _, event := range root.GetDomainEvents() {
		// Best effort - event handling is async and must not undo the write
		_ = s.eventPublisher.Publish(ctx, event)
	}
	root.ClearDomainEvents()
}
