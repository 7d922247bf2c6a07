package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/microlend/backend/internal/domain/billing"
	"github.com/microlend/backend/internal/domain/shared"
	"github.com/microlend/backend/internal/domain/shared/valueobject"
)

// MemoryCustomerRepository implements billing.CustomerRepository in memory
type MemoryCustomerRepository struct {
	mu      sync.RWMutex
	byPhone map[valueobject.PhoneHash]billing.Customer
}

// NewMemoryCustomerRepository creates an empty MemoryCustomerRepository
func NewMemoryCustomerRepository() *MemoryCustomerRepository {
	return &MemoryCustomerRepository{byPhone: make(map[valueobject.PhoneHash]billing.Customer)}
}

// FindByPhone finds a customer by phone hash
func (r *MemoryCustomerRepository) FindByPhone(ctx context.Context, phone valueobject.PhoneHash) (*billing.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	customer, ok := r.byPhone[phone]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return copyCustomer(customer), nil
}

// FindByID finds a customer by numeric ID
func (r *MemoryCustomerRepository) FindByID(ctx context.Context, id uint64) (*billing.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, customer := range r.byPhone {
		if customer.ID == id {
			return copyCustomer(customer), nil
		}
	}
	return nil, shared.ErrNotFound
}

// FindAll returns every customer, ordered by numeric ID
func (r *MemoryCustomerRepository) FindAll(ctx context.Context) ([]billing.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	customers := make([]billing.Customer, 0, len(r.byPhone))
	for _, customer := range r.byPhone {
		customers = append(customers, *copyCustomer(customer))
	}
	sort.Slice(customers, func(i, j int) bool { return customers[i].ID < customers[j].ID })
	return customers, nil
}

// ExistsByPhone checks whether the phone hash has been seen
func (r *MemoryCustomerRepository) ExistsByPhone(ctx context.Context, phone valueobject.PhoneHash) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byPhone[phone]
	return ok, nil
}

// Save creates or updates a customer and its history entries
func (r *MemoryCustomerRepository) Save(ctx context.Context, customer *billing.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byPhone[customer.PhoneHash] = *copyCustomer(*customer)
	return nil
}

// Count counts registered customers
func (r *MemoryCustomerRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.byPhone)), nil
}

// copyCustomer detaches the stored state from the caller's aggregate
func copyCustomer(customer billing.Customer) *billing.Customer {
	clone := customer
	clone.History = make([]billing.HistoryEntry, len(customer.History))
	copy(clone.History, customer.History)
	if customer.ActiveLoanIndex != nil {
		idx := *customer.ActiveLoanIndex
		clone.ActiveLoanIndex = &idx
	}
	clone.ClearDomainEvents()
	return &clone
}
