package billing

import (
	"context"

	"github.com/microlend/backend/internal/domain/shared/valueobject"
)

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	// FindByPhone finds a customer by phone hash
	FindByPhone(ctx context.Context, phone valueobject.PhoneHash) (*Customer, error)

	// FindByID finds a customer by numeric ID
	FindByID(ctx context.Context, id uint64) (*Customer, error)

	// FindAll returns every customer, ordered by numeric ID
	FindAll(ctx context.Context) ([]Customer, error)

	// ExistsByPhone checks whether the phone hash has been seen
	ExistsByPhone(ctx context.Context, phone valueobject.PhoneHash) (bool, error)

	// Save creates or updates a customer and its history entries
	Save(ctx context.Context, customer *Customer) error

	// Count counts registered customers
	Count(ctx context.Context) (int64, error)
}
