package persistence

import (
	"context"
	"errors"

	"github.com/microlend/backend/internal/domain/billing"
	"github.com/microlend/backend/internal/domain/shared"
	"github.com/microlend/backend/internal/domain/shared/valueobject"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCustomerRepository implements billing.CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByPhone finds a customer by phone hash
func (r *GormCustomerRepository) FindByPhone(ctx context.Context, phone valueobject.PhoneHash) (*billing.Customer, error) {
	var customer billing.Customer
	if err := r.conn(ctx).
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&customer, "phone_hash = ?", phone).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &customer, nil
}

// FindByID finds a customer by numeric ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uint64) (*billing.Customer, error) {
	var customer billing.Customer
	if err := r.conn(ctx).
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&customer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &customer, nil
}

// FindAll returns every customer, ordered by numeric ID
func (r *GormCustomerRepository) FindAll(ctx context.Context) ([]billing.Customer, error) {
	var customers []billing.Customer
	if err := r.conn(ctx).
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("id ASC").
		Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

// ExistsByPhone checks whether the phone hash has been seen
func (r *GormCustomerRepository) ExistsByPhone(ctx context.Context, phone valueobject.PhoneHash) (bool, error) {
	var count int64
	if err := r.conn(ctx).Model(&billing.Customer{}).
		Where("phone_hash = ?", phone).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a customer and its history entries. Ids are
// allocated before the first write, so this is always an upsert.
func (r *GormCustomerRepository) Save(ctx context.Context, customer *billing.Customer) error {
	return r.conn(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(customer).Error
}

// Count counts registered customers
func (r *GormCustomerRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.conn(ctx).Model(&billing.Customer{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormCustomerRepository) conn(ctx context.Context) *gorm.DB {
	if tx, ok := txFrom(ctx); ok {
		return tx
	}
	return r.db.WithContext(ctx)
}
