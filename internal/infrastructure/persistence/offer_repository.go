package persistence

import (
	"context"
	"errors"

	"github.com/microlend/backend/internal/domain/offering"
	"github.com/microlend/backend/internal/domain/shared"
	"github.com/microlend/backend/internal/domain/shared/valueobject"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOfferRepository implements offering.OfferRepository using GORM
type GormOfferRepository struct {
	db *gorm.DB
}

// NewGormOfferRepository creates a new GormOfferRepository
func NewGormOfferRepository(db *gorm.DB) *GormOfferRepository {
	return &GormOfferRepository{db: db}
}

// FindByID finds an offer by ID
func (r *GormOfferRepository) FindByID(ctx context.Context, id uint64) (*offering.Offer, error) {
	var offer offering.Offer
	if err := r.conn(ctx).First(&offer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &offer, nil
}

// FindAll returns every offer in ascending ID order
func (r *GormOfferRepository) FindAll(ctx context.Context) ([]offering.Offer, error) {
	var offers []offering.Offer
	if err := r.conn(ctx).Order("id ASC").Find(&offers).Error; err != nil {
		return nil, err
	}
	return offers, nil
}

// FindByPhone returns a customer's offers in ascending ID order
func (r *GormOfferRepository) FindByPhone(ctx context.Context, phone valueobject.PhoneHash) ([]offering.Offer, error) {
	var offers []offering.Offer
	if err := r.conn(ctx).
		Where("phone_hash = ?", phone).
		Order("id ASC").
		Find(&offers).Error; err != nil {
		return nil, err
	}
	return offers, nil
}

// Save creates or updates an offer
func (r *GormOfferRepository) Save(ctx context.Context, offer *offering.Offer) error {
	return r.conn(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(offer).Error
}

// Count counts all offers
func (r *GormOfferRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.conn(ctx).Model(&offering.Offer{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByPhone counts a customer's offers
func (r *GormOfferRepository) CountByPhone(ctx context.Context, phone valueobject.PhoneHash) (int64, error) {
	var count int64
	if err := r.conn(ctx).Model(&offering.Offer{}).
		Where("phone_hash = ?", phone).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormOfferRepository) conn(ctx context.Context) *gorm.DB {
	if tx, ok := txFrom(ctx); ok {
		return tx
	}
	return r.db.WithContext(ctx)
}
