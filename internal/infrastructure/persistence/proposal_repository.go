package persistence

import (
	"context"
	"errors"

	"github.com/microlend/backend/internal/domain/offering"
	"github.com/microlend/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProposalRepository implements offering.ProposalRepository using GORM
type GormProposalRepository struct {
	db *gorm.DB
}

// NewGormProposalRepository creates a new GormProposalRepository
func NewGormProposalRepository(db *gorm.DB) *GormProposalRepository {
	return &GormProposalRepository{db: db}
}

// FindByID finds a proposal by ID
func (r *GormProposalRepository) FindByID(ctx context.Context, id uint64) (*offering.Proposal, error) {
	var proposal offering.Proposal
	if err := r.conn(ctx).First(&proposal, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &proposal, nil
}

// FindAll returns every proposal in ascending ID order
func (r *GormProposalRepository) FindAll(ctx context.Context) ([]offering.Proposal, error) {
	var proposals []offering.Proposal
	if err := r.conn(ctx).Order("id ASC").Find(&proposals).Error; err != nil {
		return nil, err
	}
	return proposals, nil
}

// Save creates or updates a proposal
func (r *GormProposalRepository) Save(ctx context.Context, proposal *offering.Proposal) error {
	return r.conn(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(proposal).Error
}

// Count counts all proposals, open or closed
func (r *GormProposalRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.conn(ctx).Model(&offering.Proposal{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormProposalRepository) conn(ctx context.Context) *gorm.DB {
	if tx, ok := txFrom(ctx); ok {
		return tx
	}
	return r.db.WithContext(ctx)
}
