package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SequenceCounter is the storage row behind one named id sequence
type SequenceCounter struct {
	Name string `gorm:"primaryKey;type:varchar(50)"`
	// Next is the value the next allocation will return
	Next uint64 `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (SequenceCounter) TableName() string {
	return "sequence_counters"
}

// GormSequence implements shared.Sequence on a counter table. When the
// context carries an open transaction the allocation joins it, making
// the id atomic with the entity's first write.
type GormSequence struct {
	db *gorm.DB
}

// NewGormSequence creates a new GormSequence
func NewGormSequence(db *gorm.DB) *GormSequence {
	return &GormSequence{db: db}
}

// Next allocates the next identifier for the named sequence, starting
// at 0 for a fresh sequence
func (s *GormSequence) Next(ctx context.Context, name string) (uint64, error) {
	db := s.conn(ctx)

	// Seed the counter row on first use; a concurrent seed loses
	// silently and falls through to the increment
	seed := SequenceCounter{Name: name}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return 0, fmt.Errorf("failed to seed sequence %q: %w", name, err)
	}

	result := db.Model(&SequenceCounter{}).
		Where("name = ?", name).
		UpdateColumn("next", gorm.Expr("next + 1"))
	if result.Error != nil {
		return 0, fmt.Errorf("failed to advance sequence %q: %w", name, result.Error)
	}

	var counter SequenceCounter
	if err := db.First(&counter, "name = ?", name).Error; err != nil {
		return 0, fmt.Errorf("failed to read sequence %q: %w", name, err)
	}
	return counter.Next - 1, nil
}

func (s *GormSequence) conn(ctx context.Context) *gorm.DB {
	if tx, ok := txFrom(ctx); ok {
		return tx
	}
	return s.db.WithContext(ctx)
}
