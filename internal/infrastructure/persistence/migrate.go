package persistence

import (
	"fmt"

	"github.com/microlend/backend/internal/domain/billing"
	"github.com/microlend/backend/internal/domain/offering"
	"gorm.io/gorm"
)

// AutoMigrate creates or updates the schema for every persisted entity
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&billing.Customer{},
		&billing.HistoryEntry{},
		&offering.Proposal{},
		&offering.Offer{},
		&offering.Product{},
		&SequenceCounter{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
