package report

import (
	"testing"

	"github.com/microlend/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestInvoicingRow_SplitInterest(t *testing.T) {
	t.Run("splits interest sixty forty", func(t *testing.T) {
		row := InvoicingRow{TotalCapital: 60000, TotalInterest: 15000}

		split := row.SplitInterest()

		assert.True(t, split.ProviderShare.Equal(decimal.RequireFromString("90")),
			"provider share = %s", split.ProviderShare)
		assert.True(t, split.SupplierShare.Equal(decimal.RequireFromString("60")),
			"supplier share = %s", split.SupplierShare)
	})

	t.Run("zero interest splits to zero", func(t *testing.T) {
		row := InvoicingRow{}

		split := row.SplitInterest()

		assert.True(t, split.ProviderShare.IsZero())
		assert.True(t, split.SupplierShare.IsZero())
	})
}

func TestNewActivityEntry(t *testing.T) {
	phone := valueobject.PhoneHash("ab12cd34")

	entry := NewActivityEntry(phone, ActivityLabelOffer, 1626699313, "ref-1")

	assert.Equal(t, phone, entry.PhoneHash)
	assert.Equal(t, "Offer", entry.Label)
	assert.Equal(t, int64(1626699313), entry.Timestamp)
	assert.Equal(t, "2021-07-19 12:55:13", entry.Time)
	assert.Equal(t, "ref-1", entry.Detail)
}
