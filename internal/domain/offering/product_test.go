package offering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	p := NewProduct(0, "00aa", 1626699313, 2, 5)

	assert.Equal(t, uint64(0), p.ID)
	assert.Equal(t, int64(1626699313), p.Timestamp)
	assert.Equal(t, uint64(2), p.OfferID)
	assert.Equal(t, uint64(5), p.ProposalID)
	assert.Equal(t, ProductStatusActive, p.Status)
	assert.True(t, p.IsActive())

	events := p.GetDomainEvents()
	require.Len(t, events, 1)
	event, ok := events[0].(*ProductCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, uint64(2), event.OfferID)
	assert.Equal(t, uint64(5), event.ProposalID)
}

func TestProductClose(t *testing.T) {
	t.Run("settles the loan once", func(t *testing.T) {
		p := NewProduct(0, "00aa", 1626699313, 0, 0)
		p.ClearDomainEvents()

		require.NoError(t, p.Close(1626699323))
		assert.Equal(t, ProductStatusClosed, p.Status)
		assert.Equal(t, int64(1626699323), p.ClosedAt)

		events := p.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeProductClosed, events[0].EventType())
	})

	t.Run("closed is final", func(t *testing.T) {
		p := NewProduct(0, "00aa", 1626699313, 0, 0)
		require.NoError(t, p.Close(1626699323))

		err := p.Close(1626699999)
		assert.ErrorIs(t, err, ErrProductAlreadyClosed)
		assert.Equal(t, int64(1626699323), p.ClosedAt)
	})
}
