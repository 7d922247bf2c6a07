package offering

import (
	"testing"

	"github.com/microlend/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOffer(t *testing.T) {
	t.Run("creates a new offer with the frozen candidate list", func(t *testing.T) {
		o := NewOffer(0, "00aa", "ref-1", 1626699313, []uint64{0, 2})

		assert.Equal(t, uint64(0), o.ID)
		assert.Equal(t, "ref-1", o.Ref)
		assert.Equal(t, int64(1626699313), o.Timestamp)
		assert.Equal(t, OfferStatusNew, o.Status)
		assert.Equal(t, []uint64{0, 2}, o.ProposalIDs)
		assert.Equal(t, int64(0), o.AcceptedAt)
	})

	t.Run("publishes LowBalanceReceived then OfferSent", func(t *testing.T) {
		o := NewOffer(0, "00aa", "ref-1", 1626699313, []uint64{1})

		events := o.GetDomainEvents()
		require.Len(t, events, 2)
		assert.Equal(t, EventTypeLowBalanceReceived, events[0].EventType())
		assert.Equal(t, EventTypeOfferSent, events[1].EventType())

		sent, ok := events[1].(*OfferSentEvent)
		require.True(t, ok)
		assert.Equal(t, []uint64{1}, sent.ProposalIDs)
	})

	t.Run("an empty candidate list is still stored and announced", func(t *testing.T) {
		o := NewOffer(0, "00aa", "ref-1", 1626699313, nil)

		assert.Equal(t, 0, o.ProposalCount())
		require.Len(t, o.GetDomainEvents(), 2)
	})
}

func TestOfferProposalAt(t *testing.T) {
	o := NewOffer(0, "00aa", "ref-1", 1626699313, []uint64{4, 7})

	id, err := o.ProposalAt(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)

	_, err = o.ProposalAt(2)
	assert.ErrorIs(t, err, shared.ErrInvalidArgument)

	_, err = o.ProposalAt(-1)
	assert.ErrorIs(t, err, shared.ErrInvalidArgument)
}

func TestOfferAccept(t *testing.T) {
	o := NewOffer(0, "00aa", "ref-1", 1626699313, []uint64{0})

	require.NoError(t, o.Accept(1626699400))
	assert.Equal(t, OfferStatusAccepted, o.Status)
	assert.Equal(t, int64(1626699400), o.AcceptedAt)
	assert.False(t, o.IsNew())

	err := o.Accept(1626699500)
	assert.ErrorIs(t, err, ErrOfferAlreadyAccepted)
	assert.Equal(t, int64(1626699400), o.AcceptedAt)
}
