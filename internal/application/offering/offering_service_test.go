package offering

import (
	"context"
	"testing"

	"github.com/microlend/backend/internal/domain/offering"
	"github.com/microlend/backend/internal/domain/shared"
	"github.com/microlend/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProposalRepository is a mock implementation of ProposalRepository
type MockProposalRepository struct {
	mock.Mock
}

func (m *MockProposalRepository) FindByID(ctx context.Context, id uint64) (*offering.Proposal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*offering.Proposal), args.Error(1)
}

func (m *MockProposalRepository) FindAll(ctx context.Context) ([]offering.Proposal, error) {
	args := m.Called(ctx)
	return args.Get(0).([]offering.Proposal), args.Error(1)
}

func (m *MockProposalRepository) Save(ctx context.Context, proposal *offering.Proposal) error {
	args := m.Called(ctx, proposal)
	return args.Error(0)
}

func (m *MockProposalRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockOfferRepository is a mock implementation of OfferRepository
type MockOfferRepository struct {
	mock.Mock
}

func (m *MockOfferRepository) FindByID(ctx context.Context, id uint64) (*offering.Offer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*offering.Offer), args.Error(1)
}

func (m *MockOfferRepository) FindAll(ctx context.Context) ([]offering.Offer, error) {
	args := m.Called(ctx)
	return args.Get(0).([]offering.Offer), args.Error(1)
}

func (m *MockOfferRepository) FindByPhone(ctx context.Context, phone valueobject.PhoneHash) ([]offering.Offer, error) {
	args := m.Called(ctx, phone)
	return args.Get(0).([]offering.Offer), args.Error(1)
}

func (m *MockOfferRepository) Save(ctx context.Context, offer *offering.Offer) error {
	args := m.Called(ctx, offer)
	return args.Error(0)
}

func (m *MockOfferRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOfferRepository) CountByPhone(ctx context.Context, phone valueobject.PhoneHash) (int64, error) {
	args := m.Called(ctx, phone)
	return args.Get(0).(int64), args.Error(1)
}

// MockProductRepository is a mock implementation of ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uint64) (*offering.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*offering.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context) ([]offering.Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]offering.Product), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *offering.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockSequence is a mock implementation of shared.Sequence
type MockSequence struct {
	mock.Mock
}

func (m *MockSequence) Next(ctx context.Context, name string) (uint64, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(uint64), args.Error(1)
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	events []shared.DomainEvent
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) eventTypes() []string {
	types := make([]string, 0, len(m.events))
	for _, e := range m.events {
		types = append(types, e.EventType())
	}
	return types
}

const testPhone = valueobject.PhoneHash("8f4e7cbdbd55f9ba1a7c55b0a00dcdd1")

func newService(proposalRepo *MockProposalRepository, offerRepo *MockOfferRepository, productRepo *MockProductRepository, seq *MockSequence) *OfferingService {
	return NewOfferingService(proposalRepo, offerRepo, productRepo, seq)
}

func mustProposal(t *testing.T, id, minScoring uint64, capital, interest int64, description string) offering.Proposal {
	t.Helper()
	p, err := offering.NewProposal(id, minScoring, capital, interest, description)
	require.NoError(t, err)
	p.ClearDomainEvents()
	return *p
}

func TestOfferingService_AddProposal(t *testing.T) {
	ctx := context.Background()

	t.Run("adds an active proposal", func(t *testing.T) {
		proposalRepo := new(MockProposalRepository)
		seq := new(MockSequence)
		publisher := &MockEventPublisher{}
		service := newService(proposalRepo, new(MockOfferRepository), new(MockProductRepository), seq)
		service.SetEventPublisher(publisher)

		seq.On("Next", ctx, shared.SequenceProposal).Return(uint64(0), nil)
		proposalRepo.On("Save", ctx, mock.AnythingOfType("*offering.Proposal")).Return(nil)

		response, err := service.AddProposal(ctx, AddProposalRequest{
			MinScoring:  49,
			Capital:     20000,
			Interest:    5000,
			Description: "40 euros with 10% interest",
		})

		require.NoError(t, err)
		assert.Equal(t, uint64(0), response.ID)
		assert.Equal(t, "active", response.Status)
		assert.Equal(t, []string{offering.EventTypeProposalAdded}, publisher.eventTypes())
	})

	t.Run("rejects an empty description", func(t *testing.T) {
		service := newService(new(MockProposalRepository), new(MockOfferRepository), new(MockProductRepository), new(MockSequence))

		_, err := service.AddProposal(ctx, AddProposalRequest{Capital: 100, Interest: 10})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
	})

	t.Run("rejects negative amounts", func(t *testing.T) {
		service := newService(new(MockProposalRepository), new(MockOfferRepository), new(MockProductRepository), new(MockSequence))

		_, err := service.AddProposal(ctx, AddProposalRequest{Capital: -1, Interest: 10, Description: "x"})

		require.Error(t, err)
	})
}

func TestOfferingService_CloseProposal(t *testing.T) {
	ctx := context.Background()

	t.Run("closes an active proposal", func(t *testing.T) {
		proposalRepo := new(MockProposalRepository)
		publisher := &MockEventPublisher{}
		service := newService(proposalRepo, new(MockOfferRepository), new(MockProductRepository), new(MockSequence))
		service.SetEventPublisher(publisher)

		proposal := mustProposal(t, 1, 49, 20000, 5000, "test")
		proposalRepo.On("FindByID", ctx, uint64(1)).Return(&proposal, nil)
		proposalRepo.On("Save", ctx, &proposal).Return(nil)

		response, err := service.CloseProposal(ctx, 1)

		require.NoError(t, err)
		assert.Equal(t, "closed", response.Status)
		assert.Equal(t, []string{offering.EventTypeProposalClosed}, publisher.eventTypes())
	})

	t.Run("unknown proposal fails", func(t *testing.T) {
		proposalRepo := new(MockProposalRepository)
		service := newService(proposalRepo, new(MockOfferRepository), new(MockProductRepository), new(MockSequence))

		proposalRepo.On("FindByID", ctx, uint64(9)).Return(nil, shared.ErrNotFound)

		_, err := service.CloseProposal(ctx, 9)

		assert.ErrorIs(t, err, offering.ErrProposalNotFound)
	})

	t.Run("closing twice fails without re-announcing", func(t *testing.T) {
		proposalRepo := new(MockProposalRepository)
		publisher := &MockEventPublisher{}
		service := newService(proposalRepo, new(MockOfferRepository), new(MockProductRepository), new(MockSequence))
		service.SetEventPublisher(publisher)

		proposal := mustProposal(t, 1, 49, 20000, 5000, "test")
		require.NoError(t, proposal.Close())
		proposal.ClearDomainEvents()

		proposalRepo.On("FindByID", ctx, uint64(1)).Return(&proposal, nil)

		_, err := service.CloseProposal(ctx, 1)

		assert.ErrorIs(t, err, offering.ErrProposalAlreadyClosed)
		assert.Empty(t, publisher.eventTypes())
	})
}

func TestOfferingService_LowBalanceOffering(t *testing.T) {
	ctx := context.Background()

	catalog := func(t *testing.T) []offering.Proposal {
		low := mustProposal(t, 0, 0, 20000, 5000, "low threshold")
		mid := mustProposal(t, 1, 12, 40000, 10000, "mid threshold")
		high := mustProposal(t, 2, 100, 80000, 20000, "high threshold")
		return []offering.Proposal{low, mid, high}
	}

	t.Run("collects eligible proposals in ascending order", func(t *testing.T) {
		proposalRepo := new(MockProposalRepository)
		offerRepo := new(MockOfferRepository)
		seq := new(MockSequence)
		publisher := &MockEventPublisher{}
		service := newService(proposalRepo, offerRepo, new(MockProductRepository), seq)
		service.SetEventPublisher(publisher)

		proposalRepo.On("FindAll", ctx).Return(catalog(t), nil)
		seq.On("Next", ctx, shared.SequenceOffer).Return(uint64(0), nil)
		offerRepo.On("Save", ctx, mock.AnythingOfType("*offering.Offer")).Return(nil)

		response, err := service.LowBalanceOffering(ctx, testPhone, "ref-1", 1626699313, 12)

		require.NoError(t, err)
		assert.Equal(t, []uint64{0, 1}, response.ProposalIDs)
		assert.Equal(t, "new", response.Status)
		assert.Equal(t, []string{
			offering.EventTypeLowBalanceReceived,
			offering.EventTypeOfferSent,
		}, publisher.eventTypes())
	})

	t.Run("closed proposal never qualifies", func(t *testing.T) {
		proposalRepo := new(MockProposalRepository)
		offerRepo := new(MockOfferRepository)
		seq := new(MockSequence)
		service := newService(proposalRepo, offerRepo, new(MockProductRepository), seq)

		proposals := catalog(t)
		require.NoError(t, proposals[1].Close())

		proposalRepo.On("FindAll", ctx).Return(proposals, nil)
		seq.On("Next", ctx, shared.SequenceOffer).Return(uint64(0), nil)
		offerRepo.On("Save", ctx, mock.AnythingOfType("*offering.Offer")).Return(nil)

		response, err := service.LowBalanceOffering(ctx, testPhone, "ref-1", 1626699313, 1000)

		require.NoError(t, err)
		assert.Equal(t, []uint64{0, 2}, response.ProposalIDs)
	})

	t.Run("empty candidate list is still stored and announced", func(t *testing.T) {
		proposalRepo := new(MockProposalRepository)
		offerRepo := new(MockOfferRepository)
		seq := new(MockSequence)
		publisher := &MockEventPublisher{}
		service := newService(proposalRepo, offerRepo, new(MockProductRepository), seq)
		service.SetEventPublisher(publisher)

		proposalRepo.On("FindAll", ctx).Return(catalog(t), nil)
		seq.On("Next", ctx, shared.SequenceOffer).Return(uint64(3), nil)
		offerRepo.On("Save", ctx, mock.AnythingOfType("*offering.Offer")).Return(nil)

		response, err := service.LowBalanceOffering(ctx, testPhone, "ref-1", 1626699313, 5)

		require.NoError(t, err)
		assert.Empty(t, response.ProposalIDs)
		assert.Contains(t, publisher.eventTypes(), offering.EventTypeOfferSent)
		offerRepo.AssertCalled(t, "Save", ctx, mock.AnythingOfType("*offering.Offer"))
	})
}

func TestOfferingService_CreateProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the loan and accepts the offer", func(t *testing.T) {
		proposalRepo := new(MockProposalRepository)
		offerRepo := new(MockOfferRepository)
		productRepo := new(MockProductRepository)
		seq := new(MockSequence)
		publisher := &MockEventPublisher{}
		service := newService(proposalRepo, offerRepo, productRepo, seq)
		service.SetEventPublisher(publisher)

		proposal := mustProposal(t, 1, 49, 20000, 5000, "test")
		offer := offering.NewOffer(2, testPhone, "ref-1", 1626699313, []uint64{1})
		offer.ClearDomainEvents()

		proposalRepo.On("FindByID", ctx, uint64(1)).Return(&proposal, nil)
		offerRepo.On("FindByID", ctx, uint64(2)).Return(offer, nil)
		seq.On("Next", ctx, shared.SequenceProduct).Return(uint64(0), nil)
		offerRepo.On("Save", ctx, offer).Return(nil)
		productRepo.On("Save", ctx, mock.AnythingOfType("*offering.Product")).Return(nil)

		response, err := service.CreateProduct(ctx, testPhone, 1626699320, 2, 1)

		require.NoError(t, err)
		assert.Equal(t, uint64(0), response.ID)
		assert.Equal(t, uint64(2), response.OfferID)
		assert.Equal(t, uint64(1), response.ProposalID)
		assert.Equal(t, "active", response.Status)
		assert.False(t, offer.IsNew())
		assert.Equal(t, int64(1626699320), offer.AcceptedAt)
		assert.Equal(t, []string{offering.EventTypeProductCreated}, publisher.eventTypes())
	})

	t.Run("unknown proposal fails", func(t *testing.T) {
		proposalRepo := new(MockProposalRepository)
		service := newService(proposalRepo, new(MockOfferRepository), new(MockProductRepository), new(MockSequence))

		proposalRepo.On("FindByID", ctx, uint64(9)).Return(nil, shared.ErrNotFound)

		_, err := service.CreateProduct(ctx, testPhone, 1626699320, 2, 9)

		assert.ErrorIs(t, err, offering.ErrProposalNotFound)
		assert.Equal(t, "Proposal doesn't exist", err.Error())
	})

	t.Run("unknown offer fails", func(t *testing.T) {
		proposalRepo := new(MockProposalRepository)
		offerRepo := new(MockOfferRepository)
		service := newService(proposalRepo, offerRepo, new(MockProductRepository), new(MockSequence))

		proposal := mustProposal(t, 1, 49, 20000, 5000, "test")
		proposalRepo.On("FindByID", ctx, uint64(1)).Return(&proposal, nil)
		offerRepo.On("FindByID", ctx, uint64(9)).Return(nil, shared.ErrNotFound)

		_, err := service.CreateProduct(ctx, testPhone, 1626699320, 9, 1)

		assert.ErrorIs(t, err, offering.ErrOfferNotFound)
		assert.Equal(t, "Offer doesn't exist", err.Error())
	})

	t.Run("accepted offer cannot be accepted twice", func(t *testing.T) {
		proposalRepo := new(MockProposalRepository)
		offerRepo := new(MockOfferRepository)
		service := newService(proposalRepo, offerRepo, new(MockProductRepository), new(MockSequence))

		proposal := mustProposal(t, 1, 49, 20000, 5000, "test")
		offer := offering.NewOffer(2, testPhone, "ref-1", 1626699313, []uint64{1})
		require.NoError(t, offer.Accept(1626699320))
		offer.ClearDomainEvents()

		proposalRepo.On("FindByID", ctx, uint64(1)).Return(&proposal, nil)
		offerRepo.On("FindByID", ctx, uint64(2)).Return(offer, nil)

		_, err := service.CreateProduct(ctx, testPhone, 1626699330, 2, 1)

		assert.ErrorIs(t, err, offering.ErrOfferAlreadyAccepted)
	})
}

func TestOfferingService_CloseProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("settles an active loan", func(t *testing.T) {
		productRepo := new(MockProductRepository)
		publisher := &MockEventPublisher{}
		service := newService(new(MockProposalRepository), new(MockOfferRepository), productRepo, new(MockSequence))
		service.SetEventPublisher(publisher)

		product := offering.NewProduct(0, testPhone, 1626699313, 2, 1)
		product.ClearDomainEvents()

		productRepo.On("FindByID", ctx, uint64(0)).Return(product, nil)
		productRepo.On("Save", ctx, product).Return(nil)

		response, err := service.CloseProduct(ctx, 0, 1626699323)

		require.NoError(t, err)
		assert.Equal(t, "closed", response.Status)
		assert.Equal(t, int64(1626699323), response.ClosedAt)
		assert.Equal(t, []string{offering.EventTypeProductClosed}, publisher.eventTypes())
	})

	t.Run("closing twice fails", func(t *testing.T) {
		productRepo := new(MockProductRepository)
		service := newService(new(MockProposalRepository), new(MockOfferRepository), productRepo, new(MockSequence))

		product := offering.NewProduct(0, testPhone, 1626699313, 2, 1)
		require.NoError(t, product.Close(1626699320))
		product.ClearDomainEvents()

		productRepo.On("FindByID", ctx, uint64(0)).Return(product, nil)

		_, err := service.CloseProduct(ctx, 0, 1626699330)

		assert.ErrorIs(t, err, offering.ErrProductAlreadyClosed)
	})
}

func TestOfferingService_OfferAccessors(t *testing.T) {
	ctx := context.Background()

	offerRepo := new(MockOfferRepository)
	service := newService(new(MockProposalRepository), offerRepo, new(MockProductRepository), new(MockSequence))

	offer := offering.NewOffer(2, testPhone, "ref-1", 1626699313, []uint64{4, 7})
	offer.ClearDomainEvents()
	offerRepo.On("FindByID", ctx, uint64(2)).Return(offer, nil)

	count, err := service.GetOfferProposalCount(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	id, err := service.GetOfferProposalAt(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)

	_, err = service.GetOfferProposalAt(ctx, 2, 5)
	assert.ErrorIs(t, err, shared.ErrInvalidArgument)
}
