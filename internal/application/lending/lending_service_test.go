package lending

import (
	"context"
	"errors"
	"testing"

	appbilling "github.com/microlend/backend/internal/application/billing"
	appoffering "github.com/microlend/backend/internal/application/offering"
	"github.com/microlend/backend/internal/domain/billing"
	"github.com/microlend/backend/internal/domain/offering"
	"github.com/microlend/backend/internal/domain/shared"
	"github.com/microlend/backend/internal/domain/shared/valueobject"
	"github.com/microlend/backend/internal/infrastructure/auth"
	"github.com/microlend/backend/internal/infrastructure/persistence/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPhone  = valueobject.PhoneHash("8f4e7cbdbd55f9ba1a7c55b0a00dcdd1")
	timestampA = int64(1626699313)
	timestampP = int64(1626699323)
)

type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.EventType())
	}
	return types
}

type denyAuthorizer struct{}

// faultyCustomerRepo simulates a ledger store outage on reads
type faultyCustomerRepo struct {
	*memory.MemoryCustomerRepository
	findErr error
}

func (r *faultyCustomerRepo) FindByPhone(ctx context.Context, phone valueobject.PhoneHash) (*billing.Customer, error) {
	return nil, r.findErr
}

func (denyAuthorizer) Authorize(ctx context.Context) error {
	return shared.ErrUnauthorized
}

type fixture struct {
	service      *LendingService
	sink         *recordingPublisher
	customerRepo *memory.MemoryCustomerRepository
	productRepo  *memory.MemoryProductRepository
	offeringSvc  *appoffering.OfferingService
	billingSvc   *appbilling.BillingService
}

func setup(t *testing.T) *fixture {
	t.Helper()

	customerRepo := memory.NewMemoryCustomerRepository()
	proposalRepo := memory.NewMemoryProposalRepository()
	offerRepo := memory.NewMemoryOfferRepository()
	productRepo := memory.NewMemoryProductRepository()
	sequence := memory.NewMemorySequence()

	sink := &recordingPublisher{}
	deferred := shared.NewDeferredPublisher(sink)

	billingSvc := appbilling.NewBillingService(customerRepo, sequence, false)
	billingSvc.SetEventPublisher(deferred)

	offeringSvc := appoffering.NewOfferingService(proposalRepo, offerRepo, productRepo, sequence)
	offeringSvc.SetEventPublisher(deferred)

	service := NewLendingService(billingSvc, offeringSvc, auth.AllowAllAuthorizer{}, memory.NewMemoryTxManager())
	service.SetEventPublisher(sink)
	service.SetClock(func() int64 { return timestampA })

	return &fixture{
		service:      service,
		sink:         sink,
		customerRepo: customerRepo,
		productRepo:  productRepo,
		offeringSvc:  offeringSvc,
		billingSvc:   billingSvc,
	}
}

func (f *fixture) seedCatalog(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := f.service.AddProposal(ctx, appoffering.AddProposalRequest{
		MinScoring:  12,
		Capital:     20000,
		Interest:    5000,
		Description: "200 euros with 25% interest",
	})
	require.NoError(t, err)
	_, err = f.service.AddProposal(ctx, appoffering.AddProposalRequest{
		MinScoring:  100,
		Capital:     80000,
		Interest:    20000,
		Description: "800 euros for trusted customers",
	})
	require.NoError(t, err)
	f.sink.events = nil
}

func TestLendingService_Authorization(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.service = NewLendingService(f.billingSvc, f.offeringSvc, denyAuthorizer{}, memory.NewMemoryTxManager())

	_, err := f.service.AddToScore(ctx, testPhone)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)

	_, err = f.service.LowBalance(ctx, testPhone, "ref-1")
	assert.ErrorIs(t, err, shared.ErrUnauthorized)

	_, err = f.service.AddProposal(ctx, appoffering.AddProposalRequest{Description: "x"})
	assert.ErrorIs(t, err, shared.ErrUnauthorized)

	count, err := f.customerRepo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "rejected calls leave no writes behind")
}

func TestLendingService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.seedCatalog(t)

	// Top-up raises the score and registers the phone on first sight
	customer, err := f.service.AddToScore(ctx, testPhone)
	require.NoError(t, err)
	assert.Equal(t, uint64(billing.ScoreStep), customer.Score)
	assert.Equal(t, []string{billing.EventTypeScoreChanged}, f.sink.types())
	f.sink.events = nil

	// Low balance matches the catalog against the score snapshot
	offer, err := f.service.LowBalance(ctx, testPhone, "ref-1")
	require.NoError(t, err)
	assert.Equal(t, []uint64{0}, offer.ProposalIDs, "only the low threshold qualifies at score 12")
	assert.Equal(t, []string{
		offering.EventTypeLowBalanceReceived,
		offering.EventTypeOfferSent,
	}, f.sink.types())
	f.sink.events = nil

	// Acceptance mints the product and appends the billing record
	product, err := f.service.Acceptance(ctx, testPhone, "ref-1", timestampA, offer.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), product.ID)

	customer, err = f.service.GetCustomer(ctx, testPhone)
	require.NoError(t, err)
	assert.True(t, customer.HasOpenLoan)
	require.Len(t, customer.History, 1)
	assert.Equal(t, product.ID, customer.History[0].ProductID)
	assert.Equal(t, []string{
		offering.EventTypeProductCreated,
		billing.EventTypeAcceptanceReceived,
		billing.EventTypeConfirmationSent,
	}, f.sink.types())
	f.sink.events = nil

	// The offer is now accepted and cannot back another product
	_, err = f.service.Acceptance(ctx, testPhone, "ref-1", timestampA, offer.ID, 0)
	assert.ErrorIs(t, err, offering.ErrOfferAlreadyAccepted)
	f.sink.events = nil

	// Top-up settles the loan and closes the product
	settled, err := f.service.TopUp(ctx, testPhone, timestampP)
	require.NoError(t, err)
	assert.Equal(t, "ref-1", settled.Ref)
	assert.Equal(t, product.ID, settled.ProductID)
	assert.False(t, settled.Customer.HasOpenLoan)
	assert.Equal(t, uint64(2), settled.Customer.TopUpCount)
	assert.Equal(t, []string{
		billing.EventTypeTopUpReceived,
		billing.EventTypeAcknowledgeSent,
		offering.EventTypeProductClosed,
	}, f.sink.types())

	closedProduct, err := f.productRepo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.False(t, closedProduct.IsActive())
	assert.Equal(t, timestampP, closedProduct.ClosedAt)

	// A second top-up has nothing left to refund
	_, err = f.service.TopUp(ctx, testPhone, timestampP+10)
	assert.ErrorIs(t, err, billing.ErrNoActiveProduct)
}

func TestLendingService_LowBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown phone is blocked", func(t *testing.T) {
		f := setup(t)
		f.seedCatalog(t)

		_, err := f.service.LowBalance(ctx, testPhone, "ref-1")

		assert.ErrorIs(t, err, billing.ErrCustomerBlocked)
		assert.Empty(t, f.sink.types(), "a failed scope publishes nothing")
	})

	t.Run("blocked customer is rejected", func(t *testing.T) {
		f := setup(t)
		f.seedCatalog(t)

		_, err := f.service.AddToScore(ctx, testPhone)
		require.NoError(t, err)
		_, err = f.service.ChangeCustomerStatus(ctx, testPhone, billing.CustomerStatusClosed)
		require.NoError(t, err)
		f.sink.events = nil

		_, err = f.service.LowBalance(ctx, testPhone, "ref-1")

		assert.ErrorIs(t, err, billing.ErrCustomerBlocked)
	})

	t.Run("score below every threshold still produces an offer", func(t *testing.T) {
		f := setup(t)
		f.seedCatalog(t)

		_, err := f.service.AddToScore(ctx, testPhone)
		require.NoError(t, err)
		changed, err := f.service.ChangeScore(ctx, testPhone, 5)
		require.NoError(t, err)
		assert.Equal(t, uint64(5), changed.Score)

		offer, err := f.service.LowBalance(ctx, testPhone, "ref-9")
		require.NoError(t, err)
		assert.Empty(t, offer.ProposalIDs, "the offer is announced even with no candidates")
	})

	t.Run("score writes on unseen phones are rejected when the policy is off", func(t *testing.T) {
		f := setup(t)

		_, err := f.service.ChangeScore(ctx, testPhone, 5)
		assert.ErrorIs(t, err, billing.ErrNotRegistered)
	})

	t.Run("a ledger store failure is not masked as a blocked customer", func(t *testing.T) {
		storeErr := errors.New("connection reset by peer")
		repo := &faultyCustomerRepo{
			MemoryCustomerRepository: memory.NewMemoryCustomerRepository(),
			findErr:                  storeErr,
		}
		sequence := memory.NewMemorySequence()

		billingSvc := appbilling.NewBillingService(repo, sequence, false)
		offeringSvc := appoffering.NewOfferingService(
			memory.NewMemoryProposalRepository(),
			memory.NewMemoryOfferRepository(),
			memory.NewMemoryProductRepository(),
			sequence,
		)
		service := NewLendingService(billingSvc, offeringSvc, auth.AllowAllAuthorizer{}, memory.NewMemoryTxManager())

		_, err := service.LowBalance(ctx, testPhone, "ref-1")

		assert.ErrorIs(t, err, storeErr)
		assert.NotErrorIs(t, err, billing.ErrCustomerBlocked)
	})
}

func TestLendingService_Acceptance_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown offer aborts before any billing write", func(t *testing.T) {
		f := setup(t)
		f.seedCatalog(t)

		_, err := f.service.AddToScore(ctx, testPhone)
		require.NoError(t, err)
		f.sink.events = nil

		_, err = f.service.Acceptance(ctx, testPhone, "ref-1", timestampA, 42, 0)

		assert.ErrorIs(t, err, offering.ErrOfferNotFound)
		assert.Equal(t, "Offer doesn't exist", err.Error())
		assert.Empty(t, f.sink.types())

		customer, err := f.service.GetCustomer(ctx, testPhone)
		require.NoError(t, err)
		assert.Empty(t, customer.History)
	})

	t.Run("unknown proposal aborts", func(t *testing.T) {
		f := setup(t)
		f.seedCatalog(t)

		_, err := f.service.AddToScore(ctx, testPhone)
		require.NoError(t, err)
		offer, err := f.service.LowBalance(ctx, testPhone, "ref-1")
		require.NoError(t, err)
		f.sink.events = nil

		_, err = f.service.Acceptance(ctx, testPhone, "ref-1", timestampA, offer.ID, 99)

		assert.ErrorIs(t, err, offering.ErrProposalNotFound)
		assert.Equal(t, "Proposal doesn't exist", err.Error())
		assert.Empty(t, f.sink.types())
	})

	t.Run("open loan rejects a second acceptance", func(t *testing.T) {
		f := setup(t)
		f.seedCatalog(t)

		_, err := f.service.AddToScore(ctx, testPhone)
		require.NoError(t, err)
		first, err := f.service.LowBalance(ctx, testPhone, "ref-1")
		require.NoError(t, err)
		_, err = f.service.Acceptance(ctx, testPhone, "ref-1", timestampA, first.ID, 0)
		require.NoError(t, err)

		second, err := f.service.LowBalance(ctx, testPhone, "ref-2")
		require.NoError(t, err)
		f.sink.events = nil

		_, err = f.service.Acceptance(ctx, testPhone, "ref-2", timestampA+60, second.ID, 0)

		assert.ErrorIs(t, err, billing.ErrLoanAlreadyOpen)
		assert.Empty(t, f.sink.types())
	})
}
