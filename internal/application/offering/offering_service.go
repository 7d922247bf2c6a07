package offering

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/microlend/backend/internal/domain/offering"
	"github.com/microlend/backend/internal/domain/shared"
	"github.com/microlend/backend/internal/domain/shared/valueobject"
)

// OfferingService manages the proposal catalog, the offer matcher and
// the instantiated loan products
type OfferingService struct {
	proposalRepo   offering.ProposalRepository
	offerRepo      offering.OfferRepository
	productRepo    offering.ProductRepository
	sequence       shared.Sequence
	eventPublisher shared.EventPublisher
	validate       *validator.Validate
}

// NewOfferingService creates a new OfferingService
func NewOfferingService(
	proposalRepo offering.ProposalRepository,
	offerRepo offering.OfferRepository,
	productRepo offering.ProductRepository,
	sequence shared.Sequence,
) *OfferingService {
	return &OfferingService{
		proposalRepo: proposalRepo,
		offerRepo:    offerRepo,
		productRepo:  productRepo,
		sequence:     sequence,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *OfferingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// AddProposal adds a loan proposal to the catalog
func (s *OfferingService) AddProposal(ctx context.Context, req AddProposalRequest) (*ProposalResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError("VALIDATION_FAILED", err.Error())
	}

	id, err := s.sequence.Next(ctx, shared.SequenceProposal)
	if err != nil {
		return nil, err
	}

	proposal, err := offering.NewProposal(id, req.MinScoring, req.Capital, req.Interest, req.Description)
	if err != nil {
		return nil, err
	}

	if err := s.proposalRepo.Save(ctx, proposal); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, &proposal.BaseAggregateRoot)

	response := ToProposalResponse(proposal)
	return &response, nil
}

// CloseProposal retires a proposal from matching. Closing an already
// closed proposal is an error and emits nothing.
func (s *OfferingService) CloseProposal(ctx context.Context, id uint64) (*ProposalResponse, error) {
	proposal, err := s.findProposal(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := proposal.Close(); err != nil {
		return nil, err
	}

	if err := s.proposalRepo.Save(ctx, proposal); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, &proposal.BaseAggregateRoot)

	response := ToProposalResponse(proposal)
	return &response, nil
}

// GetProposal returns a proposal by id
func (s *OfferingService) GetProposal(ctx context.Context, id uint64) (*ProposalResponse, error) {
	proposal, err := s.findProposal(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToProposalResponse(proposal)
	return &response, nil
}

// ProposalsCount counts every proposal, open or closed
func (s *OfferingService) ProposalsCount(ctx context.Context) (int64, error) {
	return s.proposalRepo.Count(ctx)
}

// LowBalanceOffering matches a low-balance signal against the catalog
// using the given score snapshot. Candidates are scanned in ascending
// id order; closed proposals never qualify. An empty candidate list is
// still stored and announced.
func (s *OfferingService) LowBalanceOffering(ctx context.Context, phone valueobject.PhoneHash, ref string, timestamp int64, score uint64) (*OfferResponse, error) {
	proposals, err := s.proposalRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]uint64, 0, len(proposals))
	for i := range proposals {
		if proposals[i].IsEligible(score) {
			candidates = append(candidates, proposals[i].ID)
		}
	}

	id, err := s.sequence.Next(ctx, shared.SequenceOffer)
	if err != nil {
		return nil, err
	}

	offer := offering.NewOffer(id, phone, ref, timestamp, candidates)

	if err := s.offerRepo.Save(ctx, offer); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, &offer.BaseAggregateRoot)

	response := ToOfferResponse(offer)
	return &response, nil
}

// CreateProduct instantiates a loan from an accepted offer and one of
// the catalog's proposals, marking the offer accepted
func (s *OfferingService) CreateProduct(ctx context.Context, phone valueobject.PhoneHash, timestamp int64, offerID, proposalID uint64) (*ProductResponse, error) {
	if _, err := s.findProposal(ctx, proposalID); err != nil {
		return nil, err
	}

	offer, err := s.findOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}

	if err := offer.Accept(timestamp); err != nil {
		return nil, err
	}

	id, err := s.sequence.Next(ctx, shared.SequenceProduct)
	if err != nil {
		return nil, err
	}
	product := offering.NewProduct(id, phone, timestamp, offerID, proposalID)

	if err := s.offerRepo.Save(ctx, offer); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, &offer.BaseAggregateRoot)
	s.publishEvents(ctx, &product.BaseAggregateRoot)

	response := ToProductResponse(product)
	return &response, nil
}

// CloseProduct settles a loan at the given repayment time
func (s *OfferingService) CloseProduct(ctx context.Context, productID uint64, timestamp int64) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if err := product.Close(timestamp); err != nil {
		return nil, err
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, &product.BaseAggregateRoot)

	response := ToProductResponse(product)
	return &response, nil
}

// GetOffer returns an offer by id
func (s *OfferingService) GetOffer(ctx context.Context, id uint64) (*OfferResponse, error) {
	offer, err := s.findOffer(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToOfferResponse(offer)
	return &response, nil
}

// GetOfferProposalCount returns the size of an offer's candidate list
func (s *OfferingService) GetOfferProposalCount(ctx context.Context, offerID uint64) (int, error) {
	offer, err := s.findOffer(ctx, offerID)
	if err != nil {
		return 0, err
	}
	return offer.ProposalCount(), nil
}

// GetOfferProposalAt returns the candidate proposal id at a position
// in an offer's list
func (s *OfferingService) GetOfferProposalAt(ctx context.Context, offerID uint64, index int) (uint64, error) {
	offer, err := s.findOffer(ctx, offerID)
	if err != nil {
		return 0, err
	}
	return offer.ProposalAt(index)
}

// OffersCount counts every offer
func (s *OfferingService) OffersCount(ctx context.Context) (int64, error) {
	return s.offerRepo.Count(ctx)
}

// CustomerOffersCount counts a customer's offers
func (s *OfferingService) CustomerOffersCount(ctx context.Context, phone valueobject.PhoneHash) (int64, error) {
	return s.offerRepo.CountByPhone(ctx, phone)
}

func (s *OfferingService) findProposal(ctx context.Context, id uint64) (*offering.Proposal, error) {
	proposal, err := s.proposalRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, offering.ErrProposalNotFound
		}
		return nil, err
	}
	return proposal, nil
}

func (s *OfferingService) findOffer(ctx context.Context, id uint64) (*offering.Offer, error) {
	offer, err := s.offerRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, offering.ErrOfferNotFound
		}
		return nil, err
	}
	return offer, nil
}

func (s *OfferingService) publishEvents(ctx context.Context, root *shared.BaseAggregateRoot) {
	if s.eventPublisher == nil {
		root.ClearDomainEvents()
		return
	}
	for _, event := range root.GetDomainEvents() {
		// Best effort - event handling is async and must not undo the write
		_ = s.eventPublisher.Publish(ctx, event)
	}
	root.ClearDomainEvents()
}
