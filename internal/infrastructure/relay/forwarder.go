// Package relay forwards committed lending events to the telecom
// operator's webhook endpoint.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/microlend/backend/internal/domain/billing"
	"github.com/microlend/backend/internal/domain/offering"
	"github.com/microlend/backend/internal/domain/shared"
	"github.com/microlend/backend/internal/infrastructure/cache"
	"github.com/microlend/backend/internal/infrastructure/config"
)

// Payload type discriminators understood by the operator
const (
	PayloadTypeOffer        = 1
	PayloadTypeConfirmation = 3
	PayloadTypeAcknowledge  = 5
)

// maxResponseSize caps how much of the operator's reply is drained
const maxResponseSize = 1 * 1024 * 1024

// dedupeTTL is how long a delivered event id is remembered
const dedupeTTL = 24 * time.Hour

// offerProposal is one catalog candidate inside an offer payload
type offerProposal struct {
	ID          uint64 `json:"id"`
	Description string `json:"description"`
}

// offerPayload announces a matched offer to the operator
type offerPayload struct {
	Type           int             `json:"type"`
	PhoneHash      string          `json:"phoneHash"`
	OfferID        uint64          `json:"offerId"`
	Timestamp      int64           `json:"timeStamp"`
	Proposals      []offerProposal `json:"proposals"`
	ProposalsCount int             `json:"proposalsCount"`
}

// confirmationPayload confirms a loan acceptance to the operator
type confirmationPayload struct {
	Type      int    `json:"type"`
	PhoneHash string `json:"phoneHash"`
	ProductID uint64 `json:"productId"`
	Timestamp int64  `json:"timestamp"`
}

// acknowledgePayload acknowledges a settled repayment
type acknowledgePayload struct {
	Type      int    `json:"type"`
	PhoneHash string `json:"phoneHash"`
}

// Forwarder subscribes to the outbound lending events and posts their
// operator payloads to the configured webhook. Delivery is best
// effort: a failed post is logged, never retried against the ledger.
type Forwarder struct {
	endpoint        string
	emitEmptyOffers bool
	proposalRepo    offering.ProposalRepository
	dedupe          cache.DedupeStore
	httpClient      *http.Client
	logger          *zap.Logger
}

// NewForwarder creates a forwarder for the configured operator endpoint
func NewForwarder(cfg config.RelayConfig, emitEmptyOffers bool, proposalRepo offering.ProposalRepository, dedupe cache.DedupeStore, logger *zap.Logger) *Forwarder {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Forwarder{
		endpoint:        cfg.Endpoint,
		emitEmptyOffers: emitEmptyOffers,
		proposalRepo:    proposalRepo,
		dedupe:          dedupe,
		httpClient:      &http.Client{Timeout: timeout},
		logger:          logger.Named("relay"),
	}
}

// EventTypes returns the outbound event types the forwarder consumes
func (f *Forwarder) EventTypes() []string {
	return []string{
		offering.EventTypeOfferSent,
		billing.EventTypeConfirmationSent,
		billing.EventTypeAcknowledgeSent,
	}
}

// Handle translates a committed domain event into its operator payload
func (f *Forwarder) Handle(ctx context.Context, event shared.DomainEvent) error {
	if f.dedupe != nil {
		fresh, err := f.dedupe.MarkProcessed(ctx, event.EventID().String(), dedupeTTL)
		if err != nil {
			return fmt.Errorf("dedupe check: %w", err)
		}
		if !fresh {
			f.logger.Debug("duplicate delivery skipped",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()))
			return nil
		}
	}

	switch e := event.(type) {
	case *offering.OfferSentEvent:
		return f.sendOffer(ctx, e)
	case *billing.ConfirmationSentEvent:
		return f.sendConfirmation(ctx, e)
	case *billing.AcknowledgeSentEvent:
		return f.sendAcknowledge(ctx, e)
	default:
		return nil
	}
}

func (f *Forwarder) sendOffer(ctx context.Context, e *offering.OfferSentEvent) error {
	if len(e.ProposalIDs) == 0 && !f.emitEmptyOffers {
		f.logger.Debug("empty offer suppressed",
			zap.Uint64("offer_id", e.OfferID),
			zap.String("ref", e.Ref))
		return nil
	}

	proposals := make([]offerProposal, 0, len(e.ProposalIDs))
	for _, id := range e.ProposalIDs {
		proposal, err := f.proposalRepo.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("resolve proposal %d: %w", id, err)
		}
		proposals = append(proposals, offerProposal{
			ID:          proposal.ID,
			Description: proposal.Description,
		})
	}

	return f.post(ctx, offerPayload{
		Type:           PayloadTypeOffer,
		PhoneHash:      e.PhoneHash.String(),
		OfferID:        e.OfferID,
		Timestamp:      e.Timestamp,
		Proposals:      proposals,
		ProposalsCount: len(proposals),
	})
}

func (f *Forwarder) sendConfirmation(ctx context.Context, e *billing.ConfirmationSentEvent) error {
	return f.post(ctx, confirmationPayload{
		Type:      PayloadTypeConfirmation,
		PhoneHash: e.PhoneHash.String(),
		ProductID: e.ProductID,
		Timestamp: e.AcceptanceTimestamp,
	})
}

func (f *Forwarder) sendAcknowledge(ctx context.Context, e *billing.AcknowledgeSentEvent) error {
	return f.post(ctx, acknowledgePayload{
		Type:      PayloadTypeAcknowledge,
		PhoneHash: e.PhoneHash.String(),
	})
}

func (f *Forwarder) post(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post to operator: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("operator endpoint returned %d", resp.StatusCode)
	}

	f.logger.Debug("payload delivered", zap.Int("status", resp.StatusCode))
	return nil
}

var _ shared.EventHandler = (*Forwarder)(nil)
