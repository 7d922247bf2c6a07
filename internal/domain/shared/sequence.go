package shared

import "context"

// Sequence names used by the lending contexts
const (
	SequenceCustomer = "customer"
	SequenceProposal = "proposal"
	SequenceOffer    = "offer"
	SequenceProduct  = "product"
)

// Sequence hands out sequential identifiers per entity kind.
// Allocation must be atomic with the entity's first write, so
// implementations participate in the surrounding TxManager scope.
type Sequence interface {
	// Next returns the next identifier for the named sequence,
	// starting at 0 for a fresh sequence.
	Next(ctx context.Context, name string) (uint64, error)
}
