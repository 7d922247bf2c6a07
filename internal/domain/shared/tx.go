package shared

import "context"

// TxManager serializes and scopes mutating work over the ledger.
// Cross-entity operations run inside a single scope: either every
// write in fn is applied, or none is observably applied. Read-only
// aggregations use the same scope to obtain a consistent snapshot.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
