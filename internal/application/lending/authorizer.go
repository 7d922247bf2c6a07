package lending

import "context"

// Authorizer decides whether the calling identity may drive the
// privileged lending operations. Authorization is checked once, at
// this boundary; the services below trust their caller.
type Authorizer interface {
	// Authorize returns nil when the caller carried by the context is
	// the privileged operator identity, shared.ErrUnauthorized otherwise.
	Authorize(ctx context.Context) error
}
