package shared

import (
	"context"
	"sync"
)

type eventBufferKey struct{}

// EventBuffer collects domain events raised inside a transactional
// scope so they can be published only after the scope commits.
type EventBuffer struct {
	mu     sync.Mutex
	events []DomainEvent
}

// Append adds events to the buffer in arrival order
func (b *EventBuffer) Append(events ...DomainEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, events...)
}

// Drain returns the buffered events and empties the buffer
func (b *EventBuffer) Drain() []DomainEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	events := b.events
	b.events = nil
	return events
}

// WithEventBuffer attaches a fresh event buffer to the context
func WithEventBuffer(ctx context.Context) (context.Context, *EventBuffer) {
	buffer := &EventBuffer{}
	return context.WithValue(ctx, eventBufferKey{}, buffer), buffer
}

// EventBufferFrom extracts the event buffer from the context, if any
func EventBufferFrom(ctx context.Context) (*EventBuffer, bool) {
	buffer, ok := ctx.Value(eventBufferKey{}).(*EventBuffer)
	return buffer, ok
}

// DeferredPublisher routes events into the context's event buffer when
// one is present, falling back to direct publication otherwise. Wiring
// application services with a DeferredPublisher keeps event emission
// out of open transactions.
type DeferredPublisher struct {
	direct EventPublisher
}

// NewDeferredPublisher creates a DeferredPublisher over the given sink
func NewDeferredPublisher(direct EventPublisher) *DeferredPublisher {
	return &DeferredPublisher{direct: direct}
}

// Publish buffers or forwards the events depending on the context
func (p *DeferredPublisher) Publish(ctx context.Context, events ...DomainEvent) error {
	if buffer, ok := EventBufferFrom(ctx); ok {
		buffer.Append(events...)
		return nil
	}
	if p.direct == nil {
		return nil
	}
	return p.direct.Publish(ctx, events...)
}
