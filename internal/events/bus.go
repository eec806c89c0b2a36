package events

import (
	"context"
	"sync"
	"sync/atomic"

	ferrors "git.home.luguber.info/inful/cmsbridge/internal/foundation/errors"
)

// Bus is a small in-process publisher for workflow transitions, used when no
// external broker is configured. Publish blocks until every subscriber has
// accepted the event or the context is canceled. It is intentionally not
// durable; internal/eventstore is the durable record.
type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]chan WorkflowTransition
	nextID atomic.Uint64
	closed atomic.Bool
}

func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]chan WorkflowTransition)}
}

// Subscribe registers a buffered subscription. The returned cancel func
// removes the subscription and closes its channel.
func (b *Bus) Subscribe(buffer int) (<-chan WorkflowTransition, func()) {
	ch := make(chan WorkflowTransition, buffer)
	if b.closed.Load() {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID.Add(1)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// PublishTransition delivers the transition to all subscribers.
func (b *Bus) PublishTransition(ctx context.Context, t WorkflowTransition) error {
	if b.closed.Load() {
		return ferrors.NewError(ferrors.CategoryRuntime, "event bus is closed").Build()
	}

	b.mu.RLock()
	targets := make([]chan WorkflowTransition, 0, len(b.subs))
	for _, ch := range b.subs {
		targets = append(targets, ch)
	}
	b.mu.RUnlock()

	for _, ch := range targets {
		select {
		case ch <- t:
		case <-ctx.Done():
			return ferrors.WrapError(ctx.Err(), ferrors.CategoryRuntime, "event publish canceled").
				WithContext("key", t.Key).
				Build()
		}
	}
	return nil
}

// SubscriberCount reports active subscriptions, for tests and diagnostics.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close closes the bus and all subscription channels.
func (b *Bus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	return nil
}
