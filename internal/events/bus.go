// Package events provides the in-process notification surface: a non-blocking
// fan-out bus for committed state changes, with an optional AMQP bridge for
// downstream consumers.
package events

import (
	"sync"

	"buddy-sessions-go/internal/models"

	"go.uber.org/zap"
)

const subscriberBuffer = 16

// Bus fans out committed session transitions and balance changes to
// subscribers. Delivery is best-effort: a subscriber that stops draining its
// channel loses events instead of blocking the publisher.
type Bus struct {
	mu          sync.Mutex
	closed      bool
	nextId      int
	transitions map[int]chan models.SessionTransition
	balances    map[int]chan models.BalanceChange
}

func NewBus() *Bus {
	return &Bus{
		transitions: make(map[int]chan models.SessionTransition),
		balances:    make(map[int]chan models.BalanceChange),
	}
}

// SubscribeTransitions registers a subscriber for session transitions. The
// returned cancel function unregisters it and closes the channel.
func (b *Bus) SubscribeTransitions() (<-chan models.SessionTransition, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan models.SessionTransition, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.nextId
	b.nextId++
	b.transitions[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if existing, ok := b.transitions[id]; ok {
			delete(b.transitions, id)
			close(existing)
		}
	}
}

// SubscribeBalances registers a subscriber for balance changes.
func (b *Bus) SubscribeBalances() (<-chan models.BalanceChange, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan models.BalanceChange, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.nextId
	b.nextId++
	b.balances[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if existing, ok := b.balances[id]; ok {
			delete(b.balances, id)
			close(existing)
		}
	}
}

// PublishTransition delivers the event to every transition subscriber
// without blocking. Full subscriber buffers drop the event.
func (b *Bus) PublishTransition(event models.SessionTransition) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, ch := range b.transitions {
		select {
		case ch <- event:
		default:
			zap.L().Warn("Dropping session transition event, subscriber buffer full",
				zap.String("session_id", event.SessionId),
				zap.String("new", string(event.New)))
		}
	}
}

// PublishBalance delivers the event to every balance subscriber without
// blocking.
func (b *Bus) PublishBalance(event models.BalanceChange) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, ch := range b.balances {
		select {
		case ch <- event:
		default:
			zap.L().Warn("Dropping balance change event, subscriber buffer full",
				zap.String("account_id", event.AccountId))
		}
	}
}

// Close unregisters all subscribers and closes their channels. Publishing
// after Close is a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.transitions {
		delete(b.transitions, id)
		close(ch)
	}
	for id, ch := range b.balances {
		delete(b.balances, id)
		close(ch)
	}
}
