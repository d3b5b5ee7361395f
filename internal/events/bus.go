// Package events carries media-server events from the ingest layer to
// the script execution pipeline.
package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/vmunix/scriptarr/internal/event"
)

// Bus is the central event bus for pub/sub.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[event.Type][]chan event.Data // event type -> channels
	allSubs     []chan event.Data                // subscribers to all events
	log         *Log                             // SQLite persistence (may be nil)
	logger      *slog.Logger
	closed      bool
}

// NewBus creates a new event bus.
// The Log is optional - pass nil to disable persistence.
func NewBus(log *Log, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subscribers: make(map[event.Type][]chan event.Data),
		log:         log,
		logger:      logger,
	}
}

// Publish sends an event to all subscribers and optionally persists it.
func (b *Bus) Publish(ctx context.Context, e event.Data) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return nil
	}

	// Get subscribers for this event type
	subs := make([]chan event.Data, len(b.subscribers[e.Type]))
	copy(subs, b.subscribers[e.Type])

	// Get all-event subscribers
	allSubs := make([]chan event.Data, len(b.allSubs))
	copy(allSubs, b.allSubs)
	b.mu.RUnlock()

	// Persist event
	if b.log != nil {
		if _, err := b.log.Append(e); err != nil {
			b.logger.Error("failed to persist event", "type", e.Type, "error", err)
			// Continue - event delivery is more important than persistence
		}
	}

	// Deliver to type-specific subscribers (non-blocking)
	for _, ch := range subs {
		select {
		case ch <- e:
		default:
			b.logger.Warn("subscriber channel full, dropping event",
				"type", e.Type,
				"item", e.ItemName,
				"user", e.UserName)
		}
	}

	// Deliver to all-event subscribers (non-blocking)
	for _, ch := range allSubs {
		select {
		case ch <- e:
		default:
			b.logger.Warn("all-subscriber channel full, dropping event",
				"type", e.Type)
		}
	}

	return nil
}

// Subscribe returns a channel for events of a specific type.
func (b *Bus) Subscribe(t event.Type, bufferSize int) <-chan event.Data {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan event.Data, bufferSize)
	b.subscribers[t] = append(b.subscribers[t], ch)
	return ch
}

// SubscribeAll returns a channel for all events.
func (b *Bus) SubscribeAll(bufferSize int) <-chan event.Data {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan event.Data, bufferSize)
	b.allSubs = append(b.allSubs, ch)
	return ch
}

// Unsubscribe removes a subscription channel.
func (b *Bus) Unsubscribe(ch <-chan event.Data) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Remove from type-specific subscribers
	for t, subs := range b.subscribers {
		for i, sub := range subs {
			if sub == ch {
				b.subscribers[t] = append(subs[:i], subs[i+1:]...)
				close(sub)
				return
			}
		}
	}

	// Remove from all-event subscribers
	for i, sub := range b.allSubs {
		if sub == ch {
			b.allSubs = append(b.allSubs[:i], b.allSubs[i+1:]...)
			close(sub)
			return
		}
	}
}

// Close shuts down the bus and closes all subscriber channels.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	// Close all type-specific subscriber channels
	for _, subs := range b.subscribers {
		for _, ch := range subs {
			close(ch)
		}
	}
	b.subscribers = nil

	// Close all-event subscriber channels
	for _, ch := range b.allSubs {
		close(ch)
	}
	b.allSubs = nil

	return nil
}
