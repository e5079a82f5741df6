// Package bus provides in-process pub/sub for market events.
package bus

import (
	"sync"

	"glue-exchange/internal/domain"
)

// Bus fans market events out to subscribers. Publish is non-blocking and
// best-effort: it runs after a trade commits and must never stall or fail
// the trade path.
type Bus struct {
	mu          sync.RWMutex
	subscribers []chan domain.MarketEvent
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{}
}

// Subscribe returns a read-only channel of market events.
func (b *Bus) Subscribe(bufferSize int) <-chan domain.MarketEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan domain.MarketEvent, bufferSize)
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Publish broadcasts the event to all subscribers.
// If a subscriber's buffer is full the event is dropped for that
// subscriber; a slow consumer must not stall trade throughput.
func (b *Bus) Publish(ev domain.MarketEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			// slow consumer, drop
		}
	}
}
