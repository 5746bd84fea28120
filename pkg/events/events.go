// Package events carries fire-and-forget pipeline outcome events to
// observability collaborators (admin logging, history tracking). Delivery is
// best-effort: a slow or absent consumer never blocks or fails a message
// task.
package events

import (
	"sync"
	"time"

	"github.com/openclaw/openclaw/pkg/observability"
)

// Event is one terminal pipeline outcome.
type Event struct {
	TenantID       string
	UserID         string
	ChannelID      string
	State          string
	Classification string
	Source         string
	Action         string
	CostUnits      float64
	LatencyMs      int64
	At             time.Time
}

// Handler consumes events. Handlers run on the bus goroutine and should not
// block for long.
type Handler func(Event)

// Bus is a bounded async event bus. Publish drops events when the buffer is
// full rather than blocking the publisher.
type Bus struct {
	ch       chan Event
	handlers []Handler
	mu       sync.RWMutex
	closed   bool
	done     chan struct{}
	once     sync.Once
}

// NewBus creates a bus with the given buffer size and starts its dispatch
// goroutine.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 256
	}
	b := &Bus{
		ch:   make(chan Event, buffer),
		done: make(chan struct{}),
	}
	go b.dispatch()
	return b
}

// Subscribe registers a handler for all future events.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish enqueues the event without blocking. A full buffer or a closed
// bus drops the event with a warning; pipeline correctness never depends on
// delivery.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		observability.Warnf("event bus closed, dropping %s event for tenant %s", e.State, e.TenantID)
		return
	}
	select {
	case b.ch <- e:
	default:
		observability.Warnf("event bus full, dropping %s event for tenant %s", e.State, e.TenantID)
	}
}

// Close stops the dispatch goroutine after draining buffered events.
// The closed flag and channel close share the publisher lock, so a
// concurrent Publish either lands before the close or drops.
func (b *Bus) Close() {
	b.once.Do(func() {
		b.mu.Lock()
		b.closed = true
		close(b.ch)
		b.mu.Unlock()
		<-b.done
	})
}

func (b *Bus) dispatch() {
	defer close(b.done)
	for e := range b.ch {
		b.mu.RLock()
		handlers := b.handlers
		b.mu.RUnlock()
		for _, h := range handlers {
			h(e)
		}
	}
}
