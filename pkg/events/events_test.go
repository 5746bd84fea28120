package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBus_DeliversToSubscribers(t *testing.T) {
	b := NewBus(16)

	var mu sync.Mutex
	var got []Event
	b.Subscribe(func(e Event) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	})

	b.Publish(Event{TenantID: "t1", State: "answered"})
	b.Publish(Event{TenantID: "t1", State: "moderated"})
	b.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, got, 2)
	assert.Equal(t, "answered", got[0].State)
	assert.Equal(t, "moderated", got[1].State)
}

func TestBus_PublishNeverBlocks(t *testing.T) {
	b := NewBus(1)
	// no subscriber draining; overflow events must be dropped, not block
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish(Event{TenantID: "t1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full bus")
	}
}

func TestBus_CloseIsIdempotent(t *testing.T) {
	b := NewBus(4)
	b.Close()
	assert.NotPanics(t, func() { b.Close() })
}

func TestBus_PublishAfterCloseDropsCleanly(t *testing.T) {
	b := NewBus(4)

	var mu sync.Mutex
	delivered := 0
	b.Subscribe(func(Event) {
		mu.Lock()
		delivered++
		mu.Unlock()
	})

	b.Publish(Event{TenantID: "t1", State: "answered"})
	b.Close()
	assert.NotPanics(t, func() { b.Publish(Event{TenantID: "t1", State: "moderated"}) })

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, delivered, "events after close are dropped, not delivered")
}
