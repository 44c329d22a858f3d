package core

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftline/voicerelay/internal/domain"
)

func TestDrainReturnsEventsInOrder(t *testing.T) {
	m := NewMailboxStore()
	m.Enqueue("a", domain.Event{Kind: "first"})
	m.Enqueue("a", domain.Event{Kind: "second"})

	evs := m.Drain("a")
	require.Len(t, evs, 2)
	assert.Equal(t, "first", evs[0].Kind)
	assert.Equal(t, "second", evs[1].Kind)
}

func TestDrainTwiceIsEmptySecondTime(t *testing.T) {
	m := NewMailboxStore()
	m.Enqueue("a", domain.Event{Kind: "only"})

	assert.Len(t, m.Drain("a"), 1)
	assert.Empty(t, m.Drain("a"))
}

func TestDrainUnknownSessionIsEmpty(t *testing.T) {
	m := NewMailboxStore()
	assert.Empty(t, m.Drain("ghost"))
}

func TestDiscardDropsPendingEvents(t *testing.T) {
	m := NewMailboxStore()
	m.Enqueue("a", domain.Event{Kind: "pending"})
	m.Discard("a")
	assert.Empty(t, m.Drain("a"))
}

// Concurrent enqueues racing a drainer must neither lose nor duplicate
// events.
func TestConcurrentEnqueueAndDrain(t *testing.T) {
	m := NewMailboxStore()
	const writers = 8
	const perWriter = 200

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				m.Enqueue("a", domain.Event{Kind: "signal"})
			}
		}()
	}

	done := make(chan struct{})
	total := 0
	go func() {
		defer close(done)
		for {
			total += len(m.Drain("a"))
			if total >= writers*perWriter {
				return
			}
		}
	}()

	wg.Wait()
	<-done
	total += len(m.Drain("a"))
	assert.Equal(t, writers*perWriter, total)
}
