package messaging

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pasantia-hub/placement-hub/internal/domain/shared"
)

func newSyncBus() *InMemoryEventBus {
	cfg := DefaultConfig()
	cfg.AsyncMode = false
	return NewInMemoryEventBus(cfg)
}

func TestInMemoryEventBus_PublishToSubscriber(t *testing.T) {
	bus := newSyncBus()

	var received []shared.Event
	err := bus.Subscribe(shared.EventApplicationSubmitted, func(event shared.Event) error {
		received = append(received, event)
		return nil
	})
	require.NoError(t, err)

	event := shared.NewApplicationSubmittedEvent("app-1", "student-1", "company-1")
	require.NoError(t, bus.Publish(event))

	require.Len(t, received, 1)
	assert.Equal(t, "app-1", received[0].AggregateID())
	assert.Equal(t, int64(1), bus.Metrics().Published(shared.EventApplicationSubmitted))
}

func TestInMemoryEventBus_TypeFiltering(t *testing.T) {
	bus := newSyncBus()

	var hits int
	require.NoError(t, bus.Subscribe(shared.EventInternshipCompleted, func(shared.Event) error {
		hits++
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewApplicationSubmittedEvent("app-1", "s", "c")))
	assert.Equal(t, 0, hits)

	require.NoError(t, bus.Publish(shared.NewInternshipCompletedEvent("i-1", "s", "c", 180)))
	assert.Equal(t, 1, hits)
}

func TestInMemoryEventBus_SubscribeAll(t *testing.T) {
	bus := newSyncBus()

	var all int
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		all++
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewApplicationSubmittedEvent("app-1", "s", "c")))
	require.NoError(t, bus.Publish(shared.NewHoursLoggedEvent("i-1", "s", 8, 8)))
	assert.Equal(t, 2, all)
}

func TestInMemoryEventBus_HandlerErrorDoesNotFailPublish(t *testing.T) {
	bus := newSyncBus()

	require.NoError(t, bus.Subscribe(shared.EventHoursLogged, func(shared.Event) error {
		return errors.New("boom")
	}))

	err := bus.Publish(shared.NewHoursLoggedEvent("i-1", "s", 8, 8))
	assert.NoError(t, err)
	assert.Equal(t, int64(1), bus.Metrics().Failed(shared.EventHoursLogged))
}

func TestInMemoryEventBus_AsyncDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultConfig())

	var mu sync.Mutex
	var hits int
	require.NoError(t, bus.Subscribe(shared.EventHoursLogged, func(shared.Event) error {
		mu.Lock()
		defer mu.Unlock()
		hits++
		return nil
	}))

	for i := 0; i < 20; i++ {
		require.NoError(t, bus.Publish(shared.NewHoursLoggedEvent("i-1", "s", 1, i+1)))
	}
	require.NoError(t, bus.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 20, hits)
}

func TestInMemoryEventBus_CloseDrainsQueuedDeliveries(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WorkerPoolSize = 2
	bus := NewInMemoryEventBus(cfg)

	// Slow handler keeps the pool saturated so most deliveries are
	// still waiting for a slot when Close is called.
	var mu sync.Mutex
	var hits int
	require.NoError(t, bus.Subscribe(shared.EventHoursLogged, func(shared.Event) error {
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		defer mu.Unlock()
		hits++
		return nil
	}))

	const published = 30
	for i := 0; i < published; i++ {
		require.NoError(t, bus.Publish(shared.NewHoursLoggedEvent("i-1", "s", 1, i+1)))
	}
	require.NoError(t, bus.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, published, hits)
}

func TestInMemoryEventBus_ClosedBusRejectsPublish(t *testing.T) {
	bus := newSyncBus()
	require.NoError(t, bus.Close())

	err := bus.Publish(shared.NewApplicationSubmittedEvent("app-1", "s", "c"))
	assert.ErrorIs(t, err, ErrEventBusClosed)

	err = bus.Subscribe(shared.EventApplicationSubmitted, func(shared.Event) error { return nil })
	assert.ErrorIs(t, err, ErrEventBusClosed)
}
