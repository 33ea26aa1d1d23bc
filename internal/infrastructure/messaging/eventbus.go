// Package messaging implements the event bus that carries domain events from
// the command and saga layers to their subscribers.
package messaging

import (
	"errors"
	"sync"
	"time"

	"github.com/pasantia-hub/placement-hub/internal/domain/shared"
	"github.com/pasantia-hub/placement-hub/pkg/logger"
)

// ErrEventBusClosed is returned when publishing or subscribing after Close.
var ErrEventBusClosed = errors.New("event bus is closed")

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// InMemoryEventBus is a simple in-memory implementation of shared.EventBus.
// Suitable for single-instance deployments and testing.
type InMemoryEventBus struct {
	mu          sync.RWMutex
	handlers    map[shared.EventType][]shared.EventHandler
	allHandlers []shared.EventHandler
	asyncMode   bool
	workerPool  chan struct{}
	logger      *logger.Logger
	metrics     *Metrics
	closed      bool
	wg          sync.WaitGroup
}

// Config contains configuration for InMemoryEventBus.
type Config struct {
	// AsyncMode runs handlers on a worker pool instead of the publisher's
	// goroutine. Synchronous mode keeps event ordering and is what the
	// tests use.
	AsyncMode bool

	// WorkerPoolSize is the number of concurrent workers in async mode.
	WorkerPoolSize int

	// Logger for structured logging.
	Logger *logger.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		AsyncMode:      true,
		WorkerPoolSize: 10,
	}
}

// NewInMemoryEventBus creates a new in-memory event bus.
func NewInMemoryEventBus(config Config) *InMemoryEventBus {
	if config.Logger == nil {
		config.Logger = logger.Default()
	}
	if config.WorkerPoolSize <= 0 {
		config.WorkerPoolSize = 10
	}

	return &InMemoryEventBus{
		handlers:    make(map[shared.EventType][]shared.EventHandler),
		allHandlers: make([]shared.EventHandler, 0),
		asyncMode:   config.AsyncMode,
		workerPool:  make(chan struct{}, config.WorkerPoolSize),
		logger:      config.Logger,
		metrics:     NewMetrics(),
	}
}

// Subscribe registers a handler for a specific event type.
func (b *InMemoryEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// SubscribeAll registers a handler for all events.
func (b *InMemoryEventBus) SubscribeAll(handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}

	b.allHandlers = append(b.allHandlers, handler)
	return nil
}

// Publish sends an event to all subscribed handlers. Handler errors never
// fail the publish; the write that produced the event already committed.
func (b *InMemoryEventBus) Publish(event shared.Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrEventBusClosed
	}
	handlers := make([]shared.EventHandler, 0, len(b.handlers[event.EventType()])+len(b.allHandlers))
	handlers = append(handlers, b.handlers[event.EventType()]...)
	handlers = append(handlers, b.allHandlers...)
	b.mu.RUnlock()

	b.metrics.RecordPublish(event.EventType())

	if len(handlers) == 0 {
		return nil
	}

	if b.asyncMode {
		for _, handler := range handlers {
			b.executeAsync(event, handler)
		}
		return nil
	}

	for _, handler := range handlers {
		if err := b.execute(event, handler); err != nil {
			b.logger.Error("event handler failed",
				logger.String("event_type", string(event.EventType())),
				logger.Err(err),
			)
		}
	}
	return nil
}

// executeAsync executes a handler on the worker pool. Once Publish has
// accepted the event the delivery always runs; Close waits for it.
func (b *InMemoryEventBus) executeAsync(event shared.Event, handler shared.EventHandler) {
	b.wg.Add(1)

	go func() {
		defer b.wg.Done()

		b.workerPool <- struct{}{}
		defer func() { <-b.workerPool }()

		if err := b.execute(event, handler); err != nil {
			b.logger.Error("async event handler failed",
				logger.String("event_type", string(event.EventType())),
				logger.Err(err),
			)
		}
	}()
}

func (b *InMemoryEventBus) execute(event shared.Event, handler shared.EventHandler) error {
	start := time.Now()
	err := handler(event)
	b.metrics.RecordHandlerExecution(event.EventType(), time.Since(start), err == nil)
	return err
}

// Close shuts down the bus. New publishes are rejected, while every
// event already accepted is drained before Close returns.
func (b *InMemoryEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.wg.Wait()
	return nil
}

// Metrics returns the bus counters.
func (b *InMemoryEventBus) Metrics() *Metrics {
	return b.metrics
}

// ══════════════════════════════════════════════════════════════════════════════
// METRICS
// ══════════════════════════════════════════════════════════════════════════════

// Metrics tracks event bus activity per event type.
type Metrics struct {
	mu         sync.Mutex
	published  map[shared.EventType]int64
	handled    map[shared.EventType]int64
	failed     map[shared.EventType]int64
	totalSpent map[shared.EventType]time.Duration
}

// NewMetrics creates zeroed metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		published:  make(map[shared.EventType]int64),
		handled:    make(map[shared.EventType]int64),
		failed:     make(map[shared.EventType]int64),
		totalSpent: make(map[shared.EventType]time.Duration),
	}
}

// RecordPublish counts a published event.
func (m *Metrics) RecordPublish(t shared.EventType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[t]++
}

// RecordHandlerExecution counts one handler run.
func (m *Metrics) RecordHandlerExecution(t shared.EventType, d time.Duration, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handled[t]++
	m.totalSpent[t] += d
	if !ok {
		m.failed[t]++
	}
}

// Published returns the publish count for an event type.
func (m *Metrics) Published(t shared.EventType) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.published[t]
}

// Failed returns the failed handler count for an event type.
func (m *Metrics) Failed(t shared.EventType) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failed[t]
}
