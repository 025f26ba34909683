package events

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rouletteai/roulette-client/internal/logger"
)

// Config holds event bus configuration
type Config struct {
	BufferSize int
	// Workers > 1 trades delivery order for throughput. The display relies on
	// ordered delivery, so the default is a single worker.
	Workers int
	Logger  logger.Logger
}

// DefaultConfig returns the default event bus configuration
func DefaultConfig() Config {
	return Config{
		BufferSize: 256,
		Workers:    1,
	}
}

// Bus provides asynchronous event processing with non-blocking publishing
type Bus struct {
	eventChan chan Event
	workers   int

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running atomic.Bool
	mu      sync.Mutex

	consumers []Consumer

	received  atomic.Uint64
	processed atomic.Uint64
	dropped   atomic.Uint64
	failures  atomic.Uint64

	log logger.Logger
}

// New creates a bus. Workers start with the first registered consumer.
func New(cfg Config) *Bus {
	def := DefaultConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Global().Module("events")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Bus{
		eventChan: make(chan Event, cfg.BufferSize),
		workers:   cfg.Workers,
		ctx:       ctx,
		cancel:    cancel,
		log:       cfg.Logger,
	}
}

// RegisterConsumer adds a consumer. Names must be unique.
func (b *Bus) RegisterConsumer(consumer Consumer) error {
	if b == nil {
		return fmt.Errorf("event bus not initialized")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, existing := range b.consumers {
		if existing.Name() == consumer.Name() {
			return fmt.Errorf("consumer %s already registered", consumer.Name())
		}
	}
	b.consumers = append(b.consumers, consumer)

	b.log.Debug("Registered event consumer", logger.String("consumer", consumer.Name()))

	if b.ctx.Err() == nil && !b.running.Load() {
		b.start()
	}
	return nil
}

// TryPublish queues event without blocking. It returns false when the
// event was dropped: no consumers, bus stopped, or buffer full.
func (b *Bus) TryPublish(event Event) bool {
	if b == nil || !b.running.Load() {
		return false
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case b.eventChan <- event:
		b.received.Add(1)
		return true
	default:
		b.dropped.Add(1)
		b.log.Debug("Event dropped due to full buffer", logger.String("kind", string(event.Kind)))
		return false
	}
}

func (b *Bus) start() {
	if b.running.Swap(true) {
		return
	}
	for i := range b.workers {
		b.wg.Add(1)
		go b.worker(i)
	}
}

func (b *Bus) worker(id int) {
	defer b.wg.Done()

	for {
		select {
		case <-b.ctx.Done():
			b.drain()
			return
		case event := <-b.eventChan:
			b.dispatch(event, id)
		}
	}
}

// drain delivers whatever was queued before shutdown.
func (b *Bus) drain() {
	for {
		select {
		case event := <-b.eventChan:
			b.dispatch(event, -1)
		default:
			return
		}
	}
}

func (b *Bus) dispatch(event Event, workerID int) {
	b.mu.Lock()
	consumers := make([]Consumer, len(b.consumers))
	copy(consumers, b.consumers)
	b.mu.Unlock()

	for _, consumer := range consumers {
		b.deliver(consumer, event, workerID)
	}
}

func (b *Bus) deliver(consumer Consumer, event Event, workerID int) {
	defer func() {
		if r := recover(); r != nil {
			b.failures.Add(1)
			b.log.Error("Event consumer panicked",
				logger.String("consumer", consumer.Name()),
				logger.String("kind", string(event.Kind)),
				logger.Any("panic", r))
		}
	}()

	if err := consumer.ProcessEvent(event); err != nil {
		b.failures.Add(1)
		b.log.Warn("Event consumer failed",
			logger.String("consumer", consumer.Name()),
			logger.String("kind", string(event.Kind)),
			logger.Int("worker_id", workerID),
			logger.Error(err))
		return
	}
	b.processed.Add(1)
}

// Shutdown stops accepting events, delivers queued ones and waits for the workers.
func (b *Bus) Shutdown(timeout time.Duration) error {
	if b == nil {
		return nil
	}

	b.running.Store(false)
	b.cancel()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("event bus shutdown timeout exceeded")
	}
}

// Stats returns current event bus statistics
func (b *Bus) Stats() Stats {
	if b == nil {
		return Stats{}
	}
	return Stats{
		EventsReceived:  b.received.Load(),
		EventsProcessed: b.processed.Load(),
		EventsDropped:   b.dropped.Load(),
		ConsumerErrors:  b.failures.Load(),
	}
}
