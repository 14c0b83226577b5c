package sim

import (
	"sync"
	"time"
)

// Observer receives batches of events flushed from the EventBus.
type Observer func(batch []Event)

// BusStats tracks event-bus throughput, mirroring the kind of counters the
// kernel's other batching layers expose for status reporting.
type BusStats struct {
	TotalQueued int64
	BatchesSent int64
	EventsSent  int64
	LastFlush   time.Duration
}

// EventBus batches outbound events and flushes them to a registered
// Observer either when a batch size threshold is hit or a flush interval
// elapses, whichever comes first. Unlike a transport-bound buffer, the
// flush target here is an in-process callback — there is nothing to retry
// on failure, so a panicking observer is the caller's problem, not the
// bus's.
type EventBus struct {
	mu            sync.Mutex
	pending       []Event
	maxBatchSize  int
	flushInterval time.Duration
	lastFlush     time.Duration
	observers     []Observer
	stats         BusStats
}

// NewEventBus constructs a bus with the given batching thresholds.
func NewEventBus(maxBatchSize int, flushInterval time.Duration) *EventBus {
	return &EventBus{
		maxBatchSize:  maxBatchSize,
		flushInterval: flushInterval,
	}
}

// Subscribe registers an observer for future flushes.
func (b *EventBus) Subscribe(o Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers = append(b.observers, o)
}

// Publish queues an event. It does not itself flush; callers drive
// flushing via Tick so batching stays deterministic across a sim tick.
func (b *EventBus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append(b.pending, e)
	b.stats.TotalQueued++
}

// Tick flushes the bus if the batch size threshold or flush interval has
// been reached as of now; it is cheap to call every simulation tick.
func (b *EventBus) Tick(now time.Duration) {
	b.mu.Lock()
	due := len(b.pending) >= b.maxBatchSize || now-b.lastFlush >= b.flushInterval
	b.mu.Unlock()
	if due {
		b.Flush(now)
	}
}

// Flush immediately delivers all pending events to every observer.
func (b *EventBus) Flush(now time.Duration) {
	b.mu.Lock()
	if len(b.pending) == 0 {
		b.lastFlush = now
		b.mu.Unlock()
		return
	}
	batch := b.pending
	b.pending = nil
	b.lastFlush = now
	b.stats.BatchesSent++
	b.stats.EventsSent += int64(len(batch))
	b.stats.LastFlush = now
	observers := append([]Observer(nil), b.observers...)
	b.mu.Unlock()

	for _, o := range observers {
		o(batch)
	}
}

// Stats returns a snapshot of bus throughput counters.
func (b *EventBus) Stats() BusStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

// PendingCount returns the number of events queued since the last flush.
func (b *EventBus) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
