// Package queue implements the bounded, drop-oldest-on-full frame queue
// that decouples a feed's decoder from its encoder.
package queue

import (
	"log/slog"
	"sync"
	"time"

	"github.com/hydrobotics/rov-relay/internal/video/types"
)

// Queue is a single-producer/single-consumer bounded queue. Put never
// blocks: when full, every currently-enqueued item is evicted before the
// new one is admitted, preserving recency over history. Get blocks up to a
// timeout.
type Queue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	items    []types.QueueItem
	capacity int

	dropped      uint64
	totalPuts    uint64
	totalGets    uint64
	lastLoggedAt uint64

	log *slog.Logger
}

// New creates a queue with the given capacity. capacity must be >= 1.
func New(capacity int, log *slog.Logger) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	q := &Queue{
		items:    make([]types.QueueItem, 0, capacity),
		capacity: capacity,
		log:      log,
	}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Put admits item, never blocking. If the queue is already at capacity,
// every currently-enqueued item is dropped first.
func (q *Queue) Put(item types.QueueItem) {
	q.mu.Lock()
	q.totalPuts++
	if len(q.items) >= q.capacity {
		evicted := uint64(len(q.items))
		q.items = q.items[:0]
		q.dropped += evicted
		if q.log != nil && q.dropped/1000 != q.lastLoggedAt {
			q.lastLoggedAt = q.dropped / 1000
			q.log.Warn("backpressure queue dropping frames", "dropped_total", q.dropped)
		}
	}
	q.items = append(q.items, item)
	q.notEmpty.Signal()
	q.mu.Unlock()
}

// Get waits up to timeout for an item. ok is false if the timeout elapsed
// with nothing enqueued.
func (q *Queue) Get(timeout time.Duration) (item types.QueueItem, ok bool) {
	deadline := time.Now().Add(timeout)

	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return types.QueueItem{}, false
		}
		timer := time.AfterFunc(remaining, q.notEmpty.Broadcast)
		q.notEmpty.Wait()
		timer.Stop()
		if len(q.items) == 0 && !time.Now().Before(deadline) {
			return types.QueueItem{}, false
		}
	}

	item = q.items[0]
	q.items = q.items[1:]
	q.totalGets++
	return item, true
}

// Size returns the current number of enqueued items.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// DroppedCount returns the cumulative number of evicted items.
func (q *Queue) DroppedCount() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Stats is a snapshot of queue counters, used for periodic status logging.
type Stats struct {
	Size      int
	Dropped   uint64
	TotalPuts uint64
	TotalGets uint64
}

// Snapshot returns the current counters in one locked read.
func (q *Queue) Snapshot() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		Size:      len(q.items),
		Dropped:   q.dropped,
		TotalPuts: q.totalPuts,
		TotalGets: q.totalGets,
	}
}
