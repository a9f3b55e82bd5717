package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/hydrobotics/rov-relay/internal/video/types"
)

func item(n uint64) types.QueueItem {
	return types.QueueItem{Meta: types.FrameMetadata{FrameID: n}}
}

func TestQueueCapacityInvariant(t *testing.T) {
	t.Parallel()
	q := New(3, nil)

	for _, n := range []uint64{1, 2, 3, 4, 5} {
		q.Put(item(n))
		if q.Size() > 3 {
			t.Fatalf("size exceeded capacity: %d", q.Size())
		}
	}

	stats := q.Snapshot()
	if got, want := stats.TotalPuts, uint64(5); got != want {
		t.Fatalf("total puts = %d, want %d", got, want)
	}
	if got, want := stats.TotalGets+uint64(stats.Size)+stats.Dropped, stats.TotalPuts; got != want {
		t.Fatalf("total_puts invariant violated: gets=%d size=%d dropped=%d puts=%d",
			stats.TotalGets, stats.Size, stats.Dropped, stats.TotalPuts)
	}
}

func TestQueueDropOldestOnFull(t *testing.T) {
	t.Parallel()
	q := New(3, nil)

	q.Put(item(1))
	q.Put(item(2))
	q.Put(item(3))
	if q.Size() != 3 {
		t.Fatalf("expected full queue of size 3, got %d", q.Size())
	}

	q.Put(item(4)) // full queue evicts 1,2,3 entirely, then admits 4 alone
	if q.DroppedCount() != 3 {
		t.Fatalf("expected 3 dropped, got %d", q.DroppedCount())
	}
	if q.Size() != 1 {
		t.Fatalf("expected only the just-admitted item to remain, got size %d", q.Size())
	}

	got, ok := q.Get(10 * time.Millisecond)
	if !ok {
		t.Fatalf("expected an item")
	}
	if got.Meta.FrameID != 4 {
		t.Fatalf("expected the just-admitted item, got frame id %d", got.Meta.FrameID)
	}
}

func TestQueueGetTimesOutWhenEmpty(t *testing.T) {
	t.Parallel()
	q := New(2, nil)

	start := time.Now()
	_, ok := q.Get(30 * time.Millisecond)
	if ok {
		t.Fatalf("expected timeout on empty queue")
	}
	if elapsed := time.Since(start); elapsed < 25*time.Millisecond {
		t.Fatalf("returned too early: %s", elapsed)
	}
}

func TestQueueGetUnblocksOnPut(t *testing.T) {
	t.Parallel()
	q := New(2, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	var got types.QueueItem
	var ok bool
	go func() {
		defer wg.Done()
		got, ok = q.Get(time.Second)
	}()

	time.Sleep(10 * time.Millisecond)
	q.Put(item(7))
	wg.Wait()

	if !ok {
		t.Fatalf("expected item to be delivered")
	}
	if got.Meta.FrameID != 7 {
		t.Fatalf("unexpected frame id: %d", got.Meta.FrameID)
	}
}

func TestQueueSingleCapacityAlwaysReturnsLatest(t *testing.T) {
	t.Parallel()
	q := New(1, nil)

	q.Put(item(1))
	q.Put(item(2))

	got, ok := q.Get(10 * time.Millisecond)
	if !ok {
		t.Fatalf("expected an item")
	}
	if got.Meta.FrameID != 2 {
		t.Fatalf("capacity-1 queue should return the most recent put, got %d", got.Meta.FrameID)
	}
}
