// Package aggregator implements the per-sensor sliding time-window
// aggregator that sits between the per-sensor filter chain and the
// latest-state map for high-frequency sensors.
package aggregator

import (
	"sync"
	"time"

	"github.com/hydrobotics/rov-relay/internal/telemetry/types"
)

// EmitFunc is invoked with each emitted result, writing it into the
// latest-state map.
type EmitFunc func(types.AggregationResult)

type window struct {
	buffer   []types.Sample
	lastEmit time.Time
	seeded   bool
}

// Aggregator buffers samples per sensor name and emits a mean/min/max once
// the configured window has elapsed since the last emit.
type Aggregator struct {
	windowMS int64
	emit     EmitFunc

	mu      sync.Mutex
	windows map[string]*window
}

// New builds an Aggregator with the given window size in milliseconds. emit
// is called (outside the aggregator's lock) for every window that closes.
func New(windowMS int64, emit EmitFunc) *Aggregator {
	return &Aggregator{windowMS: windowMS, emit: emit, windows: make(map[string]*window)}
}

// Add appends sample to its sensor's buffer, emitting and clearing the
// buffer first if the window has elapsed.
func (a *Aggregator) Add(sample types.Sample) {
	a.mu.Lock()
	w, ok := a.windows[sample.SensorName]
	if !ok {
		w = &window{}
		a.windows[sample.SensorName] = w
	}

	if !w.seeded {
		w.lastEmit = sample.Timestamp
		w.seeded = true
		w.buffer = append(w.buffer, sample)
		a.mu.Unlock()
		return
	}

	elapsedMS := sample.Timestamp.Sub(w.lastEmit).Milliseconds()
	var result *types.AggregationResult
	if elapsedMS >= a.windowMS {
		result = summarize(sample.SensorName, w.buffer, sample.Timestamp)
		w.buffer = w.buffer[:0]
		w.lastEmit = sample.Timestamp
	}
	w.buffer = append(w.buffer, sample)
	a.mu.Unlock()

	if result != nil && a.emit != nil {
		a.emit(*result)
	}
}

// Flush forces an emit for the named sensor (or every sensor if name is
// empty) using the last buffered sample's timestamp, regardless of whether
// the window has elapsed. Used on shutdown so no buffered data is lost.
func (a *Aggregator) Flush(name string) {
	a.mu.Lock()
	var results []types.AggregationResult
	for sensor, w := range a.windows {
		if name != "" && sensor != name {
			continue
		}
		if len(w.buffer) == 0 {
			continue
		}
		ts := w.buffer[len(w.buffer)-1].Timestamp
		results = append(results, *summarize(sensor, w.buffer, ts))
		w.buffer = w.buffer[:0]
		w.lastEmit = ts
	}
	a.mu.Unlock()

	if a.emit == nil {
		return
	}
	for _, r := range results {
		a.emit(r)
	}
}

func summarize(sensor string, buffer []types.Sample, ts time.Time) *types.AggregationResult {
	if len(buffer) == 0 {
		return &types.AggregationResult{SensorName: sensor, Timestamp: ts}
	}
	sum := 0.0
	min := buffer[0].Value
	max := buffer[0].Value
	for _, s := range buffer {
		sum += s.Value
		if s.Value < min {
			min = s.Value
		}
		if s.Value > max {
			max = s.Value
		}
	}
	return &types.AggregationResult{
		SensorName: sensor,
		Timestamp:  ts,
		Mean:       sum / float64(len(buffer)),
		Min:        min,
		Max:        max,
		Count:      len(buffer),
		Unit:       buffer[0].Unit,
	}
}
