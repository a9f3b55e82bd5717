// Package state implements the latest-state map: the single point of
// contention between the telemetry receiver/aggregator (writers) and the
// publisher (reader).
package state

import (
	"sync"

	"github.com/hydrobotics/rov-relay/internal/telemetry/types"
)

// Map stores the most recent structured value for every sensor name, seen
// uniformly as {value, unit, timestamp} regardless of whether it arrived as
// a direct sample or an aggregation result.
type Map struct {
	mu sync.RWMutex
	m  map[string]types.SensorState
}

// New builds an empty latest-state map.
func New() *Map {
	return &Map{m: make(map[string]types.SensorState)}
}

// PutSample overwrites the sensor's entry with a direct sample.
func (m *Map) PutSample(s types.Sample) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.m[s.SensorName] = types.SensorState{Value: s.Value, Unit: s.Unit, Timestamp: s.Timestamp}
}

// PutAggregate overwrites the sensor's entry with an aggregation result's
// mean.
func (m *Map) PutAggregate(r types.AggregationResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.m[r.SensorName] = types.SensorState{Value: r.Mean, Unit: r.Unit, Timestamp: r.Timestamp}
}

// Get returns the sensor's current state, if any.
func (m *Map) Get(sensorName string) (types.SensorState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.m[sensorName]
	return s, ok
}

// Snapshot returns a copy of the entire map, safe to range over without
// holding any lock.
func (m *Map) Snapshot() map[string]types.SensorState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]types.SensorState, len(m.m))
	for k, v := range m.m {
		out[k] = v
	}
	return out
}
