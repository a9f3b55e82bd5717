// Package pipeline routes projected telemetry samples through their
// per-sensor filter chain and into either the time-window aggregator or
// directly into the latest-state map.
package pipeline

import (
	"github.com/hydrobotics/rov-relay/internal/telemetry/aggregator"
	"github.com/hydrobotics/rov-relay/internal/telemetry/kalman"
	"github.com/hydrobotics/rov-relay/internal/telemetry/state"
	"github.com/hydrobotics/rov-relay/internal/telemetry/types"
)

// KalmanTuning configures the Kalman filter for one sensor name.
type KalmanTuning struct {
	Q, R, X0, P0 float64
}

// Pipeline owns every sensor's filter instance plus the routing decision
// (aggregated vs. direct) for that sensor.
type Pipeline struct {
	filters    map[string]*kalman.Filter
	aggregated map[string]bool
	aggregator *aggregator.Aggregator
	state      *state.Map
}

// New builds a Pipeline. tunings configures a Kalman filter for any sensor
// named in it; sensors in highFrequency are routed into agg instead of
// written directly into st.
func New(tunings map[string]KalmanTuning, highFrequency map[string]bool, agg *aggregator.Aggregator, st *state.Map) *Pipeline {
	filters := make(map[string]*kalman.Filter, len(tunings))
	for name, tune := range tunings {
		filters[name] = kalman.New(tune.Q, tune.R, tune.X0, tune.P0)
	}
	return &Pipeline{filters: filters, aggregated: highFrequency, aggregator: agg, state: st}
}

// Route applies sample's filter stage (a no-op pass-through if the sensor
// has no configured Kalman filter, but the stage is still traversed) and
// then sends it to the aggregator or writes it directly into the
// latest-state map.
func (p *Pipeline) Route(sample types.Sample) {
	sample.Value = p.filter(sample.SensorName, sample.Value)

	if p.aggregated[sample.SensorName] && p.aggregator != nil {
		p.aggregator.Add(sample)
		return
	}
	p.state.PutSample(sample)
}

func (p *Pipeline) filter(sensorName string, value float64) float64 {
	f, ok := p.filters[sensorName]
	if !ok {
		return value
	}
	return f.Update(value)
}

// ResetFilter resets the named sensor's Kalman filter, if one is
// configured.
func (p *Pipeline) ResetFilter(sensorName string) {
	if f, ok := p.filters[sensorName]; ok {
		f.Reset()
	}
}
