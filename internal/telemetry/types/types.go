// Package types holds the shared value types for the telemetry pipeline:
// the binary snapshot record, projected samples, and the structured
// latest-state entry they settle into.
package types

import "time"

// Vector3 is a named 3-component vector field on a snapshot (attitude,
// angular_velocity, angular_acceleration, velocity, acceleration).
type Vector3 struct {
	X, Y, Z float64
}

// Component returns one named axis of the vector: "x", "y", or "z".
func (v Vector3) Component(name string) (float64, bool) {
	switch name {
	case "x":
		return v.X, true
	case "y":
		return v.Y, true
	case "z":
		return v.Z, true
	default:
		return 0, false
	}
}

// Snapshot is one decoded ROV record: named scalar fields plus named
// 3-component vector fields.
type Snapshot struct {
	Timestamp time.Time

	Attitude             Vector3
	AngularVelocity      Vector3
	AngularAcceleration  Vector3
	Velocity             Vector3
	Acceleration         Vector3

	Depth          float64
	Pressure       float64
	WaterTemp      float64
	InternalTemp   float64
	BatteryVoltage float64
	BatteryCurrent float64

	ActuatorPositions map[string]float64
}

// vectorField returns the named vector field on the snapshot, if base names
// one.
func (s Snapshot) vectorField(base string) (Vector3, bool) {
	switch base {
	case "attitude":
		return s.Attitude, true
	case "angular_velocity":
		return s.AngularVelocity, true
	case "angular_acceleration":
		return s.AngularAcceleration, true
	case "velocity":
		return s.Velocity, true
	case "acceleration":
		return s.Acceleration, true
	default:
		return Vector3{}, false
	}
}

// scalarField returns the named scalar field on the snapshot.
func (s Snapshot) scalarField(name string) (float64, bool) {
	switch name {
	case "depth":
		return s.Depth, true
	case "pressure":
		return s.Pressure, true
	case "water_temp":
		return s.WaterTemp, true
	case "internal_temp":
		return s.InternalTemp, true
	case "battery_voltage":
		return s.BatteryVoltage, true
	case "battery_current":
		return s.BatteryCurrent, true
	default:
		if v, ok := s.ActuatorPositions[name]; ok {
			return v, true
		}
		return 0, false
	}
}

// Field resolves a dispatch-table entry (base field name, optional vector
// component) against this snapshot.
func (s Snapshot) Field(base, component string) (float64, bool) {
	if component != "" {
		v, ok := s.vectorField(base)
		if !ok {
			return 0, false
		}
		return v.Component(component)
	}
	return s.scalarField(base)
}

// Sample is one scalar telemetry datum produced by the projector.
type Sample struct {
	Timestamp  time.Time
	SensorName string
	Value      float64
	Unit       string
}

// SensorState is the structured entry stored in the latest-state map for
// one sensor: value, unit, and the timestamp it was last written at.
type SensorState struct {
	Value     float64
	Unit      string
	Timestamp time.Time
}

// AggregationResult is emitted by the time-window aggregator and written
// into the latest-state map in place of a raw sample.
type AggregationResult struct {
	SensorName string
	Timestamp  time.Time
	Mean       float64
	Min        float64
	Max        float64
	Count      int
	Unit       string
}
