package receiver

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"

	"github.com/hydrobotics/rov-relay/internal/telemetry/types"
)

var errShortRecord = errors.New("telemetry record shorter than its length prefix")

// vectorCount is the number of 3-component vector fields in the wire
// layout: attitude, angular_velocity, angular_acceleration, velocity,
// acceleration.
const vectorCount = 5

// decode parses one self-describing binary snapshot record: a timestamp,
// five fixed 3-component vectors, six scalar fields, then a count-prefixed
// set of named actuator positions.
func decode(body []byte) (types.Snapshot, error) {
	r := bytes.NewReader(body)

	var tsNanos int64
	if err := binary.Read(r, binary.LittleEndian, &tsNanos); err != nil {
		return types.Snapshot{}, errShortRecord
	}

	vectors := make([]types.Vector3, vectorCount)
	for i := range vectors {
		v, err := readVector3(r)
		if err != nil {
			return types.Snapshot{}, errShortRecord
		}
		vectors[i] = v
	}

	scalars := make([]float64, 6)
	for i := range scalars {
		if err := binary.Read(r, binary.LittleEndian, &scalars[i]); err != nil {
			return types.Snapshot{}, errShortRecord
		}
	}

	var actuatorCount uint32
	if err := binary.Read(r, binary.LittleEndian, &actuatorCount); err != nil {
		return types.Snapshot{}, errShortRecord
	}
	actuators := make(map[string]float64, actuatorCount)
	for i := uint32(0); i < actuatorCount; i++ {
		var nameLen uint16
		if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
			return types.Snapshot{}, errShortRecord
		}
		nameBuf := make([]byte, nameLen)
		if _, err := r.Read(nameBuf); err != nil {
			return types.Snapshot{}, errShortRecord
		}
		var value float64
		if err := binary.Read(r, binary.LittleEndian, &value); err != nil {
			return types.Snapshot{}, errShortRecord
		}
		actuators[string(nameBuf)] = value
	}

	return types.Snapshot{
		Timestamp:           time.Unix(0, tsNanos),
		Attitude:            vectors[0],
		AngularVelocity:     vectors[1],
		AngularAcceleration: vectors[2],
		Velocity:            vectors[3],
		Acceleration:        vectors[4],
		Depth:               scalars[0],
		Pressure:            scalars[1],
		WaterTemp:           scalars[2],
		InternalTemp:        scalars[3],
		BatteryVoltage:      scalars[4],
		BatteryCurrent:      scalars[5],
		ActuatorPositions:   actuators,
	}, nil
}

func readVector3(r *bytes.Reader) (types.Vector3, error) {
	var v types.Vector3
	if err := binary.Read(r, binary.LittleEndian, &v.X); err != nil {
		return v, err
	}
	if err := binary.Read(r, binary.LittleEndian, &v.Y); err != nil {
		return v, err
	}
	if err := binary.Read(r, binary.LittleEndian, &v.Z); err != nil {
		return v, err
	}
	return v, nil
}

// encode is the inverse of decode, used by tests to build wire frames.
func encode(s types.Snapshot) []byte {
	var body bytes.Buffer
	binary.Write(&body, binary.LittleEndian, s.Timestamp.UnixNano())

	vectors := []types.Vector3{s.Attitude, s.AngularVelocity, s.AngularAcceleration, s.Velocity, s.Acceleration}
	for _, v := range vectors {
		binary.Write(&body, binary.LittleEndian, v.X)
		binary.Write(&body, binary.LittleEndian, v.Y)
		binary.Write(&body, binary.LittleEndian, v.Z)
	}

	scalars := []float64{s.Depth, s.Pressure, s.WaterTemp, s.InternalTemp, s.BatteryVoltage, s.BatteryCurrent}
	for _, v := range scalars {
		binary.Write(&body, binary.LittleEndian, v)
	}

	binary.Write(&body, binary.LittleEndian, uint32(len(s.ActuatorPositions)))
	for name, value := range s.ActuatorPositions {
		binary.Write(&body, binary.LittleEndian, uint16(len(name)))
		body.WriteString(name)
		binary.Write(&body, binary.LittleEndian, value)
	}

	var frame bytes.Buffer
	binary.Write(&frame, binary.LittleEndian, uint64(body.Len()))
	frame.Write(body.Bytes())
	return frame.Bytes()
}
