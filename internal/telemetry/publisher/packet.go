package publisher

import (
	"time"

	"github.com/hydrobotics/rov-relay/internal/telemetry/schema"
	"github.com/hydrobotics/rov-relay/internal/telemetry/types"
)

// buildPacket assembles a publish packet from the latest-state map,
// defaulting every schema-declared property absent from the map to a
// structured zero rather than omitting it.
func buildPacket(sch *schema.Schema, latest map[string]types.SensorState, now time.Time) map[string]interface{} {
	packet := map[string]interface{}{"timestamp": now.Unix()}

	for _, p := range sch.Properties() {
		s, ok := latest[p.Name]
		if !ok {
			packet[p.Name] = map[string]interface{}{"value": 0.0, "unit": p.Unit, "timestamp": 0}
			continue
		}
		packet[p.Name] = map[string]interface{}{
			"value":     s.Value,
			"unit":      s.Unit,
			"timestamp": s.Timestamp.Unix(),
		}
	}
	return packet
}
