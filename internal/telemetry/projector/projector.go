// Package projector turns one ROV snapshot into a set of named telemetry
// samples, driven by a dispatch table built once from the output schema.
package projector

import (
	"github.com/hydrobotics/rov-relay/internal/telemetry/schema"
	"github.com/hydrobotics/rov-relay/internal/telemetry/types"
)

// Projector holds the dispatch table built from one output schema's
// properties; it never re-reads the schema after construction.
type Projector struct {
	entries []schema.Property
}

// New builds a Projector from a schema's properties. Building the table is
// the only place schema structure is consulted; projecting a snapshot never
// walks the schema again.
func New(s *schema.Schema) *Projector {
	return &Projector{entries: s.Properties()}
}

// Project walks the dispatch table against one snapshot and yields a
// sample for every entry whose field is present on the snapshot.
func (p *Projector) Project(snap types.Snapshot) []types.Sample {
	out := make([]types.Sample, 0, len(p.entries))
	for _, e := range p.entries {
		v, ok := snap.Field(e.Base, e.Component)
		if !ok {
			continue
		}
		out = append(out, types.Sample{
			Timestamp:  snap.Timestamp,
			SensorName: e.Name,
			Value:      v,
			Unit:       e.Unit,
		})
	}
	return out
}
