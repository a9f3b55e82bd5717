// Package schema loads the filesystem-backed JSON schemas used to validate
// outbound telemetry packets and to drive the projector's dispatch table.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/hydrobotics/rov-relay/internal/errors"
)

var vectorBases = map[string]bool{
	"attitude": true, "angular_velocity": true, "angular_acceleration": true,
	"velocity": true, "acceleration": true,
}

// Property describes one top-level schema property the projector must
// resolve against a snapshot.
type Property struct {
	Name      string
	Base      string // snapshot field to read
	Component string // "x"/"y"/"z", empty for scalars
	Unit      string
}

// Schema is one loaded, compiled JSON schema plus the raw document needed
// for property introspection and default-zero construction.
type Schema struct {
	Topic    string
	raw      map[string]interface{}
	compiled *gojsonschema.Schema
}

// Registry holds every schema loaded at startup, keyed by topic name.
type Registry struct {
	byTopic map[string]*Schema
}

// Load reads every `*.schema.json` file in dir. The file's base name
// (without the `.schema.json` suffix) becomes its topic name.
func Load(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewSchemaMissingError("*", err)
	}

	reg := &Registry{byTopic: make(map[string]*Schema)}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".schema.json") {
			continue
		}
		topic := strings.TrimSuffix(e.Name(), ".schema.json")
		path := filepath.Join(dir, e.Name())

		body, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.NewSchemaMissingError(topic, err)
		}
		var raw map[string]interface{}
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, errors.NewSchemaMissingError(topic, err)
		}
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(body))
		if err != nil {
			return nil, errors.NewSchemaMissingError(topic, err)
		}
		reg.byTopic[topic] = &Schema{Topic: topic, raw: raw, compiled: compiled}
	}
	return reg, nil
}

// Get returns the schema registered for topic, or an error of kind
// SchemaMissingError if none was loaded.
func (r *Registry) Get(topic string) (*Schema, error) {
	s, ok := r.byTopic[topic]
	if !ok {
		return nil, errors.NewSchemaMissingError(topic, fmt.Errorf("no schema loaded for topic %q", topic))
	}
	return s, nil
}

// Topics returns every loaded topic name.
func (r *Registry) Topics() []string {
	out := make([]string, 0, len(r.byTopic))
	for t := range r.byTopic {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Properties walks the schema's top-level object properties (excluding
// `timestamp` and `id`) and resolves each into the projector's dispatch
// entry: a snapshot field name plus an optional vector component.
func (s *Schema) Properties() []Property {
	props, _ := s.raw["properties"].(map[string]interface{})
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Property, 0, len(names))
	for _, name := range names {
		if name == "timestamp" || name == "id" {
			continue
		}
		prop, _ := props[name].(map[string]interface{})
		base, component := splitVectorProperty(name)
		out = append(out, Property{
			Name:      name,
			Base:      base,
			Component: component,
			Unit:      unitOf(prop),
		})
	}
	return out
}

// splitVectorProperty recognizes the `<base>_<component>` naming convention
// for vector leaves; everything else is treated as a scalar field name.
func splitVectorProperty(name string) (base, component string) {
	for _, c := range []string{"x", "y", "z"} {
		suffix := "_" + c
		if strings.HasSuffix(name, suffix) {
			candidate := strings.TrimSuffix(name, suffix)
			if vectorBases[candidate] {
				return candidate, c
			}
		}
	}
	return name, ""
}

// unitOf extracts the unit for a property describing `{value, unit}`: the
// unit sub-schema's `const`, falling back to the first entry of its `enum`.
func unitOf(prop map[string]interface{}) string {
	props, _ := prop["properties"].(map[string]interface{})
	unitSchema, _ := props["unit"].(map[string]interface{})
	if unitSchema == nil {
		return ""
	}
	if c, ok := unitSchema["const"].(string); ok {
		return c
	}
	if enum, ok := unitSchema["enum"].([]interface{}); ok && len(enum) > 0 {
		if s, ok := enum[0].(string); ok {
			return s
		}
	}
	return ""
}

// Validate checks doc (already-marshaled JSON bytes) against the schema.
func (s *Schema) Validate(doc []byte) error {
	result, err := s.compiled.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return errors.NewSchemaValidationError(s.Topic, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return errors.NewSchemaValidationError(s.Topic, fmt.Errorf(strings.Join(msgs, "; ")))
	}
	return nil
}
