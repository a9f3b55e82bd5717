package schema

import (
	"os"
	"path/filepath"
	"testing"
)

const depthSchema = `{
  "type": "object",
  "properties": {
    "timestamp": {"type": "number"},
    "depth": {
      "type": "object",
      "properties": {
        "value": {"type": "number"},
        "unit": {"const": "m"}
      }
    },
    "attitude_x": {
      "type": "object",
      "properties": {
        "value": {"type": "number"},
        "unit": {"enum": ["deg", "rad"]}
      }
    }
  },
  "required": ["timestamp", "depth", "attitude_x"]
}`

func writeSchema(t *testing.T, dir, topic, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, topic+".schema.json"), []byte(body), 0o644); err != nil {
		t.Fatalf("write schema fixture: %v", err)
	}
}

func TestLoadAndGet(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "rov_telemetry", depthSchema)

	reg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	s, err := reg.Get("rov_telemetry")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.Topic != "rov_telemetry" {
		t.Fatalf("unexpected topic: %s", s.Topic)
	}
}

func TestGetMissingTopicReturnsSchemaMissingError(t *testing.T) {
	dir := t.TempDir()
	reg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := reg.Get("nonexistent"); err == nil {
		t.Fatalf("expected error for missing topic")
	}
}

func TestPropertiesResolvesVectorAndScalar(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "rov_telemetry", depthSchema)
	reg, _ := Load(dir)
	s, _ := reg.Get("rov_telemetry")

	props := s.Properties()
	if len(props) != 2 {
		t.Fatalf("expected 2 properties excluding timestamp, got %d", len(props))
	}

	byName := map[string]Property{}
	for _, p := range props {
		byName[p.Name] = p
	}

	depth := byName["depth"]
	if depth.Base != "depth" || depth.Component != "" || depth.Unit != "m" {
		t.Fatalf("unexpected depth property: %+v", depth)
	}

	attitudeX := byName["attitude_x"]
	if attitudeX.Base != "attitude" || attitudeX.Component != "x" || attitudeX.Unit != "deg" {
		t.Fatalf("unexpected attitude_x property: %+v", attitudeX)
	}
}

func TestValidatePassesWellFormedDocument(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "rov_telemetry", depthSchema)
	reg, _ := Load(dir)
	s, _ := reg.Get("rov_telemetry")

	doc := []byte(`{"timestamp":1,"depth":{"value":3,"unit":"m"},"attitude_x":{"value":1,"unit":"deg"}}`)
	if err := s.Validate(doc); err != nil {
		t.Fatalf("expected valid document to pass, got %v", err)
	}
}

func TestValidateFailsMissingRequiredField(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "rov_telemetry", depthSchema)
	reg, _ := Load(dir)
	s, _ := reg.Get("rov_telemetry")

	doc := []byte(`{"timestamp":1}`)
	if err := s.Validate(doc); err == nil {
		t.Fatalf("expected validation error for missing required fields")
	}
}
