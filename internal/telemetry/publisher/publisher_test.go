package publisher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/hydrobotics/rov-relay/internal/telemetry/schema"
	"github.com/hydrobotics/rov-relay/internal/telemetry/state"
	"github.com/hydrobotics/rov-relay/internal/telemetry/types"
)

const publisherTestSchema = `{
  "type": "object",
  "properties": {
    "timestamp": {"type": "number"},
    "depth": {
      "type": "object",
      "properties": {
        "value": {"type": "number"},
        "unit": {"const": "m"},
        "timestamp": {"type": "number"}
      }
    }
  },
  "required": ["timestamp", "depth"]
}`

type fakeToken struct {
	err error
}

func (f *fakeToken) Wait() bool                     { return true }
func (f *fakeToken) WaitTimeout(time.Duration) bool  { return true }
func (f *fakeToken) Done() <-chan struct{}           { ch := make(chan struct{}); close(ch); return ch }
func (f *fakeToken) Error() error                    { return f.err }

type fakeClient struct {
	connected   bool
	published   []string
	publishErr  error
}

func (c *fakeClient) Connect() mqtt.Token {
	c.connected = true
	return &fakeToken{}
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.published = append(c.published, topic)
	return &fakeToken{err: c.publishErr}
}

func (c *fakeClient) IsConnected() bool { return c.connected }

func loadPublisherSchema(t *testing.T) *schema.Schema {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "rov_telemetry.schema.json"), []byte(publisherTestSchema), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	reg, err := schema.Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	s, err := reg.Get("rov_telemetry")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	return s
}

// TestPublisherPublishesMissingKeyAsStructuredZero exercises scenario S6.
func TestPublisherPublishesMissingKeyAsStructuredZero(t *testing.T) {
	sch := loadPublisherSchema(t)
	st := state.New() // depth deliberately never written

	client := &fakeClient{}
	lastRx := time.Now()
	p := New(client, "rov/telemetry", sch, st, 100, func() time.Time { return lastRx }, nil, nil)

	p.tick(context.Background())

	if len(client.published) != 1 {
		t.Fatalf("expected exactly one publish, got %d", len(client.published))
	}
	if p.PublishCount() != 1 {
		t.Fatalf("expected publish count 1, got %d", p.PublishCount())
	}
}

func TestPublisherSkipsWhenDataIsStale(t *testing.T) {
	sch := loadPublisherSchema(t)
	st := state.New()
	st.PutSample(types.Sample{SensorName: "depth", Value: 5, Unit: "m", Timestamp: time.Now()})

	client := &fakeClient{}
	stale := time.Now().Add(-10 * time.Second)
	p := New(client, "rov/telemetry", sch, st, 100, func() time.Time { return stale }, nil, nil)

	p.tick(context.Background())

	if len(client.published) != 0 {
		t.Fatalf("expected no publish while data is stale, got %d", len(client.published))
	}
}

func TestPublisherPublishesValidPacketWithRealData(t *testing.T) {
	sch := loadPublisherSchema(t)
	st := state.New()
	st.PutSample(types.Sample{SensorName: "depth", Value: 5, Unit: "m", Timestamp: time.Now()})

	client := &fakeClient{}
	lastRx := time.Now()
	p := New(client, "rov/telemetry", sch, st, 100, func() time.Time { return lastRx }, nil, nil)

	p.tick(context.Background())
	if len(client.published) != 1 {
		t.Fatalf("expected publish with fresh data, got %d", len(client.published))
	}
}
