// Package publisher assembles packets from the latest-state map, validates
// them against the configured output schema, and hands them to the broker
// client at a fixed cadence.
package publisher

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/hydrobotics/rov-relay/internal/errors"
	"github.com/hydrobotics/rov-relay/internal/hooks"
	"github.com/hydrobotics/rov-relay/internal/telemetry/schema"
	"github.com/hydrobotics/rov-relay/internal/telemetry/state"
)

// staleAfter is how long since the last received snapshot before a publish
// tick is skipped rather than republishing stale data.
const staleAfter = 3 * time.Second

// connectGrace is the extra time given to the first connect attempt beyond
// its own timeout before treating the broker as permanently unreachable.
const connectGrace = time.Second

// Client is the subset of the broker client the publisher drives.
type Client interface {
	Connect() mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnected() bool
}

// Publisher owns the broker client and the schema-gated publish loop.
type Publisher struct {
	client       Client
	topic        string
	sch          *schema.Schema
	state        *state.Map
	windowMS     int64
	lastReceived func() time.Time
	log          *slog.Logger
	hooks        *hooks.Manager

	publishCount uint64
}

// New builds a Publisher. lastReceived reports the time of the most
// recently received telemetry snapshot, used for the staleness check. hm is
// optional and may be nil; when set, each publish attempt's outcome is
// dispatched as a lifecycle event.
func New(client Client, topic string, sch *schema.Schema, st *state.Map, windowMS int64, lastReceived func() time.Time, log *slog.Logger, hm *hooks.Manager) *Publisher {
	return &Publisher{client: client, topic: topic, sch: sch, state: st, windowMS: windowMS, lastReceived: lastReceived, log: log, hooks: hm}
}

// Connect starts the broker client's session loop and blocks up to its
// connect timeout plus connectGrace. A failure here is treated as fatal by
// the caller at startup.
func (p *Publisher) Connect(timeout time.Duration) error {
	token := p.client.Connect()
	if !token.WaitTimeout(timeout + connectGrace) {
		return errors.NewBrokerConnectionError("publisher.connect", errConnectTimedOut)
	}
	if err := token.Error(); err != nil {
		return errors.NewBrokerConnectionError("publisher.connect", err)
	}
	return nil
}

var errConnectTimedOut = &timeoutErr{}

type timeoutErr struct{}

func (*timeoutErr) Error() string { return "broker connect timed out" }

// Run drives the fixed-cadence publish loop until ctx is cancelled.
func (p *Publisher) Run(ctx context.Context) {
	period := time.Duration(p.windowMS) * time.Millisecond
	if period <= 0 {
		period = time.Second
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick assembles, validates, and publishes one packet, unless the data is
// stale.
func (p *Publisher) tick(ctx context.Context) {
	if p.lastReceived != nil && time.Since(p.lastReceived()) > staleAfter {
		return
	}

	packet := buildPacket(p.sch, p.state.Snapshot(), time.Now())
	doc, err := json.Marshal(packet)
	if err != nil {
		if p.log != nil {
			p.log.Error("packet marshal failed", "topic", p.topic, "error", err)
		}
		p.hooks.TriggerEvent(ctx, *hooks.NewEvent(hooks.EventTelemetryPublishFailed).
			WithTopic(p.topic).WithData("stage", "marshal").WithData("error", err.Error()))
		return
	}

	if err := p.sch.Validate(doc); err != nil {
		if p.log != nil {
			p.log.Warn("packet failed schema validation, not publishing", "topic", p.topic, "error", err)
		}
		p.hooks.TriggerEvent(ctx, *hooks.NewEvent(hooks.EventTelemetryPublishFailed).
			WithTopic(p.topic).WithData("stage", "validate").WithData("error", err.Error()))
		return
	}

	token := p.client.Publish(p.topic, 0, false, doc)
	token.Wait()
	if err := token.Error(); err != nil {
		if p.log != nil {
			p.log.Warn("publish failed", "topic", p.topic, "error", errors.NewBrokerPublishError(p.topic, err))
		}
		p.hooks.TriggerEvent(ctx, *hooks.NewEvent(hooks.EventTelemetryPublishFailed).
			WithTopic(p.topic).WithData("stage", "publish").WithData("error", err.Error()))
		return
	}
	p.publishCount++
	p.hooks.TriggerEvent(ctx, *hooks.NewEvent(hooks.EventTelemetryPublished).
		WithTopic(p.topic).WithData("publish_count", p.publishCount))
}

// PublishCount returns the number of successful publishes since Run
// started, used for the periodic publish-rate status line.
func (p *Publisher) PublishCount() uint64 { return p.publishCount }
