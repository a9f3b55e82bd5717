// Package service wires the telemetry pipeline's stages together: receiver
// → projector → pipeline (filter + route) → publisher, plus the shutdown
// sequencing for the aggregator flush. The broker client is not
// disconnected by this package.
package service

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hydrobotics/rov-relay/internal/hooks"
	"github.com/hydrobotics/rov-relay/internal/telemetry/aggregator"
	"github.com/hydrobotics/rov-relay/internal/telemetry/pipeline"
	"github.com/hydrobotics/rov-relay/internal/telemetry/projector"
	"github.com/hydrobotics/rov-relay/internal/telemetry/publisher"
	"github.com/hydrobotics/rov-relay/internal/telemetry/receiver"
	"github.com/hydrobotics/rov-relay/internal/telemetry/schema"
	"github.com/hydrobotics/rov-relay/internal/telemetry/state"
	"github.com/hydrobotics/rov-relay/internal/telemetry/types"
)

// Config bundles everything needed to construct a Service.
type Config struct {
	Dial               receiver.Dialer
	OutputSchema       *schema.Schema
	KalmanTunings      map[string]pipeline.KalmanTuning
	HighFrequency      map[string]bool
	AggregatorWindowMS int64
	PublishTopic       string
	BrokerClient       publisher.Client
	Log                *slog.Logger
	Hooks              *hooks.Manager
}

// Service owns every telemetry stage and the shared running flag that
// coordinates their shutdown.
type Service struct {
	receiver   *receiver.Receiver
	projector  *projector.Projector
	pipeline   *pipeline.Pipeline
	aggregator *aggregator.Aggregator
	publisher  *publisher.Publisher
	state      *state.Map
	log        *slog.Logger

	running atomic.Bool
}

// New builds a fully wired Service. The aggregator's emit callback writes
// straight into the shared latest-state map.
func New(cfg Config) *Service {
	st := state.New()
	s := &Service{projector: projector.New(cfg.OutputSchema), state: st, log: cfg.Log}

	s.aggregator = aggregator.New(cfg.AggregatorWindowMS, func(r types.AggregationResult) {
		st.PutAggregate(r)
	})
	s.pipeline = pipeline.New(cfg.KalmanTunings, cfg.HighFrequency, s.aggregator, st)
	s.receiver = receiver.New(cfg.Dial, s.handleSnapshot, cfg.Log)
	s.publisher = publisher.New(cfg.BrokerClient, cfg.PublishTopic, cfg.OutputSchema, st, cfg.AggregatorWindowMS, s.receiver.LastReceived, cfg.Log, cfg.Hooks)

	return s
}

func (s *Service) handleSnapshot(snap types.Snapshot) {
	for _, sample := range s.projector.Project(snap) {
		s.pipeline.Route(sample)
	}
}

// Run connects the publisher, starts every stage, and blocks until ctx is
// cancelled. On shutdown it sets running false before joining the receiver
// and flushing the aggregator, per the mandated set-false-then-join
// ordering (rather than joining first and only then marking the service
// stopped).
func (s *Service) Run(ctx context.Context, connectTimeout time.Duration) error {
	if err := s.publisher.Connect(connectTimeout); err != nil {
		return err
	}
	s.running.Store(true)

	receiverDone := make(chan struct{})
	go func() {
		defer close(receiverDone)
		s.receiver.Run(ctx)
	}()
	go s.publisher.Run(ctx)

	<-ctx.Done()
	s.running.Store(false)
	<-receiverDone

	s.aggregator.Flush("")
	return nil
}

// Running reports whether the service has completed startup and has not
// yet begun shutdown.
func (s *Service) Running() bool { return s.running.Load() }

// PublishCount exposes the publisher's successful publish count for status
// logging.
func (s *Service) PublishCount() uint64 { return s.publisher.PublishCount() }
