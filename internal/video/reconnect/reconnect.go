// Package reconnect implements the exponential-backoff-with-jitter
// reconnection policy shared by every feed's source connector.
package reconnect

import (
	"math/rand"
	"time"

	"github.com/hydrobotics/rov-relay/internal/video/types"
)

// State represents the current phase of the reconnection state machine:
// Connecting → Running → Failing(k) → Connecting | Cooldown.
type State int

const (
	StateConnecting State = iota
	StateRunning
	StateFailing
	StateCooldown
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateRunning:
		return "running"
	case StateFailing:
		return "failing"
	case StateCooldown:
		return "cooldown"
	default:
		return "unknown"
	}
}

// Policy tracks consecutive-failure count and current delay for one feed's
// source connection and computes the sleep duration before the next retry.
type Policy struct {
	cfg types.Resilience

	consecutiveFailures int
	currentDelay        time.Duration
	state               State

	rng *rand.Rand
}

// New builds a Policy from a feed's configured resilience tunables.
func New(cfg types.Resilience) *Policy {
	return &Policy{
		cfg:          cfg,
		currentDelay: cfg.BaseDelay,
		state:        StateConnecting,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// State returns the machine's current phase.
func (p *Policy) State() State { return p.state }

// OnSuccess resets both counters after a connection has produced at least
// one frame.
func (p *Policy) OnSuccess() {
	p.consecutiveFailures = 0
	p.currentDelay = p.cfg.BaseDelay
	p.state = StateRunning
}

// NextDelay records one failure and returns how long to sleep before the
// next retry. If the consecutive-failure count has just reached the
// configured threshold, cooldown is true and the caller must additionally
// sleep Cooldown() before resuming; both counters are reset at that point.
func (p *Policy) NextDelay() (delay time.Duration, cooldown bool) {
	p.consecutiveFailures++
	p.state = StateFailing

	jitter := time.Duration(p.rng.Int63n(int64(p.currentDelay/10 + 1)))
	delay = p.currentDelay + jitter
	if delay > p.cfg.MaxDelay {
		delay = p.cfg.MaxDelay
	}

	next := p.currentDelay * 2
	if next > p.cfg.MaxDelay {
		next = p.cfg.MaxDelay
	}
	p.currentDelay = next

	if p.consecutiveFailures >= p.cfg.MaxConsecutiveFailures {
		p.state = StateCooldown
		p.consecutiveFailures = 0
		p.currentDelay = p.cfg.BaseDelay
		return delay, true
	}

	p.state = StateConnecting
	return delay, false
}

// Cooldown returns the configured extended cooldown sleep, used by the
// caller after NextDelay reports cooldown=true.
func (p *Policy) Cooldown() time.Duration { return p.cfg.ExtendedCooldown }

// ConsecutiveFailures exposes the current failure count, mostly for tests
// and status logging.
func (p *Policy) ConsecutiveFailures() int { return p.consecutiveFailures }
