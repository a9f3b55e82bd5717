package reconnect

import (
	"testing"
	"time"

	"github.com/hydrobotics/rov-relay/internal/video/types"
)

func testCfg() types.Resilience {
	return types.Resilience{
		BaseDelay:              500 * time.Millisecond,
		MaxDelay:               30 * time.Second,
		MaxConsecutiveFailures: 3,
		ExtendedCooldown:       60 * time.Second,
		MaxFrameErrors:         5,
	}
}

func TestReconnectBackoffBound(t *testing.T) {
	t.Parallel()
	p := New(testCfg())

	var total time.Duration
	var sawCooldown bool
	for i := 0; i < 3; i++ {
		d, cooldown := p.NextDelay()
		total += d
		if cooldown {
			sawCooldown = true
		}
	}

	if !sawCooldown {
		t.Fatalf("expected cooldown to trigger on the 3rd consecutive failure")
	}

	// Sum_{k=0..2} min(base*2^k, max) * 1.1 = (500+1000+2000)ms * 1.1 = 3850ms
	bound := 3850 * time.Millisecond
	if total > bound {
		t.Fatalf("total backoff %s exceeds bound %s", total, bound)
	}
	if total < 1500*time.Millisecond {
		t.Fatalf("total backoff %s below the minimum unjittered sum", total)
	}
}

func TestReconnectCooldownResetsCounters(t *testing.T) {
	t.Parallel()
	p := New(testCfg())

	for i := 0; i < 3; i++ {
		p.NextDelay()
	}
	if p.ConsecutiveFailures() != 0 {
		t.Fatalf("expected consecutive failures reset after cooldown, got %d", p.ConsecutiveFailures())
	}
	if p.State() != StateCooldown {
		t.Fatalf("expected cooldown state, got %s", p.State())
	}
}

func TestReconnectSuccessResetsState(t *testing.T) {
	t.Parallel()
	p := New(testCfg())

	p.NextDelay()
	p.NextDelay()
	p.OnSuccess()

	if p.ConsecutiveFailures() != 0 {
		t.Fatalf("expected failures reset on success")
	}
	if p.State() != StateRunning {
		t.Fatalf("expected running state after success, got %s", p.State())
	}
}

func TestReconnectDelayCapsAtMax(t *testing.T) {
	t.Parallel()
	cfg := testCfg()
	cfg.MaxConsecutiveFailures = 100
	cfg.BaseDelay = 1 * time.Second
	cfg.MaxDelay = 3 * time.Second
	p := New(cfg)

	var last time.Duration
	for i := 0; i < 10; i++ {
		d, _ := p.NextDelay()
		last = d
	}
	if last > cfg.MaxDelay+cfg.MaxDelay/10 {
		t.Fatalf("delay %s exceeded max+jitter bound %s", last, cfg.MaxDelay)
	}
}
