package metrics

import (
	"context"
	"testing"
	"time"
)

func TestSamplerTracksLastRSS(t *testing.T) {
	s, err := New(0, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.sample()
	if s.LastRSS() == 0 {
		t.Fatalf("expected a nonzero RSS reading for the current process")
	}
}

func TestSamplerRunStopsOnContextCancel(t *testing.T) {
	s, err := New(0, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatalf("sampler did not stop after context cancellation")
	}
}
