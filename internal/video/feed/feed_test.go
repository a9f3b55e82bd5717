package feed

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/hydrobotics/rov-relay/internal/video/types"
)

func catArgv(types.StreamDims) []string { return []string{"cat"} }

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

func TestFeedRunStopsOnContextCancel(t *testing.T) {
	inputPort := freePort(t)
	wsPort := freePort(t)

	cfg := types.FeedConfig{
		ID:            1,
		HostIP:        "127.0.0.1",
		InputPort:     inputPort,
		InputNetwork:  types.NetworkStream,
		OutputNetwork: types.NetworkNone,
		Input:         types.StreamDims{Width: 1, Height: 1, FPS: 10, Format: types.FormatGray},
		Output:        types.StreamDims{Width: 1, Height: 1, FPS: 10, Format: types.FormatGray},
		Backpressure:  types.BackpressureSettings{MaxSize: 4, GetTimeout: 50 * time.Millisecond},
		Resilience: types.Resilience{
			BaseDelay: 10 * time.Millisecond, MaxDelay: 20 * time.Millisecond,
			MaxConsecutiveFailures: 2, ExtendedCooldown: 10 * time.Millisecond, MaxFrameErrors: 2,
		},
		WSEnabled: true,
		WSPort:    wsPort,
	}

	f := New(cfg, catArgv, catArgv, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- f.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("feed did not shut down after context cancellation")
	}
}

func TestFeedRunWithoutWS(t *testing.T) {
	cfg := types.FeedConfig{
		ID:            2,
		OutputNetwork: types.NetworkNone,
		Input:         types.StreamDims{Width: 1, Height: 1, FPS: 5, Format: types.FormatGray},
		Output:        types.StreamDims{Width: 1, Height: 1, FPS: 5, Format: types.FormatGray},
		Backpressure:  types.BackpressureSettings{MaxSize: 2},
		WSEnabled:     false,
	}
	f := New(cfg, catArgv, catArgv, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- f.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("feed did not shut down after context cancellation")
	}
}
