package decoder

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/hydrobotics/rov-relay/internal/video/queue"
	"github.com/hydrobotics/rov-relay/internal/video/types"
)

// catArgv uses the real cat binary as a stand-in decoder: it echoes whatever
// bytes arrive on stdin straight to stdout, so a TCP stream of exact
// multiples of the frame size produces exactly that many decoded frames.
func catArgv(types.StreamDims) []string { return []string{"cat"} }

func testFeedConfig(port int) types.FeedConfig {
	return types.FeedConfig{
		ID:            1,
		HostIP:        "127.0.0.1",
		InputPort:     port,
		InputNetwork:  types.NetworkStream,
		OutputNetwork: types.NetworkNone,
		Input:         types.StreamDims{Width: 2, Height: 2, FPS: 10, Format: types.FormatGray},
		Output:        types.StreamDims{Width: 2, Height: 2, FPS: 10, Format: types.FormatGray},
		Resilience: types.Resilience{
			BaseDelay: 10 * time.Millisecond, MaxDelay: 50 * time.Millisecond,
			MaxConsecutiveFailures: 3, ExtendedCooldown: 20 * time.Millisecond, MaxFrameErrors: 3,
		},
	}
}

func TestDecoderEnqueuesFramesFromStream(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	frameSize := 4 // 2x2 grayscale
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		for i := 0; i < 3; i++ {
			conn.Write(make([]byte, frameSize))
			time.Sleep(10 * time.Millisecond)
		}
	}()

	q := queue.New(10, nil)
	d := New(testFeedConfig(port), catArgv, q, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go d.Run(ctx)

	deadline := time.Now().Add(1500 * time.Millisecond)
	for q.Snapshot().TotalPuts < 3 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if got := q.Snapshot().TotalPuts; got < 3 {
		t.Fatalf("expected at least 3 frames enqueued, got %d", got)
	}
}

func TestDecoderFrameSizeMustBePositive(t *testing.T) {
	cfg := testFeedConfig(0)
	cfg.Input.Width = 0
	q := queue.New(10, nil)
	d := New(cfg, catArgv, q, nil, nil)
	_, err := d.decodeLoop(context.Background(), nil)
	if err == nil {
		t.Fatalf("expected error for zero frame size")
	}
}
