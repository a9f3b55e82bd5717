// Package decoder implements the per-feed decoder stage: forwarding
// inbound MPEG-TS bytes into an external decoder process and turning its
// raw-BGR stdout into queued, filtered frames.
package decoder

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/hydrobotics/rov-relay/internal/bufpool"
	"github.com/hydrobotics/rov-relay/internal/errors"
	"github.com/hydrobotics/rov-relay/internal/hooks"
	"github.com/hydrobotics/rov-relay/internal/video/filter"
	"github.com/hydrobotics/rov-relay/internal/video/process"
	"github.com/hydrobotics/rov-relay/internal/video/queue"
	"github.com/hydrobotics/rov-relay/internal/video/reconnect"
	"github.com/hydrobotics/rov-relay/internal/video/transport"
	"github.com/hydrobotics/rov-relay/internal/video/types"
)

// ArgvBuilder returns the external decoder command line for a feed's input
// dimensions. The concrete codec engine invocation is an external concern;
// the core only needs an argv and the raw frame size it will produce.
type ArgvBuilder func(in types.StreamDims) []string

// Decoder runs the source-reader/forwarder and decoder-reader actors for
// one feed, applying the filter chain and enqueuing frames.
type Decoder struct {
	cfg     types.FeedConfig
	argv    ArgvBuilder
	queue   *queue.Queue
	chain   *filter.Chain
	log     *slog.Logger
	hooks   *hooks.Manager
	counter uint64
}

// New builds a Decoder for one feed. hm is optional and may be nil; when
// set, source connect/reconnect transitions are dispatched through it.
func New(cfg types.FeedConfig, argv ArgvBuilder, q *queue.Queue, log *slog.Logger, hm *hooks.Manager) *Decoder {
	return &Decoder{cfg: cfg, argv: argv, queue: q, chain: filter.NewChain(cfg.Filters), log: log, hooks: hm}
}

// Run drives the reconnect loop until ctx is cancelled: acquire transport,
// start the decoder child, forward bytes, decode frames, and on failure
// apply the reconnect policy before retrying.
func (d *Decoder) Run(ctx context.Context) {
	policy := reconnect.New(d.cfg.Resilience)

	feedID := strconv.Itoa(d.cfg.ID)

	for ctx.Err() == nil {
		framesThisConn, err := d.runOnce(ctx, policy)
		if ctx.Err() != nil {
			return
		}
		if err != nil && d.log != nil {
			d.log.Warn("decoder connection ended", "feed_id", d.cfg.ID, "frames", framesThisConn, "error", err)
		}

		if framesThisConn > 0 {
			policy.OnSuccess()
			d.hooks.TriggerEvent(ctx, *hooks.NewEvent(hooks.EventFeedConnected).
				WithFeedID(feedID).
				WithData("frames", framesThisConn))
			continue
		}

		d.hooks.TriggerEvent(ctx, *hooks.NewEvent(hooks.EventFeedReconnecting).
			WithFeedID(feedID).
			WithData("consecutive_failures", policy.ConsecutiveFailures()))

		delay, cooldown := policy.NextDelay()
		if sleepCtx(ctx, delay) != nil {
			return
		}
		if cooldown {
			if sleepCtx(ctx, policy.Cooldown()) != nil {
				return
			}
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (d *Decoder) runOnce(ctx context.Context, policy *reconnect.Policy) (framesProcessed uint64, err error) {
	conn, err := transport.DialInput(ctx, d.cfg.InputNetwork, d.cfg.HostIP, d.cfg.InputPort)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	child := process.New("decoder", d.argv(d.cfg.Input), d.log)
	if err := child.Start(ctx); err != nil {
		return 0, errors.NewDecoderProcessError("decoder.start", err)
	}
	defer child.Stop()

	forwardCtx, cancelForward := context.WithCancel(ctx)
	defer cancelForward()
	go d.forward(forwardCtx, conn, child)

	return d.decodeLoop(ctx, child)
}

// forward copies socket bytes into the decoder's stdin until EOF, write
// failure, or cancellation.
func (d *Decoder) forward(ctx context.Context, conn net.Conn, child *process.Child) {
	buf := bufpool.Get(8192)
	defer bufpool.Put(buf)
	for ctx.Err() == nil {
		n, err := conn.Read(buf)
		if n > 0 {
			if _, werr := child.Write(buf[:n]); werr != nil {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

func (d *Decoder) decodeLoop(ctx context.Context, child *process.Child) (uint64, error) {
	frameSize := d.cfg.Input.FrameSize()
	if frameSize <= 0 {
		return 0, errors.NewFrameShapeError("decoder.frame_size", 1, 0)
	}

	stdout := child.Stdout()
	buf := bufpool.Get(frameSize)
	defer bufpool.Put(buf)
	var processed uint64
	var consecutiveErrors int

	for ctx.Err() == nil {
		n, err := io.ReadFull(stdout, buf)
		if n == 0 && err != nil {
			return processed, nil // clean EOF, no more data
		}
		if n != frameSize {
			consecutiveErrors++
			if consecutiveErrors >= d.cfg.Resilience.MaxFrameErrors {
				return processed, errors.NewFrameShapeError("decoder.read_frame", frameSize, n)
			}
			continue
		}
		consecutiveErrors = 0

		frame := types.RawFrame{
			Pixels:   append([]byte(nil), buf...),
			Width:    d.cfg.Input.Width,
			Height:   d.cfg.Input.Height,
			Channels: d.cfg.Input.Format.Channels(),
		}
		frame = d.chain.Apply(frame)

		d.counter++
		meta := types.FrameMetadata{
			FrameID:           d.counter,
			TimestampReceived: time.Now(),
			StreamID:          d.cfg.ID,
			OriginalFPS:       d.cfg.Input.FPS,
			TargetFPS:         d.cfg.Output.FPS,
			InputWidth:        d.cfg.Input.Width,
			InputHeight:       d.cfg.Input.Height,
			OutputWidth:       d.cfg.Output.Width,
			OutputHeight:      d.cfg.Output.Height,
		}
		d.queue.Put(types.QueueItem{Frame: frame, Meta: meta})
		processed++
	}
	return processed, nil
}
