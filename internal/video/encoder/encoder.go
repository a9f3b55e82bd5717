// Package encoder implements the per-feed encoder stage: draining the
// backpressure queue at the feed's target frame rate into an external
// encoder process, tee-ing its MPEG-TS output to a network sink and to the
// WebSocket broadcaster.
package encoder

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/hydrobotics/rov-relay/internal/bufpool"
	"github.com/hydrobotics/rov-relay/internal/errors"
	"github.com/hydrobotics/rov-relay/internal/video/process"
	"github.com/hydrobotics/rov-relay/internal/video/queue"
	"github.com/hydrobotics/rov-relay/internal/video/transport"
	"github.com/hydrobotics/rov-relay/internal/video/types"
)

// wsChunkSize is the WS fan-out chunk size: seven 188-byte MPEG-TS packets.
const wsChunkSize = 1316

// ArgvBuilder returns the external encoder command line for a feed's output
// dimensions.
type ArgvBuilder func(out types.StreamDims) []string

// Sink receives encoded MPEG-TS bytes for fan-out, implemented by the WS
// broadcaster.
type Sink interface {
	Broadcast(chunk []byte)
}

// Encoder runs the encoder-writer and encoder-stdout-reader actors for one
// feed.
type Encoder struct {
	cfg  types.FeedConfig
	argv ArgvBuilder
	q    *queue.Queue
	sink Sink
	log  *slog.Logger
}

// New builds an Encoder for one feed. sink may be nil when WS fan-out is
// disabled for the feed.
func New(cfg types.FeedConfig, argv ArgvBuilder, q *queue.Queue, sink Sink, log *slog.Logger) *Encoder {
	return &Encoder{cfg: cfg, argv: argv, q: q, sink: sink, log: log}
}

// Run starts the encoder child and its output target, then blocks writing
// queued frames until ctx is cancelled.
func (e *Encoder) Run(ctx context.Context) error {
	child := process.New("encoder", e.argv(e.cfg.Output), e.log)
	if err := child.Start(ctx); err != nil {
		return errors.NewEncoderProcessError("encoder.start", err)
	}
	defer child.Stop()

	var out net.Conn
	if e.cfg.OutputNetwork != types.NetworkNone && e.cfg.TargetIP != "" {
		conn, err := transport.DialOutput(e.cfg.OutputNetwork, e.cfg.TargetIP, e.cfg.OutputPort)
		if err != nil {
			if e.log != nil {
				e.log.Warn("encoder output sink unavailable", "feed_id", e.cfg.ID, "error", err)
			}
		} else {
			out = conn
			defer out.Close()
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		e.readStdout(ctx, child.Stdout(), out)
	}()

	e.writeLoop(ctx, child)

	<-done
	return nil
}

// writeLoop paces frame delivery to the encoder at the feed's target FPS,
// dropping the dequeued frame when the encoder process is not alive. There
// is no readiness check on a live encoder's stdin: the write blocks until
// the pipe accepts the frame.
func (e *Encoder) writeLoop(ctx context.Context, child *process.Child) {
	fps := e.cfg.Output.FPS
	if fps <= 0 {
		fps = 1
	}
	period := time.Second / time.Duration(fps)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			item, ok := e.q.Get(period)
			if !ok {
				continue
			}
			if !child.Alive() {
				continue
			}
			if _, err := child.Write(item.Frame.Pixels); err != nil && e.log != nil {
				e.log.Warn("encoder write failed", "feed_id", e.cfg.ID, "error", err)
			}
		}
	}
}

// readStdout reads MPEG-TS chunks from the encoder's stdout and tees them to
// the network sink (if any) and the WS broadcaster (if any).
func (e *Encoder) readStdout(ctx context.Context, stdout io.ReadCloser, out net.Conn) {
	r := bufio.NewReaderSize(stdout, wsChunkSize*4)
	buf := bufpool.Get(wsChunkSize)
	defer bufpool.Put(buf)
	for ctx.Err() == nil {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			if out != nil {
				if _, werr := out.Write(chunk); werr != nil && e.log != nil {
					e.log.Warn("encoder sink write failed", "feed_id", e.cfg.ID, "error", werr)
				}
			}
			if e.sink != nil {
				e.sink.Broadcast(chunk)
			}
		}
		if err != nil {
			return
		}
	}
}
