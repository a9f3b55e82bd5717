// Package feed wires one video stream's actors together: the decoder
// (source reader + frame producer), the encoder (queue drainer + sink
// writer + WS relay), and the backpressure queue between them.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hydrobotics/rov-relay/internal/hooks"
	"github.com/hydrobotics/rov-relay/internal/logger"
	"github.com/hydrobotics/rov-relay/internal/video/decoder"
	"github.com/hydrobotics/rov-relay/internal/video/encoder"
	"github.com/hydrobotics/rov-relay/internal/video/queue"
	"github.com/hydrobotics/rov-relay/internal/video/types"
	"github.com/hydrobotics/rov-relay/internal/video/ws"
)

// Feed owns the decoder, encoder, queue, and (if enabled) WS broadcaster for
// one configured video stream.
type Feed struct {
	cfg         types.FeedConfig
	queue       *queue.Queue
	decoder     *decoder.Decoder
	encoder     *encoder.Encoder
	broadcaster *ws.Broadcaster
	log         *slog.Logger
}

// New builds a Feed from its configuration. decoderArgv/encoderArgv produce
// the external codec command lines for the feed's input/output dimensions.
// hm is optional and may be nil; when set, feed lifecycle events (source
// reconnects, WS client churn) are dispatched through it.
func New(cfg types.FeedConfig, decoderArgv decoder.ArgvBuilder, encoderArgv encoder.ArgvBuilder, baseLog *slog.Logger, hm *hooks.Manager) *Feed {
	feedLog := logger.WithFeed(baseLog, feedLabel(cfg.ID), cfg.HostIP)

	getTimeout := cfg.Backpressure.GetTimeout
	if getTimeout <= 0 {
		getTimeout = time.Second
	}
	q := queue.New(cfg.Backpressure.MaxSize, feedLog)

	var bcast *ws.Broadcaster
	if cfg.WSEnabled {
		bcast = ws.New(cfg.ID, feedLog, hm)
	}

	dec := decoder.New(cfg, decoderArgv, q, feedLog, hm)
	enc := encoder.New(cfg, encoderArgv, q, sinkOf(bcast), feedLog)

	return &Feed{cfg: cfg, queue: q, decoder: dec, encoder: enc, broadcaster: bcast, log: feedLog}
}

func sinkOf(b *ws.Broadcaster) encoder.Sink {
	if b == nil {
		return nil
	}
	return b
}

func feedLabel(id int) string {
	return "feed-" + itoa(id)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Run starts the decoder, encoder, and (if enabled) WS broadcaster actors
// and blocks until ctx is cancelled or one of them fails. When WS fan-out
// is enabled, the broadcaster gets its own listener on
// 0.0.0.0:cfg.WSPort — one port per feed, per the external interface.
func (f *Feed) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		f.decoder.Run(ctx)
		return nil
	})
	g.Go(func() error {
		return f.encoder.Run(ctx)
	})
	if f.broadcaster != nil {
		g.Go(func() error {
			f.broadcaster.Run(ctx)
			return nil
		})
		g.Go(func() error {
			return f.serveWS(ctx)
		})
	}
	g.Go(func() error {
		return f.statusLoop(ctx)
	})

	return g.Wait()
}

// serveWS listens on the feed's own WS port and serves the broadcaster's
// upgrade handler at the root path, shutting down when ctx is cancelled.
func (f *Feed) serveWS(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", f.broadcaster.Handler())

	addr := fmt.Sprintf("0.0.0.0:%d", f.cfg.WSPort)
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}

// statusLoop periodically logs queue depth and drop counts so operators can
// see backpressure building before it becomes visible on screen.
func (f *Feed) statusLoop(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			stats := f.queue.Snapshot()
			f.log.Info("feed status",
				"queue_size", stats.Size,
				"dropped", stats.Dropped,
				"total_puts", stats.TotalPuts,
				"total_gets", stats.TotalGets,
			)
		}
	}
}
