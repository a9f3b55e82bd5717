// Package receiver reads length-prefixed binary ROV snapshot records from a
// stream-oriented source and decodes them into telemetry snapshots.
package receiver

import (
	"context"
	"encoding/binary"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/hydrobotics/rov-relay/internal/telemetry/types"
)

const reconnectDelay = 5 * time.Second

// maxRecordSize bounds the length prefix so a corrupt stream can't make the
// receiver try to allocate an unbounded buffer.
const maxRecordSize = 1 << 20

// Dialer opens the inbound telemetry stream connection.
type Dialer func(ctx context.Context) (net.Conn, error)

// Handler is invoked with every successfully decoded snapshot.
type Handler func(types.Snapshot)

// Receiver owns the reconnect loop and framing for the telemetry source
// connection.
type Receiver struct {
	dial    Dialer
	handle  Handler
	log     *slog.Logger
	lastRx  time.Time
}

// New builds a Receiver. dial is called once per connection attempt; handle
// receives every decoded snapshot.
func New(dial Dialer, handle Handler, log *slog.Logger) *Receiver {
	return &Receiver{dial: dial, handle: handle, log: log}
}

// LastReceived returns the wall-clock time of the most recently decoded
// snapshot, used by the publisher's staleness check.
func (r *Receiver) LastReceived() time.Time { return r.lastRx }

// Run connects, reads frames until the connection ends, and reconnects
// after a fixed delay, until ctx is cancelled.
func (r *Receiver) Run(ctx context.Context) {
	for ctx.Err() == nil {
		conn, err := r.dial(ctx)
		if err != nil {
			if r.log != nil {
				r.log.Warn("telemetry connect failed", "error", err)
			}
			if sleepCtx(ctx, reconnectDelay) != nil {
				return
			}
			continue
		}

		r.readLoop(ctx, conn)
		conn.Close()

		if ctx.Err() != nil {
			return
		}
		if sleepCtx(ctx, reconnectDelay) != nil {
			return
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

func (r *Receiver) readLoop(ctx context.Context, conn net.Conn) {
	for ctx.Err() == nil {
		snap, err := readFrame(conn)
		if err != nil {
			if err == io.EOF {
				return
			}
			if r.log != nil {
				r.log.Warn("telemetry frame skipped", "error", err)
			}
			if err == errConnectionEnded {
				return
			}
			continue
		}
		r.lastRx = time.Now()
		if r.handle != nil {
			r.handle(snap)
		}
	}
}

var errConnectionEnded = io.ErrUnexpectedEOF

func readFrame(conn net.Conn) (types.Snapshot, error) {
	var lenBuf [8]byte
	if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
		if err == io.EOF {
			return types.Snapshot{}, io.EOF
		}
		return types.Snapshot{}, errConnectionEnded
	}

	length := binary.LittleEndian.Uint64(lenBuf[:])
	if length == 0 || length > maxRecordSize {
		return types.Snapshot{}, errShortRecord
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(conn, body); err != nil {
		return types.Snapshot{}, errShortRecord
	}

	return decode(body)
}
