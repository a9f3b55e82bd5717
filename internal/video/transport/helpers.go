package transport

import (
	"context"
	"errors"
	"strconv"
	"syscall"
	"time"
)

const oneSecond = time.Second

var errUnsupportedNetwork = errors.New("unsupported network type")

func itoa(port int) string { return strconv.Itoa(port) }

// isRefused reports whether err is (or wraps) ECONNREFUSED, matching the
// retry-on-refused behavior described for stream-transport input sockets.
func isRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}

func sleepOrDone(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
