// Package metrics runs the periodic resident-memory sampler: a single
// background thread that wakes every 500 ms and logs a warning once usage
// crosses a configured threshold.
package metrics

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/process"
)

const sampleInterval = 500 * time.Millisecond

// Sampler periodically reads the current process's resident set size.
type Sampler struct {
	proc          *process.Process
	thresholdBytes uint64
	log           *slog.Logger

	lastRSS uint64
}

// New builds a Sampler for the current process. thresholdBytes is the RSS
// above which every sample logs a warning; 0 disables the warning.
func New(thresholdBytes uint64, log *slog.Logger) (*Sampler, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &Sampler{proc: proc, thresholdBytes: thresholdBytes, log: log}, nil
}

// Run wakes every 500 ms and samples RSS until ctx is cancelled.
func (s *Sampler) Run(ctx context.Context) {
	ticker := time.NewTicker(sampleInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sample()
		}
	}
}

func (s *Sampler) sample() {
	memInfo, err := s.proc.MemoryInfo()
	if err != nil {
		return
	}
	s.lastRSS = memInfo.RSS

	if s.thresholdBytes > 0 && memInfo.RSS > s.thresholdBytes && s.log != nil {
		s.log.Warn("resident memory over threshold",
			"rss", humanize.Bytes(memInfo.RSS),
			"threshold", humanize.Bytes(s.thresholdBytes),
		)
	}
}

// LastRSS returns the most recently sampled resident set size in bytes.
func (s *Sampler) LastRSS() uint64 { return s.lastRSS }
