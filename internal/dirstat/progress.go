package dirstat

import (
	"context"
	"sync/atomic"
	"time"
)

// DefaultProgressInterval is the default interval for progress updates.
const DefaultProgressInterval = 500 * time.Millisecond

// Progress counts processed files and bytes. A nil *Progress discards updates.
type Progress struct {
	files atomic.Int64
	bytes atomic.Int64
}

// Add records one processed file of the given size.
func (p *Progress) Add(size int64) {
	if p == nil {
		return
	}

	p.files.Add(1)
	p.bytes.Add(size)
}

// Snapshot returns the processed file and byte counts.
func (p *Progress) Snapshot() (int64, int64) {
	if p == nil {
		return 0, 0
	}

	return p.files.Load(), p.bytes.Load()
}

// StartProgressReporter invokes hook(files, bytes) on each tick until ctx is done.
func StartProgressReporter(ctx context.Context, p *Progress, hook func(int64, int64), interval time.Duration) {
	if hook == nil || p == nil {
		return
	}

	if interval <= 0 {
		interval = DefaultProgressInterval
	}

	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				hook(p.Snapshot())
			case <-ctx.Done():
				return
			}
		}
	}()
}
