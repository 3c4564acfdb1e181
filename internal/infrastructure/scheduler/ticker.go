package scheduler

import (
	"context"
	"time"

	"InsightDigest/internal/ports"
)

// TickerScheduler fires the job immediately and then on a fixed interval.
type TickerScheduler struct {
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

var _ ports.Scheduler = (*TickerScheduler)(nil)

// NewTickerScheduler builds a scheduler with the given interval. Intervals
// below one minute are clamped to one minute.
func NewTickerScheduler(interval time.Duration) *TickerScheduler {
	if interval < time.Minute {
		interval = time.Minute
	}
	return &TickerScheduler{interval: interval}
}

// Start begins ticking. The job runs once right away, then every interval
// until Stop is called or the context is cancelled. Calling Start on a
// running scheduler is a no-op.
func (s *TickerScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}
	if s.stop != nil {
		return nil
	}

	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		job(time.Now())
		for {
			select {
			case t := <-ticker.C:
				job(t)
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the ticker goroutine and waits for it to exit.
func (s *TickerScheduler) Stop(ctx context.Context) error {
	if s.stop == nil {
		return nil
	}
	close(s.stop)
	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.stop = nil
	return nil
}
