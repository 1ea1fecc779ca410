package monitor

import (
	"context"
	"time"

	"github.com/Dicklesworthstone/sysmon/internal/logger"
	"github.com/Dicklesworthstone/sysmon/internal/model"
)

// DefaultInterval is the time between cycle starts.
const DefaultInterval = 5 * time.Second

// Scheduler drives engine cycles at a fixed interval.
type Scheduler struct {
	engine   *Engine
	interval time.Duration
	log      logger.Logger
}

// NewScheduler creates a scheduler. A non-positive interval uses DefaultInterval.
func NewScheduler(e *Engine, interval time.Duration, log logger.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = logger.Noop()
	}
	return &Scheduler{engine: e, interval: interval, log: log}
}

// Interval returns the tick interval.
func (s *Scheduler) Interval() time.Duration { return s.interval }

// Run performs the calibrating first cycle immediately, then one cycle per
// tick until ctx is done. Ticks that arrive while a cycle is still running
// are dropped.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Debug("first cycle (calibrating)")
	s.engine.RunCycle(ctx, true)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Debug("stopped: %v", ctx.Err())
			return
		case <-ticker.C:
			s.engine.RunCycle(ctx, false)
		}
	}
}

// Stream runs the scheduler in the background and returns a channel that
// receives the snapshot of every completed cycle. The channel closes when
// ctx is done.
func (s *Scheduler) Stream(ctx context.Context) <-chan *model.Snapshot {
	changes, cancel := s.engine.Notifier().Subscribe()
	out := make(chan *model.Snapshot)
	go s.Run(ctx)
	go func() {
		defer close(out)
		defer cancel()
		var last uint64
		for {
			select {
			case <-ctx.Done():
				return
			case <-changes:
				snap := s.engine.Snapshot()
				if snap.Cycle == last {
					continue
				}
				last = snap.Cycle
				select {
				case out <- snap:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
