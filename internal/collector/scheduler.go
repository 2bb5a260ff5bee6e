package collector

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Scheduler owns the periodic trigger for collection cycles. It is an
// explicit object with start/stop/reschedule rather than process-wide
// state, so the interval can change at runtime and shutdown is orderly.
type Scheduler struct {
	collector  *Collector
	reschedule chan time.Duration
	stop       chan struct{}
	done       chan struct{}
}

func NewScheduler(c *Collector) *Scheduler {
	return &Scheduler{
		collector:  c,
		reschedule: make(chan time.Duration, 1),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start launches the scheduling loop. The first cycle fires one interval
// from now; the operational trigger endpoint covers "run immediately".
func (s *Scheduler) Start(ctx context.Context) {
	go s.run(ctx)
}

// Stop terminates the loop and waits for it to exit. An in-flight cycle
// finishes its current item batch via the run context.
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
}

// Reschedule changes both the scheduler period and the collector's due
// threshold.
func (s *Scheduler) Reschedule(d time.Duration) {
	s.collector.SetInterval(d)
	select {
	case s.reschedule <- d:
	default:
		// A pending reschedule is superseded; the collector interval above
		// is already the source of truth.
	}
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.collector.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case d := <-s.reschedule:
			ticker.Reset(d)
			slog.Info("Collection schedule changed", "interval", d)
		case <-ticker.C:
			if err := s.collector.RunCycle(ctx); err != nil {
				if errors.Is(err, ErrCycleRunning) {
					slog.Debug("Skipping scheduled cycle, one is already running")
					continue
				}
				slog.Error("Scheduled collection cycle failed", "error", err)
			}
		}
	}
}
