package topicblog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/eringen/topicblog/internal/logfields"
)

// Rebuilder periodically rebuilds the site. A failed rebuild leaves the
// published output untouched.
type Rebuilder struct {
	scheduler gocron.Scheduler
	build     func(context.Context) (BuildReport, error)
	timeout   time.Duration
	log       *slog.Logger
}

// NewRebuilder schedules build every interval. Runs never overlap; a run
// still busy when the next one is due pushes it back. A zero timeout leaves
// each build bounded only by its per-call fetch timeouts.
func NewRebuilder(build func(context.Context) (BuildReport, error), interval, timeout time.Duration, log *slog.Logger) (*Rebuilder, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("topicblog: create scheduler: %w", err)
	}
	r := &Rebuilder{scheduler: s, build: build, timeout: timeout, log: log}
	if _, err := s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(r.rebuild),
		gocron.WithName("rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("topicblog: schedule rebuild: %w", err)
	}
	return r, nil
}

// Start begins the schedule.
func (r *Rebuilder) Start() {
	r.log.Info("scheduled rebuilds started")
	r.scheduler.Start()
}

// Stop waits for a running rebuild and shuts the scheduler down.
func (r *Rebuilder) Stop() error {
	r.log.Info("scheduled rebuilds stopped")
	return r.scheduler.Shutdown()
}

func (r *Rebuilder) rebuild() {
	ctx := context.Background()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	report, err := r.build(ctx)
	if err != nil {
		r.log.Error("scheduled rebuild failed", logfields.BuildID(report.ID), logfields.Error(err))
	}
}
