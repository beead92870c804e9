// Package scheduler drives the runtime's background jobs and the
// strategist tick from a single minute-granularity ticker, grounded on
// the teacher's ticker/ctx.Done run-loop shape (internal/monitor.go)
// and the standalone dossier scheduler's minute-tick-plus-per-config
// schedule-evaluation approach (see DESIGN.md) -- generalized from
// per-row database polling to a small in-process job registry, since
// this runtime has no multi-tenant config table to poll.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const tickInterval = time.Minute

// Job is a single scheduled unit of work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Trigger decides whether a job is due at now, given its last run time.
type Trigger interface {
	Due(now, lastRun time.Time) bool
}

// IntervalTrigger fires once Period has elapsed since the last run (or
// immediately if it has never run).
type IntervalTrigger struct {
	Period time.Duration
}

func (t IntervalTrigger) Due(now, lastRun time.Time) bool {
	if lastRun.IsZero() {
		return true
	}
	return now.Sub(lastRun) >= t.Period
}

// CronTrigger fires once per matching (weekday, hour, minute) combination,
// evaluated in the Scheduler's configured timezone. Weekday is nil for
// "every day". Duplicate prevention is by calendar day: once fired for a
// given day, it will not fire again until the next matching day.
type CronTrigger struct {
	Weekday *time.Weekday
	Hour    int
	Minute  int
}

func (t CronTrigger) Due(now, lastRun time.Time) bool {
	if t.Weekday != nil && now.Weekday() != *t.Weekday {
		return false
	}
	if now.Hour() != t.Hour || now.Minute() != t.Minute {
		return false
	}
	if !lastRun.IsZero() && sameDay(lastRun, now) {
		return false
	}
	return true
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

type registration struct {
	job     Job
	timeout time.Duration

	mu      sync.Mutex
	trigger Trigger
	lastRun time.Time

	running atomic.Bool
}

// Scheduler owns the registered jobs and the ticker that evaluates them.
type Scheduler struct {
	loc    *time.Location
	jobs   []*registration
	logger *slog.Logger
	now    func() time.Time
}

// New validates timezone and constructs a Scheduler. An invalid
// timezone string falls back to UTC with a warning, per spec.
func New(timezone string, logger *slog.Logger) *Scheduler {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		logger.Warn("invalid scheduler timezone, falling back to UTC", "timezone", timezone, "error", err)
		loc = time.UTC
	}
	return &Scheduler{loc: loc, logger: logger, now: time.Now}
}

// Register adds a job with its trigger and execution timeout.
func (s *Scheduler) Register(job Job, trigger Trigger, timeout time.Duration) {
	s.jobs = append(s.jobs, &registration{job: job, trigger: trigger, timeout: timeout})
}

// UpdateTrigger swaps the trigger of a registered job, reporting whether
// the job was found. Used by config hot-reload to apply new intervals and
// cron hours without restarting.
func (s *Scheduler) UpdateTrigger(name string, trigger Trigger) bool {
	for _, r := range s.jobs {
		if r.job.Name() != name {
			continue
		}
		r.mu.Lock()
		r.trigger = trigger
		r.mu.Unlock()
		return true
	}
	return false
}

// Run blocks, ticking every minute until ctx is cancelled. Each due job
// runs in its own goroutine; a tick that finds a job still running from
// a previous invocation drops that tick rather than queueing it.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	now := s.now().In(s.loc)
	for _, r := range s.jobs {
		r.mu.Lock()
		due := r.trigger.Due(now, r.lastRun)
		r.mu.Unlock()
		if !due {
			continue
		}

		if !r.running.CompareAndSwap(false, true) {
			s.logger.Warn("job tick dropped, previous run still in flight", "job", r.job.Name())
			continue
		}

		r.mu.Lock()
		r.lastRun = now
		r.mu.Unlock()

		go s.runJob(ctx, r)
	}
}

func (s *Scheduler) runJob(ctx context.Context, r *registration) {
	defer r.running.Store(false)
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("job panicked", "job", r.job.Name(), "panic", rec)
		}
	}()

	jobCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.job.Run(jobCtx); err != nil {
		s.logger.Error("job failed", "job", r.job.Name(), "error", err)
	}
}
