// Package scheduler runs the periodic jobs: advancing recurring
// transactions, the budget sweep and goal reminders.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"fintrack/internal/lock"
	"fintrack/internal/logger"
	"fintrack/internal/metrics"
)

// JobFunc is one run of a job.
type JobFunc func(ctx context.Context) error

// ErrUnknownJob is returned by RunJob for a name that was never registered.
var ErrUnknownJob = errors.New("unknown job")

type job struct {
	name string
	spec string
	run  JobFunc
}

// Scheduler triggers registered jobs on their cron schedules. A job never
// overlaps itself in one process, and every run first takes the job's lock
// so replicas sharing a lock backend do not run it twice.
type Scheduler struct {
	cron    *cron.Cron
	locker  lock.Locker
	lockTTL time.Duration

	// base is the parent context of scheduled runs; Stop cancels it.
	base   context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	jobs map[string]job
}

// New creates a Scheduler evaluating cron specs in UTC. A nil locker means
// no cross-replica locking.
func New(locker lock.Locker, lockTTL time.Duration) *Scheduler {
	if locker == nil {
		locker = lock.Nop{}
	}
	if lockTTL <= 0 {
		lockTTL = 30 * time.Minute
	}
	l := cronLogger{logger.Get()}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)
	base, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    c,
		locker:  locker,
		lockTTL: lockTTL,
		base:    base,
		cancel:  cancel,
		jobs:    make(map[string]job),
	}
}

// Register adds a job under name. An empty spec registers the job for
// RunJob only.
func (s *Scheduler) Register(name, spec string, run JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}
	j := job{name: name, spec: spec, run: run}
	if spec != "" {
		_, err := s.cron.AddFunc(spec, func() {
			if err := s.execute(s.base, j); err != nil && !errors.Is(err, lock.ErrNotAcquired) {
				logger.Get().Errorw("scheduled job failed", "job", name, "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("invalid schedule %q for job %s: %w", spec, name, err)
		}
	}
	s.jobs[name] = j
	logger.Get().Infow("job registered", "job", name, "schedule", spec)
	return nil
}

// Jobs returns the registered job names in order.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunJob runs a registered job once, outside its schedule. It honours the
// job lock and returns lock.ErrNotAcquired when another run holds it.
func (s *Scheduler) RunJob(ctx context.Context, name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.execute(ctx, j)
}

func (s *Scheduler) execute(ctx context.Context, j job) error {
	started := time.Now()
	log := logger.Get().With("job", j.name)

	release, err := s.locker.Acquire(ctx, j.name, s.lockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			log.Infow("job already running elsewhere, skipping")
			metrics.ObserveJob(j.name, "locked", started)
		} else {
			log.Errorw("failed to acquire job lock", "error", err)
			metrics.ObserveJob(j.name, "error", started)
		}
		return err
	}
	defer release()

	log.Infow("job started")
	if err := j.run(ctx); err != nil {
		metrics.ObserveJob(j.name, "error", started)
		log.Errorw("job failed", "duration", time.Since(started), "error", err)
		return err
	}
	metrics.ObserveJob(j.name, "ok", started)
	log.Infow("job finished", "duration", time.Since(started))
	return nil
}

// Start begins triggering scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Get().Infow("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop stops triggering jobs, cancels the context of running ones and waits
// for them to return until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger routes cron's own logging to zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
