package domain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type cronRunner interface {
	AddFunc(spec string, cmd func()) (cron.EntryID, error)
	Remove(id cron.EntryID)
	Entry(id cron.EntryID) cron.Entry
	Start()
	Stop() context.Context
}

type backupRunner interface {
	Run(context.Context, Trigger) RunResult
}

// Scheduler keeps at most one recurring cron entry for the configured
// interval. Ticks are handed to a single worker through a one slot channel,
// a tick arriving while a run is still pending is dropped.
type Scheduler struct {
	logger logrus.FieldLogger
	clock  clock.Clock

	cron   cronRunner
	runner backupRunner
	repo   ScheduleRepository

	mu       sync.Mutex
	interval Interval
	entry    cron.EntryID

	pending chan time.Time
	done    chan struct{}
	started bool
}

func NewScheduler(
	logger logrus.FieldLogger,
	clk clock.Clock,
	cron cronRunner,
	runner backupRunner,
	repo ScheduleRepository,
	interval Interval,
) *Scheduler {
	return &Scheduler{
		logger: logger,
		clock:  clk,

		cron:   cron,
		runner: runner,
		repo:   repo,

		interval: interval,

		pending: make(chan time.Time, 1),
		done:    make(chan struct{}),
	}
}

// Start applies the persisted interval, falling back to the configured one,
// and starts the cron and the worker.
func (s *Scheduler) Start(ctx context.Context) error {
	interval := s.Interval()

	persisted, ok, err := s.repo.ScheduleInterval(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Unable to read persisted schedule interval, using configured one")
	} else if ok {
		interval = persisted
	}

	err = s.Apply(interval)
	if err != nil {
		return err
	}

	s.logger.Debug("Starting cron")
	s.cron.Start()

	s.started = true
	go s.work()

	return nil
}

// Stop waits for a tick being dispatched and for the run in progress, if
// any.
func (s *Scheduler) Stop(ctx context.Context) error {
	if !s.started {
		return nil
	}

	cronCtx := s.cron.Stop()

	select {
	case <-cronCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	close(s.pending)

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Apply removes the current entry and registers a new one unless the
// interval is disabled.
func (s *Scheduler) Apply(interval Interval) error {
	interval, err := ParseInterval(string(interval))
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entry != 0 {
		s.cron.Remove(s.entry)
		s.entry = 0
	}

	s.interval = interval

	logger := s.logger.WithField("interval", interval)

	if interval == IntervalDisabled {
		logger.Info("Scheduled backups disabled")
		return nil
	}

	spec := fmt.Sprintf("@every %dh", int(interval.Period().Hours()))

	id, err := s.cron.AddFunc(spec, s.Dispatch)
	if err != nil {
		return errors.Wrapf(err, "invalid cron spec '%s'", spec)
	}

	s.entry = id

	logger.WithField("spec", spec).Info("Scheduled backups registered")

	return nil
}

// UpdateInterval persists the interval so it survives restarts and
// reschedules immediately.
func (s *Scheduler) UpdateInterval(ctx context.Context, interval Interval) error {
	interval, err := ParseInterval(string(interval))
	if err != nil {
		return err
	}

	err = s.repo.SetScheduleInterval(ctx, interval)
	if err != nil {
		return errors.Wrap(err, "unable to persist schedule interval")
	}

	return s.Apply(interval)
}

func (s *Scheduler) Interval() Interval {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.interval
}

// Next returns the next fire time. It is unknown until the cron is started.
func (s *Scheduler) Next() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entry == 0 {
		return time.Time{}, false
	}

	entry := s.cron.Entry(s.entry)
	if !entry.Valid() || entry.Next.IsZero() {
		return time.Time{}, false
	}

	return entry.Next, true
}

// Dispatch hands a scheduled run to the worker unless one is already pending.
func (s *Scheduler) Dispatch() {
	t := s.clock.Now()

	fields := logrus.Fields{"scheduled_at": t}

	select {
	case s.pending <- t:
		s.logger.WithFields(fields).Info("Dispatched scheduled backup")
	default:
		s.logger.WithFields(fields).Warn("Unable to dispatch scheduled backup, previous one is still pending")
	}
}

func (s *Scheduler) work() {
	defer close(s.done)

	for range s.pending {
		result := s.runner.Run(context.Background(), TriggerScheduled)

		if !result.Success {
			s.logger.WithError(result.Err).Warn("Scheduled backup did not complete")
		}
	}
}
