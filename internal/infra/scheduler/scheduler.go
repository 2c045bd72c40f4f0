// Package scheduler drives poll cycles on a fixed cadence.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"substitution_bot/internal/app"
	"substitution_bot/internal/domain/schedule"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CycleRunner runs one poll cycle for a weekday.
type CycleRunner interface {
	RunCycle(ctx context.Context, weekday schedule.Weekday) (*app.CycleResult, error)
}

type Options struct {
	Interval     time.Duration
	CycleTimeout time.Duration
	// CheckNextDay also polls the school day after the current one.
	CheckNextDay bool
	// SkipWeekends suppresses ticks on Saturday and Sunday instead of
	// polling Monday's plan.
	SkipWeekends bool
}

// PollScheduler launches a cycle on every tick without waiting for earlier
// cycles. Ticks for a weekday that still has a cycle running are dropped.
type PollScheduler struct {
	cronEngine *cron.Cron
	runner     CycleRunner
	guard      *WeekdayGuard
	opts       Options
	logger     *logrus.Entry
	now        func() time.Time

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewPollScheduler(runner CycleRunner, opts Options, logger *logrus.Entry) *PollScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &PollScheduler{
		cronEngine: cron.New(cron.WithLocation(time.Local)),
		runner:     runner,
		guard:      NewWeekdayGuard(),
		opts:       opts,
		logger:     logger,
		now:        time.Now,
		baseCtx:    ctx,
		cancel:     cancel,
	}
}

// Start registers the polling job and starts the cron engine.
func (s *PollScheduler) Start() error {
	if s.opts.Interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", s.opts.Interval)
	}

	spec := "@every " + s.opts.Interval.String()
	if _, err := s.cronEngine.AddFunc(spec, s.tick); err != nil {
		return fmt.Errorf("could not add poll job %q: %w", spec, err)
	}

	s.cronEngine.Start()
	s.logger.WithFields(logrus.Fields{
		"interval":       s.opts.Interval.String(),
		"check_next_day": s.opts.CheckNextDay,
		"skip_weekends":  s.opts.SkipWeekends,
	}).Info("Poll scheduler started")
	return nil
}

// Trigger starts a cycle for weekday immediately, subject to the same guard
// as scheduled ticks. It reports whether a cycle was started.
func (s *PollScheduler) Trigger(weekday schedule.Weekday) bool {
	return s.launch(weekday)
}

// Stop halts the cron engine, cancels running cycles and waits for them.
func (s *PollScheduler) Stop() {
	s.logger.Info("Stopping poll scheduler...")
	cronCtx := s.cronEngine.Stop()
	<-cronCtx.Done()
	s.cancel()
	s.wg.Wait()
	s.logger.Info("Poll scheduler stopped")
}

func (s *PollScheduler) tick() {
	now := s.now()
	if s.opts.SkipWeekends && !schedule.IsSchoolDay(now.Weekday()) {
		s.logger.WithField("day", now.Weekday().String()).Debug("Weekend, skipping poll")
		return
	}

	target := schedule.FromCalendarDay(now.Weekday())
	s.launch(target)
	if s.opts.CheckNextDay {
		s.launch(target.Next())
	}
}

func (s *PollScheduler) launch(weekday schedule.Weekday) bool {
	release, ok := s.guard.TryAcquire(weekday)
	if !ok {
		s.logger.WithField("weekday", weekday.String()).Debug("Cycle still running, dropping tick")
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer release()
		s.runCycle(weekday)
	}()
	return true
}

func (s *PollScheduler) runCycle(weekday schedule.Weekday) {
	ctx := s.baseCtx
	if s.opts.CycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.CycleTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("weekday", weekday.String()).Errorf("Poll cycle panicked: %v", r)
		}
	}()

	if _, err := s.runner.RunCycle(ctx, weekday); err != nil {
		// RunCycle already logged the cause.
		s.logger.WithError(err).WithField("weekday", weekday.String()).Debug("Poll cycle ended with error")
	}
}
