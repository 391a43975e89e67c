// Package service drives the ingest pipeline on a cadence with run isolation
package service

import (
	"context"
	"sync/atomic"
	"time"

	"courseboard/internal/core/timetable"
	"courseboard/internal/platform/logger"
	ingestdom "courseboard/internal/services/ingest/domain"
)

// Config for the scheduler
type Config struct {
	// Term is the academic term every run crawls
	Term timetable.Term
	// Interval between successful runs
	Interval time.Duration
	// BackoffBase and BackoffMax bound the retry delay after failed runs
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// Scheduler owns the crawl cadence. At most one run is ever in flight; an
// overlapping start attempt is a logged skip, not an error
type Scheduler struct {
	runner ingestdom.RunnerPort
	cfg    Config
	log    logger.Logger
	busy   atomic.Bool
}

// New constructs a Scheduler
func New(runner ingestdom.RunnerPort, cfg Config) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Minute
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = 30 * time.Minute
	}
	return &Scheduler{
		runner: runner,
		cfg:    cfg,
		log:    *logger.Named("crawl"),
	}
}

// TryRunOnce starts a run unless one is already in flight. ran is false for
// a skip; err reflects the run outcome, never the skip
func (s *Scheduler) TryRunOnce(ctx context.Context) (rep ingestdom.RunReport, ran bool, err error) {
	if !s.busy.CompareAndSwap(false, true) {
		s.log.Info().Msg("crawl tick skipped, run already in flight")
		return ingestdom.RunReport{}, false, nil
	}
	defer s.busy.Store(false)

	rep, err = s.runner.RunOnce(ctx, s.cfg.Term)
	return rep, true, err
}

// Run blocks, firing runs on the configured cadence until ctx is canceled.
// The first run fires immediately. Consecutive failures stretch the delay
// with capped exponential backoff; one success snaps it back to Interval
func (s *Scheduler) Run(ctx context.Context) error {
	var failures int
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		_, ran, err := s.TryRunOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		delay := s.cfg.Interval
		switch {
		case !ran:
			// the in-flight run owns the cadence; check back soon
			delay = s.cfg.BackoffBase
		case err != nil:
			failures++
			delay = backoffDelay(s.cfg.BackoffBase, s.cfg.BackoffMax, failures)
			s.log.Warn().Err(err).Int("failures", failures).Dur("retry_in", delay).Msg("crawl run failed, backing off")
		default:
			failures = 0
		}
		timer.Reset(delay)
	}
}

// backoffDelay doubles base per consecutive failure, capped at max
func backoffDelay(base, max time.Duration, failures int) time.Duration {
	if failures < 1 {
		return base
	}
	d := base
	for i := 1; i < failures; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}
