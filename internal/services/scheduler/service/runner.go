package service

import (
	"context"
	"errors"

	perr "datacompliance/internal/platform/errors"
	"datacompliance/internal/platform/lock"
	"datacompliance/internal/platform/logger"

	"github.com/robfig/cron/v3"
)

// Run schedules one cycle per cron tick until ctx is cancelled, then waits
// for a running cycle to finish
func (s *Svc) Run(ctx context.Context) error {
	if s.lock == nil {
		return perr.InvalidArgf("scheduler: Run requires a Locker")
	}
	if _, err := cron.ParseStandard(s.cfg.Cron); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "invalid cron schedule %q", s.cfg.Cron)
	}

	log := logger.Named("scheduler")
	c := cron.New(cron.WithLocation(s.cfg.Now().Location()))
	if _, err := c.AddFunc(s.cfg.Cron, func() { s.Cycle(ctx) }); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "schedule %q", s.cfg.Cron)
	}
	c.Start()
	log.Info().Str("schedule", s.cfg.Cron).Msg("scheduler started")

	<-ctx.Done()
	<-c.Stop().Done()
	log.Info().Msg("scheduler stopped")
	return nil
}

// Cycle runs ScheduleNext under the scheduler lock. Another replica holding
// the lock means this tick is skipped
func (s *Svc) Cycle(ctx context.Context) {
	log := logger.Named("scheduler")
	err := s.lock.WithLock(ctx, s.cfg.LockKey, s.cfg.LockTTL, func(ctx context.Context) error {
		_, err := s.ScheduleNext(ctx)
		return err
	})
	switch {
	case err == nil:
	case errors.Is(err, lock.ErrLockNotAcquired):
		log.Debug().Msg("another scheduler holds the lock, skipping cycle")
	case perr.IsCode(err, perr.ErrorCodePrecondition), perr.IsCode(err, perr.ErrorCodeValidation):
		log.Warn().Err(err).Msg("scheduling cycle skipped")
	default:
		log.Error().Err(err).Msg("scheduling cycle failed")
	}
}
