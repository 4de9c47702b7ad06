// Package service contains the deletion window scheduler workflows
package service

import (
	"context"
	"strconv"
	"time"

	"datacompliance/internal/core/window"
	"datacompliance/internal/modkit/repokit"
	"datacompliance/internal/platform/bus"
	perr "datacompliance/internal/platform/errors"
	"datacompliance/internal/platform/logger"
	"datacompliance/internal/platform/metrics"
	"datacompliance/internal/services/events"
	"datacompliance/internal/services/scheduler/domain"
	"datacompliance/internal/services/scheduler/repo"
)

// Service defines the scheduler service contract
type Service interface {
	domain.SchedulerPort
	domain.RunnerPort
	domain.ConsumerPort
}

// Config carries runtime knobs for the scheduler
type Config struct {
	Window window.Config
	// Limit caps how many records the source should refer per window, 0 means no cap
	Limit  int
	Topics bus.Topics
	Now    func() time.Time

	Cron    string
	LockKey string
	LockTTL time.Duration
}

// Svc implements the scheduler service
type Svc struct {
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner
	pub    bus.Publisher
	lock   domain.Locker
	cfg    Config
}

var _ Service = (*Svc)(nil)

// New constructs a scheduler service. lock may be nil for callers that never Run
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], pub bus.Publisher, lock domain.Locker, cfg Config) *Svc {
	if db == nil {
		panic("scheduler.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("scheduler.Service requires a non nil Repo binder")
	}
	if pub == nil {
		panic("scheduler.Service requires a non nil Publisher")
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Svc{binder: binder, db: db, pub: pub, lock: lock, cfg: cfg}
}

// ScheduleNext computes the next window, persists the batch and requests
// referrals for it. The request is published inside the transaction so a
// failed publish leaves no batch behind
func (s *Svc) ScheduleNext(ctx context.Context) (domain.Batch, error) {
	var out domain.Batch
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := repokit.MustBind(s.binder, q)

		latest, err := r.LatestScheduled(ctx)
		if err != nil {
			return err
		}
		var prev *window.Previous
		if latest != nil {
			if prev, err = latest.Previous(); err != nil {
				return err
			}
		}

		now := s.cfg.Now()
		w, err := window.Next(prev, s.cfg.Window, now)
		if err != nil {
			return err
		}

		b := domain.Batch{Type: domain.Scheduled, RequestedAt: now, WindowStart: &w.Start, WindowEnd: &w.End}
		if b.ID, err = r.Insert(ctx, b); err != nil {
			return err
		}

		msg := events.DeletionWindowRequested{BatchID: b.ID, WindowStart: w.Start, WindowEnd: w.End, Limit: s.cfg.Limit}
		if err := s.pub.Publish(ctx, s.cfg.Topics.WindowRequests, strconv.FormatInt(b.ID, 10),
			events.Headers(events.TypeDeletionWindowRequested, ""), msg); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		metrics.ScheduleFailures.WithLabelValues(perr.CodeOf(err).String()).Inc()
		return domain.Batch{}, err
	}

	metrics.BatchesScheduled.WithLabelValues(string(domain.Scheduled)).Inc()
	logger.C(logger.WithBatch(ctx, out.ID)).Info().
		Time("window_start", *out.WindowStart).
		Time("window_end", *out.WindowEnd).
		Msg("deletion window requested")
	return out, nil
}

// ScheduleAdHoc records an ad hoc batch for one offender and requests its referral
func (s *Svc) ScheduleAdHoc(ctx context.Context, offenderNo, reason string) (domain.Batch, error) {
	var out domain.Batch
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := repokit.MustBind(s.binder, q)

		b := domain.Batch{Type: domain.AdHoc, RequestedAt: s.cfg.Now(), Comment: reason}
		var err error
		if b.ID, err = r.Insert(ctx, b); err != nil {
			return err
		}

		msg := events.AdHocReferralRequested{BatchID: b.ID, OffenderNo: offenderNo, Reason: reason}
		if err := s.pub.Publish(ctx, s.cfg.Topics.AdHocRequests, offenderNo,
			events.Headers(events.TypeAdHocReferralRequested, ""), msg); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		metrics.ScheduleFailures.WithLabelValues(perr.CodeOf(err).String()).Inc()
		return domain.Batch{}, err
	}

	metrics.BatchesScheduled.WithLabelValues(string(domain.AdHoc)).Inc()
	logger.C(logger.WithBatch(ctx, out.ID)).Info().Str("offender_no", offenderNo).Msg("ad hoc referral requested")
	return out, nil
}

// CompleteBatch records how many records the source referred for a batch.
// A batch keeps its first completion when the message is redelivered
func (s *Svc) CompleteBatch(ctx context.Context, batchID int64, referred, totalInWindow int) (domain.Batch, error) {
	if referred < 0 || totalInWindow < 0 {
		return domain.Batch{}, perr.Validationf("referred and total must not be negative")
	}
	remaining := max(0, totalInWindow-referred)

	var out domain.Batch
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := repokit.MustBind(s.binder, q)

		done, err := r.Complete(ctx, batchID, s.cfg.Now(), referred, remaining)
		if err != nil {
			return err
		}
		if out, err = r.Get(ctx, batchID); err != nil {
			return err
		}
		if !done {
			logger.C(logger.WithBatch(ctx, batchID)).Debug().Msg("batch already completed")
		}
		return nil
	})
	if err != nil {
		return domain.Batch{}, err
	}

	logger.C(logger.WithBatch(ctx, batchID)).Info().
		Int("referred", referred).
		Int("remaining_in_window", remaining).
		Msg("batch completed")
	return out, nil
}
