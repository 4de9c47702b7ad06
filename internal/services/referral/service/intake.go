package service

import (
	"context"

	"datacompliance/internal/modkit/repokit"
	"datacompliance/internal/platform/logger"
	"datacompliance/internal/platform/metrics"
	auditdomain "datacompliance/internal/services/audit/domain"
	"datacompliance/internal/services/events"
	"datacompliance/internal/services/referral/domain"
)

// IntakeReferral persists a referral for its batch and starts its checks.
// Deceased and no-booking offenders were already deleted upstream, so they
// are stored DELETED and get no checks. Redelivery finds the stored referral
// and only dispatches checks that never went out
func (s *Svc) IntakeReferral(ctx context.Context, m events.PendingDeletion) (domain.Referral, error) {
	subj, err := domain.SubjectFrom(m)
	if err != nil {
		return domain.Referral{}, err
	}
	ctx = logger.WithBatch(ctx, m.BatchID)

	var (
		ref    domain.Referral
		closed bool
	)
	err = repokit.RetryTx(ctx, s.db, func(q repokit.Queryer) error {
		r := repokit.MustBind(s.binder, q)
		now := s.cfg.Now()

		id, created, err := r.InsertReferral(ctx, m.BatchID, subj, now)
		if err != nil {
			return err
		}
		closed = false
		if created {
			if err := r.InsertRecords(ctx, id, subj.Records()); err != nil {
				return err
			}
			if domain.ClosedOnIntake(subj) {
				res := domain.Resolution{
					ReferralID: id,
					Status:     domain.Deleted,
					ResolvedAt: now,
					Reason:     "deleted upstream: " + string(subj.Kind()),
					DeletedAt:  &now,
				}
				if closed, err = r.InsertResolution(ctx, res); err != nil {
					return err
				}
			}
		}
		ref, err = r.GetReferral(ctx, id)
		return err
	})
	if err != nil {
		return domain.Referral{}, err
	}
	ctx = logger.WithReferral(ctx, ref.ID, subj.OffenderNo())

	if closed {
		metrics.Resolutions.WithLabelValues(string(domain.Deleted)).Inc()
		logger.C(ctx).Info().Str("kind", string(subj.Kind())).Msg("referral closed on intake")
		s.record(ctx, auditdomain.Entry{
			At:         ref.Resolution.ResolvedAt,
			Event:      auditdomain.EventClosedOnIntake,
			BatchID:    ref.BatchID,
			ReferralID: ref.ID,
			OffenderNo: subj.OffenderNo(),
			Status:     string(domain.Deleted),
			Reason:     ref.Resolution.Reason,
		})
		return ref, nil
	}
	if !ref.Pending() {
		logger.C(ctx).Debug().Msg("referral already resolved")
		return ref, nil
	}

	if _, err := s.InitiateChecks(ctx, ref); err != nil {
		return ref, err
	}
	return ref, nil
}
