package service

import (
	"context"

	"datacompliance/internal/modkit/repokit"
	perr "datacompliance/internal/platform/errors"
	"datacompliance/internal/platform/logger"
	"datacompliance/internal/platform/metrics"
	"datacompliance/internal/services/referral/domain"
)

// ApplyResult moves a PENDING check to its outcome and resolves the referral
// once every check is terminal. The check update, the referral row lock and
// the resolution insert share one transaction, which is replayed when it
// loses a serialization or deadlock race. An unknown check is NotFound and an
// already terminal check is left untouched
func (s *Svc) ApplyResult(ctx context.Context, o domain.Outcome) (domain.Check, error) {
	if !o.Status.Terminal() {
		return domain.Check{}, perr.WithField(perr.Validationf("status %q is not an outcome", o.Status), "status")
	}
	ctx = logger.WithCheck(ctx, o.CheckID)

	var (
		check   domain.Check
		applied bool
		ref     domain.Referral
		res     *domain.Resolution
	)
	err := repokit.RetryTx(ctx, s.db, func(q repokit.Queryer) error {
		r := repokit.MustBind(s.binder, q)
		now := s.cfg.Now()
		res = nil

		c, ok, err := r.ApplyOutcome(ctx, o.CheckID, o.Status, now, o.Payload)
		if err != nil {
			return err
		}
		check, applied = c, ok
		if !ok {
			return nil
		}
		// rolls the update back
		if o.Kind != "" && o.Kind != c.Kind {
			return perr.WithField(perr.Validationf("result for check %d is %s, check is %s", c.ID, o.Kind, c.Kind), "kind")
		}

		if ref, err = r.LockReferral(ctx, c.ReferralID); err != nil {
			return err
		}
		if err := r.LinkImageDuplicates(ctx, c.ID, o.ImageDuplicateIDs); err != nil {
			return err
		}
		if len(o.DataDuplicates) > 0 {
			if err := r.LinkDataDuplicates(ctx, c.ID, ref.Subject.OffenderNo(), o.DataDuplicates, now); err != nil {
				return err
			}
		}
		res, err = s.decide(ctx, r, ref, false)
		return err
	})
	if err != nil {
		return domain.Check{}, err
	}

	if !applied {
		logger.C(ctx).Debug().Str("status", string(check.Status)).Msg("check already terminal, result ignored")
		return check, nil
	}
	metrics.CheckResults.WithLabelValues(string(check.Kind), string(check.Status)).Inc()
	ctx = logger.WithReferral(ctx, ref.ID, ref.Subject.OffenderNo())
	logger.C(ctx).Info().Str("kind", string(check.Kind)).Str("status", string(check.Status)).Msg("check result applied")

	if res != nil {
		ref.Resolution = res
		s.resolved(ctx, ref)
	}
	return check, nil
}
