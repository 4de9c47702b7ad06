package service

import (
	"context"
	"strconv"

	"datacompliance/internal/modkit/repokit"
	perr "datacompliance/internal/platform/errors"
	"datacompliance/internal/platform/logger"
	"datacompliance/internal/platform/metrics"
	"datacompliance/internal/services/events"
	"datacompliance/internal/services/referral/domain"
)

// InitiateChecks creates the PENDING checks the policy asks for, then sends a
// request for each one that was never dispatched. Creation is committed before
// any request goes out so every request carries a durable check id. A failed
// request leaves its check PENDING for the backlog to surface
func (s *Svc) InitiateChecks(ctx context.Context, ref domain.Referral) ([]domain.Check, error) {
	if !ref.Pending() {
		return nil, perr.Preconditionf("referral %d is already %s", ref.ID, ref.Resolution.Status)
	}
	ctx = logger.WithReferral(ctx, ref.ID, ref.Subject.OffenderNo())

	var checks []domain.Check
	err := repokit.RetryTx(ctx, s.db, func(q repokit.Queryer) error {
		r := repokit.MustBind(s.binder, q)
		checks = checks[:0]

		hasImages, err := r.HasImageUploads(ctx, ref.Subject.OffenderNo())
		if err != nil {
			return err
		}
		for _, kind := range s.cfg.Policy.For(hasImages) {
			c, err := r.InsertCheck(ctx, ref.ID, kind, s.cfg.Now())
			if err != nil {
				return err
			}
			checks = append(checks, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(checks) == 0 {
		logger.C(ctx).Info().Msg("no checks apply, granting deletion")
		if _, err := s.settle(ctx, ref.ID, true); err != nil {
			return nil, err
		}
		return checks, nil
	}

	sent := 0
	for i := range checks {
		c := &checks[i]
		if c.Status != events.CheckPending || c.DispatchedAt != nil {
			continue
		}
		if err := s.dispatch(ctx, ref, c); err == nil {
			sent++
		}
	}
	logger.C(ctx).Info().Int("checks", len(checks)).Int("dispatched", sent).Msg("retention checks initiated")
	return checks, nil
}

// dispatch publishes the request for c and stamps dispatched_at
func (s *Svc) dispatch(ctx context.Context, ref domain.Referral, c *domain.Check) error {
	log := logger.C(logger.WithCheck(ctx, c.ID))
	msg := events.CheckRequested{
		CheckID:    c.ID,
		ReferralID: ref.ID,
		Kind:       c.Kind,
		Subject:    ref.EventSubject(),
	}
	err := s.pub.Publish(ctx, s.cfg.Topics.CheckRequests, strconv.FormatInt(ref.ID, 10),
		events.Headers(events.TypeCheckRequested, c.Kind), msg)
	metrics.RecordDispatch(string(c.Kind), err)
	if err != nil {
		log.Warn().Err(err).Str("kind", string(c.Kind)).Msg("check dispatch failed, check stays pending")
		return err
	}

	at := s.cfg.Now()
	if err := s.repo().MarkDispatched(ctx, c.ID, at); err != nil {
		log.Warn().Err(err).Msg("could not record dispatch time")
		return nil
	}
	c.DispatchedAt = &at
	return nil
}

// Redispatch sends the request for a check again. Only PENDING checks can be
// redispatched
func (s *Svc) Redispatch(ctx context.Context, checkID int64) (domain.Check, error) {
	r := s.repo()
	c, err := r.GetCheck(ctx, checkID)
	if err != nil {
		return domain.Check{}, err
	}
	if c.Status != events.CheckPending {
		return c, perr.Preconditionf("check %d is already %s", checkID, c.Status)
	}
	ref, err := r.GetReferral(ctx, c.ReferralID)
	if err != nil {
		return c, err
	}
	if err := s.dispatch(ctx, ref, &c); err != nil {
		return c, err
	}
	logger.C(logger.WithCheck(ctx, checkID)).Info().Str("kind", string(c.Kind)).Msg("check redispatched")
	return c, nil
}
