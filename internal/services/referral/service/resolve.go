package service

import (
	"context"
	"time"

	"datacompliance/internal/modkit/repokit"
	perr "datacompliance/internal/platform/errors"
	"datacompliance/internal/platform/logger"
	"datacompliance/internal/platform/metrics"
	auditdomain "datacompliance/internal/services/audit/domain"
	"datacompliance/internal/services/events"
	"datacompliance/internal/services/referral/domain"
	"datacompliance/internal/services/referral/repo"
)

// decide writes the resolution for a locked, pending referral when its check
// set allows one. emptyGrants resolves a referral without checks. It returns
// the resolution only when this call wrote it
func (s *Svc) decide(ctx context.Context, r repo.Repo, ref domain.Referral, emptyGrants bool) (*domain.Resolution, error) {
	if !ref.Pending() {
		return nil, nil
	}
	checks, err := r.ChecksFor(ctx, ref.ID)
	if err != nil {
		return nil, err
	}
	d, ok := domain.Resolve(checks)
	if !ok && len(checks) == 0 && emptyGrants {
		d, ok = domain.Decision{Status: domain.DeletionGranted}, true
	}
	if !ok {
		return nil, nil
	}

	res := domain.Resolution{
		ReferralID: ref.ID,
		Status:     d.Status,
		ResolvedAt: s.cfg.Now(),
		Reason:     d.Reason,
		RetainedBy: d.RetainedBy,
	}
	inserted, err := r.InsertResolution(ctx, res)
	if err != nil || !inserted {
		return nil, err
	}
	return &res, nil
}

// settle locks a referral and resolves it if it can be
func (s *Svc) settle(ctx context.Context, referralID int64, emptyGrants bool) (*domain.Resolution, error) {
	var (
		ref domain.Referral
		res *domain.Resolution
	)
	err := repokit.RetryTx(ctx, s.db, func(q repokit.Queryer) error {
		r := repokit.MustBind(s.binder, q)
		var err error
		if ref, err = r.LockReferral(ctx, referralID); err != nil {
			return err
		}
		res, err = s.decide(ctx, r, ref, emptyGrants)
		return err
	})
	if err != nil || res == nil {
		return res, err
	}
	ref.Resolution = res
	s.resolved(ctx, ref)
	return res, nil
}

// resolved runs the after-commit effects of a new resolution
func (s *Svc) resolved(ctx context.Context, ref domain.Referral) {
	res := ref.Resolution
	metrics.Resolutions.WithLabelValues(string(res.Status)).Inc()
	logger.C(ctx).Info().Str("status", string(res.Status)).Str("reason", res.Reason).Msg("referral resolved")
	s.record(ctx, auditdomain.Entry{
		At:         res.ResolvedAt,
		Event:      auditdomain.EventResolved,
		BatchID:    ref.BatchID,
		ReferralID: ref.ID,
		OffenderNo: ref.Subject.OffenderNo(),
		Status:     string(res.Status),
		Reason:     res.Reason,
		CheckIDs:   res.RetainedBy,
	})
	if res.Status == domain.DeletionGranted {
		_ = s.publishGrant(ctx, ref)
	}
}

// publishGrant announces a deletion grant and stamps published_at. A failure
// leaves published_at empty for the sweeper
func (s *Svc) publishGrant(ctx context.Context, ref domain.Referral) error {
	g := ref.Grant()
	err := s.pub.Publish(ctx, s.cfg.Topics.DeletionGranted, g.OffenderNo,
		events.Headers(events.TypeDeletionGranted, ""), g)
	if err != nil {
		metrics.GrantPublishes.WithLabelValues("error").Inc()
		logger.C(ctx).Error().Err(err).Msg("deletion grant publish failed")
		return err
	}
	metrics.GrantPublishes.WithLabelValues("ok").Inc()

	at := s.cfg.Now()
	if err := s.repo().MarkPublished(ctx, ref.ID, at); err != nil {
		logger.C(ctx).Warn().Err(err).Msg("could not stamp grant publish time")
	}
	s.record(ctx, auditdomain.Entry{
		At:         at,
		Event:      auditdomain.EventGrantPublished,
		BatchID:    ref.BatchID,
		ReferralID: ref.ID,
		OffenderNo: g.OffenderNo,
		Status:     string(domain.DeletionGranted),
	})
	return nil
}

// MarkDeleted applies the external confirmation that a granted referral was
// physically deleted. Pending and retained referrals are a precondition
// error; an already deleted referral is returned unchanged
func (s *Svc) MarkDeleted(ctx context.Context, referralID int64) (domain.Resolution, error) {
	var (
		ref     domain.Referral
		changed bool
		at      time.Time
	)
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := repokit.MustBind(s.binder, q)
		var err error
		if ref, err = r.LockReferral(ctx, referralID); err != nil {
			return err
		}
		if ref.Pending() {
			return perr.Preconditionf("referral %d is still pending", referralID)
		}
		switch ref.Resolution.Status {
		case domain.Deleted:
			return nil
		case domain.Retained:
			return perr.Preconditionf("referral %d was retained and cannot be deleted", referralID)
		}
		at = s.cfg.Now()
		if changed, err = r.MarkDeleted(ctx, referralID, at); err != nil {
			return err
		}
		if !changed {
			return perr.Conflictf("referral %d changed while marking it deleted", referralID)
		}
		ref.Resolution.Status, ref.Resolution.DeletedAt = domain.Deleted, &at
		return nil
	})
	if err != nil {
		return domain.Resolution{}, err
	}

	ctx = logger.WithReferral(ctx, ref.ID, ref.Subject.OffenderNo())
	if !changed {
		logger.C(ctx).Debug().Msg("referral already deleted")
		return *ref.Resolution, nil
	}

	metrics.Resolutions.WithLabelValues(string(domain.Deleted)).Inc()
	logger.C(ctx).Info().Msg("referral marked deleted")
	s.record(ctx, auditdomain.Entry{
		At:         at,
		Event:      auditdomain.EventDeleted,
		BatchID:    ref.BatchID,
		ReferralID: ref.ID,
		OffenderNo: ref.Subject.OffenderNo(),
		Status:     string(domain.Deleted),
	})
	msg := events.DeletionComplete{ReferralID: ref.ID, OffenderNo: ref.Subject.OffenderNo(), DeletedAt: at}
	if err := s.pub.Publish(ctx, s.cfg.Topics.DeletionComplete, msg.OffenderNo,
		events.Headers(events.TypeDeletionComplete, ""), msg); err != nil {
		logger.C(ctx).Warn().Err(err).Msg("deletion complete publish failed")
	}
	return *ref.Resolution, nil
}

// RepublishGrants retries deletion grants whose publish never succeeded and
// returns how many went out
func (s *Svc) RepublishGrants(ctx context.Context) (int, error) {
	r := s.repo()
	ids, err := r.UnpublishedGrants(ctx, s.cfg.RepublishLimit)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, id := range ids {
		ref, err := r.GetReferral(ctx, id)
		if err != nil {
			logger.C(ctx).Warn().Err(err).Int64("referral_id", id).Msg("cannot load granted referral")
			continue
		}
		if ref.Pending() || ref.Resolution.Status != domain.DeletionGranted || ref.Resolution.PublishedAt != nil {
			continue
		}
		if err := s.publishGrant(logger.WithReferral(ctx, ref.ID, ref.Subject.OffenderNo()), ref); err == nil {
			sent++
		}
	}
	return sent, nil
}
