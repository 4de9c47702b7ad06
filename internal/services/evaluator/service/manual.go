package service

import (
	"context"

	perr "datacompliance/internal/platform/errors"
	"datacompliance/internal/platform/logger"
	"datacompliance/internal/services/evaluator/domain"
)

// GetManualRetention returns the instruction for an offender
func (s *Svc) GetManualRetention(ctx context.Context, offenderNo string) (domain.ManualRetention, error) {
	return s.repo().GetManualRetention(ctx, offenderNo)
}

// PutManualRetention creates or replaces the instruction for an offender
func (s *Svc) PutManualRetention(ctx context.Context, offenderNo string, in domain.ManualRetentionInput) (domain.ManualRetention, error) {
	if len(in.Reasons) == 0 {
		return domain.ManualRetention{}, perr.WithField(perr.Validationf("at least one reason is required"), "reasons")
	}
	m, err := s.repo().UpsertManualRetention(ctx, domain.ManualRetention{
		OffenderNo: offenderNo,
		Reasons:    in.Reasons,
		Comment:    in.Comment,
		UserID:     in.UserID,
		ModifiedAt: s.cfg.Now(),
	})
	if err != nil {
		return m, err
	}
	logger.C(ctx).Info().Str("offender_no", offenderNo).Int("version", m.Version).Strs("reasons", m.Reasons).Msg("manual retention saved")
	return m, nil
}

// DeleteManualRetention removes the instruction; deleting a missing one is NotFound
func (s *Svc) DeleteManualRetention(ctx context.Context, offenderNo string) error {
	ok, err := s.repo().DeleteManualRetention(ctx, offenderNo)
	if err != nil {
		return err
	}
	if !ok {
		return perr.NotFoundf("no manual retention for %s", offenderNo)
	}
	logger.C(ctx).Info().Str("offender_no", offenderNo).Msg("manual retention removed")
	return nil
}
