package service

import (
	"context"
	"encoding/json"

	perr "datacompliance/internal/platform/errors"
	"datacompliance/internal/platform/logger"
	"datacompliance/internal/platform/metrics"
	"datacompliance/internal/services/events"
)

// Evaluate answers one check request. It returns nil when the kind is not
// served here or the outcome is not conclusive yet
func (s *Svc) Evaluate(ctx context.Context, req events.CheckRequested) (*events.CheckResult, error) {
	if !s.Handles(req.Kind) {
		return nil, nil
	}
	var (
		res *events.CheckResult
		err error
	)
	switch req.Kind {
	case events.CheckManualRetention:
		res, err = s.manualRetention(ctx, req)
	case events.CheckUnlawfullyAtLarge:
		res, err = s.unlawfullyAtLarge(ctx, req)
	case events.CheckImageDuplicate:
		res, err = s.imageDuplicates(ctx, req)
	}

	outcome := "inconclusive"
	switch {
	case err != nil:
		outcome = "error"
	case res != nil && res.Status == events.CheckRequired:
		outcome = "required"
	case res != nil:
		outcome = "not_required"
	}
	metrics.Evaluations.WithLabelValues(string(req.Kind), outcome).Inc()
	return res, err
}

func result(req events.CheckRequested, status events.CheckStatus, payload any) (*events.CheckResult, error) {
	res := &events.CheckResult{CheckID: req.CheckID, Kind: req.Kind, Status: status}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "encode %s payload", req.Kind)
		}
		res.Payload = b
	}
	return res, nil
}

func (s *Svc) manualRetention(ctx context.Context, req events.CheckRequested) (*events.CheckResult, error) {
	m, err := s.repo().GetManualRetention(ctx, req.Subject.OffenderNo)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return result(req, events.CheckNotRequired, nil)
	}
	if err != nil {
		return nil, err
	}
	return result(req, events.CheckRequired, m)
}

func (s *Svc) unlawfullyAtLarge(ctx context.Context, req events.CheckRequested) (*events.CheckResult, error) {
	match, err := s.CheckUnlawfullyAtLarge(ctx, req.Subject)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return result(req, events.CheckNotRequired, nil)
	}
	return result(req, events.CheckRequired, match)
}

func (s *Svc) imageDuplicates(ctx context.Context, req events.CheckRequested) (*events.CheckResult, error) {
	f, err := s.images.CheckImageDuplicates(ctx, req.Subject.OffenderNo)
	if err != nil {
		return nil, err
	}
	status, ok := f.Outcome()
	if !ok {
		logger.C(ctx).Info().
			Int64("check_id", req.CheckID).
			Str("offender_no", req.Subject.OffenderNo).
			Ints64("unverifiable", f.Unverifiable).
			Msg("image duplicates unverifiable, check left pending")
		return nil, nil
	}
	res, err := result(req, status, f)
	if err != nil {
		return nil, err
	}
	if status == events.CheckRequired {
		res.ImageDuplicateIDs = f.ConfirmedIDs()
	}
	return res, nil
}
