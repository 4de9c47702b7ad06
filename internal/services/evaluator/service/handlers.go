package service

import (
	"context"
	"strconv"

	"datacompliance/internal/platform/bus"
	"datacompliance/internal/platform/logger"
	"datacompliance/internal/services/events"
)

// HandleCheckRequest evaluates a check request of a locally served kind and
// publishes its result. Requests for other kinds are acknowledged untouched
func (s *Svc) HandleCheckRequest(ctx context.Context, m bus.Message) error {
	if k := m.Header(bus.HeaderCheckKind); k != "" && !s.Handles(events.CheckKind(k)) {
		return nil
	}
	req, err := bus.Decode[events.CheckRequested](m)
	if err != nil {
		return err
	}
	ctx = logger.WithReferral(logger.WithCheck(ctx, req.CheckID), req.ReferralID, req.Subject.OffenderNo)

	res, err := s.Evaluate(ctx, req)
	if err != nil || res == nil {
		return err
	}
	return s.pub.Publish(ctx, s.cfg.Topics.CheckResults, strconv.FormatInt(req.ReferralID, 10),
		events.Headers(events.TypeCheckResult, req.Kind), res)
}
