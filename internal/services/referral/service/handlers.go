package service

import (
	"context"

	"datacompliance/internal/platform/bus"
	"datacompliance/internal/services/events"
	"datacompliance/internal/services/referral/domain"
)

// HandlePendingDeletion applies a PendingDeletion message
func (s *Svc) HandlePendingDeletion(ctx context.Context, m bus.Message) error {
	in, err := bus.Decode[events.PendingDeletion](m)
	if err != nil {
		return err
	}
	_, err = s.IntakeReferral(ctx, in)
	return err
}

// HandleCheckResult applies a CheckResult message
func (s *Svc) HandleCheckResult(ctx context.Context, m bus.Message) error {
	in, err := bus.Decode[events.CheckResult](m)
	if err != nil {
		return err
	}
	_, err = s.ApplyResult(ctx, domain.OutcomeFrom(in))
	return err
}

// HandleExternalDeletion applies an ExternalDeletion message
func (s *Svc) HandleExternalDeletion(ctx context.Context, m bus.Message) error {
	in, err := bus.Decode[events.ExternalDeletion](m)
	if err != nil {
		return err
	}
	_, err = s.MarkDeleted(ctx, in.ReferralID)
	return err
}
