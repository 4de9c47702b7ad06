package service

import (
	"context"

	"datacompliance/internal/platform/bus"
	"datacompliance/internal/services/events"
)

// HandleComplete applies a PendingDeletionsComplete message
func (s *Svc) HandleComplete(ctx context.Context, m bus.Message) error {
	in, err := bus.Decode[events.PendingDeletionsComplete](m)
	if err != nil {
		return err
	}
	_, err = s.CompleteBatch(ctx, in.BatchID, in.NumberReferred, in.TotalInWindow)
	return err
}
