package service

import (
	"context"
	"time"

	"datacompliance/internal/platform/logger"
	"datacompliance/internal/platform/metrics"
	"datacompliance/internal/services/referral/domain"
)

// Backlog reports batches and referrals open longer than the tolerance and
// exports the counts as gauges
func (s *Svc) Backlog(ctx context.Context) (domain.Backlog, error) {
	b, err := s.repo().Backlog(ctx, s.cfg.Now().Add(-s.cfg.BacklogTolerance), s.cfg.BacklogLimit)
	if err != nil {
		return domain.Backlog{}, err
	}
	b.Tolerance = s.cfg.BacklogTolerance
	if b.OpenBatchIDs == nil {
		b.OpenBatchIDs = []int64{}
	}
	if b.UnresolvedIDs == nil {
		b.UnresolvedIDs = []int64{}
	}
	metrics.SetBacklog(b.OpenBatches, b.UnresolvedReferrals)
	return b, nil
}

// RunMaintenance republishes unsent grants and refreshes the backlog gauges
// every tick until ctx is cancelled
func (s *Svc) RunMaintenance(ctx context.Context, every time.Duration) error {
	if every <= 0 {
		every = time.Minute
	}
	log := logger.Named("referral-maintenance")
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			s.sweep(ctx, log)
		}
	}
}

func (s *Svc) sweep(ctx context.Context, log *logger.Logger) {
	n, err := s.RepublishGrants(ctx)
	if err != nil {
		log.Error().Err(err).Msg("grant republish failed")
	} else if n > 0 {
		log.Info().Int("republished", n).Msg("deletion grants republished")
	}

	b, err := s.Backlog(ctx)
	if err != nil {
		log.Error().Err(err).Msg("backlog refresh failed")
		return
	}
	if b.OpenBatches > 0 || b.UnresolvedReferrals > 0 {
		log.Warn().
			Int("open_batches", b.OpenBatches).
			Int("unresolved_referrals", b.UnresolvedReferrals).
			Dur("tolerance", b.Tolerance).
			Msg("retention backlog")
	}
}
