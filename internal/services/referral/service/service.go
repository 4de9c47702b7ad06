// Package service contains the retention check aggregator and the referral
// resolution state machine
package service

import (
	"context"
	"time"

	"datacompliance/internal/modkit/repokit"
	"datacompliance/internal/platform/bus"
	"datacompliance/internal/platform/logger"
	auditdomain "datacompliance/internal/services/audit/domain"
	"datacompliance/internal/services/referral/domain"
	"datacompliance/internal/services/referral/repo"
)

// Service defines the referral service contract
type Service interface {
	domain.IntakePort
	domain.AggregatorPort
	domain.ResolutionPort
	domain.ConsumerPort
	domain.MaintenancePort
}

// Config carries runtime knobs for the aggregator
type Config struct {
	Policy domain.Policy
	Topics bus.Topics
	Now    func() time.Time

	// BacklogTolerance is how long a batch or referral may stay open before it counts as backlog
	BacklogTolerance time.Duration
	BacklogLimit     int
	RepublishLimit   int
}

// Svc implements the referral service
type Svc struct {
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner
	pub    bus.Publisher
	ledger auditdomain.LedgerPort
	cfg    Config
}

var _ Service = (*Svc)(nil)

// New constructs a referral service. ledger may be nil
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], pub bus.Publisher, ledger auditdomain.LedgerPort, cfg Config) *Svc {
	if db == nil {
		panic("referral.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("referral.Service requires a non nil Repo binder")
	}
	if pub == nil {
		panic("referral.Service requires a non nil Publisher")
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.Policy.Kinds == nil {
		cfg.Policy = domain.DefaultPolicy()
	}
	if cfg.BacklogTolerance <= 0 {
		cfg.BacklogTolerance = 48 * time.Hour
	}
	if cfg.BacklogLimit <= 0 {
		cfg.BacklogLimit = 200
	}
	if cfg.RepublishLimit <= 0 {
		cfg.RepublishLimit = 100
	}
	return &Svc{binder: binder, db: db, pub: pub, ledger: ledger, cfg: cfg}
}

// repo binds outside any transaction for single statements
func (s *Svc) repo() repo.Repo { return repokit.MustBind(s.binder, s.db) }

// record appends to the ledger when one is configured. The ledger is
// advisory so failures are only logged
func (s *Svc) record(ctx context.Context, entries ...auditdomain.Entry) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.Append(ctx, entries...); err != nil {
		logger.C(ctx).Warn().Err(err).Msg("ledger append failed")
	}
}
