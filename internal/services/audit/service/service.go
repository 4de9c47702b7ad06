// Package service contains the decision ledger workflows
package service

import (
	"context"
	"time"

	perr "datacompliance/internal/platform/errors"
	"datacompliance/internal/platform/logger"
	"datacompliance/internal/services/audit/domain"
	"datacompliance/internal/services/audit/repo"
)

// Service defines the ledger service contract
type Service interface {
	domain.LedgerPort
	domain.SetupPort
}

// Svc implements the ledger. A nil repo turns it into a no-op so the
// engine runs without clickhouse
type Svc struct {
	repo         repo.Repo
	now          func() time.Time
	historyLimit int
}

var _ Service = (*Svc)(nil)

// New constructs the ledger service; r may be nil
func New(r repo.Repo, now func() time.Time, historyLimit int) *Svc {
	if now == nil {
		now = time.Now
	}
	if historyLimit <= 0 {
		historyLimit = 100
	}
	return &Svc{repo: r, now: now, historyLimit: historyLimit}
}

// Enabled reports whether entries are persisted
func (s *Svc) Enabled() bool { return s.repo != nil }

// EnsureSchema creates the ledger table
func (s *Svc) EnsureSchema(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	return s.repo.EnsureSchema(ctx)
}

// Append stamps entries missing a time and writes them
func (s *Svc) Append(ctx context.Context, entries ...domain.Entry) error {
	if s.repo == nil || len(entries) == 0 {
		return nil
	}
	for i := range entries {
		if entries[i].At.IsZero() {
			entries[i].At = s.now().UTC()
		}
	}
	if err := s.repo.Append(ctx, entries); err != nil {
		logger.C(ctx).Error().Err(err).Int("entries", len(entries)).Msg("ledger append failed")
		return err
	}
	return nil
}

// History returns up to limit entries for offenderNo, newest first
func (s *Svc) History(ctx context.Context, offenderNo string, limit int) ([]domain.Entry, error) {
	if s.repo == nil {
		return nil, perr.Unavailablef("decision ledger is disabled")
	}
	if limit <= 0 || limit > s.historyLimit {
		limit = s.historyLimit
	}
	return s.repo.History(ctx, offenderNo, limit)
}
