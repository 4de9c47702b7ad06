// Package service implements the retention checks answered in process:
// manual retention, unlawfully at large and image duplicates
package service

import (
	"time"

	"datacompliance/internal/core/fuzzy"
	"datacompliance/internal/modkit/repokit"
	"datacompliance/internal/platform/bus"
	"datacompliance/internal/services/evaluator/domain"
	"datacompliance/internal/services/evaluator/repo"
	"datacompliance/internal/services/events"
)

// Service defines the evaluator service contract
type Service interface {
	domain.EvaluatorPort
	domain.ManualRetentionPort
	domain.ConsumerPort
}

// Config carries runtime knobs for the evaluators
type Config struct {
	Topics bus.Topics
	// NameThreshold is the fuzzy gate threshold for UAL candidates
	NameThreshold float64
	Now           func() time.Time
}

// Svc implements the evaluators
type Svc struct {
	binder repokit.Binder[repo.Repo]
	db     repokit.Queryer
	pub    bus.Publisher
	images domain.ImageChecker
	gate   fuzzy.Gate
	cfg    Config
}

var _ Service = (*Svc)(nil)

// New constructs the evaluator service. images may be nil, in which case
// image duplicate checks are left to another evaluator
func New(db repokit.Queryer, binder repokit.Binder[repo.Repo], pub bus.Publisher, images domain.ImageChecker, cfg Config) *Svc {
	if db == nil {
		panic("evaluator.Service requires a non nil Queryer")
	}
	if binder == nil {
		panic("evaluator.Service requires a non nil Repo binder")
	}
	if pub == nil {
		panic("evaluator.Service requires a non nil Publisher")
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Svc{binder: binder, db: db, pub: pub, images: images, gate: fuzzy.NewGate(cfg.NameThreshold), cfg: cfg}
}

func (s *Svc) repo() repo.Repo { return repokit.MustBind(s.binder, s.db) }

// Handles reports whether this process answers checks of kind k
func (s *Svc) Handles(k events.CheckKind) bool {
	switch k {
	case events.CheckManualRetention, events.CheckUnlawfullyAtLarge:
		return true
	case events.CheckImageDuplicate:
		return s.images != nil
	}
	return false
}
