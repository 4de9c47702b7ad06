// Package service implements image duplicate detection and its false positive gate
package service

import (
	"time"

	"datacompliance/internal/modkit/repokit"
	"datacompliance/internal/services/duplicates/domain"
	"datacompliance/internal/services/duplicates/repo"
)

// Service defines the duplicates service contract
type Service interface {
	domain.DetectorPort
	domain.IndexerPort
}

// Config carries the similarity knobs
type Config struct {
	// Threshold is the similarity percentage a search hit or a pairwise
	// comparison must reach
	Threshold float64
	// MinImages is how many uploads each offender needs before a match can be verified
	MinImages int
	Now       func() time.Time
}

// Svc implements the duplicates service
type Svc struct {
	binder repokit.Binder[repo.Repo]
	db     repokit.Queryer
	index  domain.FaceIndex
	cfg    Config
}

var _ Service = (*Svc)(nil)

// New constructs a duplicates service
func New(db repokit.Queryer, binder repokit.Binder[repo.Repo], index domain.FaceIndex, cfg Config) *Svc {
	if db == nil {
		panic("duplicates.Service requires a non nil Queryer")
	}
	if binder == nil {
		panic("duplicates.Service requires a non nil Repo binder")
	}
	if index == nil {
		panic("duplicates.Service requires a non nil FaceIndex")
	}
	if cfg.Threshold <= 0 || cfg.Threshold > 100 {
		cfg.Threshold = 90
	}
	if cfg.MinImages <= 0 {
		cfg.MinImages = 2
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Svc{binder: binder, db: db, index: index, cfg: cfg}
}

func (s *Svc) repo() repo.Repo { return repokit.MustBind(s.binder, s.db) }
