// Package module wires the referral service and exposes its ports
package module

import (
	"net/http"
	"time"

	"datacompliance/internal/modkit"
	"datacompliance/internal/modkit/httpkit"
	"datacompliance/internal/services/referral/domain"
	refhttp "datacompliance/internal/services/referral/http"
	"datacompliance/internal/services/referral/repo"
	"datacompliance/internal/services/referral/service"
)

// Module defines the referral module
type Module struct {
	built modkit.Built
	svc   *service.Svc
	ports Ports
	every time.Duration
}

// New constructs the referral module with its ports
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) *Module {
	o := FromConfig(deps.Cfg)
	if overrides.Kinds != nil {
		o.Kinds = overrides.Kinds
	}
	if overrides.BacklogTolerance != 0 {
		o.BacklogTolerance = overrides.BacklogTolerance
	}
	if overrides.BacklogLimit != 0 {
		o.BacklogLimit = overrides.BacklogLimit
	}
	if overrides.RepublishLimit != 0 {
		o.RepublishLimit = overrides.RepublishLimit
	}
	if overrides.MaintenanceEvery != 0 {
		o.MaintenanceEvery = overrides.MaintenanceEvery
	}

	svc := service.New(deps.PG, repo.NewPG(), deps.Bus, overrides.Ledger, service.Config{
		Policy:           domain.Policy{Kinds: o.Kinds, SkipImagesWithoutUploads: o.SkipImagesWithoutUploads},
		Topics:           deps.Topics,
		Now:              deps.Clock(),
		BacklogTolerance: o.BacklogTolerance,
		BacklogLimit:     o.BacklogLimit,
		RepublishLimit:   o.RepublishLimit,
	})

	m := &Module{
		built: modkit.Build(append([]modkit.Option{modkit.WithName("referral"), modkit.WithPrefix("/referrals")}, opts...)...),
		svc:   svc,
		every: o.MaintenanceEvery,
	}
	m.ports = Ports{Intake: svc, Aggregator: svc, Resolution: svc, Consumer: svc, Maintenance: svc}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return m.built.Name }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// MaintenanceEvery returns the configured sweep interval
func (m *Module) MaintenanceEvery() time.Duration { return m.every }

// Middlewares returns the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.built.Mw }

// MountRoutes mounts /referrals, /checks and /backlog
func (m *Module) MountRoutes(r httpkit.Router) {
	m.built.Mount(r, func(sub httpkit.Router) { refhttp.Register(sub, m.svc) })
	httpkit.MountUnder(r, "/checks", m.built.Mw, func(sub httpkit.Router) { refhttp.RegisterChecks(sub, m.svc) })
	httpkit.MountUnder(r, "/backlog", m.built.Mw, func(sub httpkit.Router) { refhttp.RegisterBacklog(sub, m.svc) })
}
