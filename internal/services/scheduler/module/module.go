// Package module wires the scheduler service and exposes its ports
package module

import (
	"net/http"

	"datacompliance/internal/core/window"
	"datacompliance/internal/modkit"
	"datacompliance/internal/modkit/httpkit"
	schedhttp "datacompliance/internal/services/scheduler/http"
	"datacompliance/internal/services/scheduler/repo"
	"datacompliance/internal/services/scheduler/service"
)

// Module defines the scheduler module
type Module struct {
	deps  modkit.Deps
	built modkit.Built
	svc   *service.Svc
	ports Ports
}

// New constructs the scheduler module with its ports
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) *Module {
	o := FromConfig(deps.Cfg)
	if !overrides.InitialWindowStart.IsZero() {
		o.InitialWindowStart = overrides.InitialWindowStart
	}
	if overrides.WindowLength != 0 {
		o.WindowLength = overrides.WindowLength
	}
	if overrides.Limit != 0 {
		o.Limit = overrides.Limit
	}
	if overrides.Cron != "" {
		o.Cron = overrides.Cron
	}
	if overrides.LockKey != "" {
		o.LockKey = overrides.LockKey
	}
	if overrides.LockTTL != 0 {
		o.LockTTL = overrides.LockTTL
	}

	svc := service.New(deps.PG, repo.NewPG(), deps.Bus, overrides.Lock, service.Config{
		Window:  window.Config{InitialStart: o.InitialWindowStart, Length: o.WindowLength},
		Limit:   o.Limit,
		Topics:  deps.Topics,
		Now:     deps.Clock(),
		Cron:    o.Cron,
		LockKey: o.LockKey,
		LockTTL: o.LockTTL,
	})

	m := &Module{
		deps:  deps,
		built: modkit.Build(append([]modkit.Option{modkit.WithName("scheduler"), modkit.WithPrefix("/batches")}, opts...)...),
		svc:   svc,
	}
	m.ports = Ports{Scheduler: svc, Runner: svc, Consumer: svc}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return m.built.Name }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Middlewares returns the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.built.Mw }

// MountRoutes mounts the ad hoc batch endpoint under /batches
func (m *Module) MountRoutes(r httpkit.Router) {
	m.built.Mount(r, func(sub httpkit.Router) { schedhttp.Register(sub, m.svc) })
}
