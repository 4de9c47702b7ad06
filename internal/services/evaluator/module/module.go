// Package module wires the local evaluators and exposes their ports
package module

import (
	"net/http"

	"datacompliance/internal/modkit"
	"datacompliance/internal/modkit/httpkit"
	evalhttp "datacompliance/internal/services/evaluator/http"
	"datacompliance/internal/services/evaluator/repo"
	"datacompliance/internal/services/evaluator/service"
)

// Module defines the evaluator module
type Module struct {
	built modkit.Built
	svc   *service.Svc
	ports Ports
}

// New constructs the evaluator module with its ports
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) *Module {
	o := FromConfig(deps.Cfg)
	if overrides.NameThreshold != 0 {
		o.NameThreshold = overrides.NameThreshold
	}

	svc := service.New(deps.PG, repo.NewPG(), deps.Bus, overrides.Images, service.Config{
		Topics:        deps.Topics,
		NameThreshold: o.NameThreshold,
		Now:           deps.Clock(),
	})

	m := &Module{
		built: modkit.Build(append([]modkit.Option{modkit.WithName("evaluator"), modkit.WithPrefix("/manual-retentions")}, opts...)...),
		svc:   svc,
	}
	m.ports = Ports{Evaluator: svc, ManualRetention: svc, Consumer: svc}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return m.built.Name }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Middlewares returns the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.built.Mw }

// MountRoutes mounts manual retention endpoints under /manual-retentions
func (m *Module) MountRoutes(r httpkit.Router) {
	m.built.Mount(r, func(sub httpkit.Router) { evalhttp.Register(sub, m.svc) })
}
