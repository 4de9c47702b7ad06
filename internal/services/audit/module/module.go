// Package module wires the decision ledger and exposes its ports
package module

import (
	"net/http"

	"datacompliance/internal/modkit"
	"datacompliance/internal/modkit/httpkit"
	audithttp "datacompliance/internal/services/audit/http"
	"datacompliance/internal/services/audit/repo"
	"datacompliance/internal/services/audit/service"
)

// Module defines the ledger module
type Module struct {
	built modkit.Built
	svc   *service.Svc
	ports Ports
}

// New constructs the ledger module. Without clickhouse the ledger is a no-op
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	o := FromConfig(deps.Cfg)

	var r repo.Repo
	if deps.CH != nil {
		r = repo.NewClickhouse(deps.CH)
	}
	svc := service.New(r, deps.Clock(), o.HistoryLimit)

	m := &Module{
		built: modkit.Build(append([]modkit.Option{modkit.WithName("audit"), modkit.WithPrefix("/decisions")}, opts...)...),
		svc:   svc,
	}
	m.ports = Ports{Ledger: svc, Setup: svc}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return m.built.Name }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Middlewares returns the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.built.Mw }

// MountRoutes mounts ledger history under /decisions
func (m *Module) MountRoutes(r httpkit.Router) {
	m.built.Mount(r, func(sub httpkit.Router) { audithttp.Register(sub, m.svc) })
}
