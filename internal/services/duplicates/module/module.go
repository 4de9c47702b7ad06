// Package module wires image duplicate detection and exposes its ports
package module

import (
	"net/http"

	"datacompliance/internal/adapters/faceindex"
	"datacompliance/internal/modkit"
	"datacompliance/internal/modkit/httpkit"
	duphttp "datacompliance/internal/services/duplicates/http"
	"datacompliance/internal/services/duplicates/repo"
	"datacompliance/internal/services/duplicates/service"
)

// Module defines the duplicates module
type Module struct {
	built modkit.Built
	svc   *service.Svc
	ports Ports
}

// New constructs the duplicates module. Without an Index override it talks to
// the similarity index configured by FACEINDEX_*
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) *Module {
	o := FromConfig(deps.Cfg)
	if overrides.Threshold != 0 {
		o.Threshold = overrides.Threshold
	}
	if overrides.MinImages != 0 {
		o.MinImages = overrides.MinImages
	}
	index := overrides.Index
	if index == nil {
		index = faceindex.NewClient(faceindex.OptionsFromConfig(deps.Cfg))
	}

	svc := service.New(deps.PG, repo.NewPG(), index, service.Config{
		Threshold: o.Threshold,
		MinImages: o.MinImages,
		Now:       deps.Clock(),
	})

	m := &Module{
		built: modkit.Build(append([]modkit.Option{modkit.WithName("duplicates"), modkit.WithPrefix("/offenders")}, opts...)...),
		svc:   svc,
	}
	m.ports = Ports{Detector: svc, Indexer: svc}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return m.built.Name }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Middlewares returns the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.built.Mw }

// MountRoutes mounts image registration under /offenders
func (m *Module) MountRoutes(r httpkit.Router) {
	m.built.Mount(r, func(sub httpkit.Router) { duphttp.Register(sub, m.svc) })
}
