// Package api composes the engine modules and mounts the ops API
package api

import (
	"context"
	"net/http"
	"time"

	"datacompliance/internal/core/version"
	"datacompliance/internal/platform/bus"
	"datacompliance/internal/platform/config"
	"datacompliance/internal/platform/logger"
	"datacompliance/internal/platform/metrics"
	phttp "datacompliance/internal/platform/net/http"
	"datacompliance/internal/platform/net/middleware"
	"datacompliance/internal/platform/store"

	"datacompliance/internal/modkit"
	"datacompliance/internal/modkit/httpkit"
	"datacompliance/internal/modkit/module"
	"datacompliance/internal/modkit/repokit"
	"datacompliance/internal/modkit/swaggerkit"

	auditmod "datacompliance/internal/services/audit/module"
	dupmod "datacompliance/internal/services/duplicates/module"
	evalmod "datacompliance/internal/services/evaluator/module"
	refmod "datacompliance/internal/services/referral/module"
	schedmod "datacompliance/internal/services/scheduler/module"
	scheddomain "datacompliance/internal/services/scheduler/domain"
)

// Options are the shared wiring inputs for every binary
type Options struct {
	// Service names the binary in health responses
	Service string

	Config config.Conf
	Store  *store.Store
	Logger *logger.Logger
	Bus    bus.Publisher
	Topics bus.Topics

	// Locker is only needed by the scheduler runner
	Locker scheddomain.Locker

	// Now overrides the clock for tests
	Now func() time.Time

	// EnableDocs mounts the Swagger UI and document under /docs
	EnableDocs bool
}

// Modules is the composed engine. Each module's ports are also registered
// under its name
type Modules struct {
	Scheduler  *schedmod.Module
	Referral   *refmod.Module
	Audit      *auditmod.Module
	Duplicates *dupmod.Module
	Evaluator  *evalmod.Module
}

// All returns the modules in mount order
func (m Modules) All() []module.Module {
	return []module.Module{m.Scheduler, m.Referral, m.Audit, m.Duplicates, m.Evaluator}
}

// Wire builds every module and connects the cross module ports: the audit
// ledger feeds the referral resolver and the image detector backs the
// evaluator's image check
func Wire(opt Options) Modules {
	deps := modkit.Deps{
		Cfg:    opt.Config,
		Bus:    opt.Bus,
		Topics: opt.Topics,
		Now:    opt.Now,
	}
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}
	if opt.Store != nil {
		deps.CH = opt.Store.CH
		if opt.Store.PG != nil {
			pg := opt.Config.Prefix("SERVICE_PGSQL_")
			deps.PG = repokit.WithBeginHooks(opt.Store.PG,
				repokit.LockTimeout(pg.MayDuration("LOCK_TIMEOUT", 5*time.Second)),
				repokit.StatementTimeout(pg.MayDuration("STATEMENT_TIMEOUT", 30*time.Second)),
			)
		}
	}

	audit := auditmod.New(deps)
	ledger := module.MustPortsOf[auditmod.Ports](audit).Ledger

	dups := dupmod.New(deps, dupmod.Options{})
	detector := module.MustPortsOf[dupmod.Ports](dups).Detector

	mods := Modules{
		Scheduler:  schedmod.New(deps, schedmod.Options{Lock: opt.Locker}),
		Referral:   refmod.New(deps, refmod.Options{Ledger: ledger}),
		Audit:      audit,
		Duplicates: dups,
		Evaluator:  evalmod.New(deps, evalmod.Options{Images: detector}),
	}
	for _, m := range mods.All() {
		module.Register(m.Name(), m.Ports())
	}
	logger.Named("api").Debug().Strs("modules", module.Names()).Msg("modules wired")
	return mods
}

// Mount wires the modules and mounts them under /v1, with health and
// metrics at the root
func Mount(r phttp.Router, opt Options) Modules {
	mods := Wire(opt)

	if origins := opt.Config.Prefix("API_").MayCSV("CORS_ORIGINS", nil); len(origins) > 0 {
		r.Use(middleware.CORS(middleware.CORSOptions{AllowedOrigins: origins, MaxAge: 300}))
	}

	r.Get("/healthz", health(opt.Store, version.Info(opt.Service)))
	r.Handle("/metrics", metrics.Handler())
	swaggerkit.Mount(r, opt.EnableDocs)

	httpkit.MountAPIV1(r, httpkit.CommonStack(), func(api httpkit.Router) {
		for _, m := range mods.All() {
			m.MountRoutes(api)
		}
	})
	return mods
}

type healthBody struct {
	Status string            `json:"status"`
	Error  string            `json:"error,omitempty"`
	Build  version.BuildInfo `json:"build"`
}

func health(st *store.Store, build version.BuildInfo) phttp.Handler {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := st.Guard(ctx); err != nil {
			phttp.JSON(w, http.StatusServiceUnavailable, healthBody{Status: "unavailable", Error: err.Error(), Build: build})
			return
		}
		phttp.JSON(w, http.StatusOK, healthBody{Status: "ok", Build: build})
	}
}
