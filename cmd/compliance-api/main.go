// @title         Data Compliance API
// @version       0.1.0
// @description   Ops endpoints for the offender data retention engine
// @BasePath      /v1

// Command compliance-api serves the ops API: batch and referral inspection,
// manual retention instructions, image indexing and the decision ledger
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"datacompliance/internal/modkit/module"
	"datacompliance/internal/modkit/repokit"
	"datacompliance/internal/platform/bus"
	"datacompliance/internal/platform/config"
	"datacompliance/internal/platform/logger"
	phttp "datacompliance/internal/platform/net/http"
	"datacompliance/internal/platform/store"

	"datacompliance/internal/services/api"
	auditmod "datacompliance/internal/services/audit/module"
)

func main() {
	lo := logger.FromEnv()
	if lo.Service == "" {
		lo.Service = "compliance-api"
	}
	logger.Init(lo)
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := config.New()

	st, err := store.Open(ctx, store.ConfigFromEnv(root, "api"), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	repokit.MustGuard(ctx, st)

	busCfg := bus.ConfigFromEnv(root)
	producer, err := bus.NewProducer(busCfg)
	if err != nil {
		l.Panic().Err(err).Msg("bus.NewProducer failed")
	}
	defer func() {
		if err := producer.Close(); err != nil {
			l.Error().Err(err).Msg("failed to close producer")
		}
	}()

	// http server (reads API_PORT / API_ADDR)
	srv := phttp.NewServer(root)

	mods := api.Mount(srv.Router(), api.Options{
		Service: "compliance-api",
		Config:  root,
		Store:   st,
		Logger:  l,
		Bus:     producer,
		Topics:  busCfg.Topics,

		EnableDocs: root.Prefix("API_").MayBool("DOCS", true),
	})

	if err := module.MustPortsOf[auditmod.Ports](mods.Audit).Setup.EnsureSchema(ctx); err != nil {
		l.Panic().Err(err).Msg("audit ledger schema")
	}

	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
