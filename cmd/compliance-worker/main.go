// Command compliance-worker consumes the engine topics: referral intake,
// batch completion, check requests and results, and external deletions. It
// also runs the referral maintenance sweep
package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"datacompliance/internal/modkit/module"
	"datacompliance/internal/modkit/repokit"
	"datacompliance/internal/platform/bus"
	"datacompliance/internal/platform/config"
	"datacompliance/internal/platform/logger"
	"datacompliance/internal/platform/metrics"
	phttp "datacompliance/internal/platform/net/http"
	"datacompliance/internal/platform/store"

	"datacompliance/internal/services/api"
	evalmod "datacompliance/internal/services/evaluator/module"
	refmod "datacompliance/internal/services/referral/module"
	schedmod "datacompliance/internal/services/scheduler/module"
)

func main() {
	lo := logger.FromEnv()
	if lo.Service == "" {
		lo.Service = "compliance-worker"
	}
	logger.Init(lo)
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := config.New()

	st, err := store.Open(ctx, store.ConfigFromEnv(root, "worker"), store.WithLogger(*l))
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

	mods := api.Wire(api.Options{
		Service: "compliance-worker",
		Config:  root,
		Store:   st,
		Logger:  l,
		Bus:     producer,
		Topics:  busCfg.Topics,
	})
	ref := module.MustPortsOf[refmod.Ports](mods.Referral)
	sched := module.MustPortsOf[schedmod.Ports](mods.Scheduler)
	eval := module.MustPortsOf[evalmod.Ports](mods.Evaluator)

	t := busCfg.Topics
	handlers := map[string]bus.Handler{
		t.PendingDeletions:  ref.Consumer.HandlePendingDeletion,
		t.PendingComplete:   sched.Consumer.HandleComplete,
		t.CheckResults:      ref.Consumer.HandleCheckResult,
		t.ExternalDeletions: ref.Consumer.HandleExternalDeletion,
		t.CheckRequests:     eval.Consumer.HandleCheckRequest,
	}

	runs := make(map[*bus.Consumer]bus.Handler, len(handlers))
	for topic, h := range handlers {
		c, err := bus.NewConsumer(busCfg, topic, producer)
		if err != nil {
			l.Panic().Err(err).Str("topic", topic).Msg("bus.NewConsumer failed")
		}
		defer func() { _ = c.Close() }()
		runs[c] = h
	}

	// metrics listener (reads WORKER_API_PORT / WORKER_API_ADDR)
	srv := phttp.NewServer(root.Prefix("WORKER_"))
	srv.Router().Handle("/metrics", metrics.Handler())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := srv.Run(ctx); err != nil {
			l.Error().Err(err).Msg("metrics listener stopped")
		}
	}()
	go func() {
		defer wg.Done()
		if err := ref.Maintenance.RunMaintenance(ctx, mods.Referral.MaintenanceEvery()); err != nil {
			l.Error().Err(err).Msg("referral maintenance stopped")
		}
	}()

	l.Info().Int("consumers", len(runs)).Msg("worker started")
	err = bus.Group(ctx, runs)
	stop()
	wg.Wait()
	if err != nil {
		l.Fatal().Err(err).Msg("worker stopped")
	}
	l.Info().Msg("worker stopped")
}
