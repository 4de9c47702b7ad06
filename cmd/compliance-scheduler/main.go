// Command compliance-scheduler creates referral batches: one deletion window
// per cron tick, or a single batch on demand
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"datacompliance/internal/modkit/module"
	"datacompliance/internal/modkit/repokit"
	"datacompliance/internal/platform/bus"
	"datacompliance/internal/platform/config"
	"datacompliance/internal/platform/lock"
	"datacompliance/internal/platform/logger"
	"datacompliance/internal/platform/store"

	"datacompliance/internal/services/api"
	schedmod "datacompliance/internal/services/scheduler/module"
)

func main() {
	var (
		fMode     = flag.String("mode", "run", "scheduler mode: run | once | adhoc")
		fOffender = flag.String("offender", "", "offender number for -mode adhoc")
		fReason   = flag.String("reason", "", "reason recorded on the ad hoc batch")
	)
	flag.Parse()

	lo := logger.FromEnv()
	if lo.Service == "" {
		lo.Service = "compliance-scheduler"
	}
	logger.Init(lo)
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := config.New()

	st, err := store.Open(ctx, store.ConfigFromEnv(root, "scheduler"), store.WithLogger(*l))
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

	locker, err := lock.Open(ctx, lock.ConfigFromEnv(root))
	if err != nil {
		l.Panic().Err(err).Msg("lock.Open failed")
	}
	defer func() { _ = locker.Close() }()

	mods := api.Wire(api.Options{
		Service: "compliance-scheduler",
		Config:  root,
		Store:   st,
		Logger:  l,
		Bus:     producer,
		Topics:  busCfg.Topics,
		Locker:  locker,
	})
	ports := module.MustPortsOf[schedmod.Ports](mods.Scheduler)

	switch *fMode {
	case "run":
		if err := ports.Runner.Run(ctx); err != nil {
			l.Fatal().Err(err).Msg("scheduler stopped")
		}

	case "once":
		b, err := ports.Scheduler.ScheduleNext(ctx)
		if err != nil {
			l.Fatal().Err(err).Msg("schedule failed")
		}
		ev := l.Info().Int64("batch_id", b.ID)
		if b.WindowStart != nil && b.WindowEnd != nil {
			ev = ev.Time("window_start", *b.WindowStart).Time("window_end", *b.WindowEnd)
		}
		ev.Msg("batch scheduled")

	case "adhoc":
		if *fOffender == "" {
			l.Fatal().Msg("-mode adhoc requires -offender")
		}
		b, err := ports.Scheduler.ScheduleAdHoc(ctx, *fOffender, *fReason)
		if err != nil {
			l.Fatal().Err(err).Msg("ad hoc schedule failed")
		}
		l.Info().Int64("batch_id", b.ID).Str("offender_no", *fOffender).Msg("ad hoc batch scheduled")

	default:
		l.Fatal().Str("mode", *fMode).Msg("unknown -mode (expected: run | once | adhoc)")
	}
}
