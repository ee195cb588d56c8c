package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/levenlabs/go-llog"

	"github.com/aqualedger/aqualedger/pkg/log"
	"github.com/aqualedger/aqualedger/pkg/observability"
	"github.com/aqualedger/aqualedger/pkg/scheduler"
	"github.com/aqualedger/aqualedger/pkg/server"
	"github.com/aqualedger/aqualedger/pkg/simulation"
	"github.com/aqualedger/aqualedger/pkg/storage"
	"github.com/aqualedger/aqualedger/pkg/stream"
	"github.com/aqualedger/aqualedger/pkg/tariff"
)

func main() {
	// init packages
	t := tariff.Configured()
	e := simulation.Configured(t)
	s := storage.Configured()
	m := observability.NewMetrics()
	hub := stream.NewHub()

	// init server
	srv := server.Configured(e, s, hub, m)

	tickSchedule := lflag.String("tick-schedule", "", "Cron spec (with seconds) that advances the simulation one hour, e.g. @every 1s. Empty disables auto ticking.")
	snapshotSchedule := lflag.String("snapshot-schedule", "@every 1m", "Cron spec for persisting cursor and session. Empty disables.")

	// parse flags
	lflag.Configure()

	var level slog.Level
	// lflag automatically sets llog's level, but we need to set the slog level
	switch llog.GetLevel() {
	case llog.DebugLevel:
		level = slog.LevelDebug
	case llog.InfoLevel:
		level = slog.LevelInfo
	case llog.WarnLevel:
		level = slog.LevelWarn
	case llog.ErrorLevel:
		level = slog.LevelError
	default:
		panic(fmt.Errorf("unknown log level: %s", llog.GetLevel().String()))
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	log.SetDefaultLogLevel(level)
	slog.Debug("logger configured", slog.String("level", level.String()))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// If initialization inside lflag.Do failed, we wouldn't be here (panic).
	defer func() {
		if err := s.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close storage", "error", err)
		}
	}()

	if err := srv.Restore(ctx); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to restore state", "error", err)
		os.Exit(1)
	}

	sched := scheduler.New(ctx)
	if _, err := sched.Add("tick", *tickSchedule, func(ctx context.Context) { srv.Tick(ctx) }); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to schedule ticks", "error", err)
		os.Exit(1)
	}
	if _, err := sched.Add("snapshot", *snapshotSchedule, srv.SaveState); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to schedule snapshots", "error", err)
		os.Exit(1)
	}
	sched.Start()

	// Run will block until context is canceled or error happens
	runErr := srv.Run(ctx)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	sched.Stop(stopCtx)
	srv.SaveState(stopCtx)

	if runErr != nil {
		log.Ctx(ctx).ErrorContext(ctx, "server failed", "error", runErr)
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(ctx, "server exited cleanly")
}
