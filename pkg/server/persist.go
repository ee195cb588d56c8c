package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aqualedger/aqualedger/pkg/log"
	"github.com/aqualedger/aqualedger/pkg/simulation"
	"github.com/aqualedger/aqualedger/pkg/stream"
	"github.com/aqualedger/aqualedger/pkg/types"
)

// SaveState writes the target, cursor and session to storage. Failures are
// logged and counted, never returned, so the in-memory state stays the
// source of truth.
func (s *Server) SaveState(ctx context.Context) {
	snap := s.engine.Snapshot()
	settings := types.Settings{
		BudgetTarget: snap.Target,
		Cursor:       snap.Cursor,
		Session:      snap.Session,
	}
	if err := s.storage.SetSettings(ctx, settings, types.CurrentSettingsVersion); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to save settings", slog.Any("error", err))
		s.metrics.StorageError("settings")
	}
	s.metrics.SetSession(snap.Session)
}

func (s *Server) saveReport(ctx context.Context, lines []string) {
	if err := s.storage.SetLatestReport(ctx, lines); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to save report", slog.Any("error", err))
		s.metrics.StorageError("report")
	}
	if err := s.hub.Broadcast(ctx, stream.TypeReport, lines); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to broadcast report", slog.Any("error", err))
	}
}

// completeCycle persists everything a finished cycle produces: the fresh
// report, a history record scored against the target in effect, and state.
func (s *Server) completeCycle(ctx context.Context, sum *simulation.CycleSummary) {
	if sum.Report != nil {
		s.saveReport(ctx, sum.Report)
	}

	record := types.CycleRecord{
		CompletedAt: s.now().UTC(),
		Hours:       sum.Session.HoursElapsed,
		Usage:       sum.Session.UsageAccumulated,
		Cost:        sum.Session.CostAccumulated,
		Score:       sum.Stats.Strategy.Score,
		Status:      sum.Stats.Strategy.Status,
	}
	if err := s.storage.InsertCycle(ctx, record); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to insert cycle", slog.Any("error", err))
		s.metrics.StorageError("cycle")
	}
	log.Ctx(ctx).InfoContext(ctx, "cycle recorded",
		slog.Int("hours", record.Hours),
		slog.Float64("usage", record.Usage),
		slog.Float64("score", record.Score),
		slog.String("status", string(record.Status)),
	)
	s.SaveState(ctx)
}

// Tick advances the simulation one hour, broadcasts the enriched frame to
// websocket clients and persists cycle results when the step completed one.
func (s *Server) Tick(ctx context.Context) types.StreamFrame {
	frame, sum := s.engine.StreamTick(ctx)
	s.metrics.Tick(frame.CycleCompleted)
	s.metrics.SetSession(frame.Session)

	if err := s.hub.Broadcast(ctx, stream.TypeFrame, frame); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to broadcast frame", slog.Any("error", err))
	}
	s.metrics.SetStreamClients(s.hub.ClientCount())

	if sum != nil {
		s.completeCycle(ctx, sum)
	}
	return frame
}

// Restore loads persisted state into the engine. Settings older than the
// current version are migrated and written back. Invalid manual entries are
// logged and skipped.
func (s *Server) Restore(ctx context.Context) error {
	settings, version, err := s.storage.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	settings, migrated, err := types.MigrateSettings(settings, version)
	if err != nil {
		return fmt.Errorf("failed to migrate settings: %w", err)
	}
	if migrated {
		log.Ctx(ctx).InfoContext(ctx, "migrated settings", slog.Int("from", version), slog.Int("to", types.CurrentSettingsVersion))
		if err := s.storage.SetSettings(ctx, settings, types.CurrentSettingsVersion); err != nil {
			return fmt.Errorf("failed to save migrated settings: %w", err)
		}
	}

	entries, err := s.storage.GetManualEntries(ctx)
	if err != nil {
		return fmt.Errorf("failed to get manual entries: %w", err)
	}
	lines, err := s.storage.GetLatestReport(ctx)
	if err != nil {
		return fmt.Errorf("failed to get latest report: %w", err)
	}

	errs := s.engine.Restore(ctx, simulation.Snapshot{
		Target:  settings.BudgetTarget,
		Cursor:  settings.Cursor,
		Session: settings.Session,
		Entries: entries,
		Report:  lines,
	})
	for _, err := range errs {
		log.Ctx(ctx).WarnContext(ctx, "skipping invalid manual entry", slog.Any("error", err))
	}

	s.metrics.SetManualEntries(len(s.engine.ManualEntries()))
	s.metrics.SetSession(s.engine.Session())
	log.Ctx(ctx).InfoContext(ctx, "restored state",
		slog.Int("cursor", s.engine.Cursor()),
		slog.Int("manualEntries", len(entries)),
		slog.Int("skipped", len(errs)),
	)
	return nil
}
