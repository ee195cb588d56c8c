package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/aqualedger/aqualedger/pkg/ingest"
	"github.com/aqualedger/aqualedger/pkg/log"
	"github.com/aqualedger/aqualedger/pkg/storage"
	"github.com/aqualedger/aqualedger/pkg/types"

	"github.com/levenlabs/go-lflag"
)

func main() {
	scenarioPath := lflag.String("scenario", "", "YAML scenario file. Empty uses the built-in four month scenario.")
	output := lflag.String("output", "data/usage.csv", "Path of the generated usage CSV")
	var seed int64
	lflag.JSON(&seed, "seed", seed, "Random seed. 0 uses the current time.")
	start := lflag.String("start", "", "Start date (YYYY-MM-DD) overriding the scenario. Empty uses the scenario start or today.")
	withManual := lflag.Bool("manual-entries", false, "Also write the scenario's manual entries to storage")
	s := storage.Configured()

	lflag.Configure()

	ctx := context.Background()
	defer s.Close()

	sc := ingest.DefaultScenario()
	if *scenarioPath != "" {
		var err error
		sc, err = ingest.LoadScenario(*scenarioPath)
		if err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to load scenario", slog.Any("error", err))
			os.Exit(1)
		}
	}
	if *start != "" {
		sc.Start = *start
		if err := sc.Validate(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "invalid start date", slog.Any("error", err))
			os.Exit(1)
		}
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	samples := sc.Generate(sc.StartTime(time.Now()), rng)

	if err := writeCSV(*output, samples); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to write usage csv", slog.Any("error", err))
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(
		ctx,
		"wrote usage series",
		slog.String("path", *output),
		slog.Int("samples", len(samples)),
		slog.Int("weeks", len(sc.Weeks)),
		slog.Int64("seed", seed),
	)

	if !*withManual {
		return
	}
	for _, e := range sc.Manual {
		entry := types.ManualEntry{Total: e.Total, Night: e.Night}
		if err := s.UpsertManualEntry(ctx, e.Date, entry); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to seed manual entry", slog.String("date", e.Date), slog.Any("error", err))
			os.Exit(1)
		}
	}
	log.Ctx(ctx).InfoContext(ctx, "seeded manual entries", slog.Int("count", len(sc.Manual)))
}

func writeCSV(path string, samples []types.UsageSample) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := ingest.WriteUsageCSV(f, samples); err != nil {
		f.Close()
		return fmt.Errorf("failed to write samples: %w", err)
	}
	return f.Close()
}
