package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/levenlabs/go-lflag"

	"github.com/aqualedger/aqualedger/pkg/ingest"
	"github.com/aqualedger/aqualedger/pkg/log"
	"github.com/aqualedger/aqualedger/pkg/optimizer"
	"github.com/aqualedger/aqualedger/pkg/tariff"
)

// Configured sets up an Engine from flags. The usage series is loaded from
// the CSV once flags are parsed; a missing file yields an empty series.
func Configured(t *tariff.Tariff) *Engine {
	csvPath := lflag.String("usage-csv", "data/usage.csv", "CSV file with timestamp and usage_liters columns")
	cycle := lflag.Duration("cycle-hours", optimizer.DefaultCycleHours*time.Hour, "Length of a billing cycle (e.g. 672h)")
	metricsWindow := lflag.Duration("metrics-window-hours", DefaultMetricsWindowHours*time.Hour, "Lookback used for dashboard metrics")
	reportWindow := lflag.Duration("report-window-hours", DefaultReportWindowHours*time.Hour, "Lookback used for cycle reports")

	e := &Engine{}
	lflag.Do(func() {
		ctx := context.Background()
		if *cycle < time.Hour {
			panic(fmt.Sprintf("cycle-hours must be at least 1h: %s", *cycle))
		}
		samples, err := ingest.LoadUsageFile(ctx, *csvPath)
		if err != nil {
			panic(fmt.Sprintf("failed to load usage series: %v", err))
		}
		e.init(samples, t, Options{
			CycleHours:         int(cycle.Hours()),
			MetricsWindowHours: int(metricsWindow.Hours()),
			ReportWindowHours:  int(reportWindow.Hours()),
		})
		log.Ctx(ctx).InfoContext(ctx, "engine configured",
			slog.Int("samples", e.series.Len()),
			slog.Int("cycleHours", e.cycleHours),
		)
	})
	return e
}
