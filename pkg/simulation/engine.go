package simulation

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/aqualedger/aqualedger/pkg/ledger"
	"github.com/aqualedger/aqualedger/pkg/log"
	"github.com/aqualedger/aqualedger/pkg/optimizer"
	"github.com/aqualedger/aqualedger/pkg/report"
	"github.com/aqualedger/aqualedger/pkg/tariff"
	"github.com/aqualedger/aqualedger/pkg/types"
)

const (
	DefaultMetricsWindowHours = 168
	DefaultReportWindowHours  = 672
)

// Options tunes an Engine. Zero values take the defaults.
type Options struct {
	CycleHours         int
	MetricsWindowHours int
	ReportWindowHours  int
	// Now is used for tick timestamps; defaults to time.Now.
	Now func() time.Time
}

// Engine owns the series, its cursor, the session, the manual ledger and the
// budget target. Every exported method holds the engine lock for its whole
// duration so cursor and session always move together.
type Engine struct {
	mu sync.Mutex

	series  *Series
	session Session
	ledger  *ledger.Ledger
	target  types.BudgetTarget
	tariff  *tariff.Tariff

	cycleHours    int
	metricsWindow int
	reportWindow  int
	now           func() time.Time

	latestReport []string
	// manualReport is nil when it needs regenerating
	manualReport []string
}

// NewEngine loads samples into a fresh engine with the default budget target.
func NewEngine(samples []types.UsageSample, t *tariff.Tariff, opts Options) *Engine {
	e := &Engine{}
	e.init(samples, t, opts)
	return e
}

func (e *Engine) init(samples []types.UsageSample, t *tariff.Tariff, opts Options) {
	e.series = NewSeries(samples)
	e.ledger = ledger.New()
	e.target = types.DefaultBudgetTarget()
	e.tariff = t
	e.cycleHours = opts.CycleHours
	e.metricsWindow = opts.MetricsWindowHours
	e.reportWindow = opts.ReportWindowHours
	e.now = opts.Now
	if e.cycleHours <= 0 {
		e.cycleHours = optimizer.DefaultCycleHours
	}
	if e.metricsWindow <= 0 {
		e.metricsWindow = DefaultMetricsWindowHours
	}
	if e.reportWindow <= 0 {
		e.reportWindow = DefaultReportWindowHours
	}
	if e.now == nil {
		e.now = time.Now
	}
}

// Snapshot is the persisted part of the engine.
type Snapshot struct {
	Target  types.BudgetTarget
	Cursor  int
	Session types.SessionState
	Entries map[string]types.ManualEntry
	Report  []string
}

// Restore loads a previously persisted snapshot. Invalid manual entries are
// skipped and returned.
func (e *Engine) Restore(ctx context.Context, snap Snapshot) []error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if snap.Target.MonthlyBudget > 0 {
		e.target = snap.Target
	}
	e.series.Seek(snap.Cursor)
	if !e.session.Restore(snap.Session) {
		log.Ctx(ctx).WarnContext(ctx, "discarding invalid persisted session", slog.Any("session", snap.Session))
	}
	errs := e.ledger.Replace(snap.Entries)
	e.manualReport = nil
	if len(snap.Report) > 0 {
		e.latestReport = append([]string(nil), snap.Report...)
	}
	return errs
}

// Snapshot returns the state worth persisting.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		Target:  e.target,
		Cursor:  e.series.Cursor(),
		Session: e.session.State(),
		Entries: e.ledger.Entries(),
		Report:  append([]string(nil), e.latestReport...),
	}
}

func (e *Engine) Tariff() *tariff.Tariff {
	return e.tariff
}

func (e *Engine) CycleHours() int {
	return e.cycleHours
}

func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.series.Len()
}

func (e *Engine) Cursor() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.series.Cursor()
}

func (e *Engine) Session() types.SessionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.State()
}

func (e *Engine) Target() types.BudgetTarget {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.target
}

// Window returns the hours samples ending at the cursor.
func (e *Engine) Window(hours int) []types.UsageSample {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.series.Window(hours)
}

func (e *Engine) advanceLocked(ctx context.Context, hours int) (float64, float64) {
	if e.series.Len() == 0 || hours <= 0 {
		return 0, 0
	}
	usage, cost := e.series.Advance(hours, e.tariff)
	e.session.Add(hours, usage, cost)
	log.Ctx(ctx).DebugContext(
		ctx,
		"advanced series",
		slog.Int("hours", hours),
		slog.Int("cursor", e.series.Cursor()),
		slog.Float64("usage", usage),
		slog.Float64("cost", cost),
	)
	return usage, cost
}

// Advance moves the cursor forward and adds what it passed to the session.
// It is a no-op on an empty series.
func (e *Engine) Advance(ctx context.Context, hours int) (usage, cost float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.advanceLocked(ctx, hours)
}

// Tick steps one hour. When the step lands on a cycle boundary the system
// report is regenerated.
func (e *Engine) Tick(ctx context.Context) TickResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tickLocked(ctx)
}

func (e *Engine) tickLocked(ctx context.Context) TickResult {
	if e.series.Len() == 0 {
		return TickResult{Window: []types.UsageSample{}}
	}
	res := e.series.Tick(e.now(), e.tariff)
	e.session.Add(1, res.Usage, res.Cost)
	if res.CycleCompleted {
		log.Ctx(ctx).InfoContext(ctx, "cycle completed on tick", slog.Any("session", e.session.State()))
		e.regenerateReportLocked()
	}
	return res
}

// CycleSummary is what a finished cycle leaves behind, captured under the same
// lock as the step that finished it.
type CycleSummary struct {
	HoursAdvanced int
	Report        []string
	Session       types.SessionState
	Stats         types.PeriodStats
}

func (e *Engine) cycleSummaryLocked(hours int) *CycleSummary {
	return &CycleSummary{
		HoursAdvanced: hours,
		Report:        append([]string(nil), e.latestReport...),
		Session:       e.session.State(),
		Stats:         e.metricsLocked(),
	}
}

// StreamTick ticks and enriches the window for live presentation. The summary
// is nil unless the tick completed a cycle.
func (e *Engine) StreamTick(ctx context.Context) (types.StreamFrame, *CycleSummary) {
	e.mu.Lock()
	defer e.mu.Unlock()

	res := e.tickLocked(ctx)
	ref := e.target.ReferenceUsage
	points := make([]types.StreamPoint, len(res.Window))
	for i, s := range res.Window {
		status := types.StreamStatusEqual
		switch {
		case s.UsageLiters > ref:
			status = types.StreamStatusHigh
		case s.UsageLiters < ref:
			status = types.StreamStatusLow
		}
		var manual float64
		if entry, ok := e.ledger.Get(s.Timestamp.Format(ledger.DateLayout)); ok {
			manual = entry.Total / 24
		}
		points[i] = types.StreamPoint{
			Timestamp:   s.Timestamp,
			UsageLiters: s.UsageLiters,
			Cost:        e.tariff.Cost(s.UsageLiters, s.Timestamp.Hour()),
			Status:      status,
			Reference:   ref,
			ManualUsage: manual,
		}
	}
	frame := types.StreamFrame{
		Points:         points,
		CycleCompleted: res.CycleCompleted,
		Session:        e.session.State(),
	}
	if !res.CycleCompleted {
		return frame, nil
	}
	return frame, e.cycleSummaryLocked(1)
}

// CompleteCurrentPeriod advances to the next cycle boundary, regenerates the
// system report and returns the hours advanced. A session already sitting on
// a boundary advances a full cycle.
func (e *Engine) CompleteCurrentPeriod(ctx context.Context) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.completeLocked(ctx)
}

// SkipCycle completes the current period and summarizes it. The summary is
// nil for an empty series.
func (e *Engine) SkipCycle(ctx context.Context) *CycleSummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.series.Len() == 0 {
		return nil
	}
	return e.cycleSummaryLocked(e.completeLocked(ctx))
}

func (e *Engine) completeLocked(ctx context.Context) int {
	if e.series.Len() == 0 {
		return 0
	}
	remaining := e.session.HoursToCompleteCycle(e.cycleHours)
	e.advanceLocked(ctx, remaining)
	e.regenerateReportLocked()
	log.Ctx(ctx).InfoContext(ctx, "completed current period", slog.Int("hoursAdvanced", remaining))
	return remaining
}

// ResetSession zeroes the session. The ledger and cursor are untouched.
func (e *Engine) ResetSession(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.Reset()
	log.Ctx(ctx).InfoContext(ctx, "session reset")
}

// StartNewPeriod resets the session and replaces the report with a single
// placeholder line.
func (e *Engine) StartNewPeriod(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.Reset()
	e.latestReport = []string{report.NewPeriodLine}
	log.Ctx(ctx).InfoContext(ctx, "started new period")
}

// RecordManualEntry validates and stores a day of manual usage.
func (e *Engine) RecordManualEntry(ctx context.Context, date string, total, night float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ledger.Record(date, total, night); err != nil {
		return err
	}
	e.manualReport = nil
	log.Ctx(ctx).DebugContext(ctx, "recorded manual entry", slog.String("date", date), slog.Float64("total", total), slog.Float64("night", night))
	return nil
}

// DeleteManualEntry reports whether an entry existed for date.
func (e *Engine) DeleteManualEntry(ctx context.Context, date string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ledger.Delete(date) {
		return false
	}
	e.manualReport = nil
	log.Ctx(ctx).DebugContext(ctx, "deleted manual entry", slog.String("date", date))
	return true
}

func (e *Engine) ManualEntries() map[string]types.ManualEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Entries()
}

func positiveAmount(field string, amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return &types.ValidationError{Field: field, Reason: "must be greater than zero"}
	}
	return nil
}

// SetBudget sets the monthly budget and derives the water limit and reference
// usage from it, ending any independent limit override.
func (e *Engine) SetBudget(ctx context.Context, amount float64) error {
	if err := positiveAmount("budget", amount); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.target.MonthlyBudget = amount
	if day := e.tariff.DayPrice(); day > 0 {
		e.target.MonthlyWaterLimit = amount / day
		e.target.ReferenceUsage = e.target.MonthlyWaterLimit / types.HoursPerBillingMonth
	}
	e.target.LimitOverride = false
	e.manualReport = nil
	log.Ctx(ctx).InfoContext(ctx, "budget set", slog.Float64("budget", amount), slog.Float64("waterLimit", e.target.MonthlyWaterLimit))
	return nil
}

// SetWaterLimit sets the monthly limit independently of the budget.
func (e *Engine) SetWaterLimit(ctx context.Context, amount float64) error {
	if err := positiveAmount("limit", amount); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.target.MonthlyWaterLimit = amount
	e.target.ReferenceUsage = amount / types.HoursPerBillingMonth
	e.target.LimitOverride = true
	e.manualReport = nil
	log.Ctx(ctx).InfoContext(ctx, "water limit set", slog.Float64("waterLimit", amount))
	return nil
}

// Metrics builds the dashboard payload from the metrics window. A session
// that has not started yet is treated as one hour old.
func (e *Engine) Metrics() types.PeriodStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.metricsLocked()
}

func (e *Engine) metricsLocked() types.PeriodStats {
	session := e.session.State()
	session.HoursElapsed = max(1, session.HoursElapsed)
	return optimizer.PeriodStats(optimizer.PeriodInput{
		Window:     e.series.Window(e.metricsWindow),
		Session:    session,
		Manual:     e.ledger.Totals(e.tariff),
		Target:     e.target,
		Tariff:     e.tariff,
		CycleHours: e.cycleHours,
	})
}

func (e *Engine) reportInput() report.Input {
	return report.Input{
		Tariff:     e.tariff,
		Budget:     e.target.MonthlyBudget,
		WaterLimit: e.target.MonthlyWaterLimit,
	}
}

func (e *Engine) regenerateReportLocked() {
	e.latestReport = report.System(e.series.Window(e.reportWindow), e.reportInput())
}

// RegenerateReport rebuilds the system report from the report window.
func (e *Engine) RegenerateReport() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.regenerateReportLocked()
	return append([]string(nil), e.latestReport...)
}

// LatestReport is the last generated system report, or nil if none exists.
func (e *Engine) LatestReport() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.latestReport == nil {
		return nil
	}
	return append([]string(nil), e.latestReport...)
}

// ManualReport returns the manual ledger report, rebuilding it only after the
// entries or the target changed.
func (e *Engine) ManualReport() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.manualReport == nil {
		e.manualReport = report.Manual(e.ledger.Recent(report.ManualDays), e.reportInput())
	}
	return append([]string(nil), e.manualReport...)
}
