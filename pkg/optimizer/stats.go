package optimizer

import (
	"math"
	"sort"

	"github.com/aqualedger/aqualedger/pkg/ledger"
	"github.com/aqualedger/aqualedger/pkg/tariff"
	"github.com/aqualedger/aqualedger/pkg/types"
)

const (
	// DefaultCycleHours is the 28 day billing cycle.
	DefaultCycleHours = 672

	hoursPerMonth        = 720.0
	daysPerMonth         = 30.0
	weeksPerMonth        = 4.3
	minDaysRemaining     = 0.1
	noBudgetUsagePercent = 100.0
)

// PeriodInput is the state the dashboard metrics are derived from.
type PeriodInput struct {
	// Window is the recent slice of the series used for projections.
	Window  []types.UsageSample
	Session types.SessionState
	// Manual is the priced manual ledger, see ledger.Ledger.Totals.
	Manual  ledger.Totals
	Target  types.BudgetTarget
	Tariff  *tariff.Tariff

	// CycleHours defaults to DefaultCycleHours when zero.
	CycleHours int
}

// WindowTotals prices a window of samples at their own hours and projects the
// hourly average onto a 720 hour month.
func WindowTotals(window []types.UsageSample, t *tariff.Tariff) types.UsageTotals {
	var res types.UsageTotals
	for _, s := range window {
		hour := s.Timestamp.Hour()
		res.Usage += s.UsageLiters
		res.Cost += t.Cost(s.UsageLiters, hour)
		if t.IsNight(hour) {
			res.NightUsage += s.UsageLiters
		}
	}
	if n := len(window); n > 0 {
		res.UsageProjection = res.Usage / float64(n) * hoursPerMonth
		res.CostProjection = res.Cost / float64(n) * hoursPerMonth
	}
	return res
}

// DailyTotals groups a window by calendar date.
func DailyTotals(window []types.UsageSample, t *tariff.Tariff) []types.DailyPoint {
	byDate := make(map[string]*types.DailyPoint)
	for _, s := range window {
		date := s.Timestamp.Format(ledger.DateLayout)
		p, ok := byDate[date]
		if !ok {
			p = &types.DailyPoint{Date: date}
			byDate[date] = p
		}
		p.Usage += s.UsageLiters
		p.Cost += t.Cost(s.UsageLiters, s.Timestamp.Hour())
	}
	out := make([]types.DailyPoint, 0, len(byDate))
	for _, p := range byDate {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// DaysRemaining is the days left in the cycle, never less than a tenth of a day.
func DaysRemaining(sessionHours, cycleHours int) float64 {
	return math.Max(minDaysRemaining, float64(cycleHours-sessionHours)/24)
}

func summarize(usage, cost, usageProj, costProj, weeks, budget float64) types.UsageSummary {
	percent := noBudgetUsagePercent
	if budget > 0 {
		percent = costProj / budget * 100
	}
	return types.UsageSummary{
		TotalUsage:      usage,
		TotalCost:       cost,
		Projection:      costProj,
		UsageProjection: usageProj,
		Weeks:           roundTo(weeks, 1),
		Percent:         percent,
		IsOver:          costProj > budget,
	}
}

// PeriodStats builds the dashboard payload.
//
// System totals come from the session accumulator while projections come
// from the window. The strategy is scored against a water limit derived from
// the reference usage rather than the configured limit.
func PeriodStats(in PeriodInput) types.PeriodStats {
	cycle := in.CycleHours
	if cycle <= 0 {
		cycle = DefaultCycleHours
	}
	t := in.Tariff
	budget := in.Target.MonthlyBudget
	dayPrice := t.DayPrice()

	win := WindowTotals(in.Window, t)
	system := types.UsageTotals{
		Usage:           in.Session.UsageAccumulated,
		Cost:            in.Session.CostAccumulated,
		NightUsage:      win.NightUsage,
		UsageProjection: win.UsageProjection,
		CostProjection:  win.CostProjection,
	}
	manual := in.Manual

	sessionDays := math.Max(1, float64(in.Session.HoursElapsed)/24)
	dailyRef := in.Target.ReferenceUsage * 24

	weeklyDelta := dailyRef*sessionDays*dayPrice - (system.Cost + manual.Cost)
	manualDelta := dailyRef*float64(manual.Days)*dayPrice - manual.Cost
	var manualMonthlyDelta float64
	if manual.Days > 0 {
		manualMonthlyDelta = manualDelta * daysPerMonth / float64(manual.Days)
	}

	daysRemaining := DaysRemaining(in.Session.HoursElapsed, cycle)
	strategy := ComputeStrategy(StrategyInput{
		System:         system,
		Manual:         manual.UsageTotals,
		Budget:         budget,
		WaterLimit:     dailyRef * daysPerMonth,
		ReferenceUsage: in.Target.ReferenceUsage,
		DaysRemaining:  daysRemaining,
		DayPrice:       dayPrice,
		NightPrice:     t.NightPrice(),
	})

	limit := in.Target.MonthlyWaterLimit
	impact := SustainableImpact(
		limit-(system.UsageProjection+manual.UsageProjection),
		budget-(system.CostProjection+manual.CostProjection),
	)
	manualImpact := SustainableImpact(limit-manual.UsageProjection, budget-manual.CostProjection)

	return types.PeriodStats{
		Budget:         budget,
		WaterLimit:     limit,
		ReferenceUsage: in.Target.ReferenceUsage,
		SessionHours:   in.Session.HoursElapsed,
		System:         summarize(system.Usage, system.Cost, system.UsageProjection, system.CostProjection, sessionDays/7, budget),
		Manual:         summarize(manual.Usage, manual.Cost, manual.UsageProjection, manual.CostProjection, float64(manual.Days)/7, budget),
		Analysis: types.DeltaAnalysis{
			WeeklyDelta:        weeklyDelta,
			MonthlyDelta:       weeklyDelta * weeksPerMonth,
			ManualWeeklyDelta:  manualDelta,
			ManualMonthlyDelta: manualMonthlyDelta,
		},
		SystemDaily:  DailyTotals(in.Window, t),
		ManualDaily:  manual.Daily,
		Strategy:     strategy,
		Allocation:   SolveAllocation(limit/daysPerMonth, budget/daysPerMonth, dayPrice, t.NightPrice()),
		Impact:       impact,
		ManualImpact: manualImpact,
	}
}
