// Package report renders the end of cycle summary as plain lines of text.
package report

import (
	"fmt"
	"math"

	"github.com/aqualedger/aqualedger/pkg/ledger"
	"github.com/aqualedger/aqualedger/pkg/optimizer"
	"github.com/aqualedger/aqualedger/pkg/tariff"
	"github.com/aqualedger/aqualedger/pkg/types"
)

const (
	hoursPerWeek      = 168
	weeksPerCycle     = 4
	daysPerMonth      = 30.0
	nightRatioWarning = 0.35

	NoSystemDataLine = "Not enough simulated data yet to build a report."
	NoManualDataLine = "No manual entries recorded yet."
	NewPeriodLine    = "A new period has started. The report will be ready when the cycle completes."
)

// Input carries the plan a report is measured against.
type Input struct {
	Tariff     *tariff.Tariff
	Budget     float64
	WaterLimit float64
}

func (in Input) allocationLines() []string {
	a := optimizer.SolveAllocation(in.WaterLimit/daysPerMonth, in.Budget/daysPerMonth, in.Tariff.DayPrice(), in.Tariff.NightPrice())
	return []string{
		"Allocation reference:",
		fmt.Sprintf("Daily day-rate usage: %.1f L", a.DayLiters),
		fmt.Sprintf("Daily night-rate usage: %.1f L", a.NightLiters),
		fmt.Sprintf("Daily minimum cost: %.2f", a.MinCost),
	}
}

func nightLine(night, total float64) string {
	var ratio float64
	if total > 0 {
		ratio = night / total
	}
	if ratio > nightRatioWarning {
		return fmt.Sprintf("Night share is %.0f%%. Moving night usage to the day rate is the quickest saving.", ratio*100)
	}
	return fmt.Sprintf("Night share is %.0f%%, which keeps the night rate under control.", ratio*100)
}

// System reports on a window of simulated usage, sliced into four weeks and
// compared against a quarter of the monthly limit each.
func System(window []types.UsageSample, in Input) []string {
	if len(window) == 0 {
		return []string{NoSystemDataLine}
	}

	target := in.WaterLimit / weeksPerCycle
	lines := []string{"Cycle summary:"}
	var totalUsage, totalCost float64
	for i := 0; i < weeksPerCycle; i++ {
		start := i * hoursPerWeek
		if start >= len(window) {
			lines = append(lines, fmt.Sprintf("Week %d: no data yet.", i+1))
			continue
		}
		end := min(start+hoursPerWeek, len(window))
		week := optimizer.WindowTotals(window[start:end], in.Tariff)
		totalUsage += week.Usage
		totalCost += week.Cost

		delta := target - week.Usage
		if delta < 0 {
			lines = append(lines, fmt.Sprintf("Week %d: %.0f L over the weekly target.", i+1, -delta))
		} else {
			lines = append(lines, fmt.Sprintf("Week %d: %.0f L under the weekly target.", i+1, delta))
		}
	}

	lines = append(lines, budgetLine(in.Budget-totalCost), waterLine(in.WaterLimit-totalUsage))
	lines = append(lines, in.allocationLines()...)

	night := optimizer.WindowTotals(window, in.Tariff).NightUsage
	lines = append(lines, nightLine(night, totalUsage))
	return lines
}

func budgetLine(delta float64) string {
	if delta > 0 {
		return fmt.Sprintf("Budget: %.2f left over.", delta)
	}
	return fmt.Sprintf("Budget: %.2f over the target.", math.Abs(delta))
}

func waterLine(delta float64) string {
	if delta > 0 {
		return fmt.Sprintf("Water: %.0f L saved against the limit.", delta)
	}
	return fmt.Sprintf("Water: %.0f L above the limit.", math.Abs(delta))
}

// ManualDays is how many of the latest manual entries a manual report covers.
const ManualDays = 7

// Manual reports on recent manual entries, normally the latest ManualDays of
// the ledger. recent must be sorted by date.
func Manual(recent []types.DatedEntry, in Input) []string {
	if len(recent) == 0 {
		return []string{NoManualDataLine}
	}
	latest := recent[len(recent)-1].Date
	totals := ledger.Summarize(recent, in.Tariff)

	weeklyUsage := in.WaterLimit / weeksPerCycle
	weeklyBudget := in.Budget / weeksPerCycle
	usageDiff := totals.Usage - weeklyUsage
	costDiff := totals.Cost - weeklyBudget

	lines := []string{
		"Manual usage summary:",
		fmt.Sprintf("Covers the last %d days up to %s.", totals.Days, latest),
	}
	if usageDiff > 0 {
		lines = append(lines, fmt.Sprintf("Usage: %.0f L over the weekly target.", usageDiff))
	} else {
		lines = append(lines, fmt.Sprintf("Usage: %.0f L under the weekly target.", math.Abs(usageDiff)))
	}
	usageStatus := "within the limit"
	if totals.UsageProjection > in.WaterLimit {
		usageStatus = "above the limit"
	}
	lines = append(lines, fmt.Sprintf("Monthly projection: about %.2f m3 (%s).", totals.UsageProjection/1000, usageStatus))

	if costDiff > 0 {
		lines = append(lines, fmt.Sprintf("Budget: %.2f over the weekly budget.", costDiff))
	} else {
		lines = append(lines, fmt.Sprintf("Budget: %.2f under the weekly budget.", math.Abs(costDiff)))
	}
	costStatus := "within budget"
	if totals.CostProjection > in.Budget {
		costStatus = "budget at risk"
	}
	lines = append(lines, fmt.Sprintf("Cost projection: about %.2f (%s).", totals.CostProjection, costStatus))

	lines = append(lines, in.allocationLines()...)
	lines = append(lines, nightLine(totals.NightUsage, totals.Usage))
	return lines
}
