package optimizer

import (
	"math"

	"github.com/aqualedger/aqualedger/pkg/types"
)

// StrategyInput is everything the scorer looks at.
type StrategyInput struct {
	System types.UsageTotals
	Manual types.UsageTotals

	Budget         float64
	WaterLimit     float64
	ReferenceUsage float64
	DaysRemaining  float64

	DayPrice   float64
	NightPrice float64
}

// StatusForScore labels an unclamped score. A score sitting exactly on a band
// edge falls into the band below.
func StatusForScore(score float64) types.StrategyStatus {
	switch {
	case score > 95:
		return types.StrategyStatusExcellent
	case score > 80:
		return types.StrategyStatusBalanced
	case score > 50:
		return types.StrategyStatusNeedsAttention
	default:
		return types.StrategyStatusCritical
	}
}

// usageScore is 100 when projections land exactly on target and loses a point
// for every percent either projection runs over. Being under does not help.
func usageScore(usageRatio, costRatio float64) float64 {
	return 100 - (math.Max(usageRatio, costRatio)-1.0)*100
}

// ComputeStrategy scores the period and derives daily targets for the days
// that are left.
func ComputeStrategy(in StrategyInput) types.StrategyResult {
	remainingBudget := in.Budget - (in.System.Cost + in.Manual.Cost)
	remainingWater := in.WaterLimit - (in.System.Usage + in.Manual.Usage)

	var dailyWater, dailyBudget float64
	if in.DaysRemaining > 0 {
		dailyWater = math.Max(0, remainingWater/in.DaysRemaining)
		dailyBudget = math.Max(0, remainingBudget/in.DaysRemaining)
	}

	nightUsage := in.System.NightUsage + in.Manual.NightUsage
	potentialSavings := nightUsage * (in.NightPrice - in.DayPrice)

	usageProjection := in.System.UsageProjection + in.Manual.UsageProjection
	costProjection := in.System.CostProjection + in.Manual.CostProjection

	usageRatio := 1.0
	if in.WaterLimit > 0 {
		usageRatio = usageProjection / in.WaterLimit
	}
	costRatio := 1.0
	if in.Budget > 0 {
		costRatio = costProjection / in.Budget
	}

	score := usageScore(usageRatio, costRatio)

	return types.StrategyResult{
		DailyWaterTarget:  roundTo(dailyWater, 1),
		DailyBudgetTarget: roundTo(dailyBudget, 2),
		PotentialSavings:  roundTo(potentialSavings, 2),
		Status:            StatusForScore(score),
		Score:             roundTo(clamp(score, 0, 100), 1),
		DaysRemaining:     roundTo(in.DaysRemaining, 1),
	}
}
