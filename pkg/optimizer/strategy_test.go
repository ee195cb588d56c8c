package optimizer

import (
	"testing"

	"github.com/aqualedger/aqualedger/pkg/types"
	"github.com/stretchr/testify/assert"
)

func strategyFor(usageProjection, costProjection float64) types.StrategyResult {
	return ComputeStrategy(StrategyInput{
		System:        types.UsageTotals{UsageProjection: usageProjection, CostProjection: costProjection},
		Budget:        100,
		WaterLimit:    1000,
		DaysRemaining: 10,
		DayPrice:      0.1,
		NightPrice:    0.2,
	})
}

func TestComputeStrategyScore(t *testing.T) {
	t.Run("On Target", func(t *testing.T) {
		res := strategyFor(1000, 80)
		assert.Equal(t, 100.0, res.Score)
		assert.Equal(t, types.StrategyStatusExcellent, res.Status)
	})

	t.Run("Under Target Caps At 100", func(t *testing.T) {
		res := strategyFor(200, 10)
		assert.Equal(t, 100.0, res.Score)
		assert.Equal(t, types.StrategyStatusExcellent, res.Status)
	})

	t.Run("19 Percent Over", func(t *testing.T) {
		res := strategyFor(1190, 0)
		assert.InDelta(t, 81.0, res.Score, 1e-9)
		assert.Equal(t, types.StrategyStatusBalanced, res.Status)
	})

	t.Run("20 Percent Over Lands On Band Edge", func(t *testing.T) {
		res := strategyFor(1200, 0)
		assert.Equal(t, 80.0, res.Score)
		assert.Equal(t, types.StrategyStatusNeedsAttention, res.Status)
	})

	t.Run("50 Percent Over Is Critical", func(t *testing.T) {
		res := strategyFor(1500, 0)
		assert.Equal(t, 50.0, res.Score)
		assert.Equal(t, types.StrategyStatusCritical, res.Status)
	})

	t.Run("5 Percent Over Is Balanced", func(t *testing.T) {
		res := strategyFor(1050, 0)
		assert.Equal(t, 95.0, res.Score)
		assert.Equal(t, types.StrategyStatusBalanced, res.Status)
	})

	t.Run("60 Percent Over", func(t *testing.T) {
		res := strategyFor(1600, 0)
		assert.InDelta(t, 40.0, res.Score, 1e-9)
		assert.Equal(t, types.StrategyStatusCritical, res.Status)
	})

	t.Run("Cost Ratio Dominates", func(t *testing.T) {
		res := strategyFor(1000, 130)
		assert.InDelta(t, 70.0, res.Score, 1e-9)
		assert.Equal(t, types.StrategyStatusNeedsAttention, res.Status)
	})

	t.Run("Far Over Clamps At Zero", func(t *testing.T) {
		res := strategyFor(5000, 0)
		assert.Equal(t, 0.0, res.Score)
		assert.Equal(t, types.StrategyStatusCritical, res.Status)
	})

	t.Run("No Limits", func(t *testing.T) {
		res := ComputeStrategy(StrategyInput{DaysRemaining: 1})
		assert.Equal(t, 100.0, res.Score)
	})
}

func TestStatusForScore(t *testing.T) {
	assert.Equal(t, types.StrategyStatusExcellent, StatusForScore(120))
	assert.Equal(t, types.StrategyStatusExcellent, StatusForScore(95.1))
	assert.Equal(t, types.StrategyStatusBalanced, StatusForScore(95))
	assert.Equal(t, types.StrategyStatusBalanced, StatusForScore(80.1))
	assert.Equal(t, types.StrategyStatusNeedsAttention, StatusForScore(80))
	assert.Equal(t, types.StrategyStatusNeedsAttention, StatusForScore(50.1))
	assert.Equal(t, types.StrategyStatusCritical, StatusForScore(50))
	assert.Equal(t, types.StrategyStatusCritical, StatusForScore(-300))
}

func TestComputeStrategyTargets(t *testing.T) {
	in := StrategyInput{
		System:        types.UsageTotals{Usage: 300, Cost: 30, NightUsage: 50},
		Manual:        types.UsageTotals{Usage: 100, Cost: 10, NightUsage: 25},
		Budget:        100,
		WaterLimit:    1000,
		DaysRemaining: 4,
		DayPrice:      0.1,
		NightPrice:    0.2,
	}

	t.Run("Daily Targets", func(t *testing.T) {
		res := ComputeStrategy(in)
		assert.InDelta(t, 150.0, res.DailyWaterTarget, 1e-9)
		assert.InDelta(t, 15.0, res.DailyBudgetTarget, 1e-9)
		assert.InDelta(t, 7.5, res.PotentialSavings, 1e-9)
		assert.Equal(t, 4.0, res.DaysRemaining)
	})

	t.Run("Overspent Floors At Zero", func(t *testing.T) {
		over := in
		over.System.Usage = 5000
		over.System.Cost = 500
		res := ComputeStrategy(over)
		assert.Equal(t, 0.0, res.DailyWaterTarget)
		assert.Equal(t, 0.0, res.DailyBudgetTarget)
	})

	t.Run("No Days Left", func(t *testing.T) {
		none := in
		none.DaysRemaining = 0
		res := ComputeStrategy(none)
		assert.Equal(t, 0.0, res.DailyWaterTarget)
		assert.Equal(t, 0.0, res.DailyBudgetTarget)
	})
}
