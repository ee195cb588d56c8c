package optimizer

import (
	"math"

	"github.com/aqualedger/aqualedger/pkg/types"
)

// SolveAllocation finds the cheapest day/night split of one day's water
// subject to x1+x2 <= dailyCap and dayPrice*x1 + nightPrice*x2 <= dailyBudget.
//
// Both constraints are linear in two variables so the optimum is read off
// directly: whenever night is at least as expensive as day the minimizer puts
// everything in the day period and only the tighter of the two caps matters.
// Negative caps are treated as zero. Liters are rounded to one decimal and
// cost to two.
func SolveAllocation(dailyCap, dailyBudget, dayPrice, nightPrice float64) types.AllocationResult {
	capL := math.Max(0, dailyCap)
	budget := math.Max(0, dailyBudget)

	var x1 float64
	switch {
	case nightPrice <= dayPrice:
		if dayPrice > 0 {
			x1 = math.Min(capL, budget/dayPrice)
		}
	case dayPrice <= 0:
		return types.AllocationResult{}
	case budget >= dayPrice*capL:
		x1 = capL
	default:
		x1 = budget / dayPrice
	}

	return types.AllocationResult{
		DayLiters:   roundTo(x1, 1),
		NightLiters: 0,
		MinCost:     roundTo(x1*dayPrice, 2),
	}
}
