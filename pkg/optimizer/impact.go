package optimizer

import (
	"math"

	"github.com/aqualedger/aqualedger/pkg/types"
)

const (
	// kg of CO2 per cubic meter of treated water
	co2PerCubicMeter = 0.3
	// kg of CO2 a tree absorbs over the same period
	co2PerTree = 1.6
	// liters that count as a 100% contribution
	contributionLiters = 30000.0
)

// SustainableImpact expresses water saved against the monthly limit in
// environmental terms. A negative savedLiters means the limit was exceeded.
func SustainableImpact(savedLiters, budgetBenefit float64) types.SustainableImpact {
	co2 := savedLiters / 1000 * co2PerCubicMeter
	trees := math.Abs(co2) / co2PerTree
	pct := savedLiters / contributionLiters * 100

	return types.SustainableImpact{
		Percentage: clamp(pct, -100, 100),
		Trees:      roundTo(trees, 2),
		Water:      roundTo(savedLiters, 1),
		Benefit:    roundTo(budgetBenefit, 2),
		IsSaving:   savedLiters >= 0,
	}
}
