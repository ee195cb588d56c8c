package optimizer

import (
	"testing"

	"github.com/aqualedger/aqualedger/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestSolveAllocation(t *testing.T) {
	tests := []struct {
		name                  string
		dailyCap, dailyBudget float64
		dayPrice, nightPrice  float64
		want                  types.AllocationResult
	}{
		{
			name:     "Cap Affordable",
			dailyCap: 1000, dailyBudget: 150, dayPrice: 0.09, nightPrice: 0.18,
			want: types.AllocationResult{DayLiters: 1000.0, NightLiters: 0, MinCost: 90.0},
		},
		{
			name:     "Budget Binds",
			dailyCap: 1000, dailyBudget: 45, dayPrice: 0.09, nightPrice: 0.18,
			want: types.AllocationResult{DayLiters: 500.0, NightLiters: 0, MinCost: 45.0},
		},
		{
			name:     "Free Water",
			dailyCap: 1000, dailyBudget: 45, dayPrice: 0, nightPrice: 0.18,
			want: types.AllocationResult{},
		},
		{
			name:     "Night Not Dearer",
			dailyCap: 100, dailyBudget: 5, dayPrice: 0.1, nightPrice: 0.1,
			want: types.AllocationResult{DayLiters: 50.0, MinCost: 5.0},
		},
		{
			name:     "Night Not Dearer Zero Price",
			dailyCap: 100, dailyBudget: 5, dayPrice: 0, nightPrice: 0,
			want: types.AllocationResult{},
		},
		{
			name:     "Negative Caps Clamp",
			dailyCap: -10, dailyBudget: -5, dayPrice: 0.09, nightPrice: 0.18,
			want: types.AllocationResult{},
		},
		{
			name:     "Rounding",
			dailyCap: 1000, dailyBudget: 10, dayPrice: 0.089705, nightPrice: 0.17941,
			want: types.AllocationResult{DayLiters: 111.5, MinCost: 10.0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SolveAllocation(tt.dailyCap, tt.dailyBudget, tt.dayPrice, tt.nightPrice)
			assert.InDelta(t, tt.want.DayLiters, got.DayLiters, 1e-9)
			assert.Equal(t, 0.0, got.NightLiters)
			assert.InDelta(t, tt.want.MinCost, got.MinCost, 1e-9)
		})
	}
}

func TestSolveAllocationConstraints(t *testing.T) {
	for _, budget := range []float64{0, 1, 10, 45, 89.99, 90, 200} {
		got := SolveAllocation(1000, budget, 0.09, 0.18)
		assert.LessOrEqual(t, got.DayLiters+got.NightLiters, 1000.0)
		assert.LessOrEqual(t, got.MinCost, budget+0.005)
		assert.GreaterOrEqual(t, got.DayLiters, 0.0)
	}
}
