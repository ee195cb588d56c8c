package types

// HoursPerBillingMonth converts a monthly limit into an hourly reference.
const HoursPerBillingMonth = 720

// BudgetTarget is the monthly plan usage is measured against. Setting the
// budget recomputes the water limit; setting the limit decouples the two until
// the next budget change.
type BudgetTarget struct {
	MonthlyBudget     float64 `json:"monthlyBudget"`
	MonthlyWaterLimit float64 `json:"monthlyWaterLimit"`
	// ReferenceUsage is the baseline hourly usage in liters.
	ReferenceUsage float64 `json:"referenceUsage"`
	// LimitOverride is true while the water limit was set independently.
	LimitOverride bool `json:"limitOverride"`
}

const (
	DefaultMonthlyBudget     = 500.0
	DefaultMonthlyWaterLimit = 30000.0
	DefaultReferenceUsage    = 41.67
)

// DefaultBudgetTarget is used when nothing has been persisted yet.
func DefaultBudgetTarget() BudgetTarget {
	return BudgetTarget{
		MonthlyBudget:     DefaultMonthlyBudget,
		MonthlyWaterLimit: DefaultMonthlyWaterLimit,
		ReferenceUsage:    DefaultReferenceUsage,
	}
}
