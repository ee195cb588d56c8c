package types

// AllocationResult is the cost minimizing day/night split for a single day.
type AllocationResult struct {
	DayLiters   float64 `json:"dayLiters"`
	NightLiters float64 `json:"nightLiters"`
	MinCost     float64 `json:"minCost"`
}

// StrategyStatus is the label attached to a strategy score.
type StrategyStatus string

const (
	StrategyStatusExcellent      StrategyStatus = "Excellent"
	StrategyStatusBalanced       StrategyStatus = "Balanced"
	StrategyStatusNeedsAttention StrategyStatus = "Needs Attention"
	StrategyStatusCritical       StrategyStatus = "Critical"
)

// StrategyResult is the health of the current period and the daily targets
// needed to finish it on plan.
type StrategyResult struct {
	DailyWaterTarget  float64        `json:"dailyWaterTarget"`
	DailyBudgetTarget float64        `json:"dailyBudgetTarget"`
	PotentialSavings  float64        `json:"potentialSavings"`
	Status            StrategyStatus `json:"status"`
	Score             float64        `json:"score"`
	DaysRemaining     float64        `json:"daysRemaining"`
}

// UsageTotals is the aggregate of a usage source (simulated or manual).
type UsageTotals struct {
	Usage           float64 `json:"usage"`
	Cost            float64 `json:"cost"`
	NightUsage      float64 `json:"nightUsage"`
	UsageProjection float64 `json:"usageProjection"`
	CostProjection  float64 `json:"costProjection"`
}

// UsageSummary is the dashboard view of a usage source.
type UsageSummary struct {
	TotalUsage      float64 `json:"totalUsage"`
	TotalCost       float64 `json:"totalCost"`
	Projection      float64 `json:"projection"`
	UsageProjection float64 `json:"usageProjection"`
	Weeks           float64 `json:"weeks"`
	Percent         float64 `json:"percent"`
	IsOver          bool    `json:"isOver"`
}

// DeltaAnalysis compares actual spending against the reference baseline.
// Positive values mean money was saved.
type DeltaAnalysis struct {
	WeeklyDelta        float64 `json:"weeklyDelta"`
	MonthlyDelta       float64 `json:"monthlyDelta"`
	ManualWeeklyDelta  float64 `json:"manualWeeklyDelta"`
	ManualMonthlyDelta float64 `json:"manualMonthlyDelta"`
}

// DailyPoint is one day on a usage chart.
type DailyPoint struct {
	Date  string  `json:"date"`
	Usage float64 `json:"usage"`
	Cost  float64 `json:"cost"`
}

// SustainableImpact translates saved water into environmental terms.
type SustainableImpact struct {
	Percentage float64 `json:"percentage"`
	Trees      float64 `json:"trees"`
	Water      float64 `json:"water"`
	Benefit    float64 `json:"benefit"`
	IsSaving   bool    `json:"isSaving"`
}

// PeriodStats is the metrics payload served to dashboards.
type PeriodStats struct {
	Budget         float64           `json:"budget"`
	WaterLimit     float64           `json:"waterLimit"`
	ReferenceUsage float64           `json:"referenceUsage"`
	SessionHours   int               `json:"sessionHours"`
	System         UsageSummary      `json:"system"`
	Manual         UsageSummary      `json:"manual"`
	Analysis       DeltaAnalysis     `json:"analysis"`
	SystemDaily    []DailyPoint      `json:"systemDaily"`
	ManualDaily    []DailyPoint      `json:"manualDaily"`
	Strategy       StrategyResult    `json:"strategy"`
	Allocation     AllocationResult  `json:"allocation"`
	Impact         SustainableImpact `json:"impact"`
	ManualImpact   SustainableImpact `json:"manualImpact"`
}
