package types

import (
	"time"
)

// UsageSample is one hour of metered water usage.
type UsageSample struct {
	Timestamp   time.Time `json:"timestamp"`
	UsageLiters float64   `json:"usageLiters"`
}

// SessionState tracks what has been consumed since the last explicit reset.
type SessionState struct {
	UsageAccumulated float64 `json:"usageAccumulated"`
	CostAccumulated  float64 `json:"costAccumulated"`
	HoursElapsed     int     `json:"hoursElapsed"`
}

// StreamStatus compares a single hour against the reference usage.
type StreamStatus string

const (
	StreamStatusHigh  StreamStatus = "high"
	StreamStatusLow   StreamStatus = "low"
	StreamStatusEqual StreamStatus = "equal"
)

// StreamPoint is a UsageSample enriched for live presentation.
type StreamPoint struct {
	Timestamp   time.Time    `json:"timestamp"`
	UsageLiters float64      `json:"usageLiters"`
	Cost        float64      `json:"cost"`
	Status      StreamStatus `json:"status"`
	Reference   float64      `json:"reference"`
	// ManualUsage is the manual ledger total for the displayed date spread
	// evenly over 24 hours.
	ManualUsage float64 `json:"manualUsage"`
}

// StreamFrame is one tick worth of stream output.
type StreamFrame struct {
	Points         []StreamPoint `json:"points"`
	CycleCompleted bool          `json:"cycleCompleted"`
	Session        SessionState  `json:"session"`
}

// CycleRecord is written each time a billing cycle completes.
type CycleRecord struct {
	CompletedAt time.Time      `json:"completedAt"`
	Hours       int            `json:"hours"`
	Usage       float64        `json:"usage"`
	Cost        float64        `json:"cost"`
	Score       float64        `json:"score"`
	Status      StrategyStatus `json:"status"`
}
