package simulation

import (
	"sort"
	"time"

	"github.com/aqualedger/aqualedger/pkg/tariff"
	"github.com/aqualedger/aqualedger/pkg/types"
)

// TickWindowHours is the lookback returned by Tick.
const TickWindowHours = 24

// Series is a fixed hourly usage series read through a wrapping cursor. The
// samples never change after construction. Series is not safe for concurrent
// use.
type Series struct {
	samples []types.UsageSample
	cursor  int
}

// NewSeries copies samples into a Series ordered by timestamp with the cursor
// at 0.
func NewSeries(samples []types.UsageSample) *Series {
	cp := make([]types.UsageSample, len(samples))
	copy(cp, samples)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].Timestamp.Before(cp[j].Timestamp) })
	return &Series{samples: cp}
}

func (s *Series) Len() int {
	return len(s.samples)
}

func (s *Series) Cursor() int {
	return s.cursor
}

// Seek moves the cursor to pos modulo the series length.
func (s *Series) Seek(pos int) {
	if len(s.samples) == 0 {
		return
	}
	s.cursor = mod(pos, len(s.samples))
}

func mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}

// Window returns the hours samples ending just before the cursor in
// chronological order, wrapping through the end of the series when the cursor
// is near the start. Asking for at least the series length returns the whole
// series.
func (s *Series) Window(hours int) []types.UsageSample {
	n := len(s.samples)
	if hours <= 0 || n == 0 {
		return []types.UsageSample{}
	}
	if hours >= n {
		out := make([]types.UsageSample, n)
		copy(out, s.samples)
		return out
	}

	out := make([]types.UsageSample, 0, hours)
	start := s.cursor - hours
	if start >= 0 {
		return append(out, s.samples[start:s.cursor]...)
	}
	out = append(out, s.samples[n+start:]...)
	return append(out, s.samples[:s.cursor]...)
}

// Advance walks the cursor forward by hours and returns the usage and cost of
// every sample it passed, each priced at its own hour. Going around more than
// once prices the revisited samples again on every lap.
func (s *Series) Advance(hours int, t *tariff.Tariff) (usage, cost float64) {
	n := len(s.samples)
	if hours <= 0 || n == 0 {
		return 0, 0
	}
	idx := s.cursor
	for i := 0; i < hours; i++ {
		sample := s.samples[idx]
		usage += sample.UsageLiters
		cost += t.Cost(sample.UsageLiters, sample.Timestamp.Hour())
		idx++
		if idx == n {
			idx = 0
		}
	}
	s.cursor = idx
	return usage, cost
}

// TickResult is the outcome of a single hour step.
type TickResult struct {
	// Window is the lookback re-timestamped so the last sample sits at now.
	Window []types.UsageSample
	Usage  float64
	Cost   float64
	// CycleCompleted is true when the cursor landed on the last sample.
	CycleCompleted bool
}

// Tick advances one hour and returns the lookback window ending at the new
// cursor with timestamps rewritten relative to now. The underlying samples
// keep their original timestamps.
func (s *Series) Tick(now time.Time, t *tariff.Tariff) TickResult {
	if len(s.samples) == 0 {
		return TickResult{Window: []types.UsageSample{}}
	}
	usage, cost := s.Advance(1, t)
	win := s.Window(TickWindowHours)
	last := len(win) - 1
	for i := range win {
		win[i].Timestamp = now.Add(-time.Duration(last-i) * time.Hour)
	}
	return TickResult{
		Window:         win,
		Usage:          usage,
		Cost:           cost,
		CycleCompleted: s.cursor == len(s.samples)-1,
	}
}
