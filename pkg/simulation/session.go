package simulation

import (
	"github.com/aqualedger/aqualedger/pkg/types"
)

// Session accumulates usage, cost and hours from cursor movement until it is
// explicitly reset.
type Session struct {
	state types.SessionState
}

// Add records an advance of hours that passed usage liters costing cost.
func (s *Session) Add(hours int, usage, cost float64) {
	s.state.UsageAccumulated += usage
	s.state.CostAccumulated += cost
	s.state.HoursElapsed += hours
}

// HoursToCompleteCycle is how far to advance to reach the next cycle
// boundary. Sitting exactly on a boundary yields a full cycle, never zero.
func (s *Session) HoursToCompleteCycle(cycleHours int) int {
	if cycleHours <= 0 {
		return 0
	}
	if s.state.HoursElapsed == 0 {
		return cycleHours
	}
	return cycleHours - s.state.HoursElapsed%cycleHours
}

func (s *Session) Reset() {
	s.state = types.SessionState{}
}

func (s *Session) State() types.SessionState {
	return s.state
}

// Restore replaces the accumulator with a previously saved state. Negative
// values are rejected in favor of an empty session.
func (s *Session) Restore(state types.SessionState) bool {
	if state.HoursElapsed < 0 || state.UsageAccumulated < 0 || state.CostAccumulated < 0 {
		s.Reset()
		return false
	}
	s.state = state
	return true
}
