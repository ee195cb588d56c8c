package simulation

import (
	"testing"

	"github.com/aqualedger/aqualedger/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestSession(t *testing.T) {
	t.Run("Accumulates", func(t *testing.T) {
		var s Session
		s.Add(3, 10, 1)
		s.Add(2, 5, 0.5)
		assert.Equal(t, types.SessionState{UsageAccumulated: 15, CostAccumulated: 1.5, HoursElapsed: 5}, s.State())
		s.Reset()
		assert.Equal(t, types.SessionState{}, s.State())
	})

	t.Run("Hours To Complete Cycle", func(t *testing.T) {
		var s Session
		assert.Equal(t, 672, s.HoursToCompleteCycle(672))
		s.Add(100, 0, 0)
		assert.Equal(t, 572, s.HoursToCompleteCycle(672))
		s.Add(572, 0, 0)
		assert.Equal(t, 672, s.HoursToCompleteCycle(672))
		s.Add(680, 0, 0)
		assert.Equal(t, 664, s.HoursToCompleteCycle(672))
		assert.Equal(t, 0, s.HoursToCompleteCycle(0))
	})

	t.Run("Restore", func(t *testing.T) {
		var s Session
		assert.True(t, s.Restore(types.SessionState{UsageAccumulated: 1, CostAccumulated: 2, HoursElapsed: 3}))
		assert.Equal(t, 3, s.State().HoursElapsed)
		assert.False(t, s.Restore(types.SessionState{HoursElapsed: -1}))
		assert.Equal(t, types.SessionState{}, s.State())
	})
}
