package report

import (
	"testing"
	"time"

	"github.com/aqualedger/aqualedger/pkg/tariff"
	"github.com/aqualedger/aqualedger/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInput() Input {
	return Input{
		Tariff:     tariff.New(types.TariffConfig{DayPrice: 0.1, NightPrice: 0.2, NightStartHour: 22, NightEndHour: 4}),
		Budget:     300,
		WaterLimit: 3000,
	}
}

func window(hours int, usage float64) []types.UsageSample {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	out := make([]types.UsageSample, hours)
	for i := range out {
		out[i] = types.UsageSample{Timestamp: start.Add(time.Duration(i) * time.Hour), UsageLiters: usage}
	}
	return out
}

func TestSystem(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		assert.Equal(t, []string{NoSystemDataLine}, System(nil, testInput()))
	})

	t.Run("Full Cycle", func(t *testing.T) {
		lines := System(window(672, 5), testInput())
		// 168 * 5 = 840 against a 750 target
		assert.Contains(t, lines, "Week 1: 90 L over the weekly target.")
		assert.Contains(t, lines, "Week 4: 90 L over the weekly target.")
		assert.Contains(t, lines, "Water: 360 L above the limit.")
		assert.Contains(t, lines, "Daily day-rate usage: 100.0 L")
		assert.Contains(t, lines, "Daily minimum cost: 10.00")
		assert.Contains(t, lines, "Night share is 25%, which keeps the night rate under control.")
	})

	t.Run("Partial Cycle", func(t *testing.T) {
		lines := System(window(200, 1), testInput())
		assert.Contains(t, lines, "Week 1: 582 L under the weekly target.")
		assert.Contains(t, lines, "Week 2: 718 L under the weekly target.")
		assert.Contains(t, lines, "Week 3: no data yet.")
		assert.Contains(t, lines, "Week 4: no data yet.")
	})

	t.Run("Deterministic", func(t *testing.T) {
		w := window(300, 3)
		assert.Equal(t, System(w, testInput()), System(w, testInput()))
	})
}

func TestManual(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		assert.Equal(t, []string{NoManualDataLine}, Manual(nil, testInput()))
	})

	t.Run("Last Seven Days", func(t *testing.T) {
		var entries []types.DatedEntry
		for d := 3; d <= 9; d++ {
			entries = append(entries, types.DatedEntry{
				Date:        time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC).Format("2006-01-02"),
				ManualEntry: types.ManualEntry{Total: 100, Night: 50},
			})
		}
		lines := Manual(entries, testInput())
		require.NotEmpty(t, lines)
		assert.Contains(t, lines, "Covers the last 7 days up to 2024-03-09.")
		// 700 against 750
		assert.Contains(t, lines, "Usage: 50 L under the weekly target.")
		assert.Contains(t, lines, "Monthly projection: about 3.00 m3 (within the limit).")
		assert.Contains(t, lines, "Night share is 50%. Moving night usage to the day rate is the quickest saving.")
	})
}
