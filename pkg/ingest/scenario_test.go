package ingest

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioGenerate(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("WeeklyTotals", func(t *testing.T) {
		sc := DefaultScenario()
		sc.Jitter = 0
		samples := sc.Generate(start, rand.New(rand.NewSource(1)))
		require.Len(t, samples, 16*7*24)

		weekly := sc.MonthlyLimit / 4
		for w, kind := range sc.Weeks {
			var total float64
			for _, s := range samples[w*168 : (w+1)*168] {
				total += s.UsageLiters
			}
			if kind == WeekHigh {
				assert.GreaterOrEqual(t, total, weekly+120-1e-6, "week %d", w+1)
				assert.LessOrEqual(t, total, weekly+500+1e-6, "week %d", w+1)
			} else {
				assert.GreaterOrEqual(t, total, weekly-600-1e-6, "week %d", w+1)
				assert.LessOrEqual(t, total, weekly-100+1e-6, "week %d", w+1)
			}
		}
	})

	t.Run("HourlyShape", func(t *testing.T) {
		sc := DefaultScenario()
		sc.Jitter = 0
		samples := sc.Generate(start, rand.New(rand.NewSource(2)))
		// evening peak is five times the overnight hour on the same day
		assert.InDelta(t, samples[0].UsageLiters*5, samples[19].UsageLiters, 1e-9)
		assert.InDelta(t, samples[0].UsageLiters*4, samples[8].UsageLiters, 1e-9)
		for i, s := range samples {
			assert.True(t, s.Timestamp.Equal(start.Add(time.Duration(i)*time.Hour)))
		}
	})

	t.Run("JitterBounds", func(t *testing.T) {
		sc := DefaultScenario()
		flat := sc
		flat.Jitter = 0
		a := flat.Generate(start, rand.New(rand.NewSource(3)))
		b := sc.Generate(start, rand.New(rand.NewSource(3)))
		// same seed draws the same first week target before any jitter
		for i := 0; i < 24; i++ {
			assert.GreaterOrEqual(t, b[i].UsageLiters, 0.0)
		}
		assert.NotEqual(t, a[1].UsageLiters, b[1].UsageLiters)
	})
}

func TestScenarioValidate(t *testing.T) {
	assert.NoError(t, DefaultScenario().Validate())

	sc := DefaultScenario()
	sc.Weeks = []string{"normal", "spiky"}
	assert.ErrorContains(t, sc.Validate(), `week 2: unknown type "spiky"`)

	sc = DefaultScenario()
	sc.Weeks = nil
	assert.Error(t, sc.Validate())

	sc = DefaultScenario()
	sc.Manual = []ScenarioEntry{{Date: "2024-01-01", Total: 10, Night: 20}}
	assert.ErrorContains(t, sc.Validate(), "manual entry 2024-01-01")

	sc = DefaultScenario()
	sc.Jitter = 1.5
	assert.Error(t, sc.Validate())
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
start: "2024-02-01"
weeks: [high, normal]
jitter: 0
manual_entries:
  - date: "2024-02-01"
    total: 900
    night: 150
`), 0o644))

	sc, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, []string{WeekHigh, WeekNormal}, sc.Weeks)
	assert.Equal(t, DefaultScenario().MonthlyLimit, sc.MonthlyLimit)
	assert.Equal(t, 0.0, sc.Jitter)
	require.Len(t, sc.Manual, 1)
	assert.Equal(t, 150.0, sc.Manual[0].Night)
	assert.True(t, sc.StartTime(time.Now()).Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read scenario")
}

func TestWriteUsageCSV(t *testing.T) {
	sc := DefaultScenario()
	sc.Weeks = []string{WeekNormal}
	samples := sc.Generate(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), rand.New(rand.NewSource(4)))

	var buf bytes.Buffer
	require.NoError(t, WriteUsageCSV(&buf, samples))

	parsed, skipped, err := ParseUsageCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	require.Len(t, parsed, len(samples))
	assert.True(t, parsed[30].Timestamp.Equal(samples[30].Timestamp))
	assert.InDelta(t, samples[30].UsageLiters, parsed[30].UsageLiters, 0.001)
}
