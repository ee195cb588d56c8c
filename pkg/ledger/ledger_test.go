package ledger

import (
	"errors"
	"math"
	"testing"

	"github.com/aqualedger/aqualedger/pkg/tariff"
	"github.com/aqualedger/aqualedger/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord(t *testing.T) {
	t.Run("Round Trip", func(t *testing.T) {
		l := New()
		require.NoError(t, l.Record("2024-03-01", 100, 20))
		e, ok := l.Get("2024-03-01")
		require.True(t, ok)
		assert.Equal(t, types.ManualEntry{Total: 100, Night: 20}, e)
	})

	t.Run("Night Above Total Keeps Prior", func(t *testing.T) {
		l := New()
		require.NoError(t, l.Record("2024-03-01", 100, 20))
		err := l.Record("2024-03-01", 50, 80)
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrValidation))

		e, ok := l.Get("2024-03-01")
		require.True(t, ok)
		assert.Equal(t, types.ManualEntry{Total: 100, Night: 20}, e)
	})

	t.Run("Overwrite", func(t *testing.T) {
		l := New()
		require.NoError(t, l.Record("2024-03-01", 100, 20))
		require.NoError(t, l.Record("2024-03-01", 60, 0))
		e, _ := l.Get("2024-03-01")
		assert.Equal(t, 60.0, e.Total)
		assert.Equal(t, 1, l.Len())
	})

	t.Run("Invalid Input", func(t *testing.T) {
		cases := []struct {
			name         string
			date         string
			total, night float64
			field        string
		}{
			{"bad format", "03/01/2024", 10, 0, "date"},
			{"not a calendar day", "2024-02-30", 10, 0, "date"},
			{"empty date", "", 10, 0, "date"},
			{"negative total", "2024-03-01", -1, 0, "total"},
			{"negative night", "2024-03-01", 10, -1, "night"},
			{"nan total", "2024-03-01", math.NaN(), 0, "total"},
		}
		for _, c := range cases {
			t.Run(c.name, func(t *testing.T) {
				l := New()
				err := l.Record(c.date, c.total, c.night)
				var ve *types.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, c.field, ve.Field)
				assert.Equal(t, 0, l.Len())
			})
		}
	})

	t.Run("Leap Day", func(t *testing.T) {
		l := New()
		assert.NoError(t, l.Record("2024-02-29", 10, 10))
		assert.Error(t, l.Record("2023-02-29", 10, 10))
	})
}

func TestDelete(t *testing.T) {
	l := New()
	require.NoError(t, l.Record("2024-03-01", 100, 20))
	assert.True(t, l.Delete("2024-03-01"))
	assert.False(t, l.Delete("2024-03-01"))
	assert.False(t, l.Delete("2024-03-02"))
	assert.Equal(t, 0, l.Len())
}

func TestReplace(t *testing.T) {
	l := New()
	require.NoError(t, l.Record("2024-01-01", 1, 0))
	errs := l.Replace(map[string]types.ManualEntry{
		"2024-03-01": {Total: 100, Night: 20},
		"garbage":    {Total: 1},
		"2024-03-02": {Total: 5, Night: 6},
	})
	assert.Len(t, errs, 2)
	assert.Equal(t, 1, l.Len())
	_, ok := l.Get("2024-01-01")
	assert.False(t, ok)
}

func TestTotals(t *testing.T) {
	tr := tariff.New(types.TariffConfig{DayPrice: 0.1, NightPrice: 0.2, NightStartHour: 22, NightEndHour: 4})

	t.Run("Empty", func(t *testing.T) {
		res := New().Totals(tr)
		assert.Equal(t, 0, res.Days)
		assert.Equal(t, 0.0, res.UsageProjection)
		assert.Equal(t, 0.0, res.CostProjection)
		assert.Empty(t, res.Daily)
	})

	t.Run("Aggregates", func(t *testing.T) {
		l := New()
		require.NoError(t, l.Record("2024-03-02", 200, 0))
		require.NoError(t, l.Record("2024-03-01", 100, 20))

		res := l.Totals(tr)
		assert.Equal(t, 2, res.Days)
		assert.InDelta(t, 300.0, res.Usage, 1e-9)
		assert.InDelta(t, 20.0, res.NightUsage, 1e-9)
		// 80*0.1 + 20*0.2 + 200*0.1
		assert.InDelta(t, 32.0, res.Cost, 1e-9)
		assert.InDelta(t, 4500.0, res.UsageProjection, 1e-9)
		assert.InDelta(t, 480.0, res.CostProjection, 1e-9)
		require.Len(t, res.Daily, 2)
		assert.Equal(t, "2024-03-01", res.Daily[0].Date)
		assert.InDelta(t, 12.0, res.Daily[0].Cost, 1e-9)
	})
}

func TestRecent(t *testing.T) {
	l := New()
	for _, d := range []string{"2024-03-05", "2024-03-01", "2024-03-03", "2024-03-02"} {
		require.NoError(t, l.Record(d, 1, 0))
	}
	recent := l.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "2024-03-03", recent[0].Date)
	assert.Equal(t, "2024-03-05", recent[1].Date)
	assert.Len(t, l.Recent(10), 4)
}
