package tariff

import (
	"testing"

	"github.com/aqualedger/aqualedger/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestCost(t *testing.T) {
	tr := Default()

	t.Run("Night Window", func(t *testing.T) {
		for hour := 0; hour < 24; hour++ {
			night := hour >= 22 || hour < 4
			assert.Equal(t, night, tr.IsNight(hour), "hour %d", hour)
			want := 10 * types.DefaultDayPrice
			if night {
				want = 10 * types.DefaultDayPrice * 2
			}
			assert.InDelta(t, want, tr.Cost(10, hour), 1e-12, "hour %d", hour)
		}
	})

	t.Run("Boundaries", func(t *testing.T) {
		assert.False(t, tr.IsNight(4))
		assert.False(t, tr.IsNight(21))
		assert.True(t, tr.IsNight(22))
		assert.True(t, tr.IsNight(3))
	})

	t.Run("Linear", func(t *testing.T) {
		for _, hour := range []int{0, 12, 23} {
			assert.InDelta(t, 3*tr.Cost(7, hour), tr.Cost(21, hour), 1e-12)
			assert.Equal(t, 0.0, tr.Cost(0, hour))
		}
	})
}

func TestEntryCost(t *testing.T) {
	tr := New(types.TariffConfig{DayPrice: 0.1, NightPrice: 0.2, NightStartHour: 22, NightEndHour: 4})
	assert.InDelta(t, 80*0.1+20*0.2, tr.EntryCost(100, 20), 1e-12)
	assert.InDelta(t, 10.0, tr.EntryCost(100, 0), 1e-12)
}

func TestPeriods(t *testing.T) {
	tr := Default()
	periods := tr.Periods()
	assert.Len(t, periods, 2)
	for hour := 0; hour < 24; hour++ {
		var matched []string
		for _, p := range periods {
			if p.Contains(hour) {
				matched = append(matched, p.Name)
				assert.Equal(t, tr.PriceAt(hour), p.Price)
			}
		}
		assert.Len(t, matched, 1, "hour %d", hour)
	}
}
