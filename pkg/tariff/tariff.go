package tariff

import (
	"fmt"

	"github.com/aqualedger/aqualedger/pkg/types"
	"github.com/levenlabs/go-lflag"
)

// Tariff prices water by the hour of day using a day rate and a night rate.
// It is immutable once built so it is safe to share.
type Tariff struct {
	cfg types.TariffConfig
}

// New returns a Tariff for cfg. The config is not validated.
func New(cfg types.TariffConfig) *Tariff {
	return &Tariff{cfg: cfg}
}

// Default returns the standard residential tariff.
func Default() *Tariff {
	return New(types.DefaultTariffConfig())
}

// Configured sets up the tariff based on flags.
func Configured() *Tariff {
	cfg := types.DefaultTariffConfig()
	multiplier := types.DefaultNightMultiplier
	lflag.JSON(&cfg, "tariff", cfg, "JSON tariff config (dayPrice, nightStartHour, nightEndHour)")
	lflag.JSON(&multiplier, "tariff-night-multiplier", multiplier, "Night price as a multiple of the day price")

	t := &Tariff{}
	lflag.Do(func() {
		cfg.NightPrice = cfg.DayPrice * multiplier
		if err := cfg.Validate(); err != nil {
			panic(fmt.Sprintf("tariff validation failed: %v", err))
		}
		t.cfg = cfg
	})
	return t
}

// Config returns a copy of the tariff's configuration.
func (t *Tariff) Config() types.TariffConfig {
	return t.cfg
}

func (t *Tariff) DayPrice() float64 {
	return t.cfg.DayPrice
}

func (t *Tariff) NightPrice() float64 {
	return t.cfg.NightPrice
}

// IsNight reports whether hour is billed at the night rate.
func (t *Tariff) IsNight(hour int) bool {
	return hour >= t.cfg.NightStartHour || hour < t.cfg.NightEndHour
}

// PriceAt returns the unit price for hour.
func (t *Tariff) PriceAt(hour int) float64 {
	if t.IsNight(hour) {
		return t.cfg.NightPrice
	}
	return t.cfg.DayPrice
}

// Cost converts usage at hour into currency. No rounding is applied.
func (t *Tariff) Cost(usage float64, hour int) float64 {
	return usage * t.PriceAt(hour)
}

// EntryCost prices a manual entry where night liters are billed at the night
// rate and the rest at the day rate.
func (t *Tariff) EntryCost(total, night float64) float64 {
	return (total-night)*t.cfg.DayPrice + night*t.cfg.NightPrice
}

// Periods describes the tariff as its two price bands.
func (t *Tariff) Periods() []types.TariffPeriod {
	return []types.TariffPeriod{
		{
			Name:      "day",
			HourStart: t.cfg.NightEndHour,
			HourEnd:   t.cfg.NightStartHour,
			Price:     t.cfg.DayPrice,
		},
		{
			Name:      "night",
			HourStart: t.cfg.NightStartHour,
			HourEnd:   t.cfg.NightEndHour,
			Price:     t.cfg.NightPrice,
		},
	}
}
