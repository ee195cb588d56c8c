package types

import (
	"fmt"
)

// TariffConfig holds the two tier unit prices and the night window. The night
// window is [NightStartHour, 24) plus [0, NightEndHour).
type TariffConfig struct {
	DayPrice       float64 `json:"dayPrice"`
	NightPrice     float64 `json:"nightPrice"`
	NightStartHour int     `json:"nightStartHour"`
	NightEndHour   int     `json:"nightEndHour"`
}

const (
	DefaultDayPrice        = 0.089705
	DefaultNightMultiplier = 2.0
	DefaultNightStartHour  = 22
	DefaultNightEndHour    = 4
)

// DefaultTariffConfig returns the standard residential tariff.
func DefaultTariffConfig() TariffConfig {
	return TariffConfig{
		DayPrice:       DefaultDayPrice,
		NightPrice:     DefaultDayPrice * DefaultNightMultiplier,
		NightStartHour: DefaultNightStartHour,
		NightEndHour:   DefaultNightEndHour,
	}
}

// Validate checks the hours are on the clock and the night window wraps
// past midnight.
func (c TariffConfig) Validate() error {
	if c.NightStartHour < 0 || c.NightStartHour > 23 {
		return fmt.Errorf("night start hour out of range: %d", c.NightStartHour)
	}
	if c.NightEndHour < 0 || c.NightEndHour > 23 {
		return fmt.Errorf("night end hour out of range: %d", c.NightEndHour)
	}
	if c.NightEndHour >= c.NightStartHour {
		return fmt.Errorf("night window must wrap past midnight (start=%d, end=%d)", c.NightStartHour, c.NightEndHour)
	}
	if c.DayPrice < 0 || c.NightPrice < 0 {
		return fmt.Errorf("prices cannot be negative")
	}
	return nil
}

// TariffPeriod is a named price band over a range of hours.
type TariffPeriod struct {
	Name      string  `json:"name"`
	HourStart int     `json:"hourStart"`
	HourEnd   int     `json:"hourEnd"`
	Price     float64 `json:"price"`
}

// Contains reports whether hour falls in the period. A period whose start is
// not before its end wraps through midnight.
func (p TariffPeriod) Contains(hour int) bool {
	if p.HourStart < p.HourEnd {
		return hour >= p.HourStart && hour < p.HourEnd
	}
	return hour >= p.HourStart || hour < p.HourEnd
}
