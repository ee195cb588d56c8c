package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/aqualedger/aqualedger/pkg/ledger"
	"github.com/aqualedger/aqualedger/pkg/types"
	"gopkg.in/yaml.v3"
)

const (
	WeekNormal = "normal"
	WeekHigh   = "high"
)

// hourWeights shapes a day: quiet overnight, a morning peak, steady daytime
// use and the evening peak. The weights sum to 61.
var hourWeights = [24]float64{
	1, 1, 1, 1, 1, 1, 1,
	4, 4, 4,
	2, 2, 2, 2, 2, 2, 2, 2,
	5, 5, 5, 5, 5,
	1,
}

// Range is an inclusive [min, max] interval drawn from uniformly.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

func (r Range) draw(rng *rand.Rand) float64 {
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

// ScenarioEntry is a manual ledger row to seed alongside the series.
type ScenarioEntry struct {
	Date  string  `yaml:"date"`
	Total float64 `yaml:"total"`
	Night float64 `yaml:"night"`
}

// Scenario describes a synthetic usage series week by week.
type Scenario struct {
	Start        string          `yaml:"start"`
	MonthlyLimit float64         `yaml:"monthly_limit"`
	Weeks        []string        `yaml:"weeks"`
	HighOverage  Range           `yaml:"high_overage"`
	NormalSaving Range           `yaml:"normal_saving"`
	Jitter       float64         `yaml:"jitter"`
	Manual       []ScenarioEntry `yaml:"manual_entries"`
}

// DefaultScenario is four months where the second, third, twelfth and
// thirteenth weeks run over a quarter of the monthly limit.
func DefaultScenario() Scenario {
	return Scenario{
		MonthlyLimit: types.DefaultMonthlyWaterLimit,
		Weeks: []string{
			WeekNormal, WeekHigh, WeekHigh, WeekNormal,
			WeekNormal, WeekNormal, WeekNormal, WeekNormal,
			WeekNormal, WeekNormal, WeekNormal, WeekHigh,
			WeekHigh, WeekNormal, WeekNormal, WeekNormal,
		},
		HighOverage:  Range{Min: 120, Max: 500},
		NormalSaving: Range{Min: 100, Max: 600},
		Jitter:       0.1,
	}
}

// LoadScenario reads a YAML scenario. Fields left out keep their
// DefaultScenario values.
func LoadScenario(path string) (Scenario, error) {
	sc := DefaultScenario()
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("failed to read scenario: %w", err)
	}
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return Scenario{}, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return Scenario{}, err
	}
	return sc, nil
}

// Validate checks the scenario can generate a series.
func (sc Scenario) Validate() error {
	if sc.MonthlyLimit <= 0 {
		return fmt.Errorf("monthly_limit must be positive")
	}
	if len(sc.Weeks) == 0 {
		return fmt.Errorf("scenario has no weeks")
	}
	for i, w := range sc.Weeks {
		if w != WeekNormal && w != WeekHigh {
			return fmt.Errorf("week %d: unknown type %q", i+1, w)
		}
	}
	if sc.Jitter < 0 || sc.Jitter >= 1 {
		return fmt.Errorf("jitter must be in [0, 1)")
	}
	if sc.Start != "" {
		if _, err := ledger.ParseDate(sc.Start); err != nil {
			return err
		}
	}
	for _, e := range sc.Manual {
		if err := ledger.Validate(e.Date, e.Total, e.Night); err != nil {
			return fmt.Errorf("manual entry %s: %w", e.Date, err)
		}
	}
	return nil
}

// StartTime is the scenario start, or fallback truncated to midnight UTC when
// none is set.
func (sc Scenario) StartTime(fallback time.Time) time.Time {
	if sc.Start != "" {
		if t, err := ledger.ParseDate(sc.Start); err == nil {
			return t
		}
	}
	fallback = fallback.UTC()
	return time.Date(fallback.Year(), fallback.Month(), fallback.Day(), 0, 0, 0, 0, time.UTC)
}

// weekTarget is the weekly total for a week type, a quarter of the monthly
// limit shifted by the drawn overage or saving.
func (sc Scenario) weekTarget(kind string, rng *rand.Rand) float64 {
	weekly := sc.MonthlyLimit / 4
	if kind == WeekHigh {
		return weekly + sc.HighOverage.draw(rng)
	}
	return weekly - sc.NormalSaving.draw(rng)
}

// Generate builds an hourly series starting at start. Each day spreads the
// week's daily average over hourWeights with multiplicative jitter.
func (sc Scenario) Generate(start time.Time, rng *rand.Rand) []types.UsageSample {
	var weightSum float64
	for _, w := range hourWeights {
		weightSum += w
	}

	samples := make([]types.UsageSample, 0, len(sc.Weeks)*7*24)
	ts := start
	for _, kind := range sc.Weeks {
		unit := sc.weekTarget(kind, rng) / 7 / weightSum
		for day := 0; day < 7; day++ {
			for hour := 0; hour < 24; hour++ {
				usage := hourWeights[hour] * unit
				if sc.Jitter > 0 {
					usage *= 1 - sc.Jitter + rng.Float64()*2*sc.Jitter
				}
				samples = append(samples, types.UsageSample{Timestamp: ts, UsageLiters: usage})
				ts = ts.Add(time.Hour)
			}
		}
	}
	return samples
}

// WriteUsageCSV writes samples in the format ParseUsageCSV reads.
func WriteUsageCSV(w io.Writer, samples []types.UsageSample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{timestampColumn, usageColumn}); err != nil {
		return err
	}
	for _, s := range samples {
		record := []string{
			s.Timestamp.UTC().Format(timestampLayouts[0]),
			strconv.FormatFloat(s.UsageLiters, 'f', 3, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
