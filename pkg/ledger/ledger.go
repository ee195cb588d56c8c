package ledger

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/aqualedger/aqualedger/pkg/tariff"
	"github.com/aqualedger/aqualedger/pkg/types"
)

// DateLayout is the key format for manual entries.
const DateLayout = "2006-01-02"

// ErrEntryNotFound is returned by callers that need an error for a delete of
// an absent date.
var ErrEntryNotFound = errors.New("record not found")

// projectionDays scales a per-day average into a monthly figure.
const projectionDays = 30.0

// Ledger holds user reported daily usage keyed by date. It is not safe for
// concurrent use; the owner serializes access.
type Ledger struct {
	entries map[string]types.ManualEntry
}

// New returns an empty Ledger.
func New() *Ledger {
	return &Ledger{entries: make(map[string]types.ManualEntry)}
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, &types.ValidationError{Field: "date", Reason: "expected a YYYY-MM-DD calendar date"}
	}
	return t, nil
}

// Validate checks a manual entry without recording it.
func Validate(date string, total, night float64) error {
	if _, err := ParseDate(date); err != nil {
		return err
	}
	if math.IsNaN(total) || math.IsInf(total, 0) || total < 0 {
		return &types.ValidationError{Field: "total", Reason: "must be a non-negative number"}
	}
	if math.IsNaN(night) || math.IsInf(night, 0) || night < 0 {
		return &types.ValidationError{Field: "night", Reason: "must be a non-negative number"}
	}
	if night > total {
		return &types.ValidationError{Field: "night", Reason: "cannot exceed total"}
	}
	return nil
}

// Record inserts or replaces the entry for date. On error the previous entry
// is left untouched.
func (l *Ledger) Record(date string, total, night float64) error {
	if err := Validate(date, total, night); err != nil {
		return err
	}
	l.entries[date] = types.ManualEntry{Total: total, Night: night}
	return nil
}

// Delete removes the entry for date and reports whether it existed.
func (l *Ledger) Delete(date string) bool {
	if _, ok := l.entries[date]; !ok {
		return false
	}
	delete(l.entries, date)
	return true
}

func (l *Ledger) Get(date string) (types.ManualEntry, bool) {
	e, ok := l.entries[date]
	return e, ok
}

func (l *Ledger) Len() int {
	return len(l.entries)
}

// Entries returns a copy of every entry.
func (l *Ledger) Entries() map[string]types.ManualEntry {
	out := make(map[string]types.ManualEntry, len(l.entries))
	for d, e := range l.entries {
		out[d] = e
	}
	return out
}

// Replace swaps the ledger contents for entries. Invalid entries are skipped
// and returned as errors so the caller can report them.
func (l *Ledger) Replace(entries map[string]types.ManualEntry) []error {
	var errs []error
	next := make(map[string]types.ManualEntry, len(entries))
	for d, e := range entries {
		if err := Validate(d, e.Total, e.Night); err != nil {
			errs = append(errs, err)
			continue
		}
		next[d] = e
	}
	l.entries = next
	return errs
}

// Sorted returns every entry in date order.
func (l *Ledger) Sorted() []types.DatedEntry {
	out := make([]types.DatedEntry, 0, len(l.entries))
	for d, e := range l.entries {
		out = append(out, types.DatedEntry{Date: d, ManualEntry: e})
	}
	// YYYY-MM-DD sorts lexically
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Recent returns the latest n entries in date order.
func (l *Ledger) Recent(n int) []types.DatedEntry {
	sorted := l.Sorted()
	if n >= 0 && len(sorted) > n {
		sorted = sorted[len(sorted)-n:]
	}
	return sorted
}

// Totals is the aggregate of the ledger priced by a tariff.
type Totals struct {
	types.UsageTotals
	Days  int
	Daily []types.DailyPoint
}

// Totals prices every entry and projects the per day average onto a month.
func (l *Ledger) Totals(t *tariff.Tariff) Totals {
	return Summarize(l.Sorted(), t)
}

// Summarize aggregates entries the same way Totals does.
func Summarize(entries []types.DatedEntry, t *tariff.Tariff) Totals {
	var res Totals
	res.Daily = make([]types.DailyPoint, 0, len(entries))
	for _, e := range entries {
		cost := t.EntryCost(e.Total, e.Night)
		res.Usage += e.Total
		res.Cost += cost
		res.NightUsage += e.Night
		res.Daily = append(res.Daily, types.DailyPoint{Date: e.Date, Usage: e.Total, Cost: cost})
	}
	res.Days = len(entries)
	if res.Days > 0 {
		res.UsageProjection = res.Usage / float64(res.Days) * projectionDays
		res.CostProjection = res.Cost / float64(res.Days) * projectionDays
	}
	return res
}
