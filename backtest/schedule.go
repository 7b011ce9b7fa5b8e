package backtest

import (
	"fmt"
	"strings"
	"time"
)

// Frequency is how often the target weights are re-applied.
type Frequency int

const (
	Daily Frequency = iota
	Weekly
	Monthly
)

func (f Frequency) String() string {
	switch f {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	default:
		return fmt.Sprintf("Frequency(%d)", int(f))
	}
}

func (f Frequency) valid() bool { return f >= Daily && f <= Monthly }

// ParseFrequency accepts daily|weekly|monthly and the short forms d|w|m,
// in any case.
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "day", "d":
		return Daily, nil
	case "weekly", "week", "w":
		return Weekly, nil
	case "monthly", "month", "m":
		return Monthly, nil
	default:
		return Daily, configErrorf("unknown rebalance frequency %q (want daily|weekly|monthly)", s)
	}
}

// periodKey identifies the period a date falls in. Weeks are ISO-8601
// weeks (Monday start, year of the week's Thursday).
type periodKey struct {
	year, n, day int
}

func keyOf(t time.Time, f Frequency) periodKey {
	switch f {
	case Weekly:
		y, w := t.ISOWeek()
		return periodKey{year: y, n: w}
	case Monthly:
		return periodKey{year: t.Year(), n: int(t.Month())}
	default:
		return periodKey{year: t.Year(), n: int(t.Month()), day: t.Day()}
	}
}

// RebalanceDates is the ordered set of dates on which weights are reset.
type RebalanceDates []time.Time

// Contains reports whether day is a rebalance date.
func (r RebalanceDates) Contains(day time.Time) bool {
	for _, d := range r {
		if d.Equal(day) {
			return true
		}
	}
	return false
}

// Schedule returns, for an ascending date index, the first date of each
// period. When several dates share a period the earliest one wins. The
// first date of the index is always included since it seeds the initial
// allocation.
func Schedule(dates []time.Time, f Frequency) RebalanceDates {
	if len(dates) == 0 {
		return nil
	}

	out := make(RebalanceDates, 0, len(dates))
	seen := make(map[periodKey]bool)
	for _, d := range dates {
		k := keyOf(d, f)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, d)
	}

	if !out[0].Equal(dates[0]) {
		out = append(RebalanceDates{dates[0]}, out...)
	}
	return out
}

// mask returns a per-index flag for the rebalance dates of t.
func (r RebalanceDates) mask(dates []time.Time) []bool {
	set := make(map[time.Time]bool, len(r))
	for _, d := range r {
		set[d] = true
	}
	out := make([]bool, len(dates))
	for i, d := range dates {
		out[i] = set[d]
	}
	return out
}
