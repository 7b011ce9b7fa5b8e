package market

import (
	"sort"
	"time"
)

// Series is the daily history of one asset, strictly increasing by date.
type Series struct {
	Asset string
	Bars  []Bar
}

// NewSeries builds a Series from bars in any order. Dates are normalized
// with Day and, when the same date shows up more than once, the bar that
// came last in the input wins.
func NewSeries(asset string, bars []Bar) Series {
	byDay := make(map[time.Time]Bar, len(bars))
	for _, b := range bars {
		b.Date = Day(b.Date)
		byDay[b.Date] = b
	}

	out := make([]Bar, 0, len(byDay))
	for _, b := range byDay {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	return Series{Asset: asset, Bars: out}
}

func (s Series) Len() int { return len(s.Bars) }

// Dates returns the bar dates in order.
func (s Series) Dates() []time.Time {
	out := make([]time.Time, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Date
	}
	return out
}

// First and Last return the oldest and newest bars. ok is false for an
// empty series.
func (s Series) First() (b Bar, ok bool) {
	if len(s.Bars) == 0 {
		return Bar{}, false
	}
	return s.Bars[0], true
}

func (s Series) Last() (b Bar, ok bool) {
	if len(s.Bars) == 0 {
		return Bar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Between returns the bars with from <= date <= to. A zero bound is open.
func (s Series) Between(from, to time.Time) Series {
	out := Series{Asset: s.Asset}
	for _, b := range s.Bars {
		if !from.IsZero() && b.Date.Before(Day(from)) {
			continue
		}
		if !to.IsZero() && b.Date.After(Day(to)) {
			continue
		}
		out.Bars = append(out.Bars, b)
	}
	return out
}

// Merge returns s with the bars of other laid over it; other wins on
// conflicting dates.
func (s Series) Merge(other Series) Series {
	all := make([]Bar, 0, len(s.Bars)+len(other.Bars))
	all = append(all, s.Bars...)
	all = append(all, other.Bars...)
	return NewSeries(s.Asset, all)
}
