package backtest

import (
	"sort"
	"time"

	"github.com/rustyeddy/rebalancer/market"
)

// Table is a set of asset price series aligned on a common date index.
// Prices[asset][i] is the close of asset on Dates[i].
type Table struct {
	Dates  []time.Time
	Assets []string
	Prices map[string][]float64
}

func (t *Table) Len() int { return len(t.Dates) }

// Price returns the close of asset at index i.
func (t *Table) Price(asset string, i int) (float64, bool) {
	p, ok := t.Prices[asset]
	if !ok || i < 0 || i >= len(p) {
		return 0, false
	}
	return p[i], true
}

// Align intersects the date sets of every series and subsets each series
// to that common, ascending index. An empty intersection is an error: a
// zero-length simulation would only produce a misleading report.
func Align(series map[string]market.Series) (*Table, error) {
	if len(series) == 0 {
		return nil, configErrorf("no assets to align")
	}

	assets := make([]string, 0, len(series))
	for a := range series {
		assets = append(assets, a)
	}
	sort.Strings(assets)

	// count how many series carry each date
	seen := make(map[time.Time]int)
	for _, a := range assets {
		own := make(map[time.Time]struct{}, len(series[a].Bars))
		for _, b := range series[a].Bars {
			own[market.Day(b.Date)] = struct{}{}
		}
		for day := range own {
			seen[day]++
		}
	}

	dates := make([]time.Time, 0, len(seen))
	for day, n := range seen {
		if n == len(assets) {
			dates = append(dates, day)
		}
	}
	if len(dates) == 0 {
		return nil, ErrEmptyAlignment
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	index := make(map[time.Time]int, len(dates))
	for i, day := range dates {
		index[day] = i
	}

	t := &Table{
		Dates:  dates,
		Assets: assets,
		Prices: make(map[string][]float64, len(assets)),
	}
	for _, a := range assets {
		prices := make([]float64, len(dates))
		for _, b := range series[a].Bars {
			if i, ok := index[market.Day(b.Date)]; ok {
				prices[i] = b.Close
			}
		}
		t.Prices[a] = prices
	}
	return t, nil
}
