package backtest

import (
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rustyeddy/rebalancer/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlignIntersection(t *testing.T) {
	t.Parallel()

	a := series("A", []time.Time{day(2024, 1, 1), day(2024, 1, 2), day(2024, 1, 3), day(2024, 1, 5)}, 1, 2, 3, 5)
	b := series("B", []time.Time{day(2024, 1, 2), day(2024, 1, 3), day(2024, 1, 4), day(2024, 1, 5)}, 20, 30, 40, 50)

	tbl, err := Align(map[string]market.Series{"B": b, "A": a})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, tbl.Assets)
	assert.Equal(t, []time.Time{day(2024, 1, 2), day(2024, 1, 3), day(2024, 1, 5)}, tbl.Dates)
	assert.Equal(t, []float64{2, 3, 5}, tbl.Prices["A"])
	assert.Equal(t, []float64{20, 30, 50}, tbl.Prices["B"])

	p, ok := tbl.Price("B", 1)
	assert.True(t, ok)
	assert.Equal(t, 30.0, p)
	_, ok = tbl.Price("C", 0)
	assert.False(t, ok)
	_, ok = tbl.Price("A", 3)
	assert.False(t, ok)
}

func TestAlignEmptyIntersection(t *testing.T) {
	t.Parallel()

	a := series("A", []time.Time{day(2024, 1, 1), day(2024, 1, 2)}, 1, 2)
	b := series("B", []time.Time{day(2024, 2, 1), day(2024, 2, 2)}, 1, 2)

	_, err := Align(map[string]market.Series{"A": a, "B": b})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyAlignment))
}

func TestAlignNoAssets(t *testing.T) {
	t.Parallel()

	_, err := Align(nil)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestAlignEmptySeries(t *testing.T) {
	t.Parallel()

	a := series("A", []time.Time{day(2024, 1, 1)}, 1)
	_, err := Align(map[string]market.Series{"A": a, "B": {Asset: "B"}})
	assert.ErrorIs(t, err, ErrEmptyAlignment)
}

func TestAlignIgnoresTimeOfDay(t *testing.T) {
	t.Parallel()

	a := market.Series{Asset: "A", Bars: []market.Bar{{Date: time.Date(2024, 1, 2, 21, 0, 0, 0, time.UTC), Close: 1}}}
	b := market.Series{Asset: "B", Bars: []market.Bar{{Date: day(2024, 1, 2), Close: 2}}}

	tbl, err := Align(map[string]market.Series{"A": a, "B": b})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day(2024, 1, 2)}, tbl.Dates)
}

func TestAlignProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	base := day(2020, 1, 1)
	toSeries := func(asset string, offsets []int) market.Series {
		bars := make([]market.Bar, len(offsets))
		for i, o := range offsets {
			bars[i] = market.Bar{Date: base.AddDate(0, 0, o), Close: float64(o + 1)}
		}
		return market.NewSeries(asset, bars)
	}

	properties.Property("index is the sorted intersection", prop.ForAll(
		func(xs, ys []int) bool {
			a, b := toSeries("A", xs), toSeries("B", ys)

			want := map[time.Time]bool{}
			inA := map[time.Time]bool{}
			for _, d := range a.Dates() {
				inA[d] = true
			}
			for _, d := range b.Dates() {
				if inA[d] {
					want[d] = true
				}
			}

			tbl, err := Align(map[string]market.Series{"A": a, "B": b})
			if len(want) == 0 {
				return errors.Is(err, ErrEmptyAlignment)
			}
			if err != nil || len(tbl.Dates) != len(want) {
				return false
			}
			if !sort.SliceIsSorted(tbl.Dates, func(i, j int) bool { return tbl.Dates[i].Before(tbl.Dates[j]) }) {
				return false
			}
			for i, d := range tbl.Dates {
				if !want[d] {
					return false
				}
				if i > 0 && !tbl.Dates[i-1].Before(d) {
					return false
				}
				// price carried from the asset's own bar
				off := int(d.Sub(base).Hours() / 24)
				if tbl.Prices["A"][i] != float64(off+1) || tbl.Prices["B"][i] != float64(off+1) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 60)),
		gen.SliceOf(gen.IntRange(0, 60)),
	))

	properties.TestingRun(t)
}
