package backtest

import (
	"time"

	"github.com/rustyeddy/rebalancer/market"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func series(asset string, dates []time.Time, closes ...float64) market.Series {
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{Date: dates[i], Close: c}
	}
	return market.NewSeries(asset, bars)
}

// twoWeeks is Thu, Fri, Mon, Tue: two ISO weeks in January 2024.
var twoWeeks = []time.Time{
	day(2024, 1, 4),
	day(2024, 1, 5),
	day(2024, 1, 8),
	day(2024, 1, 9),
}

func scenarioTable() *Table {
	t, err := Align(map[string]market.Series{
		"A": series("A", twoWeeks, 100, 110, 90, 120),
		"B": series("B", twoWeeks, 50, 50, 60, 55),
	})
	if err != nil {
		panic(err)
	}
	return t
}
