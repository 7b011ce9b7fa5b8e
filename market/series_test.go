package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestDay(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("KST", 9*60*60)
	got := Day(time.Date(2024, 3, 5, 23, 59, 0, 0, loc))
	assert.Equal(t, d(2024, 3, 5), got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestParseDay(t *testing.T) {
	t.Parallel()

	got, err := ParseDay("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, d(2024, 2, 29), got)

	_, err = ParseDay("29/02/2024")
	assert.Error(t, err)
}

func TestNewSeriesSortsAndDedupes(t *testing.T) {
	t.Parallel()

	s := NewSeries("AAA", []Bar{
		{Date: d(2024, 1, 3), Close: 3},
		{Date: d(2024, 1, 1), Close: 1},
		{Date: d(2024, 1, 2), Close: 2},
		{Date: time.Date(2024, 1, 1, 16, 0, 0, 0, time.UTC), Close: 10},
	})

	require.Equal(t, 3, s.Len())
	assert.Equal(t, []time.Time{d(2024, 1, 1), d(2024, 1, 2), d(2024, 1, 3)}, s.Dates())
	// last write wins
	assert.Equal(t, 10.0, s.Bars[0].Close)
}

func TestSeriesFirstLastEmpty(t *testing.T) {
	t.Parallel()

	var s Series
	_, ok := s.First()
	assert.False(t, ok)
	_, ok = s.Last()
	assert.False(t, ok)
}

func TestSeriesBetween(t *testing.T) {
	t.Parallel()

	s := NewSeries("AAA", []Bar{
		{Date: d(2024, 1, 1), Close: 1},
		{Date: d(2024, 1, 2), Close: 2},
		{Date: d(2024, 1, 3), Close: 3},
		{Date: d(2024, 1, 4), Close: 4},
	})

	tests := []struct {
		name     string
		from, to time.Time
		want     int
	}{
		{"open", time.Time{}, time.Time{}, 4},
		{"from only", d(2024, 1, 3), time.Time{}, 2},
		{"to only", time.Time{}, d(2024, 1, 2), 2},
		{"inclusive", d(2024, 1, 2), d(2024, 1, 3), 2},
		{"empty", d(2025, 1, 1), time.Time{}, 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, s.Between(tt.from, tt.to).Len())
		})
	}
}

func TestSeriesMergeOtherWins(t *testing.T) {
	t.Parallel()

	a := NewSeries("AAA", []Bar{{Date: d(2024, 1, 1), Close: 1}, {Date: d(2024, 1, 2), Close: 2}})
	b := NewSeries("AAA", []Bar{{Date: d(2024, 1, 2), Close: 20}, {Date: d(2024, 1, 3), Close: 3}})

	m := a.Merge(b)
	require.Equal(t, 3, m.Len())
	assert.Equal(t, 20.0, m.Bars[1].Close)
	last, ok := m.Last()
	require.True(t, ok)
	assert.Equal(t, 3.0, last.Close)
}
