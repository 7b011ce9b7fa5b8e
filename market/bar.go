package market

import "time"

// Bar is one daily price bar for an asset. Only Close is required; the
// other fields are kept when the history source provides them.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// DateFormat is the calendar date layout used by the store, the config and
// the reports.
const DateFormat = "2006-01-02"

// Day truncates t to its calendar date at midnight UTC. Bars are keyed by
// Day(t), so two timestamps on the same date are the same bar.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD date.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}
