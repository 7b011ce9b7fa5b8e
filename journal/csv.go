package journal

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/rustyeddy/rebalancer/backtest"
	"github.com/rustyeddy/rebalancer/market"
)

// CSV writes a value series as date,value rows.
type CSV struct {
	w *csv.Writer
	c io.Closer
}

func NewCSV(w io.Writer) (*CSV, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "value"}); err != nil {
		return nil, err
	}
	j := &CSV{w: cw}
	if c, ok := w.(io.Closer); ok {
		j.c = c
	}
	return j, nil
}

// CreateCSV creates (or truncates) path and writes the header.
func CreateCSV(path string) (*CSV, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	j, err := NewCSV(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return j, nil
}

func (j *CSV) Write(v backtest.ValuePoint) error {
	return j.w.Write([]string{v.Date.Format(market.DateFormat), f(v.Value)})
}

func (j *CSV) WriteAll(values []backtest.ValuePoint) error {
	for _, v := range values {
		if err := j.Write(v); err != nil {
			return err
		}
	}
	j.w.Flush()
	return j.w.Error()
}

func (j *CSV) Close() error {
	j.w.Flush()
	if err := j.w.Error(); err != nil {
		return err
	}
	if j.c != nil {
		return j.c.Close()
	}
	return nil
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
