// Package journal persists backtest runs and their value series.
package journal

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rustyeddy/rebalancer/backtest"
	"github.com/rustyeddy/rebalancer/internal/id"
)

var ErrRunNotFound = errors.New("run not found")

// Run is the summary row of one backtest.
type Run struct {
	ID             string
	Created        time.Time
	Weights        map[string]float64
	Frequency      string
	Start          time.Time
	End            time.Time
	InitialCapital float64
	FinalValue     float64
	ReturnPct      float64
	MaxDrawdownPct float64
	Rebalances     int
}

// Assets returns the run's assets sorted.
func (r Run) Assets() []string {
	out := make([]string, 0, len(r.Weights))
	for a := range r.Weights {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// NewRun summarizes res under a fresh ID stamped with created.
func NewRun(res *backtest.Result, created time.Time) Run {
	weights := make(map[string]float64, len(res.Config.Weights))
	for a, w := range res.Config.Weights {
		weights[a] = w
	}
	return Run{
		ID:             id.At(created),
		Created:        created.UTC(),
		Weights:        weights,
		Frequency:      res.Config.Frequency.String(),
		Start:          res.Start(),
		End:            res.End(),
		InitialCapital: res.Config.InitialCapital,
		FinalValue:     res.FinalValue(),
		ReturnPct:      res.Portfolio.ReturnPct,
		MaxDrawdownPct: res.Portfolio.MaxDrawdownPct,
		Rebalances:     len(res.Rebalances),
	}
}

type Journal interface {
	RecordRun(ctx context.Context, run Run, values []backtest.ValuePoint) error
	Close() error
}
