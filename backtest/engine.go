package backtest

import (
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

// WeightTolerance is how far the weights may sum away from 1 before the
// engine warns about it.
const WeightTolerance = 1e-6

// Weights maps an asset to its target fraction of portfolio value.
type Weights map[string]float64

// Assets returns the weighted assets in sorted order.
func (w Weights) Assets() []string {
	out := make([]string, 0, len(w))
	for a := range w {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Sum adds the weights in sorted asset order.
func (w Weights) Sum() float64 {
	var s float64
	for _, a := range w.Assets() {
		s += w[a]
	}
	return s
}

// Config holds the parameters of one backtest run. It is passed by value
// and never modified by the engine.
type Config struct {
	InitialCapital float64
	Weights        Weights
	Frequency      Frequency
}

// Validate checks the config without touching any data.
func (c Config) Validate() error {
	if !(c.InitialCapital > 0) || math.IsInf(c.InitialCapital, 0) {
		return configErrorf("initial capital must be positive, got %v", c.InitialCapital)
	}
	if len(c.Weights) == 0 {
		return configErrorf("no target weights")
	}
	for _, a := range c.Weights.Assets() {
		w := c.Weights[a]
		if a == "" {
			return configErrorf("empty asset name")
		}
		if !(w > 0) || math.IsInf(w, 0) {
			return configErrorf("weight for %s must be positive, got %v", a, w)
		}
	}
	if !c.Frequency.valid() {
		return configErrorf("unknown rebalance frequency %d", int(c.Frequency))
	}
	return nil
}

// Holdings maps an asset to its (fractional) share count.
type Holdings map[string]float64

// ValuePoint is the marked-to-market portfolio value at the close of Date.
type ValuePoint struct {
	Date  time.Time
	Value float64
}

// Rebalance records one reallocation. ValueBefore is the portfolio value
// at the date's close just before the shares were reset; Shares is the
// holding after it. On the first date ValueBefore is the value of the
// initial allocation.
type Rebalance struct {
	Date        time.Time
	ValueBefore float64
	Shares      Holdings
}

// Result is everything a run produces.
type Result struct {
	Config     Config
	Table      *Table
	Schedule   RebalanceDates
	Values     []ValuePoint
	Rebalances []Rebalance
	Final      Holdings

	Portfolio Performance
	Assets    map[string]Performance
}

// Start and End return the first and last simulated dates.
func (r *Result) Start() time.Time { return r.Values[0].Date }
func (r *Result) End() time.Time   { return r.Values[len(r.Values)-1].Date }

// FinalValue is the portfolio value on the last simulated date.
func (r *Result) FinalValue() float64 { return r.Values[len(r.Values)-1].Value }

// Engine simulates a frictionless periodic rebalancer: fractional shares,
// fills at the exact close, no costs. It is single threaded and keeps no
// state between runs.
type Engine struct {
	cfg    Config
	assets []string
}

func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sum := cfg.Weights.Sum(); math.Abs(sum-1) > WeightTolerance {
		log.Warn().Float64("sum", sum).Msg("target weights do not sum to 1")
	}
	return &Engine{cfg: cfg, assets: cfg.Weights.Assets()}, nil
}

// Run walks the table once, in date order. The first date always gets the
// initial allocation; every scheduled date resets the shares to the target
// weights of the current value; every date records the portfolio value.
func (e *Engine) Run(t *Table) (*Result, error) {
	if t == nil || t.Len() == 0 {
		return nil, ErrEmptyAlignment
	}
	for _, a := range e.assets {
		if _, ok := t.Prices[a]; !ok {
			return nil, configErrorf("asset %s has no aligned prices", a)
		}
	}

	sched := Schedule(t.Dates, e.cfg.Frequency)
	isRebalance := sched.mask(t.Dates)

	res := &Result{
		Config:   e.cfg,
		Table:    t,
		Schedule: sched,
		Values:   make([]ValuePoint, 0, t.Len()),
	}

	shares := make(Holdings, len(e.assets))
	for i, day := range t.Dates {
		prices, err := e.prices(t, i)
		if err != nil {
			return nil, err
		}

		if i == 0 {
			e.allocate(shares, e.cfg.InitialCapital, prices)
		}

		if isRebalance[i] {
			before := e.value(shares, prices)
			e.allocate(shares, before, prices)
			res.Rebalances = append(res.Rebalances, Rebalance{
				Date:        day,
				ValueBefore: before,
				Shares:      copyHoldings(shares),
			})
			log.Debug().Time("date", day).Float64("value", before).Msg("rebalance")
		}

		res.Values = append(res.Values, ValuePoint{Date: day, Value: e.value(shares, prices)})
	}
	res.Final = copyHoldings(shares)

	values := make([]float64, len(res.Values))
	for i, v := range res.Values {
		values[i] = v.Value
	}
	perf, err := Measure(values, e.cfg.InitialCapital)
	if err != nil {
		return nil, err
	}
	res.Portfolio = perf

	res.Assets = make(map[string]Performance, len(e.assets))
	for _, a := range e.assets {
		p := t.Prices[a]
		perf, err := Measure(p, p[0])
		if err != nil {
			return nil, err
		}
		res.Assets[a] = perf
	}
	return res, nil
}

// prices collects the weighted assets' closes at index i, rejecting
// anything that would turn into an infinite or NaN share count.
func (e *Engine) prices(t *Table, i int) ([]float64, error) {
	out := make([]float64, len(e.assets))
	for k, a := range e.assets {
		p, ok := t.Price(a, i)
		if !ok || !validPrice(p) {
			return nil, &PriceError{Asset: a, Date: t.Dates[i], Price: p}
		}
		out[k] = p
	}
	return out, nil
}

func (e *Engine) allocate(shares Holdings, value float64, prices []float64) {
	for k, a := range e.assets {
		shares[a] = value * e.cfg.Weights[a] / prices[k]
	}
}

func (e *Engine) value(shares Holdings, prices []float64) float64 {
	var v float64
	for k, a := range e.assets {
		v += shares[a] * prices[k]
	}
	return v
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 0) && !math.IsNaN(p)
}

func copyHoldings(h Holdings) Holdings {
	out := make(Holdings, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
