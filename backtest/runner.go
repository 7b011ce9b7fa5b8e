package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/rustyeddy/rebalancer/market"
)

// SeriesSource supplies an asset's daily history, ascending and without
// duplicate dates. Zero from/to mean unbounded. Fetching and caching
// missing history is the source's business.
type SeriesSource interface {
	Series(ctx context.Context, asset string, from, to time.Time) (market.Series, error)
}

// Range bounds the dates of a run. Zero values are open.
type Range struct {
	From time.Time
	To   time.Time
}

// Runner loads the history of every weighted asset, aligns it and runs the
// engine. All I/O happens before the simulation starts.
type Runner struct {
	Source SeriesSource
	Config Config
}

func (r *Runner) Run(ctx context.Context, rng Range) (*Result, error) {
	if r.Source == nil {
		return nil, fmt.Errorf("backtest: Source is required")
	}
	engine, err := NewEngine(r.Config)
	if err != nil {
		return nil, err
	}
	if !rng.From.IsZero() && !rng.To.IsZero() && rng.To.Before(rng.From) {
		return nil, configErrorf("range end %s before start %s",
			rng.To.Format(market.DateFormat), rng.From.Format(market.DateFormat))
	}

	series := make(map[string]market.Series, len(r.Config.Weights))
	for _, asset := range r.Config.Weights.Assets() {
		s, err := r.Source.Series(ctx, asset, rng.From, rng.To)
		if err != nil {
			if errors.Is(err, ErrDataUnavailable) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %s: %w", ErrDataUnavailable, asset, err)
		}
		if s.Len() == 0 {
			return nil, fmt.Errorf("%w: %s: no bars", ErrDataUnavailable, asset)
		}
		log.Debug().Str("asset", asset).Int("bars", s.Len()).Msg("loaded series")
		series[asset] = s.Between(rng.From, rng.To)
	}

	table, err := Align(series)
	if err != nil {
		return nil, err
	}
	log.Info().
		Int("assets", len(table.Assets)).
		Int("dates", table.Len()).
		Str("frequency", r.Config.Frequency.String()).
		Msg("running backtest")

	return engine.Run(table)
}
