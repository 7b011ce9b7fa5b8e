package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/rustyeddy/rebalancer/backtest"
	"github.com/rustyeddy/rebalancer/market"
)

// DefaultHistory is how far back the loader fetches an asset it has never
// seen.
const DefaultHistory = 10 * 365 * 24 * time.Hour

// Fetcher downloads daily bars from a remote history source.
type Fetcher interface {
	History(ctx context.Context, symbol string, from, to time.Time) ([]market.Bar, error)
}

// Loader serves series from the SQLite store and fills it from a Fetcher
// on demand: a missing asset gets its full default history, a stale one
// gets the days between its last stored bar and yesterday.
type Loader struct {
	Store   *SQLite
	Fetcher Fetcher

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

func (l *Loader) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

// Series implements backtest.SeriesSource.
func (l *Loader) Series(ctx context.Context, asset string, from, to time.Time) (market.Series, error) {
	if err := l.Refresh(ctx, asset); err != nil {
		return market.Series{}, err
	}
	s, err := l.Store.Series(ctx, asset, from, to)
	if err != nil {
		return market.Series{}, fmt.Errorf("%w: %s: %w", backtest.ErrDataUnavailable, asset, err)
	}
	return s, nil
}

// Refresh brings the stored history of asset up to yesterday. When the
// fetch fails but older bars are stored, it logs and keeps them.
func (l *Loader) Refresh(ctx context.Context, asset string) error {
	yesterday := market.Day(l.now()).AddDate(0, 0, -1)

	last, err := l.Store.LastDate(ctx, asset)
	switch {
	case errors.Is(err, ErrNotFound):
		if l.Fetcher == nil {
			return fmt.Errorf("%w: %s not stored and no fetcher", backtest.ErrDataUnavailable, asset)
		}
		from := market.Day(l.now().Add(-DefaultHistory))
		log.Info().Str("asset", asset).Time("from", from).Time("to", yesterday).Msg("downloading history")
		bars, err := l.Fetcher.History(ctx, asset, from, yesterday)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", backtest.ErrDataUnavailable, asset, err)
		}
		if err := l.Store.Upsert(ctx, asset, bars); err != nil {
			return fmt.Errorf("save %s: %w", asset, err)
		}
		return nil

	case err != nil:
		return fmt.Errorf("%w: %s: %w", backtest.ErrDataUnavailable, asset, err)
	}

	if !last.Before(yesterday) || l.Fetcher == nil {
		return nil
	}

	from := last.AddDate(0, 0, 1)
	log.Debug().Str("asset", asset).Time("from", from).Time("to", yesterday).Msg("filling history gap")
	bars, err := l.Fetcher.History(ctx, asset, from, yesterday)
	if err != nil {
		log.Warn().Err(err).Str("asset", asset).Time("last", last).Msg("gap fill failed, using stored history")
		return nil
	}
	return l.Store.Upsert(ctx, asset, bars)
}
