package backtest

import (
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/rebalancer/market"
)

var (
	// ErrConfiguration is returned before any simulation starts when the
	// weights, capital or frequency are unusable.
	ErrConfiguration = errors.New("backtest: invalid configuration")

	// ErrEmptyAlignment means the requested assets share no trading date.
	ErrEmptyAlignment = errors.New("backtest: no common trading dates")

	// ErrInvalidPrice means a price needed by the simulation or the
	// analytics is missing, non-positive or not a number.
	ErrInvalidPrice = errors.New("backtest: invalid price")

	// ErrDataUnavailable means the price source could not supply an
	// asset's history at all.
	ErrDataUnavailable = errors.New("backtest: price data unavailable")
)

// PriceError pinpoints the asset and date of an invalid price.
type PriceError struct {
	Asset string
	Date  time.Time
	Price float64
}

func (e *PriceError) Error() string {
	return fmt.Sprintf("%v: %s on %s: %v", ErrInvalidPrice, e.Asset, e.Date.Format(market.DateFormat), e.Price)
}

func (e *PriceError) Unwrap() error { return ErrInvalidPrice }

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
