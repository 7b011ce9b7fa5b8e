// Package rebalance sizes and places the orders that bring a live
// account to its target weights.
package rebalance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/rustyeddy/rebalancer/broker"
)

var ErrConfiguration = errors.New("rebalance: invalid configuration")

// AssetError is a failure confined to one asset. The batch continues.
type AssetError struct {
	Asset string
	Err   error
}

func (e *AssetError) Error() string { return e.Asset + ": " + e.Err.Error() }
func (e *AssetError) Unwrap() error { return e.Err }

// Order is a planned market buy.
type Order struct {
	Asset    string
	Weight   float64
	Target   float64
	Price    float64
	Quantity int64
}

type Placement struct {
	Order  Order
	Result broker.OrderResult
}

type Report struct {
	Placed   []Placement
	Failures []*AssetError
}

// Strategy buys floor(PortfolioValue*weight/price) shares of each asset.
type Strategy struct {
	Weights        map[string]float64
	PortfolioValue float64
	Quoter         broker.Quoter
	Orderer        broker.Orderer
}

func (s *Strategy) validate() error {
	if s.Quoter == nil || s.Orderer == nil {
		return fmt.Errorf("%w: quoter and orderer are required", ErrConfiguration)
	}
	if !(s.PortfolioValue > 0) || math.IsInf(s.PortfolioValue, 0) {
		return fmt.Errorf("%w: portfolio value must be > 0, got %v", ErrConfiguration, s.PortfolioValue)
	}
	if len(s.Weights) == 0 {
		return fmt.Errorf("%w: no weights", ErrConfiguration)
	}
	for a, w := range s.Weights {
		if a == "" || !(w > 0) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: weight for %q must be > 0, got %v", ErrConfiguration, a, w)
		}
	}
	return nil
}

func (s *Strategy) assets() []string {
	out := make([]string, 0, len(s.Weights))
	for a := range s.Weights {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Plan quotes every asset and sizes its order. Quote failures and
// unusable prices are returned per asset; assets whose target buys less
// than one share are left out.
func (s *Strategy) Plan(ctx context.Context) ([]Order, []*AssetError, error) {
	if err := s.validate(); err != nil {
		return nil, nil, err
	}

	var (
		orders   []Order
		failures []*AssetError
	)
	for _, asset := range s.assets() {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		w := s.Weights[asset]
		target := s.PortfolioValue * w

		q, err := s.Quoter.Quote(ctx, asset)
		if err != nil {
			log.Error().Err(err).Str("asset", asset).Msg("quote failed")
			failures = append(failures, &AssetError{Asset: asset, Err: err})
			continue
		}
		if !(q.Price > 0) || math.IsInf(q.Price, 0) {
			err := fmt.Errorf("invalid price %v", q.Price)
			log.Error().Str("asset", asset).Float64("price", q.Price).Msg("invalid price")
			failures = append(failures, &AssetError{Asset: asset, Err: err})
			continue
		}

		qty := int64(math.Floor(target / q.Price))
		if qty <= 0 {
			log.Info().
				Str("asset", asset).
				Float64("target", target).
				Float64("price", q.Price).
				Msg("order quantity is zero")
			continue
		}

		log.Info().
			Str("asset", asset).
			Float64("target", target).
			Float64("price", q.Price).
			Int64("quantity", qty).
			Msg("planned order")

		orders = append(orders, Order{
			Asset:    asset,
			Weight:   w,
			Target:   target,
			Price:    q.Price,
			Quantity: qty,
		})
	}
	return orders, failures, nil
}

// Execute places a market order for each planned order. Only
// configuration problems and cancellation return an error.
func (s *Strategy) Execute(ctx context.Context) (Report, error) {
	orders, failures, err := s.Plan(ctx)
	if err != nil {
		return Report{}, err
	}

	rep := Report{Failures: failures}
	for _, o := range orders {
		if err := ctx.Err(); err != nil {
			return rep, err
		}

		log.Info().Str("asset", o.Asset).Int64("quantity", o.Quantity).Msg("placing market order")

		res, err := s.Orderer.PlaceOrder(ctx, broker.OrderRequest{
			Asset:    o.Asset,
			Kind:     broker.Market,
			Quantity: o.Quantity,
		})
		if err != nil {
			log.Error().Err(err).Str("asset", o.Asset).Msg("order failed")
			rep.Failures = append(rep.Failures, &AssetError{Asset: o.Asset, Err: err})
			continue
		}
		log.Info().Str("asset", o.Asset).Str("order_id", res.OrderID).Str("status", res.Status).Msg("order placed")
		rep.Placed = append(rep.Placed, Placement{Order: o, Result: res})
	}
	return rep, nil
}
