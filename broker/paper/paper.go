// Package paper is an in-memory broker that fills every order at the
// current quote and records it.
package paper

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rustyeddy/rebalancer/broker"
	"github.com/rustyeddy/rebalancer/internal/id"
)

var (
	ErrNoPrice            = errors.New("no price")
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderAlreadyClosed = errors.New("order already cancelled")
)

const (
	StatusFilled    = "filled"
	StatusCancelled = "cancelled"
)

// Order is a recorded fill.
type Order struct {
	ID      string
	Request broker.OrderRequest
	Price   float64
	Status  string
	Time    time.Time
}

type Broker struct {
	mu       sync.Mutex
	quoter   broker.Quoter
	prices   map[string]float64
	failures map[string]error
	orders   []*Order
	byID     map[string]*Order
	now      func() time.Time
}

var _ broker.Broker = (*Broker)(nil)

// New returns a paper broker. When quoter is non-nil, assets without a
// set price are quoted through it.
func New(quoter broker.Quoter) *Broker {
	return &Broker{
		quoter:   quoter,
		prices:   make(map[string]float64),
		failures: make(map[string]error),
		byID:     make(map[string]*Order),
		now:      time.Now,
	}
}

func normalize(asset string) string {
	return strings.ToUpper(strings.TrimSpace(asset))
}

// SetPrice fixes the quote for asset.
func (b *Broker) SetPrice(asset string, price float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prices[normalize(asset)] = price
}

// Fail makes every quote and order for asset return err. A nil err
// clears the failure.
func (b *Broker) Fail(asset string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.failures, normalize(asset))
		return
	}
	b.failures[normalize(asset)] = err
}

func (b *Broker) Quote(ctx context.Context, asset string) (broker.Quote, error) {
	asset = normalize(asset)

	b.mu.Lock()
	failure := b.failures[asset]
	price, ok := b.prices[asset]
	quoter := b.quoter
	now := b.now()
	b.mu.Unlock()

	if failure != nil {
		return broker.Quote{}, failure
	}
	if ok {
		return broker.Quote{Asset: asset, Price: price, Time: now}, nil
	}
	if quoter != nil {
		return quoter.Quote(ctx, asset)
	}
	return broker.Quote{}, fmt.Errorf("quote %s: %w", asset, ErrNoPrice)
}

func (b *Broker) PlaceOrder(ctx context.Context, req broker.OrderRequest) (broker.OrderResult, error) {
	if err := req.Validate(); err != nil {
		return broker.OrderResult{}, err
	}
	req.Asset = normalize(req.Asset)

	price := req.LimitPrice
	if req.Kind == broker.Market {
		q, err := b.Quote(ctx, req.Asset)
		if err != nil {
			return broker.OrderResult{}, fmt.Errorf("place order: %w", err)
		}
		price = q.Price
	} else {
		b.mu.Lock()
		failure := b.failures[req.Asset]
		b.mu.Unlock()
		if failure != nil {
			return broker.OrderResult{}, failure
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	o := &Order{
		ID:      id.New(),
		Request: req,
		Price:   price,
		Status:  StatusFilled,
		Time:    b.now(),
	}
	b.orders = append(b.orders, o)
	b.byID[o.ID] = o

	return broker.OrderResult{OrderID: o.ID, Asset: req.Asset, Status: o.Status}, nil
}

func (b *Broker) CancelOrder(ctx context.Context, orderID string) (broker.OrderResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	o, ok := b.byID[orderID]
	if !ok {
		return broker.OrderResult{}, fmt.Errorf("cancel order: %w: %q", ErrOrderNotFound, orderID)
	}
	if o.Status == StatusCancelled {
		return broker.OrderResult{}, fmt.Errorf("cancel order: %w: %q", ErrOrderAlreadyClosed, orderID)
	}
	o.Status = StatusCancelled
	return broker.OrderResult{OrderID: o.ID, Asset: o.Request.Asset, Status: o.Status}, nil
}

// Orders returns copies of the recorded orders in placement order.
func (b *Broker) Orders() []Order {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Order, len(b.orders))
	for i, o := range b.orders {
		out[i] = *o
	}
	return out
}

// Positions sums filled quantities per asset.
func (b *Broker) Positions() map[string]int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	pos := make(map[string]int64)
	for _, o := range b.orders {
		if o.Status == StatusFilled {
			pos[o.Request.Asset] += o.Request.Quantity
		}
	}
	return pos
}

// Cost is the total notional of filled orders.
func (b *Broker) Cost() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	// sum in asset order so the float result does not depend on fill order
	byAsset := make(map[string]float64)
	for _, o := range b.orders {
		if o.Status == StatusFilled {
			byAsset[o.Request.Asset] += float64(o.Request.Quantity) * o.Price
		}
	}
	assets := make([]string, 0, len(byAsset))
	for a := range byAsset {
		assets = append(assets, a)
	}
	sort.Strings(assets)

	var total float64
	for _, a := range assets {
		total += byAsset[a]
	}
	return total
}
