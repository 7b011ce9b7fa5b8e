package broker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

var (
	// ErrLimitPriceRequired is returned for a limit order without a price.
	ErrLimitPriceRequired = errors.New("limit order requires a price")
	ErrInvalidOrder       = errors.New("invalid order")
)

// Quoter returns the current price of an asset.
type Quoter interface {
	Quote(ctx context.Context, asset string) (Quote, error)
}

// Orderer places and cancels orders.
type Orderer interface {
	PlaceOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
	CancelOrder(ctx context.Context, orderID string) (OrderResult, error)
}

type Broker interface {
	Quoter
	Orderer
}

type Quote struct {
	Asset string
	Price float64
	Time  time.Time
}

type OrderKind int

const (
	Market OrderKind = iota
	Limit
)

func (k OrderKind) String() string {
	switch k {
	case Market:
		return "market"
	case Limit:
		return "limit"
	default:
		return fmt.Sprintf("OrderKind(%d)", int(k))
	}
}

// OrderRequest is a buy of Quantity whole shares of Asset.
type OrderRequest struct {
	Asset      string
	Kind       OrderKind
	Quantity   int64
	LimitPrice float64
}

func (r OrderRequest) Validate() error {
	if strings.TrimSpace(r.Asset) == "" {
		return fmt.Errorf("%w: asset is required", ErrInvalidOrder)
	}
	if r.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be > 0, got %d", ErrInvalidOrder, r.Quantity)
	}
	switch r.Kind {
	case Market:
		if r.LimitPrice != 0 {
			return fmt.Errorf("%w: market order carries limit price %v", ErrInvalidOrder, r.LimitPrice)
		}
	case Limit:
		if r.LimitPrice <= 0 || math.IsNaN(r.LimitPrice) || math.IsInf(r.LimitPrice, 0) {
			return ErrLimitPriceRequired
		}
	default:
		return fmt.Errorf("%w: unknown kind %s", ErrInvalidOrder, r.Kind)
	}
	return nil
}

type OrderResult struct {
	OrderID string
	Asset   string
	Status  string
	// Raw holds the undecoded broker response, when there is one.
	Raw []byte
}
