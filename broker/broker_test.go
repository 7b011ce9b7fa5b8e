package broker

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderRequestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     OrderRequest
		wantErr error
	}{
		{"market", OrderRequest{Asset: "TSLA", Kind: Market, Quantity: 3}, nil},
		{"limit", OrderRequest{Asset: "TSLA", Kind: Limit, Quantity: 3, LimitPrice: 250.5}, nil},
		{"no asset", OrderRequest{Kind: Market, Quantity: 3}, ErrInvalidOrder},
		{"zero qty", OrderRequest{Asset: "TSLA", Kind: Market}, ErrInvalidOrder},
		{"negative qty", OrderRequest{Asset: "TSLA", Kind: Market, Quantity: -1}, ErrInvalidOrder},
		{"limit without price", OrderRequest{Asset: "TSLA", Kind: Limit, Quantity: 1}, ErrLimitPriceRequired},
		{"limit NaN", OrderRequest{Asset: "TSLA", Kind: Limit, Quantity: 1, LimitPrice: math.NaN()}, ErrLimitPriceRequired},
		{"market with price", OrderRequest{Asset: "TSLA", Kind: Market, Quantity: 1, LimitPrice: 10}, ErrInvalidOrder},
		{"unknown kind", OrderRequest{Asset: "TSLA", Kind: OrderKind(9), Quantity: 1}, ErrInvalidOrder},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.req.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestOrderKindString(t *testing.T) {
	assert.Equal(t, "market", Market.String())
	assert.Equal(t, "limit", Limit.String())
	assert.Equal(t, "OrderKind(7)", OrderKind(7).String())
}
