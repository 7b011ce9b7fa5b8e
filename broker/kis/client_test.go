package kis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rustyeddy/rebalancer/broker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := NewClient(Config{BaseURL: url, Token: "test-token", AccountID: "12345678-01"})
	require.NoError(t, err)
	c.now = func() time.Time { return time.Date(2024, 6, 3, 14, 0, 0, 0, time.UTC) }
	return c
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&m))
	return m
}

func TestNewClient(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c, err := NewClient(Config{Token: "tok"})
		require.NoError(t, err)
		assert.Equal(t, LiveURL, c.baseURL)
		assert.Equal(t, DefaultExchange, c.exchange)
		assert.NotNil(t, c.httpClient)
	})

	t.Run("token required", func(t *testing.T) {
		_, err := NewClient(Config{})
		assert.Error(t, err)
	})
}

func TestQuote_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/quotation", r.URL.Path)
		assert.Equal(t, "test-token", r.Header.Get("approval_key"))
		assert.Equal(t, "P", r.Header.Get("custtype"))
		assert.Equal(t, "1", r.Header.Get("tr_type"))

		body := decodeBody(t, r)
		in := body["input"].(map[string]any)
		assert.Equal(t, "HDFSCNT0", in["tr_id"])
		assert.Equal(t, "DNASTSLA", in["tr_key"])

		w.Write([]byte(`{"price":"248.42"}`))
	}))
	defer server.Close()

	q, err := newTestClient(t, server.URL).Quote(context.Background(), "tsla")
	require.NoError(t, err)
	assert.Equal(t, "TSLA", q.Asset)
	assert.InDelta(t, 248.42, q.Price, 1e-9)
	assert.Equal(t, time.Date(2024, 6, 3, 14, 0, 0, 0, time.UTC), q.Time)
}

func TestQuote_NumericPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"price":100}`))
	}))
	defer server.Close()

	q, err := newTestClient(t, server.URL).Quote(context.Background(), "JPM")
	require.NoError(t, err)
	assert.Equal(t, 100.0, q.Price)
}

func TestQuote_NoPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"msg":"not found"}`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).Quote(context.Background(), "JPM")
	assert.True(t, errors.Is(err, ErrNoPrice))
}

func TestQuote_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("  invalid approval key \n"))
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).Quote(context.Background(), "JPM")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Contains(t, err.Error(), "invalid approval key")
}

func TestPlaceOrder_Market(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/order", r.URL.Path)

		body := decodeBody(t, r)
		in := body["input"].(map[string]any)
		assert.Equal(t, "HDFSASP0", in["tr_id"])
		assert.Equal(t, "RNASPLTR", in["tr_key"])

		details := body["orderDetails"].(map[string]any)
		assert.Equal(t, "12345678-01", details["account"])
		assert.Equal(t, "market", details["orderType"])
		assert.Equal(t, "805", details["quantity"])
		_, hasPrice := details["price"]
		assert.False(t, hasPrice)

		w.Write([]byte(`{"order_id":"0001","status":"accepted"}`))
	}))
	defer server.Close()

	res, err := newTestClient(t, server.URL).PlaceOrder(context.Background(), broker.OrderRequest{
		Asset:    "PLTR",
		Kind:     broker.Market,
		Quantity: 805,
	})
	require.NoError(t, err)
	assert.Equal(t, "0001", res.OrderID)
	assert.Equal(t, "PLTR", res.Asset)
	assert.Equal(t, "accepted", res.Status)
	assert.JSONEq(t, `{"order_id":"0001","status":"accepted"}`, string(res.Raw))
}

func TestPlaceOrder_Limit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		details := decodeBody(t, r)["orderDetails"].(map[string]any)
		assert.Equal(t, "limit", details["orderType"])
		assert.Equal(t, "10", details["quantity"])
		assert.Equal(t, "199.95", details["price"])
		w.Write([]byte(`{"order_id":"0002"}`))
	}))
	defer server.Close()

	res, err := newTestClient(t, server.URL).PlaceOrder(context.Background(), broker.OrderRequest{
		Asset:      "JNJ",
		Kind:       broker.Limit,
		Quantity:   10,
		LimitPrice: 199.95,
	})
	require.NoError(t, err)
	assert.Equal(t, "0002", res.OrderID)
}

func TestPlaceOrder_Validation(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.PlaceOrder(context.Background(), broker.OrderRequest{Asset: "JNJ", Kind: broker.Limit, Quantity: 1})
	assert.True(t, errors.Is(err, broker.ErrLimitPriceRequired))

	c.accountID = ""
	_, err = c.PlaceOrder(context.Background(), broker.OrderRequest{Asset: "JNJ", Kind: broker.Market, Quantity: 1})
	assert.Error(t, err)
	assert.Equal(t, 0, calls)
}

func TestCancelOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cancel_order", r.URL.Path)
		in := decodeBody(t, r)["input"].(map[string]any)
		assert.Equal(t, "HDFSASP0", in["tr_id"])
		assert.Equal(t, "0001", in["order_id"])
		w.Write([]byte(`{"status":"cancelled"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	res, err := c.CancelOrder(context.Background(), "0001")
	require.NoError(t, err)
	assert.Equal(t, "0001", res.OrderID)
	assert.Equal(t, "cancelled", res.Status)

	_, err = c.CancelOrder(context.Background(), " ")
	assert.Error(t, err)
}
