package kis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/rustyeddy/rebalancer/broker"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const (
	// LiveURL is the Korea Investment open API host.
	LiveURL = "https://openapi.koreainvestment.com:9443"
	// DefaultExchange is the overseas exchange code used in tr_key.
	DefaultExchange = "NAS"

	quoteTrID = "HDFSCNT0"
	orderTrID = "HDFSASP0"
)

var ErrNoPrice = errors.New("kis: quote has no price")

type Config struct {
	BaseURL   string
	Token     string
	AccountID string
	Exchange  string
	// RequestsPerSecond <= 0 disables rate limiting.
	RequestsPerSecond float64
}

// Client talks to the overseas stock quotation and order endpoints.
type Client struct {
	baseURL    string
	token      string
	accountID  string
	exchange   string
	httpClient *http.Client
	limiter    *rate.Limiter
	now        func() time.Time
}

var _ broker.Broker = (*Client)(nil)

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("kis: token is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = LiveURL
	}
	if cfg.Exchange == "" {
		cfg.Exchange = DefaultExchange
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		token:     cfg.Token,
		accountID: cfg.AccountID,
		exchange:  strings.ToUpper(cfg.Exchange),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
	}, nil
}

type input struct {
	TrID    string `json:"tr_id"`
	TrKey   string `json:"tr_key,omitempty"`
	OrderID string `json:"order_id,omitempty"`
}

type orderDetails struct {
	Account   string `json:"account"`
	OrderType string `json:"orderType"`
	Quantity  string `json:"quantity"`
	Price     string `json:"price,omitempty"`
}

type requestBody struct {
	Input        input         `json:"input"`
	OrderDetails *orderDetails `json:"orderDetails,omitempty"`
}

type quoteResponse struct {
	Price *decimal.Decimal `json:"price"`
}

type orderResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// trKey builds the D (quote) or R (order) prefixed key for symbol.
func (c *Client) trKey(prefix, symbol string) string {
	return prefix + c.exchange + symbol
}

func (c *Client) Quote(ctx context.Context, asset string) (broker.Quote, error) {
	asset = strings.ToUpper(strings.TrimSpace(asset))
	if asset == "" {
		return broker.Quote{}, fmt.Errorf("asset is required")
	}

	body := requestBody{Input: input{TrID: quoteTrID, TrKey: c.trKey("D", asset)}}

	var qr quoteResponse
	if _, err := c.post(ctx, "/quotation", body, &qr); err != nil {
		return broker.Quote{}, fmt.Errorf("quote %s: %w", asset, err)
	}
	if qr.Price == nil {
		return broker.Quote{}, fmt.Errorf("%w for %s", ErrNoPrice, asset)
	}

	price, _ := qr.Price.Float64()
	return broker.Quote{Asset: asset, Price: price, Time: c.now()}, nil
}

func (c *Client) PlaceOrder(ctx context.Context, req broker.OrderRequest) (broker.OrderResult, error) {
	if err := req.Validate(); err != nil {
		return broker.OrderResult{}, err
	}
	if c.accountID == "" {
		return broker.OrderResult{}, fmt.Errorf("kis: account id is required to place orders")
	}
	asset := strings.ToUpper(strings.TrimSpace(req.Asset))

	details := &orderDetails{
		Account:   c.accountID,
		OrderType: req.Kind.String(),
		Quantity:  decimal.NewFromInt(req.Quantity).String(),
	}
	if req.Kind == broker.Limit {
		details.Price = decimal.NewFromFloat(req.LimitPrice).String()
	}
	body := requestBody{
		Input:        input{TrID: orderTrID, TrKey: c.trKey("R", asset)},
		OrderDetails: details,
	}

	var or orderResponse
	raw, err := c.post(ctx, "/order", body, &or)
	if err != nil {
		return broker.OrderResult{}, fmt.Errorf("order %s: %w", asset, err)
	}

	log.Debug().
		Str("asset", asset).
		Str("kind", req.Kind.String()).
		Int64("quantity", req.Quantity).
		Str("order_id", or.OrderID).
		Msg("order placed")

	return broker.OrderResult{OrderID: or.OrderID, Asset: asset, Status: or.Status, Raw: raw}, nil
}

func (c *Client) CancelOrder(ctx context.Context, orderID string) (broker.OrderResult, error) {
	if strings.TrimSpace(orderID) == "" {
		return broker.OrderResult{}, fmt.Errorf("order id is required")
	}

	body := requestBody{Input: input{TrID: orderTrID, OrderID: orderID}}

	var or orderResponse
	raw, err := c.post(ctx, "/cancel_order", body, &or)
	if err != nil {
		return broker.OrderResult{}, fmt.Errorf("cancel %s: %w", orderID, err)
	}
	if or.OrderID == "" {
		or.OrderID = orderID
	}
	return broker.OrderResult{OrderID: or.OrderID, Status: or.Status, Raw: raw}, nil
}

// post sends body as JSON to path and decodes the response into out.
// It returns the raw response body.
func (c *Client) post(ctx context.Context, path string, body any, out any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("approval_key", c.token)
	req.Header.Set("custtype", "P")
	req.Header.Set("tr_type", "1")
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}
	return raw, nil
}
