// Package apiclient is the HTTP client for the exchange API, used by
// the market-making agent and external tooling.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"glue-exchange/internal/exchange"
)

// Default configuration values.
const (
	DefaultTimeout    = 10 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = 500 * time.Millisecond
	DefaultMaxDelay   = 5 * time.Second

	headerAccountID = "X-Account-Id"
	headerBotSecret = "X-Bot-Secret"
)

// APIError is a structured error body returned by the exchange.
type APIError struct {
	StatusCode int
	Message    string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client talks to the exchange HTTP API.
//
// Read requests are retried with exponential backoff. Trade requests
// are NEVER retried: a timed-out trade may have committed, and a
// blind retry risks doubling the position.
type Client struct {
	baseURL    string
	accountID  string
	botSecret  string
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
	maxDelay   time.Duration
}

// Option configures Client.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.client.Timeout = d }
}

// WithMaxRetries sets maximum retry attempts for read requests.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.client = client }
}

// WithBotSecret attaches the service credential to every request.
func WithBotSecret(secret string) Option {
	return func(c *Client) { c.botSecret = secret }
}

// New creates an exchange API client acting as the given account.
func New(baseURL, accountID string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		accountID:  accountID,
		client:     &http.Client{Timeout: DefaultTimeout},
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		maxDelay:   DefaultMaxDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// QuoteRequest asks for a price preview.
type QuoteRequest struct {
	Action string `json:"action"` // "buy" or "sell"
	Amount int64  `json:"amount"`
}

// QuoteResponse is the price preview.
type QuoteResponse struct {
	TotalCoins float64 `json:"totalCoins"`
	PriceStart float64 `json:"priceStart"`
	PriceEnd   float64 `json:"priceEnd"`
}

// Quote previews a trade without mutating anything. Retried.
func (c *Client) Quote(ctx context.Context, action string, amount int64) (*QuoteResponse, error) {
	var resp QuoteResponse
	err := c.doRetried(ctx, http.MethodPost, "/api/exchange/quote",
		QuoteRequest{Action: action, Amount: amount}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// TradeRequest executes a real trade.
type TradeRequest struct {
	Action string `json:"action"`
	Amount int64  `json:"amount"`
}

// TradeResponse acknowledges a committed trade.
type TradeResponse struct {
	Success bool   `json:"success"`
	TradeID string `json:"tradeId,omitempty"`
}

// Trade executes a real trade. Never retried.
func (c *Client) Trade(ctx context.Context, action string, amount int64) (*TradeResponse, error) {
	var resp TradeResponse
	err := c.do(ctx, http.MethodPost, "/api/exchange/trade",
		TradeRequest{Action: action, Amount: amount}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// TickerResponse is the current spot price and supply.
type TickerResponse struct {
	Price  float64 `json:"price"`
	Supply int64   `json:"supply"`
}

// Ticker reads the current spot price and supply. Retried.
func (c *Client) Ticker(ctx context.Context) (*TickerResponse, error) {
	var resp TickerResponse
	if err := c.doRetried(ctx, http.MethodGet, "/api/exchange/ticker", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stats reads the operator's market view. Retried.
func (c *Client) Stats(ctx context.Context) (*exchange.Stats, error) {
	var resp exchange.Stats
	if err := c.doRetried(ctx, http.MethodGet, "/api/exchange/admin", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// doRetried performs a request with exponential backoff. Only safe for
// idempotent or side-effect-free endpoints.
func (c *Client) doRetried(ctx context.Context, method, path string, body, result interface{}) error {
	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		err := c.do(ctx, method, path, body, result)
		if err == nil {
			return nil
		}
		// Client-side rejections will not heal on retry.
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// do performs a single request, once.
func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.accountID != "" {
		req.Header.Set(headerAccountID, c.accountID)
	}
	if c.botSecret != "" {
		req.Header.Set(headerBotSecret, c.botSecret)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if json.Unmarshal(respBody, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = string(respBody)
		}
		return apiErr
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}
