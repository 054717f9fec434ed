package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"chartpulse/internal/domain"
)

// Default configuration values.
const (
	DefaultTimeout     = 10 * time.Second
	DefaultMaxRetries  = 2
	DefaultRetryDelay  = 500 * time.Millisecond
	DefaultMaxDelay    = 5 * time.Second
	DefaultBackoffMult = 2.0
	DefaultInterval    = "1m"
)

// HTTPClient implements CandleSource against a DEX aggregator REST API.
type HTTPClient struct {
	endpoint    string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	interval    string
	limit       int
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// WithInterval sets the candle interval requested from the aggregator.
func WithInterval(interval string) ClientOption {
	return func(c *HTTPClient) {
		c.interval = interval
	}
}

// WithLimit sets how many candles each fetch requests.
func WithLimit(n int) ClientOption {
	return func(c *HTTPClient) {
		c.limit = n
	}
}

// NewHTTPClient creates a new aggregator candle client.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
		interval:    DefaultInterval,
		limit:       domain.CandleBufferSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// candlesResponse is the raw aggregator response.
type candlesResponse struct {
	Mint    string      `json:"mint"`
	Candles []rawCandle `json:"candles"`
	Error   *apiError   `json:"error,omitempty"`
}

type rawCandle struct {
	Timestamp int64   `json:"timestamp"` // interval start, unix ms
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// apiError represents an aggregator error payload.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("aggregator error %d: %s", e.Code, e.Message)
}

// FetchCandles retrieves recent candles for the mint, oldest first.
// Well-formed mints (32-byte base58) are requested by their canonical
// encoding; anything else is passed through verbatim and left for the
// aggregator to reject. The engine itself never validates identifiers.
func (c *HTTPClient) FetchCandles(ctx context.Context, tokenMint string) ([]domain.Candle, error) {
	requestMint := tokenMint
	if info := InspectMint(tokenMint); info.WellFormed {
		requestMint = info.Canonical
	}

	reqURL := fmt.Sprintf("%s/v1/candles/%s?interval=%s&limit=%d",
		c.endpoint, url.PathEscape(requestMint), url.QueryEscape(c.interval), c.limit)

	var resp candlesResponse
	if err := c.get(ctx, reqURL, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}

	candles := make([]domain.Candle, len(resp.Candles))
	for i, raw := range resp.Candles {
		candles[i] = domain.Candle{
			TokenMint:   tokenMint,
			TimestampMs: raw.Timestamp,
			Open:        raw.Open,
			High:        raw.High,
			Low:         raw.Low,
			Close:       raw.Close,
			Volume:      raw.Volume,
		}
	}

	// Aggregators usually return newest first; the buffer wants oldest first.
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].TimestampMs < candles[j].TimestampMs
	})

	return candles, nil
}

// get performs a GET with retries and exponential backoff.
func (c *HTTPClient) get(ctx context.Context, reqURL string, result interface{}) error {
	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		// Handle rate limiting
		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
			continue
		}

		if err := json.Unmarshal(respBody, result); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

var _ CandleSource = (*HTTPClient)(nil)
