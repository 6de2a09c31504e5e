package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"walletiq/internal/domain"
)

// ClientConfig holds chain-data client settings.
type ClientConfig struct {
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	CallTimeout time.Duration `yaml:"call_timeout"`
	Retries     uint          `yaml:"retries"`
	RPS         float64       `yaml:"rps"`
	Burst       int           `yaml:"burst"`
}

// DefaultClientConfig returns client defaults: 5s per call, 3 attempts,
// 10 rps with burst 20.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		CallTimeout: 5 * time.Second,
		Retries:     3,
		RPS:         10,
		Burst:       20,
	}
}

// Client is the HTTP implementation of the ChainData contract. All calls
// go through a shared token-bucket rate limiter and a circuit breaker;
// transient failures are retried with backoff before the source is
// reported as failed.
type Client struct {
	cfg     ClientConfig
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewClient creates a chain-data client for the given base URL.
func NewClient(cfg ClientConfig) *Client {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 5 * time.Second
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 20
	}

	settings := gobreaker.Settings{
		Name:        "chain-data",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("chain-data circuit breaker state change")
		},
	}

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.CallTimeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// BreakerState returns the current circuit breaker state string.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	attempts := c.cfg.Retries
	if attempts == 0 {
		attempts = 1
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, retry.Do(
			func() error { return c.doOnce(ctx, path, query, out) },
			retry.Context(ctx),
			retry.Attempts(attempts),
			retry.Delay(100*time.Millisecond),
			retry.DelayType(retry.BackOffDelay),
			retry.LastErrorOnly(true),
		)
	})
	return err
}

func (c *Client) doOnce(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("X-API-Key", c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("chain-data request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("chain-data request %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// Transactions implements ChainData.
func (c *Client) Transactions(ctx context.Context, chain, address, cursor string) (TxPage, error) {
	var page TxPage
	q := url.Values{}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	path := fmt.Sprintf("/v1/%s/address/%s/transactions", chain, address)
	if err := c.getJSON(ctx, path, q, &page); err != nil {
		return TxPage{}, err
	}
	return page, nil
}

// Balances implements ChainData.
func (c *Client) Balances(ctx context.Context, chain, address string) ([]TokenBalance, error) {
	var out struct {
		Balances []TokenBalance `json:"balances"`
	}
	path := fmt.Sprintf("/v1/%s/address/%s/balances", chain, address)
	if err := c.getJSON(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Balances, nil
}

// Interactions implements ChainData.
func (c *Client) Interactions(ctx context.Context, chain, address string) ([]string, error) {
	var out struct {
		Protocols []string `json:"protocols"`
	}
	path := fmt.Sprintf("/v1/%s/address/%s/interactions", chain, address)
	if err := c.getJSON(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Protocols, nil
}

// Transfers implements ChainData.
func (c *Client) Transfers(ctx context.Context, address string, lookback time.Duration) ([]domain.TransferEdge, error) {
	var out struct {
		Edges []domain.TransferEdge `json:"edges"`
	}
	q := url.Values{}
	q.Set("lookback_days", fmt.Sprintf("%d", int(lookback.Hours()/24)))
	path := fmt.Sprintf("/v1/transfers/%s", address)
	if err := c.getJSON(ctx, path, q, &out); err != nil {
		return nil, err
	}
	return out.Edges, nil
}

// Approvals implements ChainData.
func (c *Client) Approvals(ctx context.Context, address string) (ApprovalReport, error) {
	var out ApprovalReport
	path := fmt.Sprintf("/v1/approvals/%s", address)
	if err := c.getJSON(ctx, path, nil, &out); err != nil {
		return ApprovalReport{}, err
	}
	return out, nil
}

// GasStats implements ChainData.
func (c *Client) GasStats(ctx context.Context, address string) (GasStats, error) {
	var out GasStats
	path := fmt.Sprintf("/v1/gas/%s", address)
	if err := c.getJSON(ctx, path, nil, &out); err != nil {
		return GasStats{}, err
	}
	return out, nil
}

// Counterparties implements ChainData.
func (c *Client) Counterparties(ctx context.Context, address string) ([]string, error) {
	var out struct {
		Counterparties []string `json:"counterparties"`
	}
	path := fmt.Sprintf("/v1/counterparties/%s", address)
	if err := c.getJSON(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Counterparties, nil
}
