package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/chainview/internal/chain"
)

const (
	tokenPath    = "/userapiauthservice/personal/access-tokens"
	accountsPath = "/userapigateway/trading/account"
	marketPath   = "/userapigateway/marketdata/%s/%s"

	// A cached token is replaced this long before it expires.
	tokenSkew = time.Minute
)

// LatencyRecorder observes every upstream call. *metrics.Metrics satisfies it.
type LatencyRecorder interface {
	ObserveUpstream(operation string, d time.Duration, err error)
}

// HTTPClient talks to the Public.com REST API. Calls are rate limited and
// never retried; callers decide what to do with a failure.
type HTTPClient struct {
	httpClient    *http.Client
	baseURL       string
	secret        string
	tokenValidity time.Duration
	limiter       *rate.Limiter
	recorder      LatencyRecorder
	logger        *zap.Logger
	now           func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(cfg *Config, recorder LatencyRecorder, logger *zap.Logger) *HTTPClient {
	transport := &http.Transport{
		MaxIdleConns:       100,
		MaxConnsPerHost:    10,
		IdleConnTimeout:    90 * time.Second,
		DisableCompression: false,
	}

	ratePerSec := max(cfg.RatePerSec, 1)
	validity := cfg.TokenValidity
	if validity <= 0 {
		validity = time.Duration(max(cfg.TokenValidityMin, 1)) * time.Minute
	}

	return &HTTPClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		baseURL:       cfg.BaseURL,
		secret:        cfg.Secret,
		tokenValidity: validity,
		limiter:       rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec*2),
		recorder:      recorder,
		logger:        logger,
		now:           time.Now,
	}
}

// AccessToken exchanges the secret for a new token valid for the given minutes.
// The result is not cached.
func (c *HTTPClient) AccessToken(ctx context.Context, minutes int) (string, error) {
	var resp tokenResponse
	req := tokenRequest{ValidityInMinutes: minutes, Secret: c.secret}
	if err := c.call(ctx, "token", http.MethodPost, tokenPath, req, &resp, false); err != nil {
		return "", err
	}
	if resp.value() == "" {
		return "", fmt.Errorf("empty token in response: %w", ErrUnauthorized)
	}
	return resp.value(), nil
}

// ListAccounts returns the account ids visible to the API key.
func (c *HTTPClient) ListAccounts(ctx context.Context) ([]string, error) {
	var resp accountsResponse
	if err := c.call(ctx, "accounts", http.MethodGet, accountsPath, nil, &resp, true); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(resp.Accounts))
	for _, a := range resp.Accounts {
		if a.AccountID != "" {
			ids = append(ids, a.AccountID)
		}
	}
	return ids, nil
}

// GetQuote returns the last trade price, or nil when the API has none.
func (c *HTTPClient) GetQuote(ctx context.Context, accountID, symbol, instrumentType string) (*float64, error) {
	var resp quotesResponse
	req := quotesRequest{Instruments: []Instrument{{Symbol: symbol, Type: instrumentType}}}
	if err := c.call(ctx, "quote", http.MethodPost, fmt.Sprintf(marketPath, accountID, "quotes"), req, &resp, true); err != nil {
		return nil, err
	}
	for _, q := range resp.Quotes {
		if q.Instrument.Symbol == "" || q.Instrument.Symbol == symbol {
			return price(q.Last), nil
		}
	}
	return nil, nil
}

// GetExpirations lists option expiration dates as returned upstream.
func (c *HTTPClient) GetExpirations(ctx context.Context, accountID, symbol, instrumentType string) ([]string, error) {
	var resp expirationsResponse
	req := expirationsRequest{Instrument: Instrument{Symbol: symbol, Type: instrumentType}}
	if err := c.call(ctx, "expirations", http.MethodPost, fmt.Sprintf(marketPath, accountID, "option-expirations"), req, &resp, true); err != nil {
		return nil, err
	}
	return resp.Expirations, nil
}

// GetChain returns the call and put legs for one expiration.
func (c *HTTPClient) GetChain(ctx context.Context, accountID, symbol, instrumentType, expiration string) ([]chain.Leg, []chain.Leg, error) {
	var resp chainResponse
	req := chainRequest{Instrument: Instrument{Symbol: symbol, Type: instrumentType}, ExpirationDate: expiration}
	if err := c.call(ctx, "chain", http.MethodPost, fmt.Sprintf(marketPath, accountID, "option-chain"), req, &resp, true); err != nil {
		return nil, nil, err
	}
	return legs(resp.Calls), legs(resp.Puts), nil
}

func (c *HTTPClient) call(ctx context.Context, op, method, path string, in, out any, auth bool) (err error) {
	start := time.Now()
	defer func() {
		if c.recorder != nil {
			c.recorder.ObserveUpstream(op, time.Since(start), err)
		}
	}()

	var bearer string
	if auth {
		if bearer, err = c.bearer(ctx); err != nil {
			return err
		}
	}
	err = c.do(ctx, method, path, in, out, bearer)
	if auth && errors.Is(err, ErrUnauthorized) {
		c.dropToken()
	}
	return err
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any, bearer string) error {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	url := c.baseURL + path
	requestID := uuid.NewString()
	c.logger.Debug("requesting",
		zap.String("method", method),
		zap.String("url", url),
		zap.String("request_id", requestID))

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}

	// Read body before closing for error messages
	respBody, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode >= 500:
		return fmt.Errorf("server error: %d", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// bearer returns a cached token, exchanging the secret when it is missing or about to expire.
func (c *HTTPClient) bearer(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.token != "" && now.Before(c.tokenExpiry.Add(-tokenSkew)) {
		return c.token, nil
	}

	minutes := int(c.tokenValidity / time.Minute)
	var resp tokenResponse
	req := tokenRequest{ValidityInMinutes: minutes, Secret: c.secret}
	if err := c.do(ctx, http.MethodPost, tokenPath, req, &resp, ""); err != nil {
		return "", fmt.Errorf("exchanging secret: %w", err)
	}
	if resp.value() == "" {
		return "", fmt.Errorf("empty token in response: %w", ErrUnauthorized)
	}

	c.token = resp.value()
	c.tokenExpiry = now.Add(c.tokenValidity)
	c.logger.Debug("access token refreshed", zap.Time("expires", c.tokenExpiry))
	return c.token, nil
}

func (c *HTTPClient) dropToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}
