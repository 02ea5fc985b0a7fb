package exchangerate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"poupa/internal/domain/currency"
)

const (
	DefaultBaseURL  = "https://v6.exchangerate-api.com/v6"
	defaultTimeout  = 10 * time.Second
	DefaultCacheTTL = time.Hour
)

// Client fetches rate tables from exchangerate-api.com. Tables are cached per
// base currency and concurrent misses for the same base share one request.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	ttl        time.Duration

	group singleflight.Group
	mu    sync.RWMutex
	cache map[string]cachedTable
	now   func() time.Time
}

type cachedTable struct {
	rates     map[string]decimal.Decimal
	fetchedAt time.Time
}

var _ currency.RateProvider = (*Client)(nil)

// latestResponse is the body of GET /{key}/latest/{base}.
type latestResponse struct {
	Result          string                     `json:"result"`
	ErrorType       string                     `json:"error-type"`
	BaseCode        string                     `json:"base_code"`
	ConversionRates map[string]decimal.Decimal `json:"conversion_rates"`
}

func NewClient(baseURL, apiKey string, ttl time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		ttl:        ttl,
		cache:      make(map[string]cachedTable),
		now:        time.Now,
	}
}

// GetRates returns the rate table for base. Upstream failures are returned
// as errors; an expired table is never served.
func (c *Client) GetRates(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	code, err := currency.NormalizeCode(base)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	entry, ok := c.cache[code]
	c.mu.RUnlock()
	if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		return entry.rates, nil
	}

	// The shared fetch outlives any single caller so one cancellation does
	// not fail the others waiting on the same base.
	ch := c.group.DoChan(code, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultTimeout)
		defer cancel()
		return c.fetch(fetchCtx, code)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("failed to fetch %s rates: %w", code, res.Err)
		}
		return res.Val.(map[string]decimal.Decimal), nil
	}
}

func (c *Client) fetch(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	url := fmt.Sprintf("%s/%s/latest/%s", c.baseURL, c.apiKey, base)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("exchange rate request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var latest latestResponse
	if err := json.Unmarshal(body, &latest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if latest.Result != "success" {
		return nil, fmt.Errorf("exchange rate API error: %s", latest.ErrorType)
	}

	rates := make(map[string]decimal.Decimal, len(latest.ConversionRates))
	for code, rate := range latest.ConversionRates {
		if !rate.IsPositive() {
			continue
		}
		rates[code] = rate
	}
	if _, ok := rates[base]; !ok {
		rates[base] = decimal.NewFromInt(1)
	}

	c.mu.Lock()
	c.cache[base] = cachedTable{rates: rates, fetchedAt: c.now()}
	c.mu.Unlock()

	return rates, nil
}
