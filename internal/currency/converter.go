// Package currency converts amounts between currencies using rates from an
// external exchange-rates API.
package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/logger"
)

// Converter fetches a base-relative rate table and converts between any two
// currencies in it. The table is cached for the configured TTL.
type Converter struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	ttl        time.Duration
	now        func() time.Time

	mu        sync.RWMutex
	rates     map[string]decimal.Decimal
	fetchedAt time.Time
}

// NewConverter creates a Converter for the API at baseURL. A nil client uses
// a client with a 30s timeout.
func NewConverter(httpClient *http.Client, baseURL, apiKey string, ttl time.Duration) *Converter {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Converter{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		ttl:        ttl,
		now:        time.Now,
	}
}

// ratesResponse is the body returned by the rates API, e.g.
// {"base":"EUR","rates":{"USD":1.08,"MYR":5.1}}.
type ratesResponse struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// Convert returns amount in from converted to to, rounded half up to four
// decimal places.
func (c *Converter) Convert(ctx context.Context, from, to string, amount decimal.Decimal) (decimal.Decimal, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))

	rates, err := c.Rates(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	fromRate, okFrom := rates[from]
	toRate, okTo := rates[to]
	if !okFrom || !okTo {
		return decimal.Zero, apperrors.WithMessage(apperrors.ErrInvalidCurrency,
			fmt.Sprintf("Invalid currency code: %s or %s", from, to))
	}
	if !fromRate.IsPositive() {
		return decimal.Zero, apperrors.WithMessage(apperrors.ErrRatesUnavailable,
			fmt.Sprintf("No usable rate for %s", from))
	}

	return amount.Mul(toRate).DivRound(fromRate, 4), nil
}

// Rates returns the cached rate table, refreshing it once the TTL has passed.
func (c *Converter) Rates(ctx context.Context) (map[string]decimal.Decimal, error) {
	c.mu.RLock()
	if c.rates != nil && c.now().Sub(c.fetchedAt) < c.ttl {
		rates := c.rates
		c.mu.RUnlock()
		return rates, nil
	}
	c.mu.RUnlock()

	rates, err := c.fetchRates(ctx)
	if err != nil {
		logger.Get().Errorw("failed to fetch exchange rates", "error", err)
		return nil, apperrors.Wrap(apperrors.ErrRatesUnavailable, err)
	}

	c.mu.Lock()
	c.rates = rates
	c.fetchedAt = c.now()
	c.mu.Unlock()
	return rates, nil
}

func (c *Converter) fetchRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing rates url: %w", err)
	}
	q := u.Query()
	q.Set("access_key", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building rates request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rates http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rates request: unexpected status %d", resp.StatusCode)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding rates response: %w", err)
	}
	if len(body.Rates) == 0 {
		return nil, fmt.Errorf("rates response has no rates")
	}
	return body.Rates, nil
}
