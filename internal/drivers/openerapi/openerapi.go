// Package openerapi fetches USD exchange rates from open.er-api.com.
package openerapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"countryatlas/configs"
	"countryatlas/internal/drivers"
)

const (
	sourceName   = "Exchange Rates API"
	latestPath   = "/v6/latest"
	baseCurrency = "USD"

	retryDelay = 2 * time.Second
)

// payload mirrors the open.er-api.com v6 response envelope.
type payload struct {
	Result string                     `json:"result"`
	Rates  map[string]decimal.Decimal `json:"rates"`
}

// Client is the open.er-api.com rate table client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	logger     *logrus.Logger
}

func NewClient(cfg configs.UpstreamConfig, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		maxRetries: cfg.MaxRetries,
		logger:     logger,
	}
}

func (c *Client) Name() string { return sourceName }

// FetchLatest returns the current rate table keyed by currency code,
// with USD as the base currency. A response whose result field is not
// "success" or whose table is empty counts as invalid data.
func (c *Client) FetchLatest(ctx context.Context) (map[string]decimal.Decimal, error) {
	url := fmt.Sprintf("%s%s/%s", c.baseURL, latestPath, baseCurrency)

	var rates map[string]decimal.Decimal
	backoff := retry.WithMaxRetries(uint64(c.maxRetries), retry.NewConstant(retryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		table, err := c.fetchOnce(ctx, url)
		if err != nil {
			var unavailable *drivers.UnavailableError
			if errors.As(err, &unavailable) {
				c.logger.WithError(err).Warn("Rate table fetch failed, may retry")
				return retry.RetryableError(err)
			}
			return err
		}
		rates = table
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.WithField("rates", len(rates)).Info("Fetched exchange rates")
	return rates, nil
}

func (c *Client) fetchOnce(ctx context.Context, url string) (map[string]decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &drivers.UnavailableError{Source: sourceName, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &drivers.UnavailableError{Source: sourceName, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &drivers.UnavailableError{
			Source: sourceName,
			Err:    fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &drivers.UnavailableError{Source: sourceName, Err: err}
	}

	var parsed payload
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &drivers.InvalidDataError{Source: sourceName, Err: err}
	}
	if parsed.Result != "success" {
		return nil, &drivers.InvalidDataError{
			Source: sourceName,
			Err:    fmt.Errorf("result %q", parsed.Result),
		}
	}
	if len(parsed.Rates) == 0 {
		return nil, &drivers.InvalidDataError{Source: sourceName, Err: fmt.Errorf("empty rate table")}
	}
	return parsed.Rates, nil
}
