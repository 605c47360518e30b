// Package restcountries fetches the country catalog from restcountries.com.
package restcountries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"countryatlas/configs"
	"countryatlas/internal/drivers"
)

const (
	sourceName    = "RestCountries API"
	catalogPath   = "/v2/all"
	catalogFields = "name,capital,region,population,flag,currencies"

	retryDelay = 2 * time.Second
)

// payloadCountry mirrors one entry of the restcountries v2 response.
type payloadCountry struct {
	Name       string            `json:"name"`
	Capital    string            `json:"capital"`
	Region     string            `json:"region"`
	Population *int64            `json:"population"`
	Flag       string            `json:"flag"`
	Currencies []payloadCurrency `json:"currencies"`
}

type payloadCurrency struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// Client is the restcountries.com catalog client.
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

// FetchAll returns every catalog entry, normalized for reconciliation.
// Transient transport failures are retried a bounded number of times;
// a payload that parses but is empty counts as invalid data.
func (c *Client) FetchAll(ctx context.Context) ([]drivers.RawCountry, error) {
	url := fmt.Sprintf("%s%s?fields=%s", c.baseURL, catalogPath, catalogFields)

	var payload []payloadCountry
	backoff := retry.WithMaxRetries(uint64(c.maxRetries), retry.NewConstant(retryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		entries, err := c.fetchOnce(ctx, url)
		if err != nil {
			var unavailable *drivers.UnavailableError
			if errors.As(err, &unavailable) {
				c.logger.WithError(err).Warn("Country catalog fetch failed, may retry")
				return retry.RetryableError(err)
			}
			return err
		}
		payload = entries
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(payload) == 0 {
		return nil, &drivers.InvalidDataError{Source: sourceName, Err: fmt.Errorf("empty catalog")}
	}

	raw := make([]drivers.RawCountry, 0, len(payload))
	for _, entry := range payload {
		raw = append(raw, normalize(entry))
	}
	c.logger.WithField("countries", len(raw)).Info("Fetched country catalog")
	return raw, nil
}

func (c *Client) fetchOnce(ctx context.Context, url string) ([]payloadCountry, error) {
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

	var payload []payloadCountry
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &drivers.InvalidDataError{Source: sourceName, Err: err}
	}
	return payload, nil
}

func normalize(entry payloadCountry) drivers.RawCountry {
	raw := drivers.RawCountry{
		Name:       entry.Name,
		Capital:    optional(entry.Capital),
		Region:     optional(entry.Region),
		Population: entry.Population,
		FlagURL:    optional(entry.Flag),
	}
	// Only the first listed currency participates in reconciliation.
	if len(entry.Currencies) > 0 && entry.Currencies[0].Code != "" {
		code := entry.Currencies[0].Code
		raw.CurrencyCode = &code
	}
	return raw
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
