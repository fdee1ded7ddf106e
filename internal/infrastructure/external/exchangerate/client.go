// Package exchangerate talks to the free exchangerate-api.com and
// restcountries.com endpoints for live rates and country currency
// lookups. Neither API needs credentials.
package exchangerate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/expenseflow/expenseflow/internal/application/port"
)

const (
	defaultRatesBaseURL     = "https://api.exchangerate-api.com/v4"
	defaultCountriesBaseURL = "https://restcountries.com/v3.1"
	defaultTimeout          = 10 * time.Second
)

// Client implements port.CurrencyConverter and port.CountryResolver.
type Client struct {
	httpClient       *http.Client
	ratesBaseURL     string
	countriesBaseURL string
	logger           *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRatesBaseURL overrides the exchange rate API base URL.
func WithRatesBaseURL(u string) Option {
	return func(c *Client) { c.ratesBaseURL = strings.TrimRight(u, "/") }
}

// WithCountriesBaseURL overrides the country API base URL.
func WithCountriesBaseURL(u string) Option {
	return func(c *Client) { c.countriesBaseURL = strings.TrimRight(u, "/") }
}

// NewClient creates a new currency API client
func NewClient(logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient:       &http.Client{Timeout: defaultTimeout},
		ratesBaseURL:     defaultRatesBaseURL,
		countriesBaseURL: defaultCountriesBaseURL,
		logger:           logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type ratesResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// Rates returns the latest exchange rates for a base currency.
func (c *Client) Rates(ctx context.Context, base string) (map[string]float64, error) {
	endpoint := fmt.Sprintf("%s/latest/%s", c.ratesBaseURL, url.PathEscape(strings.ToUpper(base)))

	var body ratesResponse
	if err := c.getJSON(ctx, endpoint, &body); err != nil {
		return nil, fmt.Errorf("fetch rates for %s: %w", base, err)
	}
	if len(body.Rates) == 0 {
		return nil, fmt.Errorf("no rates returned for %s", base)
	}
	return body.Rates, nil
}

// Convert converts amount from one currency to another using the latest
// rate. Same-currency conversions skip the network round trip.
func (c *Client) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)
	if from == to {
		return amount, nil
	}

	rates, err := c.Rates(ctx, from)
	if err != nil {
		return 0, err
	}
	rate, ok := rates[to]
	if !ok {
		return 0, fmt.Errorf("no rate from %s to %s", from, to)
	}
	return amount * rate, nil
}

type countryResponse struct {
	Name struct {
		Common string `json:"common"`
	} `json:"name"`
	Currencies map[string]struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	} `json:"currencies"`
}

// CurrencyFor returns the primary currency code for a country name.
// Falls back to USD when the lookup fails or reports no currency.
func (c *Client) CurrencyFor(ctx context.Context, country string) (string, error) {
	endpoint := fmt.Sprintf("%s/name/%s?fields=name,currencies", c.countriesBaseURL, url.PathEscape(country))

	var body []countryResponse
	if err := c.getJSON(ctx, endpoint, &body); err != nil {
		c.logger.Warn("Country currency lookup failed, defaulting to USD",
			zap.String("country", country), zap.Error(err))
		return "USD", nil
	}
	if len(body) == 0 || len(body[0].Currencies) == 0 {
		return "USD", nil
	}
	return firstCurrencyCode(body[0].Currencies), nil
}

// Countries returns every known country with its primary currency,
// sorted by name.
func (c *Client) Countries(ctx context.Context) ([]port.Country, error) {
	endpoint := c.countriesBaseURL + "/all?fields=name,currencies"

	var body []countryResponse
	if err := c.getJSON(ctx, endpoint, &body); err != nil {
		return nil, fmt.Errorf("fetch countries: %w", err)
	}

	countries := make([]port.Country, 0, len(body))
	for _, entry := range body {
		currency := "USD"
		if len(entry.Currencies) > 0 {
			currency = firstCurrencyCode(entry.Currencies)
		}
		countries = append(countries, port.Country{
			Name:     entry.Name.Common,
			Currency: currency,
		})
	}
	sort.Slice(countries, func(i, j int) bool {
		return countries[i].Name < countries[j].Name
	})
	return countries, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// firstCurrencyCode returns the lexicographically first code so repeated
// lookups for a multi-currency country stay deterministic.
func firstCurrencyCode(currencies map[string]struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}) string {
	codes := make([]string, 0, len(currencies))
	for code := range currencies {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes[0]
}

var (
	_ port.CurrencyConverter = (*Client)(nil)
	_ port.CountryResolver   = (*Client)(nil)
)
