// Package census fetches city demographics (population, income, growth)
// from a census data API.
package census

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/davestroud/publix/internal/model"
)

const defaultBaseURL = "https://api.census.gov/data"

// Client fetches demographics for a city.
type Client interface {
	// GetDemographics returns the profile for (city, state), or (nil, nil)
	// when the API has no data for that place.
	GetDemographics(ctx context.Context, city, state string) (*model.DemographicProfile, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit sets the requests-per-second limit on API calls.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), int(rps))
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a census API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(2, 2),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// placeResponse mirrors the API's place-demographics envelope. Optional
// fields are pointers so absent data stays distinguishable from zero.
type placeResponse struct {
	City         string   `json:"city"`
	State        string   `json:"state"`
	Population   *int     `json:"population"`
	MedianIncome *float64 `json:"median_income"`
	GrowthRate   *float64 `json:"growth_rate"`
}

func (c *httpClient) GetDemographics(ctx context.Context, city, state string) (*model.DemographicProfile, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "census: rate limiter")
	}

	q := url.Values{}
	q.Set("city", city)
	q.Set("state", state)
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/place?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "census: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "census: send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "census: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("census: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var place placeResponse
	if err := json.Unmarshal(body, &place); err != nil {
		return nil, eris.Wrap(err, "census: decode response")
	}

	if place.Population == nil {
		return nil, nil
	}

	return &model.DemographicProfile{
		City:         place.City,
		State:        place.State,
		Population:   *place.Population,
		MedianIncome: place.MedianIncome,
		GrowthRate:   place.GrowthRate,
	}, nil
}
