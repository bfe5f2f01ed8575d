// Package places looks up anchor tenants and shopping centers around a
// coordinate via a places-search API.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://places.googleapis.com/v1"

// Client searches for retail places near a coordinate.
type Client interface {
	// SearchNearby returns brand names of the given kinds found within
	// radiusMiles of the point.
	SearchNearby(ctx context.Context, lat, lng, radiusMiles float64, brands []string) ([]Place, error)

	// SearchShoppingCenters returns shopping centers within radiusMiles.
	SearchShoppingCenters(ctx context.Context, lat, lng, radiusMiles float64) ([]Place, error)
}

// Place is one retail location returned by the API.
type Place struct {
	Name      string  `json:"name"`
	Brand     string  `json:"brand"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Category  string  `json:"category"`
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

// NewClient creates a places API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(10, 10),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// searchResponse mirrors the API's nearby-search envelope.
type searchResponse struct {
	Results []Place `json:"results"`
}

func (c *httpClient) SearchNearby(ctx context.Context, lat, lng, radiusMiles float64, brands []string) ([]Place, error) {
	if len(brands) == 0 {
		return nil, nil
	}

	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%f", lat))
	q.Set("lng", fmt.Sprintf("%f", lng))
	q.Set("radius_miles", fmt.Sprintf("%f", radiusMiles))
	for _, b := range brands {
		q.Add("brand", b)
	}

	return c.search(ctx, "/nearby", q)
}

func (c *httpClient) SearchShoppingCenters(ctx context.Context, lat, lng, radiusMiles float64) ([]Place, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%f", lat))
	q.Set("lng", fmt.Sprintf("%f", lng))
	q.Set("radius_miles", fmt.Sprintf("%f", radiusMiles))
	q.Set("category", "shopping_center")

	return c.search(ctx, "/nearby", q)
}

func (c *httpClient) search(ctx context.Context, path string, q url.Values) ([]Place, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "places: rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "places: create request")
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "places: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "places: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("places: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "places: decode response")
	}
	return result.Results, nil
}
