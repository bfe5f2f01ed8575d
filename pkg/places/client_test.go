package places

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchNearby(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/nearby", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		assert.ElementsMatch(t, []string{"Target", "Walmart"}, r.URL.Query()["brand"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"name":"Target - Lakeland","brand":"Target","latitude":28.04,"longitude":-81.95,"category":"department_store"},
			{"name":"Walmart Supercenter","brand":"Walmart","latitude":28.05,"longitude":-81.96,"category":"supermarket"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	places, err := c.SearchNearby(context.Background(), 28.03, -81.95, 2.0, []string{"Target", "Walmart"})
	require.NoError(t, err)
	require.Len(t, places, 2)
	assert.Equal(t, "Target", places[0].Brand)
}

func TestSearchNearbyNoBrands(t *testing.T) {
	c := NewClient("test-key")
	places, err := c.SearchNearby(context.Background(), 28.03, -81.95, 2.0, nil)
	require.NoError(t, err)
	assert.Nil(t, places)
}

func TestSearchShoppingCenters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "shopping_center", r.URL.Query().Get("category"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"name":"Lakeside Village","category":"shopping_center"}]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	places, err := c.SearchShoppingCenters(context.Background(), 28.03, -81.95, 5.0)
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, "Lakeside Village", places[0].Name)
}

func TestSearchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := c.SearchShoppingCenters(context.Background(), 28.03, -81.95, 5.0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 429")
}

func TestSearchMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := c.SearchShoppingCenters(context.Background(), 28.03, -81.95, 5.0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestRateLimiterRespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(0.001))
	_, err := c.SearchShoppingCenters(ctx, 28.03, -81.95, 5.0)
	require.Error(t, err)
}
