package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewClient(zerolog.Nop(), &Config{
		APIKey:  "test-key",
		BaseURL: ts.URL,
		Timeout: 5 * time.Second,
		Country: "us",
		Locale:  "en",
	})
}

func TestSearchNotConfigured(t *testing.T) {
	c := NewClient(zerolog.Nop(), &Config{})

	assert.False(t, c.Configured())
	out := c.Search(context.Background(), "anything", 5)
	assert.Equal(t, "error", out.Status)
	assert.Equal(t, "Web search not configured", out.Message)
	assert.Empty(t, out.Results)
	assert.False(t, out.OK())
}

func TestSearch(t *testing.T) {
	var gotKey string
	var gotReq serperRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-KEY")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]any{
			"organic": []map[string]string{
				{"title": "First", "link": "https://a.example", "snippet": "one"},
				{"title": "Second", "link": "https://b.example", "snippet": "two"},
				{"title": "Third", "link": "https://c.example", "snippet": "three"},
			},
		})
	})

	out := c.Search(context.Background(), "eclipse dates", 2)
	require.True(t, out.OK())
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "eclipse dates", gotReq.Query)
	assert.Equal(t, "us", gotReq.Country)

	// Results are capped at the requested count.
	require.Len(t, out.Results, 2)
	assert.Equal(t, "First", out.Results[0].Title)
	assert.Equal(t, "https://b.example", out.Results[1].Link)
	assert.NotEmpty(t, out.Raw)
}

func TestSearchUpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	})

	out := c.Search(context.Background(), "eclipse", 5)
	assert.Equal(t, "error", out.Status)
	assert.Contains(t, out.Message, "Search API returned")
	assert.Empty(t, out.Results)
}

func TestSearchTransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close()
	c := NewClient(zerolog.Nop(), &Config{APIKey: "k", BaseURL: ts.URL, Timeout: time.Second})

	out := c.Search(context.Background(), "eclipse", 5)
	assert.Equal(t, "error", out.Status)
	assert.Empty(t, out.Results)
}

func TestSearchZeroResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"organic": []map[string]string{}})
	})

	out := c.Search(context.Background(), "obscure query", 5)
	assert.True(t, out.OK())
	assert.Empty(t, out.Results)
}
