// Package search provides the web-search client the wizard uses for
// "scrying" current events.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://google.serper.dev"

// Result is one normalized search hit.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Source  string `json:"source"`
}

// Outcome is the soft-failing result of a search call. Status is
// either "success" or "error"; failures never surface as Go errors to
// the pipeline.
type Outcome struct {
	Status     string          `json:"status"`
	Query      string          `json:"query"`
	Results    []Result        `json:"results"`
	Message    string          `json:"message,omitempty"`
	SearchTime float64         `json:"search_time"`
	Raw        json.RawMessage `json:"-"` // upstream body, diagnostics only
}

// OK reports whether the search succeeded.
func (o *Outcome) OK() bool { return o.Status == "success" }

// Config holds search client configuration.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Country string
	Locale  string
}

// DefaultConfig returns sensible defaults, reading the API key from the
// environment.
func DefaultConfig() *Config {
	return &Config{
		APIKey:  os.Getenv("SERPER_API_KEY"),
		BaseURL: defaultBaseURL,
		Timeout: 10 * time.Second,
		Country: "us",
		Locale:  "en",
	}
}

// Client calls the Serper search API.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	country string
	locale  string
	logger  zerolog.Logger
}

// NewClient creates a search client.
func NewClient(logger zerolog.Logger, cfg *Config) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		country: cfg.Country,
		locale:  cfg.Locale,
		logger:  logger.With().Str("component", "search").Logger(),
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool { return c.apiKey != "" }

type serperRequest struct {
	Query   string `json:"q"`
	Num     int    `json:"num"`
	Country string `json:"gl"`
	Locale  string `json:"hl"`
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
		Source  string `json:"source"`
	} `json:"organic"`
}

// Search performs a web search and returns at most numResults results.
// It never returns a Go error: missing credentials, non-200 responses,
// and transport failures all collapse into an error outcome with an
// empty result list.
func (c *Client) Search(ctx context.Context, query string, numResults int) *Outcome {
	if c.apiKey == "" {
		return &Outcome{Status: "error", Query: query, Message: "Web search not configured", Results: []Result{}}
	}
	if numResults <= 0 {
		numResults = 5
	}

	body, err := json.Marshal(serperRequest{
		Query:   query,
		Num:     numResults,
		Country: c.country,
		Locale:  c.locale,
	})
	if err != nil {
		return &Outcome{Status: "error", Query: query, Message: "failed to build request: " + err.Error(), Results: []Result{}}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return &Outcome{Status: "error", Query: query, Message: "failed to create request: " + err.Error(), Results: []Result{}}
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("query", query).Msg("Search request failed")
		return &Outcome{Status: "error", Query: query, Message: "Search failed: " + err.Error(), Results: []Result{}}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Outcome{Status: "error", Query: query, Message: "failed to read response: " + err.Error(), Results: []Result{}}
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error().Int("status", resp.StatusCode).Str("query", query).Msg("Search API error")
		return &Outcome{
			Status:  "error",
			Query:   query,
			Message: "Search API returned " + resp.Status,
			Results: []Result{},
		}
	}

	var parsed serperResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return &Outcome{Status: "error", Query: query, Message: "failed to parse response: " + err.Error(), Results: []Result{}}
	}

	results := make([]Result, 0, numResults)
	for _, item := range parsed.Organic {
		if len(results) >= numResults {
			break
		}
		results = append(results, Result{
			Title:   item.Title,
			Link:    item.Link,
			Snippet: item.Snippet,
			Source:  item.Source,
		})
	}

	elapsed := time.Since(start)
	c.logger.Info().
		Str("query", query).
		Int("results", len(results)).
		Dur("elapsed", elapsed).
		Msg("Search complete")

	return &Outcome{
		Status:     "success",
		Query:      query,
		Results:    results,
		SearchTime: elapsed.Seconds(),
		Raw:        raw,
	}
}
