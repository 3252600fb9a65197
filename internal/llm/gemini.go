// Package llm generates persona replies through the Gemini API.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/normanking/arcanus/internal/fault"
	"github.com/normanking/arcanus/internal/persona"
)

const (
	// truncateThreshold is the reply length that triggers trimming.
	truncateThreshold = 2000
	// truncateKeep is how many characters survive a trim.
	truncateKeep = 2900
	// truncateSuffix closes a trimmed reply in the persona's voice.
	truncateSuffix = "... Alas, my visions are vast, but let me pause here, dear seeker."
)

// Config holds Gemini client configuration.
type Config struct {
	APIKey  string        `json:"api_key"`
	BaseURL string        `json:"base_url"`
	Model   string        `json:"model"`
	Timeout time.Duration `json:"timeout"`
}

// DefaultConfig returns sensible defaults, reading the API key from the
// environment.
func DefaultConfig() *Config {
	return &Config{
		APIKey:  os.Getenv("GEMINI_API_KEY"),
		BaseURL: "https://generativelanguage.googleapis.com/v1beta",
		Model:   "gemini-1.5-flash",
		Timeout: 30 * time.Second,
	}
}

// Client is a Gemini generation client. Every failure path degrades to
// an in-character error line from the persona, so callers always get
// speakable text. The returned error reports what went wrong for
// logging and metrics.
type Client struct {
	config  *Config
	persona persona.Persona
	client  *http.Client
	logger  zerolog.Logger
}

// NewClient creates a Gemini client bound to a persona.
func NewClient(logger zerolog.Logger, config *Config, p persona.Persona) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	return &Client{
		config:  config,
		persona: p,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger.With().Str("provider", "gemini").Logger(),
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.config.APIKey != ""
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.config.Model
}

type generateRequest struct {
	Contents       []content       `json:"contents"`
	SafetySettings []safetySetting `json:"safetySettings"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func defaultSafetySettings() []safetySetting {
	categories := []string{
		"HARM_CATEGORY_HARASSMENT",
		"HARM_CATEGORY_HATE_SPEECH",
		"HARM_CATEGORY_SEXUALLY_EXPLICIT",
		"HARM_CATEGORY_DANGEROUS_CONTENT",
	}
	settings := make([]safetySetting, 0, len(categories))
	for _, cat := range categories {
		settings = append(settings, safetySetting{
			Category:  cat,
			Threshold: "BLOCK_MEDIUM_AND_ABOVE",
		})
	}
	return settings
}

// Generate produces a reply for the assembled prompt. The returned text
// is always non-empty and speakable: on any failure it is the persona's
// in-character error line, with the underlying fault in err.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.Configured() {
		return c.fail(fault.NotConfigured("gemini"))
	}

	payload, err := json.Marshal(generateRequest{
		Contents:       []content{{Parts: []part{{Text: prompt}}}},
		SafetySettings: defaultSafetySettings(),
	})
	if err != nil {
		return c.fail(fault.Wrap(err))
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.config.BaseURL, c.config.Model, c.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return c.fail(fault.Wrap(err))
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return c.fail(fault.Wrap(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.fail(fault.Wrap(err))
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Error().Int("status", resp.StatusCode).Str("body", string(body)).Msg("Gemini API error")
		return c.fail(fault.New(fault.KindUpstream, "gemini returned status %d", resp.StatusCode))
	}

	var result generateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return c.fail(fault.Wrap(err))
	}

	if result.PromptFeedback.BlockReason != "" {
		c.logger.Warn().Str("reason", result.PromptFeedback.BlockReason).Msg("Prompt blocked by safety filter")
		return c.fail(fault.New(fault.KindBlocked, "prompt blocked: %s", result.PromptFeedback.BlockReason))
	}

	text := ""
	if len(result.Candidates) > 0 && len(result.Candidates[0].Content.Parts) > 0 {
		text = strings.TrimSpace(result.Candidates[0].Content.Parts[0].Text)
	}
	if text == "" {
		return c.fail(fault.New(fault.KindEmptyResult, "gemini returned no text"))
	}

	c.logger.Info().
		Int("prompt_chars", len(prompt)).
		Int("reply_chars", len(text)).
		Dur("elapsed", time.Since(start)).
		Msg("Reply generated")
	return truncate(text), nil
}

func (c *Client) fail(err error) (string, error) {
	return c.persona.ErrorResponse(persona.ErrLLM), err
}

// truncate trims overlong replies and appends a closing line so the
// cut never sounds abrupt. The cut backs up to a rune boundary so the
// result stays valid UTF-8.
func truncate(text string) string {
	if len(text) <= truncateThreshold {
		return text
	}
	cut := truncateKeep
	if cut > len(text) {
		cut = len(text)
	}
	for cut < len(text) && cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + truncateSuffix
}
