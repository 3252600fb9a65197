// Package tts renders spoken replies through the Murf API.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/normanking/arcanus/internal/fault"
	"github.com/normanking/arcanus/internal/persona"
)

// maxSpeechChars is the Murf per-request text limit.
const maxSpeechChars = 5000

// Config holds Murf client configuration.
type Config struct {
	APIKey  string        `json:"api_key"`
	BaseURL string        `json:"base_url"`
	Timeout time.Duration `json:"timeout"`
}

// DefaultConfig returns sensible defaults, reading the API key from the
// environment.
func DefaultConfig() *Config {
	return &Config{
		APIKey:  os.Getenv("MURF_API_KEY"),
		BaseURL: "https://api.murf.ai",
		Timeout: 30 * time.Second,
	}
}

// Client is a Murf text-to-speech client. Synthesis returns a hosted
// audio URL rather than raw bytes.
type Client struct {
	config   *Config
	defaults persona.VoiceSettings
	client   *http.Client
	logger   zerolog.Logger
}

// Voice describes one available Murf voice.
type Voice struct {
	VoiceID     string   `json:"voiceId"`
	DisplayName string   `json:"displayName"`
	Locale      string   `json:"locale"`
	Gender      string   `json:"gender"`
	Styles      []string `json:"availableStyles"`
}

// NewClient creates a Murf client. The voice settings act as defaults
// for any field the caller leaves zero.
func NewClient(logger zerolog.Logger, config *Config, defaults persona.VoiceSettings) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	return &Client{
		config:   config,
		defaults: defaults,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger.With().Str("provider", "murf").Logger(),
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.config.APIKey != ""
}

// Synthesize renders text with the given voice and returns the hosted
// audio URL. Zero-valued voice fields fall back to the client defaults.
func (c *Client) Synthesize(ctx context.Context, text string, voice persona.VoiceSettings) (string, error) {
	if !c.Configured() {
		return "", fault.NotConfigured("murf")
	}
	if strings.TrimSpace(text) == "" {
		return "", fault.New(fault.KindInvalidInput, "text is empty")
	}
	if len(text) > maxSpeechChars {
		return "", fault.New(fault.KindInvalidInput, "text exceeds %d characters", maxSpeechChars)
	}

	voice = c.fillDefaults(voice)

	payload, err := json.Marshal(map[string]any{
		"text":       text,
		"voiceId":    voice.VoiceID,
		"style":      voice.Style,
		"rate":       voice.Rate,
		"pitch":      voice.Pitch,
		"format":     voice.Format,
		"sampleRate": voice.SampleRate,
	})
	if err != nil {
		return "", fault.Wrap(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/v1/speech/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fault.Wrap(err)
	}
	req.Header.Set("api-key", c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	var result struct {
		AudioFile string `json:"audioFile"`
	}
	if err := c.do(req, &result); err != nil {
		return "", err
	}
	if result.AudioFile == "" {
		return "", fault.New(fault.KindUpstream, "synthesis returned no audio URL")
	}

	c.logger.Info().
		Str("voice", voice.VoiceID).
		Int("chars", len(text)).
		Dur("elapsed", time.Since(start)).
		Msg("Speech generated")
	return result.AudioFile, nil
}

// ListVoices fetches the available Murf voices.
func (c *Client) ListVoices(ctx context.Context) ([]Voice, error) {
	if !c.Configured() {
		return nil, fault.NotConfigured("murf")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/v1/speech/voices", nil)
	if err != nil {
		return nil, fault.Wrap(err)
	}
	req.Header.Set("api-key", c.config.APIKey)

	var voices []Voice
	if err := c.do(req, &voices); err != nil {
		return nil, err
	}
	return voices, nil
}

func (c *Client) fillDefaults(voice persona.VoiceSettings) persona.VoiceSettings {
	if voice.VoiceID == "" {
		voice.VoiceID = c.defaults.VoiceID
	}
	if voice.Style == "" {
		voice.Style = c.defaults.Style
	}
	if voice.Format == "" {
		voice.Format = c.defaults.Format
	}
	if voice.SampleRate == 0 {
		voice.SampleRate = c.defaults.SampleRate
	}
	if voice.Rate == 0 {
		voice.Rate = c.defaults.Rate
	}
	if voice.Pitch == 0 {
		voice.Pitch = c.defaults.Pitch
	}
	return voice
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fault.Wrap(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fault.Wrap(err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Error().Int("status", resp.StatusCode).Str("body", string(body)).Msg("Murf API error")
		return fault.New(fault.KindUpstream, "murf returned status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fault.Wrap(err)
	}
	return nil
}
