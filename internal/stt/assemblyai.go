// Package stt transcribes seeker audio through the AssemblyAI API.
package stt

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

	"github.com/rs/zerolog"

	"github.com/normanking/arcanus/internal/fault"
)

// Config holds AssemblyAI client configuration.
type Config struct {
	APIKey       string        `json:"api_key"`
	BaseURL      string        `json:"base_url"`
	Timeout      time.Duration `json:"timeout"`
	PollInterval time.Duration `json:"poll_interval"`
}

// DefaultConfig returns sensible defaults, reading the API key from the
// environment.
func DefaultConfig() *Config {
	return &Config{
		APIKey:       os.Getenv("ASSEMBLYAI_API_KEY"),
		BaseURL:      "https://api.assemblyai.com/v2",
		Timeout:      30 * time.Second,
		PollInterval: 500 * time.Millisecond,
	}
}

// Client is an AssemblyAI speech-to-text client. Audio is uploaded
// first, then a transcript job is created and polled until it settles.
type Client struct {
	config *Config
	client *http.Client
	logger zerolog.Logger
}

// NewClient creates an AssemblyAI client.
func NewClient(logger zerolog.Logger, config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	return &Client{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger.With().Str("provider", "assemblyai").Logger(),
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.config.APIKey != ""
}

// Transcribe uploads the audio and polls the transcript job until it
// completes. The audio is spooled through a temp file so the upload can
// be retried from the start if the reader is not seekable.
func (c *Client) Transcribe(ctx context.Context, audio io.Reader) (string, error) {
	if !c.Configured() {
		return "", fault.NotConfigured("assemblyai")
	}

	// The client timeout bounds each request; this bounds the whole
	// upload-and-poll sequence.
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	// Upstream handlers may have consumed the reader already.
	if seeker, ok := audio.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return "", fault.Wrap(err)
		}
	}

	tmp, err := os.CreateTemp("", "arcanus-audio-*")
	if err != nil {
		return "", fault.Wrap(err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	size, err := io.Copy(tmp, audio)
	if err != nil {
		return "", fault.Wrap(err)
	}
	if size == 0 {
		return "", fault.New(fault.KindInvalidInput, "Empty audio")
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return "", fault.Wrap(err)
	}

	start := time.Now()

	audioURL, err := c.upload(ctx, tmp)
	if err != nil {
		return "", err
	}

	transcriptID, err := c.createTranscript(ctx, audioURL)
	if err != nil {
		return "", err
	}

	text, err := c.poll(ctx, transcriptID)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", fault.New(fault.KindEmptyResult, "no speech detected")
	}

	c.logger.Info().
		Int64("bytes", size).
		Dur("elapsed", time.Since(start)).
		Msg("Transcription complete")
	return text, nil
}

// upload posts raw audio bytes and returns the hosted upload URL.
func (c *Client) upload(ctx context.Context, body io.Reader) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/upload", body)
	if err != nil {
		return "", fault.Wrap(err)
	}
	req.Header.Set("authorization", c.config.APIKey)
	req.Header.Set("content-type", "application/octet-stream")

	var result struct {
		UploadURL string `json:"upload_url"`
	}
	if err := c.do(req, &result); err != nil {
		return "", err
	}
	if result.UploadURL == "" {
		return "", fault.New(fault.KindUpstream, "upload returned no URL")
	}
	return result.UploadURL, nil
}

// createTranscript submits a transcript job for the uploaded audio.
func (c *Client) createTranscript(ctx context.Context, audioURL string) (string, error) {
	payload, err := json.Marshal(map[string]string{"audio_url": audioURL})
	if err != nil {
		return "", fault.Wrap(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/transcript", bytes.NewReader(payload))
	if err != nil {
		return "", fault.Wrap(err)
	}
	req.Header.Set("authorization", c.config.APIKey)
	req.Header.Set("content-type", "application/json")

	var result struct {
		ID string `json:"id"`
	}
	if err := c.do(req, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", fault.New(fault.KindUpstream, "transcript job returned no id")
	}
	return result.ID, nil
}

// poll waits for the transcript job to settle. The context carries the
// overall deadline.
func (c *Client) poll(ctx context.Context, transcriptID string) (string, error) {
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/transcript/"+transcriptID, nil)
		if err != nil {
			return "", fault.Wrap(err)
		}
		req.Header.Set("authorization", c.config.APIKey)

		var result struct {
			Status string `json:"status"`
			Text   string `json:"text"`
			Error  string `json:"error"`
		}
		if err := c.do(req, &result); err != nil {
			return "", err
		}

		switch result.Status {
		case "completed":
			return result.Text, nil
		case "error":
			c.logger.Error().Str("transcript_id", transcriptID).Str("error", result.Error).Msg("Transcript job failed")
			return "", fault.New(fault.KindUpstream, "transcription failed: %s", result.Error)
		}

		select {
		case <-ctx.Done():
			return "", fault.Wrap(ctx.Err())
		case <-time.After(c.config.PollInterval):
		}
	}
}

// do executes the request and decodes a JSON response into out.
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
		c.logger.Error().Int("status", resp.StatusCode).Str("body", string(body)).Msg("AssemblyAI error")
		return fault.New(fault.KindUpstream, "assemblyai returned status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fault.Wrap(fmt.Errorf("decode response: %w", err))
	}
	return nil
}
