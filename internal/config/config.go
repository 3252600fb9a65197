// Package config provides configuration management for Arcanus
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	STT    STTConfig    `mapstructure:"stt"`
	LLM    LLMConfig    `mapstructure:"llm"`
	TTS    TTSConfig    `mapstructure:"tts"`
	Search SearchConfig `mapstructure:"search"`
	Agent  AgentConfig  `mapstructure:"agent"`
}

// ServerConfig configures the HTTP server
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// STTConfig configures speech-to-text
type STTConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// LLMConfig configures reply generation
type LLMConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// TTSConfig configures text-to-speech
type TTSConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SearchConfig configures web search
type SearchConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Country string        `mapstructure:"country"`
	Locale  string        `mapstructure:"locale"`
}

// AgentConfig configures the conversation pipeline
type AgentConfig struct {
	PersonaID          string `mapstructure:"persona_id"`
	TranscriptCapacity int    `mapstructure:"transcript_capacity"`
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			MaxUploadBytes:  10 << 20,
			ShutdownTimeout: 10 * time.Second,
		},
		STT: STTConfig{
			BaseURL:      "https://api.assemblyai.com/v2",
			Timeout:      30 * time.Second,
			PollInterval: 500 * time.Millisecond,
		},
		LLM: LLMConfig{
			BaseURL: "https://generativelanguage.googleapis.com/v1beta",
			Model:   "gemini-1.5-flash",
			Timeout: 30 * time.Second,
		},
		TTS: TTSConfig{
			BaseURL: "https://api.murf.ai",
			Timeout: 30 * time.Second,
		},
		Search: SearchConfig{
			BaseURL: "https://google.serper.dev",
			Timeout: 10 * time.Second,
			Country: "us",
			Locale:  "en",
		},
		Agent: AgentConfig{
			PersonaID:          "wizard",
			TranscriptCapacity: 10,
		},
	}
}

// Load reads configuration from file and environment. API keys default
// from the vendors' conventional environment variables when no override
// is set.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return cfg, err
	}

	configDir := filepath.Join(homeDir, ".arcanus")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return cfg, err
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	// Environment variable overrides
	viper.SetEnvPrefix("ARCANUS")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, err
		}
		// Config file not found, use defaults and create one
		if err := Save(cfg); err != nil {
			return cfg, err
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return cfg, err
	}

	applyVendorEnv(cfg)

	return cfg, nil
}

// applyVendorEnv fills empty API keys from each vendor's usual
// environment variable.
func applyVendorEnv(cfg *Config) {
	if cfg.STT.APIKey == "" {
		cfg.STT.APIKey = os.Getenv("ASSEMBLYAI_API_KEY")
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.TTS.APIKey == "" {
		cfg.TTS.APIKey = os.Getenv("MURF_API_KEY")
	}
	if cfg.Search.APIKey == "" {
		cfg.Search.APIKey = os.Getenv("SERPER_API_KEY")
	}
}

// Save writes the configuration to file
func Save(cfg *Config) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configDir := filepath.Join(homeDir, ".arcanus")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	viper.Set("server", cfg.Server)
	viper.Set("stt", cfg.STT)
	viper.Set("llm", cfg.LLM)
	viper.Set("tts", cfg.TTS)
	viper.Set("search", cfg.Search)
	viper.Set("agent", cfg.Agent)

	configPath := filepath.Join(configDir, "config.yaml")
	return viper.WriteConfigAs(configPath)
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".arcanus"), nil
}
