// Arcanus - a wizard who listens, scries, and speaks
package main

import (
	"bufio"
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/normanking/arcanus/internal/agent"
	"github.com/normanking/arcanus/internal/config"
	"github.com/normanking/arcanus/internal/intent"
	"github.com/normanking/arcanus/internal/llm"
	"github.com/normanking/arcanus/internal/logging"
	"github.com/normanking/arcanus/internal/lore"
	"github.com/normanking/arcanus/internal/persona"
	"github.com/normanking/arcanus/internal/search"
	"github.com/normanking/arcanus/internal/server"
	"github.com/normanking/arcanus/internal/session"
	"github.com/normanking/arcanus/internal/stt"
	"github.com/normanking/arcanus/internal/tts"
)

// Global logger instance
var syslog *logging.Logger

// loadEnvFile loads API keys from ~/.arcanus/.env into the process
// environment without overriding values already set.
func loadEnvFile() {
	home, err := os.UserHomeDir()
	if err != nil {
		envLog := syslog.Component("env")
		envLog.Warn().Err(err).Msg("Could not get home directory")
		return
	}

	envPath := filepath.Join(home, ".arcanus", ".env")
	file, err := os.Open(envPath)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	loaded := []string{}
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), "\"'")

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
			loaded = append(loaded, key)
		}
	}
	if len(loaded) > 0 {
		envLog := syslog.Component("env")
		envLog.Info().
			Str("source", envPath).
			Str("keys", strings.Join(loaded, ", ")).
			Msg("Loaded environment variables")
	}
}

func main() {
	var err error
	syslog, err = logging.New(nil)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer syslog.Close()

	mainLog := syslog.Component("main")
	mainLog.Info().Msg("Arcanus starting")

	loadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		mainLog.Warn().Err(err).Msg("Config load failed, using defaults")
	}

	wizard := persona.NewWizard()

	book, err := lore.NewBook()
	if err != nil {
		mainLog.Fatal().Err(err).Msg("Lore book failed to load")
	}

	transcriber := stt.NewClient(syslog.Component("stt"), &stt.Config{
		APIKey:       cfg.STT.APIKey,
		BaseURL:      cfg.STT.BaseURL,
		Timeout:      cfg.STT.Timeout,
		PollInterval: cfg.STT.PollInterval,
	})
	generator := llm.NewClient(syslog.Component("llm"), &llm.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	}, wizard)
	synthesizer := tts.NewClient(syslog.Component("tts"), &tts.Config{
		APIKey:  cfg.TTS.APIKey,
		BaseURL: cfg.TTS.BaseURL,
		Timeout: cfg.TTS.Timeout,
	}, wizard.VoiceSettings())
	searcher := search.NewClient(syslog.Component("search"), &search.Config{
		APIKey:  cfg.Search.APIKey,
		BaseURL: cfg.Search.BaseURL,
		Timeout: cfg.Search.Timeout,
		Country: cfg.Search.Country,
		Locale:  cfg.Search.Locale,
	})

	classifier := intent.NewClassifier(book, searcher.Configured)
	sessions := session.NewStore()
	transcripts := session.NewTranscriptRing(cfg.Agent.TranscriptCapacity)

	orch := agent.NewOrchestrator(
		syslog.Zerolog(),
		wizard,
		transcriber,
		generator,
		synthesizer,
		searcher,
		classifier,
		sessions,
		transcripts,
	)

	srv := server.New(cfg, syslog, orch, transcriber, synthesizer, generator, searcher)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := config.Watch(ctx, syslog.Zerolog(), func(next *config.Config) {
			srv.ApplyConfig(next)
			mainLog.Info().Msg("Config change applied, client credentials still need a restart")
		}); err != nil && ctx.Err() == nil {
			mainLog.Warn().Err(err).Msg("Config watcher stopped")
		}
	}()

	for service, ok := range orch.Health() {
		if !ok {
			mainLog.Warn().Str("service", service).Msg("Service credential missing, running degraded")
		}
	}

	if err := srv.Run(ctx); err != nil {
		mainLog.Fatal().Err(err).Msg("Server exited")
	}
	mainLog.Info().Msg("Arcanus stopped")
}
