// Package server exposes the conversation pipeline over HTTP and
// WebSocket.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/normanking/arcanus/internal/agent"
	"github.com/normanking/arcanus/internal/config"
	"github.com/normanking/arcanus/internal/logging"
	"github.com/normanking/arcanus/internal/search"
	"github.com/normanking/arcanus/internal/tts"
)

// Generator is the reply backend surface the debug endpoints need.
type Generator interface {
	agent.Generator
	Model() string
}

// Server hosts the HTTP API around the orchestrator.
type Server struct {
	cfg         *config.Config
	appLog      *logging.Logger
	log         zerolog.Logger
	orch        *agent.Orchestrator
	transcriber agent.Transcriber
	synthesizer *tts.Client
	generator   Generator
	searcher    *search.Client
	upgrader    websocket.Upgrader
	httpSrv     *http.Server
	maxUpload   atomic.Int64
}

// New wires the HTTP server. The concrete synthesizer and searcher are
// required because debug and search endpoints reach past the
// orchestrator's interfaces.
func New(
	cfg *config.Config,
	appLog *logging.Logger,
	orch *agent.Orchestrator,
	transcriber agent.Transcriber,
	synthesizer *tts.Client,
	generator Generator,
	searcher *search.Client,
) *Server {
	s := &Server{
		cfg:         cfg,
		appLog:      appLog,
		log:         appLog.Component("server"),
		orch:        orch,
		transcriber: transcriber,
		synthesizer: synthesizer,
		generator:   generator,
		searcher:    searcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 << 10,
			WriteBufferSize: 64 << 10,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	s.maxUpload.Store(cfg.Server.MaxUploadBytes)
	return s
}

// ApplyConfig applies the hot-reloadable settings from a fresh config.
// Client credentials and timeouts are fixed at startup; only the
// upload cap takes effect without a restart.
func (s *Server) ApplyConfig(next *config.Config) {
	s.maxUpload.Store(next.Server.MaxUploadBytes)
	s.log.Info().Int64("max_upload_bytes", next.Server.MaxUploadBytes).Msg("Applied reloaded config")
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.MaxMultipartMemory = s.cfg.Server.MaxUploadBytes

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	agentGroup := r.Group("/agent")
	{
		agentGroup.POST("/chat/:session_id", s.handleChat)
		agentGroup.GET("/history/:session_id", s.handleHistory)
		agentGroup.DELETE("/history/:session_id", s.handleClearHistory)
	}

	r.POST("/transcribe/file", s.handleTranscribeFile)
	r.POST("/generate-audio", s.handleGenerateAudio)
	r.POST("/tts/echo", s.handleEcho)
	r.GET("/recent-transcriptions", s.handleRecentTranscriptions)

	r.POST("/search", s.handleSearch)
	r.GET("/search/status", s.handleSearchStatus)
	r.GET("/search/test", s.handleSearchTest)

	personaGroup := r.Group("/persona")
	{
		personaGroup.GET("/info", s.handlePersonaInfo)
		personaGroup.GET("/greeting", s.handlePersonaGreeting)
		personaGroup.POST("/demo", s.handlePersonaDemo)
	}

	debugGroup := r.Group("/debug")
	{
		debugGroup.GET("/voices", s.handleDebugVoices)
		debugGroup.GET("/llm", s.handleDebugLLM)
		debugGroup.GET("/logs", s.handleDebugLogs)
	}

	r.GET("/ws/audio", s.handleAudioSocket)

	return r
}

// Run starts the server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.httpSrv = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	s.log.Info().Msg("HTTP server shutting down")
	return s.httpSrv.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("Request handled")
	}
}
