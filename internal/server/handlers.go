package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/normanking/arcanus/internal/fault"
	"github.com/normanking/arcanus/internal/persona"
)

func (s *Server) handleHealth(c *gin.Context) {
	services := s.orch.Health()
	c.JSON(http.StatusOK, gin.H{
		"status":   aggregateStatus(services),
		"persona":  s.orch.Persona().Name(),
		"services": services,
	})
}

// aggregateStatus folds per-service availability into one word:
// healthy when everything is configured, unhealthy when nothing is,
// degraded in between.
func aggregateStatus(services map[string]bool) string {
	available := 0
	for _, ok := range services {
		if ok {
			available++
		}
	}
	switch available {
	case len(services):
		return "healthy"
	case 0:
		return "unhealthy"
	default:
		return "degraded"
	}
}

func (s *Server) handleChat(c *gin.Context) {
	sessionID := c.Param("session_id")

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file is required"})
		return
	}
	defer file.Close()

	if header.Size > s.maxUpload.Load() {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "audio file too large"})
		return
	}

	result := s.orch.Converse(c.Request.Context(), sessionID, file)
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleHistory(c *gin.Context) {
	sessionID := c.Param("session_id")
	messages := s.orch.Sessions().History(sessionID)
	c.JSON(http.StatusOK, gin.H{
		"session_id":    sessionID,
		"message_count": len(messages),
		"messages":      messages,
	})
}

func (s *Server) handleClearHistory(c *gin.Context) {
	sessionID := c.Param("session_id")
	existed := s.orch.Sessions().Clear(sessionID)

	message := "No scrolls were found for this seeker."
	if existed {
		message = "The ancient scrolls of our conversation have been wiped clean, dear seeker!"
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"cleared":    existed,
		"message":    message,
	})
}

func (s *Server) handleTranscribeFile(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file is required"})
		return
	}
	defer file.Close()

	if header.Size > s.maxUpload.Load() {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "audio file too large"})
		return
	}

	text, err := s.transcriber.Transcribe(c.Request.Context(), file)
	if err != nil {
		c.JSON(statusFromFault(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transcript": text})
}

func (s *Server) handleGenerateAudio(c *gin.Context) {
	var req struct {
		Text    string `json:"text" binding:"required"`
		VoiceID string `json:"voice_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	voice := s.orch.Persona().VoiceSettings()
	if req.VoiceID != "" {
		voice.VoiceID = req.VoiceID
	}

	audioURL, err := s.synthesizer.Synthesize(c.Request.Context(), req.Text, voice)
	if err != nil {
		c.JSON(statusFromFault(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"audio_url": audioURL,
		"voice_id":  voice.VoiceID,
	})
}

// handleEcho transcribes the uploaded audio and speaks it back in the
// persona's voice.
func (s *Server) handleEcho(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file is required"})
		return
	}
	defer file.Close()

	if header.Size > s.maxUpload.Load() {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "audio file too large"})
		return
	}

	text, err := s.transcriber.Transcribe(c.Request.Context(), file)
	if err != nil {
		c.JSON(statusFromFault(err), gin.H{"error": err.Error()})
		return
	}

	audioURL, err := s.synthesizer.Synthesize(c.Request.Context(), text, s.orch.Persona().VoiceSettings())
	if err != nil {
		c.JSON(statusFromFault(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"transcript": text,
		"audio_url":  audioURL,
	})
}

func (s *Server) handleRecentTranscriptions(c *gin.Context) {
	transcripts := s.orch.Transcripts().All()
	c.JSON(http.StatusOK, gin.H{
		"count":          len(transcripts),
		"transcriptions": transcripts,
	})
}

func (s *Server) handleSearch(c *gin.Context) {
	var req struct {
		Query      string `json:"query" binding:"required"`
		NumResults int    `json:"num_results"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}
	if req.NumResults <= 0 {
		req.NumResults = 5
	}

	c.JSON(http.StatusOK, s.searcher.Search(c.Request.Context(), req.Query, req.NumResults))
}

func (s *Server) handleSearchStatus(c *gin.Context) {
	message := "The scrying crystal is attuned and ready."
	if !s.searcher.Configured() {
		message = "The scrying crystal lies dormant. No search key is configured."
	}
	c.JSON(http.StatusOK, gin.H{
		"configured": s.searcher.Configured(),
		"message":    message,
	})
}

func (s *Server) handleSearchTest(c *gin.Context) {
	c.JSON(http.StatusOK, s.searcher.Search(c.Request.Context(), "latest news today", 3))
}

func (s *Server) handlePersonaInfo(c *gin.Context) {
	p := s.orch.Persona()
	c.JSON(http.StatusOK, gin.H{
		"name":   p.Name(),
		"traits": p.Traits(),
		"voice":  p.VoiceSettings(),
	})
}

func (s *Server) handlePersonaGreeting(c *gin.Context) {
	p := s.orch.Persona()
	greeting := p.Greeting()
	audioURL, err := s.synthesizer.Synthesize(c.Request.Context(), greeting, p.VoiceSettings())
	if err != nil {
		s.log.Warn().Err(err).Msg("Greeting synthesis failed, returning text only")
		c.JSON(http.StatusOK, gin.H{
			"greeting": greeting,
			"status":   "partial_success",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"greeting":  greeting,
		"audio_url": audioURL,
		"status":    "success",
	})
}

// handlePersonaDemo shows one in-character line per failure mode, for
// manual voice tuning.
func (s *Server) handlePersonaDemo(c *gin.Context) {
	p := s.orch.Persona()
	kinds := []persona.ErrorKind{
		persona.ErrSTT,
		persona.ErrLLM,
		persona.ErrTTS,
		persona.ErrSearch,
		persona.ErrGeneral,
	}
	responses := make(map[string]string, len(kinds))
	for _, kind := range kinds {
		responses[string(kind)] = p.ErrorResponse(kind)
	}
	c.JSON(http.StatusOK, gin.H{
		"greeting":        p.Greeting(),
		"error_responses": responses,
	})
}

func (s *Server) handleDebugVoices(c *gin.Context) {
	voices, err := s.synthesizer.ListVoices(c.Request.Context())
	if err != nil {
		c.JSON(statusFromFault(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(voices),
		"voices": voices,
	})
}

func (s *Server) handleDebugLLM(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"configured": s.generator.Configured(),
		"model":      s.generator.Model(),
	})
}

func (s *Server) handleDebugLogs(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	entries := s.appLog.GetHistory(limit)
	c.JSON(http.StatusOK, gin.H{
		"count":   len(entries),
		"entries": entries,
	})
}

// statusFromFault maps the error taxonomy onto HTTP status codes.
func statusFromFault(err error) int {
	switch fault.KindOf(err) {
	case fault.KindInvalidInput:
		return http.StatusBadRequest
	case fault.KindNotConfigured:
		return http.StatusServiceUnavailable
	case fault.KindTimeout:
		return http.StatusGatewayTimeout
	case fault.KindEmptyResult:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}
