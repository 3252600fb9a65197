// Package agent orchestrates one conversation turn: transcription,
// intent routing, context assembly, reply generation, and speech
// synthesis, with graceful degradation at every stage.
package agent

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/normanking/arcanus/internal/fault"
	"github.com/normanking/arcanus/internal/intent"
	"github.com/normanking/arcanus/internal/metrics"
	"github.com/normanking/arcanus/internal/persona"
	"github.com/normanking/arcanus/internal/prompt"
	"github.com/normanking/arcanus/internal/search"
	"github.com/normanking/arcanus/internal/session"
)

// Turn statuses.
const (
	StatusSuccess = "success"
	// StatusPartial means the reply was produced but speech synthesis
	// failed. The turn is still recorded in history.
	StatusPartial = "partial_success"
	// StatusFallback means transcription failed or the pipeline
	// panicked. Nothing is written to history.
	StatusFallback = "fallback"
)

// fallbackTranscript stands in for the user utterance when
// transcription fails entirely.
const fallbackTranscript = "Mystical Communication Error"

// Transcriber converts audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader) (string, error)
	Configured() bool
}

// Generator produces a reply for an assembled prompt. Implementations
// must return speakable text even on failure.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Configured() bool
}

// Synthesizer renders text to a hosted audio URL.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice persona.VoiceSettings) (string, error)
	Configured() bool
}

// Searcher performs web searches with soft-failing outcomes.
type Searcher interface {
	Search(ctx context.Context, query string, numResults int) *search.Outcome
	Configured() bool
}

// TurnResult is the outcome of one conversation turn.
type TurnResult struct {
	TurnID       string `json:"turn_id"`
	SessionID    string `json:"session_id"`
	Status       string `json:"status"`
	Transcript   string `json:"transcript"`
	Reply        string `json:"reply"`
	AudioURL     string `json:"audio_url,omitempty"`
	UsedSearch   bool   `json:"used_search"`
	SearchQuery  string `json:"search_query,omitempty"`
	MessageCount int    `json:"message_count"`
}

// Orchestrator wires the pipeline stages around shared session state.
type Orchestrator struct {
	persona     persona.Persona
	transcriber Transcriber
	generator   Generator
	synthesizer Synthesizer
	searcher    Searcher
	classifier  *intent.Classifier
	assembler   *prompt.Assembler
	sessions    *session.Store
	transcripts *session.TranscriptRing
	logger      zerolog.Logger
}

// NewOrchestrator assembles the conversation pipeline.
func NewOrchestrator(
	logger zerolog.Logger,
	p persona.Persona,
	transcriber Transcriber,
	generator Generator,
	synthesizer Synthesizer,
	searcher Searcher,
	classifier *intent.Classifier,
	sessions *session.Store,
	transcripts *session.TranscriptRing,
) *Orchestrator {
	return &Orchestrator{
		persona:     p,
		transcriber: transcriber,
		generator:   generator,
		synthesizer: synthesizer,
		searcher:    searcher,
		classifier:  classifier,
		assembler:   prompt.NewAssembler(p),
		sessions:    sessions,
		transcripts: transcripts,
		logger:      logger.With().Str("component", "agent").Logger(),
	}
}

// Sessions exposes the session store for the HTTP layer.
func (o *Orchestrator) Sessions() *session.Store {
	return o.sessions
}

// Transcripts exposes the recent-transcription ring.
func (o *Orchestrator) Transcripts() *session.TranscriptRing {
	return o.transcripts
}

// Persona exposes the active persona.
func (o *Orchestrator) Persona() persona.Persona {
	return o.persona
}

// Converse runs one full turn for the session. It never returns an
// error: every failure degrades to an in-character result. A turn that
// cannot establish what the user said becomes a fallback turn and
// leaves history untouched.
func (o *Orchestrator) Converse(ctx context.Context, sessionID string, audio io.Reader) (result *TurnResult) {
	start := time.Now()
	turnID := uuid.NewString()
	log := o.logger.With().Str("turn_id", turnID).Str("session_id", sessionID).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Turn panicked")
			result = o.fallback(ctx, turnID, sessionID, persona.ErrGeneral)
		}
		metrics.TurnsTotal.WithLabelValues(result.Status).Inc()
		metrics.TurnDuration.Observe(time.Since(start).Seconds())
	}()

	text, err := o.transcriber.Transcribe(ctx, audio)
	if err != nil {
		log.Warn().Err(err).Msg("Transcription failed")
		metrics.StageFailures.WithLabelValues("stt", string(fault.KindOf(err))).Inc()
		return o.fallback(ctx, turnID, sessionID, persona.ErrSTT)
	}
	o.transcripts.Add(text, sessionID)

	dec := o.classifier.Classify(text)
	log.Info().Str("route", string(dec.Route)).Str("transcript", text).Msg("Turn classified")

	var outcome *search.Outcome
	if dec.Route == intent.RouteSearch {
		outcome = o.searcher.Search(ctx, dec.Query, 3)
		metrics.SearchesTotal.WithLabelValues(outcome.Status).Inc()
		if !outcome.OK() {
			log.Warn().Str("status", outcome.Status).Str("message", outcome.Message).Msg("Scrying failed")
		}
	}

	history := o.sessions.History(sessionID)
	assembled := o.assembler.Assemble(text, history, dec, outcome)

	reply, genErr := o.generator.Generate(ctx, assembled)
	if genErr != nil {
		log.Warn().Err(genErr).Msg("Generation failed, using persona error response")
		metrics.StageFailures.WithLabelValues("llm", string(fault.KindOf(genErr))).Inc()
	}

	usedSearch := outcome != nil && outcome.OK() && len(outcome.Results) > 0
	o.sessions.Append(sessionID, session.RoleUser, text, false)
	o.sessions.Append(sessionID, session.RoleAssistant, reply, usedSearch)

	result = &TurnResult{
		TurnID:       turnID,
		SessionID:    sessionID,
		Status:       StatusSuccess,
		Transcript:   text,
		Reply:        reply,
		UsedSearch:   usedSearch,
		MessageCount: o.sessions.Count(sessionID),
	}
	if dec.Route == intent.RouteSearch {
		result.SearchQuery = dec.Query
	}

	audioURL, ttsErr := o.synthesizer.Synthesize(ctx, reply, o.persona.VoiceSettings())
	if ttsErr != nil {
		log.Warn().Err(ttsErr).Msg("Speech synthesis failed")
		metrics.StageFailures.WithLabelValues("tts", string(fault.KindOf(ttsErr))).Inc()
		result.Status = StatusPartial
		return result
	}
	result.AudioURL = audioURL

	log.Info().Dur("elapsed", time.Since(start)).Str("status", result.Status).Msg("Turn complete")
	return result
}

// fallback builds an in-character result for a turn whose utterance was
// never established. Speech synthesis is still attempted so the seeker
// hears the apology.
func (o *Orchestrator) fallback(ctx context.Context, turnID, sessionID string, kind persona.ErrorKind) *TurnResult {
	reply := o.persona.ErrorResponse(kind)
	result := &TurnResult{
		TurnID:     turnID,
		SessionID:  sessionID,
		Status:     StatusFallback,
		Transcript: fallbackTranscript,
		Reply:      reply,
	}
	if audioURL, err := o.synthesizer.Synthesize(ctx, reply, o.persona.VoiceSettings()); err == nil {
		result.AudioURL = audioURL
	}
	return result
}

// Health reports which pipeline components hold credentials.
func (o *Orchestrator) Health() map[string]bool {
	return map[string]bool{
		"stt":    o.transcriber.Configured(),
		"llm":    o.generator.Configured(),
		"tts":    o.synthesizer.Configured(),
		"search": o.searcher.Configured(),
	}
}
