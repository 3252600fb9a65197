// Package persona provides the character layer for the assistant: system
// prompt, voice defaults, greetings, and in-character error responses.
package persona

// ErrorKind selects a category of user-facing error response.
type ErrorKind string

const (
	ErrSTT     ErrorKind = "stt_error"
	ErrLLM     ErrorKind = "llm_error"
	ErrTTS     ErrorKind = "tts_error"
	ErrSearch  ErrorKind = "search_error"
	ErrGeneral ErrorKind = "general_error"
)

// VoiceSettings carries synthesis defaults for a persona.
type VoiceSettings struct {
	VoiceID    string `json:"voice_id"`
	Style      string `json:"style"`
	Rate       int    `json:"rate"`
	Pitch      int    `json:"pitch"`
	Format     string `json:"format"`
	SampleRate int    `json:"sample_rate"`
}

// Persona is the capability interface the pipeline talks to. Additional
// personas are additional implementations of this interface.
type Persona interface {
	// Name returns the persona's display name.
	Name() string

	// SystemPrompt returns the full system prompt for generation.
	SystemPrompt() string

	// VoiceSettings returns the synthesis defaults.
	VoiceSettings() VoiceSettings

	// Greeting returns a greeting line (varies between calls).
	Greeting() string

	// ErrorResponse returns an in-character message for the error kind.
	// It never returns an empty string, even for unknown kinds.
	ErrorResponse(kind ErrorKind) string

	// Traits returns descriptive personality traits for diagnostics.
	Traits() []string
}
