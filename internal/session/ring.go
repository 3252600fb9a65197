package session

import (
	"sync"
	"time"
)

// Transcript is one cached transcription result.
type Transcript struct {
	Text      string    `json:"text"`
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
}

// TranscriptRing is a fixed-capacity FIFO of recent transcriptions,
// kept as a fallback retrieval path for clients that missed a response.
type TranscriptRing struct {
	mu      sync.Mutex
	entries []Transcript
	cap     int
}

// NewTranscriptRing creates a ring with the given capacity (default 10).
func NewTranscriptRing(capacity int) *TranscriptRing {
	if capacity <= 0 {
		capacity = 10
	}
	return &TranscriptRing{entries: make([]Transcript, 0, capacity), cap: capacity}
}

// Add records a transcription, evicting the oldest entry when full.
func (r *TranscriptRing) Add(text, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Transcript{
		Text:      text,
		SessionID: sessionID,
		Timestamp: time.Now(),
	})
	if len(r.entries) > r.cap {
		r.entries = r.entries[len(r.entries)-r.cap:]
	}
}

// All returns a copy of the cached transcriptions, oldest first.
func (r *TranscriptRing) All() []Transcript {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Transcript, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of cached transcriptions.
func (r *TranscriptRing) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
