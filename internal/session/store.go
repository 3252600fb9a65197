// Package session provides the in-memory per-session chat history and
// the recent-transcription cache.
package session

import (
	"sync"
	"time"
)

// Role identifies who produced a message.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one immutable entry in a session's history.
type Message struct {
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"timestamp"`
	UsedSearch bool      `json:"has_search_results"`
}

// Store keeps ordered message logs keyed by session id. Sessions are
// created implicitly on first append and live for the process lifetime;
// nothing is persisted.
//
// The mutex protects map and slice integrity only. Two concurrent turns
// on the same session may interleave their user/assistant appends; only
// append order within the store is guaranteed.
type Store struct {
	mu       sync.RWMutex
	sessions map[string][]Message
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string][]Message)}
}

// Append adds a message to the session, creating the session if needed.
func (s *Store) Append(sessionID, role, content string, usedSearch bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = append(s.sessions[sessionID], Message{
		Role:       role,
		Content:    content,
		CreatedAt:  time.Now(),
		UsedSearch: usedSearch,
	})
}

// History returns a copy of the session's messages in append order.
// Unknown sessions yield an empty slice.
func (s *Store) History(sessionID string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.sessions[sessionID]
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// Count returns the number of messages in the session.
func (s *Store) Count(sessionID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions[sessionID])
}

// Clear removes the session's history, reporting whether it existed.
func (s *Store) Clear(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return false
	}
	delete(s.sessions, sessionID)
	return true
}
