package agent

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Turn is one exchange in a chat session.
type Turn struct {
	Role    string // "user" | "assistant"
	Content string
	At      time.Time
}

// Session holds the conversational state for one user: a sliding window of
// turns, the pending-clarification count, and accumulated user facts.
type Session struct {
	mu             sync.Mutex
	turns          []Turn
	maxTurns       int
	clarifications int
	facts          map[string]string
	updated        time.Time
}

func newSession(maxTurns int) *Session {
	if maxTurns <= 0 {
		maxTurns = 20
	}
	return &Session{maxTurns: maxTurns, facts: make(map[string]string)}
}

// Append records a turn, evicting the oldest when the window is full.
func (s *Session) Append(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, Turn{Role: role, Content: content, At: time.Now()})
	if len(s.turns) > s.maxTurns {
		s.turns = s.turns[len(s.turns)-s.maxTurns:]
	}
	s.updated = time.Now()
}

// History renders the window as "role: content" lines for the classifier.
func (s *Session) History() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.turns))
	for i, t := range s.turns {
		out[i] = fmt.Sprintf("%s: %s", t.Role, strings.TrimSpace(t.Content))
	}
	return out
}

// Clarifications returns how many clarifying questions this session has
// already been asked. The count is never reset while the session lives:
// one clarification is all a session ever gets.
func (s *Session) Clarifications() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clarifications
}

// BumpClarifications increments the count after a CLARIFY response.
func (s *Session) BumpClarifications() {
	s.mu.Lock()
	s.clarifications++
	s.mu.Unlock()
}

// SetFact stores a durable user fact ("occupation", "marital_status"...).
func (s *Session) SetFact(key, value string) {
	s.mu.Lock()
	s.facts[key] = value
	s.mu.Unlock()
}

// Facts returns a copy of the accumulated user facts.
func (s *Session) Facts() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.facts))
	for k, v := range s.facts {
		out[k] = v
	}
	return out
}

// Sessions is a concurrency-safe registry of per-user sessions.
type Sessions struct {
	mu       sync.Mutex
	byUser   map[string]*Session
	maxTurns int
}

// NewSessions creates a registry whose sessions keep maxTurns turns each.
func NewSessions(maxTurns int) *Sessions {
	return &Sessions{byUser: make(map[string]*Session), maxTurns: maxTurns}
}

// Get returns the session for userID, creating it on first use.
func (r *Sessions) Get(userID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byUser[userID]
	if !ok {
		s = newSession(r.maxTurns)
		r.byUser[userID] = s
	}
	return s
}

// Drop removes a session, discarding its history.
func (r *Sessions) Drop(userID string) {
	r.mu.Lock()
	delete(r.byUser, userID)
	r.mu.Unlock()
}
