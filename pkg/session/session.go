// Package session tracks per-session conversation history so follow-up
// questions can reference prior turns. History is bounded: only the most
// recent exchanges are retained, oldest discarded first.
package session

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type message struct {
	role string // "User" or "Assistant"
	text string
}

// Manager owns all session histories, keyed by session ID. Safe for
// concurrent use; appends under the same session ID land in whatever
// order the callers arrive.
type Manager struct {
	mu           sync.Mutex
	maxExchanges int
	sessions     map[string][]message
}

// NewManager builds a Manager retaining at most maxExchanges
// user/assistant exchanges per session.
func NewManager(maxExchanges int) *Manager {
	return &Manager{
		maxExchanges: maxExchanges,
		sessions:     make(map[string][]message),
	}
}

// NewSession allocates a fresh session ID. The history itself is created
// lazily on the first exchange.
func (m *Manager) NewSession() string {
	return uuid.NewString()
}

// AddExchange appends one user/assistant exchange and trims the history
// to the retention bound.
func (m *Manager) AddExchange(sessionID, userMessage, assistantMessage string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := append(m.sessions[sessionID],
		message{role: "User", text: userMessage},
		message{role: "Assistant", text: assistantMessage},
	)
	if limit := m.maxExchanges * 2; len(history) > limit {
		history = history[len(history)-limit:]
	}
	m.sessions[sessionID] = history
}

// History returns the session's retained turns formatted for inclusion
// in the model's context, or "" for an unknown or empty session.
func (m *Manager) History(sessionID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := m.sessions[sessionID]
	if len(history) == 0 {
		return ""
	}
	lines := make([]string, 0, len(history))
	for _, msg := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", msg.role, msg.text))
	}
	return strings.Join(lines, "\n")
}

// Clear removes a session and its history.
func (m *Manager) Clear(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}
