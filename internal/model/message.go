// Package model defines data structures for the research platform.
package model

import (
	"time"
)

// Role represents the role of a message sender. Conversations are strictly
// two-party: the user and the assistant.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Intent is the two-way classification of a user turn.
type Intent string

const (
	IntentResearch     Intent = "research"
	IntentConversation Intent = "conversation"
)

// Valid reports whether the intent is one of the two known variants.
func (i Intent) Valid() bool {
	return i == IntentResearch || i == IntentConversation
}

// Message represents one conversation turn. Immutable once created; owned by
// the history that contains it.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`

	// Set on assistant messages produced by a flow run.
	Intent    Intent   `json:"intent,omitempty"`
	Sources   []Source `json:"sources,omitempty"`
	Reasoning string   `json:"reasoning,omitempty"`
}

// History is the ordered, append-only sequence of turns for one session.
// Read views are derived and never mutate the underlying slice.
type History []Message

// ByRole returns the messages sent by the given role, in insertion order.
func (h History) ByRole(role Role) []Message {
	var out []Message
	for _, m := range h {
		if m.Role == role {
			out = append(out, m)
		}
	}
	return out
}

// Latest returns the most recent message, or nil if the history is empty.
func (h History) Latest() *Message {
	if len(h) == 0 {
		return nil
	}
	m := h[len(h)-1]
	return &m
}

// Tail returns the most recent n messages without copying the backing array.
func (h History) Tail(n int) History {
	if n <= 0 || len(h) <= n {
		return h
	}
	return h[len(h)-n:]
}

// Counts returns the number of turns per role.
func (h History) Counts() map[Role]int {
	counts := make(map[Role]int, 2)
	for _, m := range h {
		counts[m.Role]++
	}
	return counts
}
