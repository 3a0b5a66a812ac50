package model

import (
	"time"
)

// DefaultSessionTitle is assigned to lazily created sessions.
const DefaultSessionTitle = "Research Session"

// Session groups conversation turns under one identifier for the lifetime of
// the process.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  History   `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatRequest is the request to submit a message for routing.
type ChatRequest struct {
	Message   string  `json:"message"`
	SessionID string  `json:"session_id,omitempty"`
	History   History `json:"history,omitempty"`
}

// ClassifyRequest is the request to classify a message without executing it.
type ClassifyRequest struct {
	Message string  `json:"message"`
	History History `json:"history,omitempty"`
}

// ClassifyResponse is the RoutingDecision-shaped payload returned by the
// classify-only endpoint.
type ClassifyResponse struct {
	Intent         Intent  `json:"intent"`
	Confidence     float64 `json:"confidence"`
	Reasoning      string  `json:"reasoning"`
	OptimizedQuery string  `json:"optimized_query,omitempty"`
}

// ResearchRequest is the request to run research for a query directly.
type ResearchRequest struct {
	Query string `json:"query"`
}

// ConversationRequest is the request for a conversation-only reply.
type ConversationRequest struct {
	Message string  `json:"message"`
	History History `json:"history,omitempty"`
}

// ConversationResponse carries a conversation-only reply.
type ConversationResponse struct {
	Response string `json:"response"`
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
