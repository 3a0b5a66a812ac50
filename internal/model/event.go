package model

import (
	"time"
)

// EventType represents the type of flow lifecycle event.
type EventType string

const (
	EventTypeFlowStarted   EventType = "flow_started"
	EventTypeFlowCompleted EventType = "flow_completed"
	EventTypeFlowFailed    EventType = "flow_failed"
	EventTypeMessageAdded  EventType = "message_added"
)

// FlowEvent is published for each flow lifecycle transition and session
// append. Consumers observe orchestration progress without touching the
// session store.
type FlowEvent struct {
	ID        string         `json:"id"`
	FlowID    string         `json:"flow_id,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
	Type      EventType      `json:"type"`
	Intent    Intent         `json:"intent,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
