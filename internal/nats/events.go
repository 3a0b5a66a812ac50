package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/synapse-ai/research-platform/internal/model"
)

const (
	// StreamName is the name of the flow events stream.
	StreamName = "FLOWS"

	// SubjectPrefix is the prefix for all flow event subjects.
	SubjectPrefix = "flow"
)

// Publisher publishes flow lifecycle events to JetStream. A nil Publisher is
// valid and publishes nothing; the core never requires a broker.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher over a connected client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// EnsureStream ensures the flow events stream exists.
func (p *Publisher) EnsureStream(ctx context.Context) error {
	if p == nil {
		return nil
	}
	js := p.client.JetStream()

	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil // Stream already exists
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      7 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Flow lifecycle and session append events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// EventSubject returns the subject for a flow event. Events without a session
// are published under the "anon" bucket.
func EventSubject(sessionID string, eventType model.EventType) string {
	if sessionID == "" {
		sessionID = "anon"
	}
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, sessionID, eventType)
}

// Publish publishes one flow event. Publication is best effort: failures are
// logged and never fail the flow that emitted the event.
func (p *Publisher) Publish(ctx context.Context, event *model.FlowEvent) {
	if p == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.client.logger.Warn("failed to marshal flow event", zap.Error(err))
		return
	}

	subject := EventSubject(event.SessionID, event.Type)
	if _, err := p.client.JetStream().Publish(ctx, subject, data); err != nil {
		p.client.logger.Warn("failed to publish flow event",
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}
