package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/synapse-ai/research-platform/internal/agent"
	"github.com/synapse-ai/research-platform/internal/flow"
	"github.com/synapse-ai/research-platform/internal/model"
	natsclient "github.com/synapse-ai/research-platform/internal/nats"
	"github.com/synapse-ai/research-platform/internal/research"
	"github.com/synapse-ai/research-platform/internal/router"
	"github.com/synapse-ai/research-platform/pkg/logger"
	"github.com/synapse-ai/research-platform/pkg/metrics"
)

// classifyConfidencePlaceholder fills the confidence field of classify-only
// responses; the classifier does not report a real score.
const classifyConfidencePlaceholder = 0.85

// FlowError is a structured flow failure surfaced to the API layer.
type FlowError struct {
	Kind flow.FailureKind
	Err  error
}

func (e *FlowError) Error() string {
	return fmt.Sprintf("flow failed (%s): %v", e.Kind, e.Err)
}

func (e *FlowError) Unwrap() error { return e.Err }

// ChatService orchestrates one inbound call: submit to the harness, commit
// the turns to the session store, publish events.
type ChatService struct {
	store      *SessionStore
	harness    *flow.Harness
	router     *router.Router
	responder  flow.Responder
	researcher flow.Researcher
	normalizer *research.Normalizer
	events     *natsclient.Publisher
	window     int
	logger     *logger.Logger
}

// NewChatService creates a ChatService. responder and researcher may be nil
// when no LLM is configured; affected endpoints degrade or fail cleanly.
func NewChatService(
	store *SessionStore,
	harness *flow.Harness,
	rtr *router.Router,
	responder flow.Responder,
	researcher flow.Researcher,
	normalizer *research.Normalizer,
	events *natsclient.Publisher,
	window int,
	log *logger.Logger,
) *ChatService {
	return &ChatService{
		store:      store,
		harness:    harness,
		router:     rtr,
		responder:  responder,
		researcher: researcher,
		normalizer: normalizer,
		events:     events,
		window:     window,
		logger:     log,
	}
}

// Chat routes one message end to end and returns the terminal assistant
// message. On success with a session id, the user turn and the response are
// committed to the session as one append; on failure the session is left
// untouched.
func (s *ChatService) Chat(ctx context.Context, req *model.ChatRequest) (*model.Message, error) {
	history := req.History
	if req.SessionID != "" {
		if stored := s.store.History(req.SessionID); stored != nil {
			history = stored
		}
	}

	s.publish(ctx, &model.FlowEvent{
		ID:        uuid.Must(uuid.NewV7()).String(),
		SessionID: req.SessionID,
		Type:      model.EventTypeFlowStarted,
		CreatedAt: time.Now(),
	})

	outcome := s.harness.Submit(ctx, req.Message, history.Tail(s.window))
	if !outcome.Success() {
		s.logger.Warn("flow run failed",
			zap.String("kind", string(outcome.Kind)),
			zap.Error(outcome.Err),
		)
		s.publish(ctx, &model.FlowEvent{
			ID:        uuid.Must(uuid.NewV7()).String(),
			SessionID: req.SessionID,
			Type:      model.EventTypeFlowFailed,
			Reason:    string(outcome.Kind),
			CreatedAt: time.Now(),
		})
		return nil, &FlowError{Kind: outcome.Kind, Err: outcome.Err}
	}

	state := outcome.State
	response := state.Response

	if req.SessionID != "" {
		userTurn := state.History[len(state.History)-1]
		s.store.Append(req.SessionID, userTurn, *response)
	}

	s.publish(ctx, &model.FlowEvent{
		ID:        uuid.Must(uuid.NewV7()).String(),
		FlowID:    state.FlowID,
		SessionID: req.SessionID,
		Type:      model.EventTypeFlowCompleted,
		Intent:    response.Intent,
		CreatedAt: time.Now(),
	})

	return response, nil
}

// Classify runs intent classification only, without executing a branch.
func (s *ChatService) Classify(ctx context.Context, req *model.ClassifyRequest) (*model.ClassifyResponse, error) {
	decision, _, err := s.router.Route(ctx, req.Message, req.History)
	if err != nil {
		return nil, &FlowError{Kind: flow.FailureClassification, Err: err}
	}

	return &model.ClassifyResponse{
		Intent:         decision.Intent,
		Confidence:     classifyConfidencePlaceholder,
		Reasoning:      decision.Reasoning,
		OptimizedQuery: decision.Query,
	}, nil
}

// Research runs the research branch directly for a caller-supplied query.
func (s *ChatService) Research(ctx context.Context, query string) (*model.ResearchOutcome, error) {
	if s.researcher == nil {
		return nil, &FlowError{Kind: flow.FailureCollaborator, Err: fmt.Errorf("no research collaborator configured")}
	}

	result, err := s.researcher.Search(ctx, query)
	if err != nil {
		return nil, &FlowError{Kind: flow.FailureCollaborator, Err: err}
	}

	outcome := &model.ResearchOutcome{
		Query:  query,
		Topics: []string{"research", "analysis", "findings"},
	}

	summary, err := s.normalizer.SanitizeSummary(result.ResearchSummary)
	if err != nil {
		metrics.ResearchFallbacksTotal.Inc()
		s.logger.Warn("research summary unusable, degrading to fallback", zap.Error(err))
		outcome.Summary = flow.FallbackSummary
		return outcome, nil
	}

	outcome.Summary = summary
	outcome.Sources = s.normalizer.NormalizeSources(result.SourcesList)
	return outcome, nil
}

// Converse produces a conversation-only reply. Without a configured LLM it
// falls back to one of the canned helper replies.
func (s *ChatService) Converse(ctx context.Context, req *model.ConversationRequest) (string, error) {
	if s.responder == nil {
		return agent.CannedReplies[rand.Intn(len(agent.CannedReplies))], nil
	}

	reply, err := s.responder.Generate(ctx, req.Message, req.History)
	if err != nil {
		return "", &FlowError{Kind: flow.FailureCollaborator, Err: err}
	}
	return reply, nil
}

// Sessions returns the backing session store.
func (s *ChatService) Sessions() *SessionStore {
	return s.store
}

func (s *ChatService) publish(ctx context.Context, event *model.FlowEvent) {
	s.events.Publish(ctx, event)
}
