// Package router classifies a user turn into one of two handling paths.
package router

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/synapse-ai/research-platform/internal/model"
	"github.com/synapse-ai/research-platform/pkg/logger"
)

// State is a routing state machine state. Every run starts at StateStart and
// ends in exactly one of the three terminal states.
type State string

const (
	StateStart                State = "start"
	StateClassifying          State = "classifying"
	StateRoutedConversation   State = "routed_conversation"
	StateRoutedResearch       State = "routed_research"
	StateClassificationFailed State = "classification_failed"
)

// Terminal reports whether the state is a terminal state.
func (s State) Terminal() bool {
	switch s {
	case StateRoutedConversation, StateRoutedResearch, StateClassificationFailed:
		return true
	}
	return false
}

// ErrClassification marks a classification failure: the collaborator was
// unreachable, returned an unparseable shape, or routed to research without a
// query. Callers must not pick a branch on this error.
var ErrClassification = errors.New("classification failed")

// Decision is the router's output: one of two mutually exclusive variants.
// Query is set if and only if Intent is research.
type Decision struct {
	Intent    model.Intent `json:"intent"`
	Query     string       `json:"query,omitempty"`
	Reasoning string       `json:"reasoning"`
}

// Conversation reports whether the decision routed to the conversation branch.
func (d Decision) Conversation() bool { return d.Intent == model.IntentConversation }

// Research reports whether the decision routed to the research branch.
func (d Decision) Research() bool { return d.Intent == model.IntentResearch }

// Classifier produces a raw routing decision for a message given read-only
// history context.
type Classifier interface {
	Classify(ctx context.Context, message string, history model.History) (Decision, error)
}

// Router drives the routing state machine around a classification
// collaborator, validating its output into a well-formed Decision.
type Router struct {
	classifier Classifier
	logger     *logger.Logger
}

// New creates a Router.
func New(classifier Classifier, log *logger.Logger) *Router {
	return &Router{
		classifier: classifier,
		logger:     log,
	}
}

// Route classifies the message and returns the decision together with the
// terminal state reached. The history is context only and is never mutated.
func (r *Router) Route(ctx context.Context, message string, history model.History) (Decision, State, error) {
	state := StateStart
	if message == "" {
		return Decision{}, StateClassificationFailed, fmt.Errorf("%w: empty message", ErrClassification)
	}

	state = StateClassifying
	decision, err := r.classifier.Classify(ctx, message, history)
	if err != nil {
		r.logger.Warn("classifier call failed", zap.Error(err), zap.String("state", string(state)))
		return Decision{}, StateClassificationFailed, fmt.Errorf("%w: %v", ErrClassification, err)
	}

	state, err = validate(decision)
	if err != nil {
		r.logger.Warn("classifier output rejected",
			zap.Error(err),
			zap.String("intent", string(decision.Intent)),
		)
		return Decision{}, state, err
	}

	r.logger.Debug("message routed",
		zap.String("intent", string(decision.Intent)),
		zap.String("state", string(state)),
	)
	return decision, state, nil
}

// validate maps a raw decision onto a terminal state, enforcing the two-variant
// schema. A research decision without a query is a failure, never a silent
// downgrade to conversation.
func validate(d Decision) (State, error) {
	switch d.Intent {
	case model.IntentConversation:
		return StateRoutedConversation, nil
	case model.IntentResearch:
		if d.Query == "" {
			return StateClassificationFailed,
				fmt.Errorf("%w: research intent without a query", ErrClassification)
		}
		return StateRoutedResearch, nil
	default:
		return StateClassificationFailed,
			fmt.Errorf("%w: unknown intent %q", ErrClassification, d.Intent)
	}
}
