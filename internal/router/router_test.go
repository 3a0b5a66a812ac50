package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synapse-ai/research-platform/internal/model"
	"github.com/synapse-ai/research-platform/pkg/logger"
)

type stubClassifier struct {
	decision Decision
	err      error
}

func (s stubClassifier) Classify(ctx context.Context, message string, history model.History) (Decision, error) {
	return s.decision, s.err
}

func TestRouteConversation(t *testing.T) {
	r := New(stubClassifier{decision: Decision{
		Intent:    model.IntentConversation,
		Reasoning: "general greeting",
	}}, logger.NewNop())

	decision, state, err := r.Route(context.Background(), "Hello, how are you?", nil)
	require.NoError(t, err)
	assert.Equal(t, StateRoutedConversation, state)
	assert.True(t, decision.Conversation())
	assert.Empty(t, decision.Query)
}

func TestRouteResearchCarriesQuery(t *testing.T) {
	r := New(stubClassifier{decision: Decision{
		Intent:    model.IntentResearch,
		Query:     "latest studies climate change impacts 2024",
		Reasoning: "requires external sources",
	}}, logger.NewNop())

	decision, state, err := r.Route(context.Background(), "What are the latest studies on climate change impacts?", nil)
	require.NoError(t, err)
	assert.Equal(t, StateRoutedResearch, state)
	assert.True(t, decision.Research())
	assert.NotEmpty(t, decision.Query)
}

func TestRouteResearchWithoutQueryFails(t *testing.T) {
	r := New(stubClassifier{decision: Decision{
		Intent: model.IntentResearch,
	}}, logger.NewNop())

	_, state, err := r.Route(context.Background(), "find studies", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrClassification)
	assert.Equal(t, StateClassificationFailed, state)
}

func TestRouteUnknownIntentFails(t *testing.T) {
	r := New(stubClassifier{decision: Decision{
		Intent: model.Intent("banter"),
	}}, logger.NewNop())

	_, state, err := r.Route(context.Background(), "hey", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrClassification)
	assert.Equal(t, StateClassificationFailed, state)
}

func TestRouteClassifierErrorFails(t *testing.T) {
	r := New(stubClassifier{err: errors.New("upstream unreachable")}, logger.NewNop())

	_, state, err := r.Route(context.Background(), "hey", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrClassification)
	assert.Equal(t, StateClassificationFailed, state)
}

func TestRouteEmptyMessageFails(t *testing.T) {
	r := New(stubClassifier{}, logger.NewNop())

	_, state, err := r.Route(context.Background(), "", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrClassification)
	assert.Equal(t, StateClassificationFailed, state)
}

func TestTerminalStates(t *testing.T) {
	assert.False(t, StateStart.Terminal())
	assert.False(t, StateClassifying.Terminal())
	assert.True(t, StateRoutedConversation.Terminal())
	assert.True(t, StateRoutedResearch.Terminal())
	assert.True(t, StateClassificationFailed.Terminal())
}
