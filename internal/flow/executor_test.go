package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synapse-ai/research-platform/internal/model"
	"github.com/synapse-ai/research-platform/internal/research"
	"github.com/synapse-ai/research-platform/internal/router"
	"github.com/synapse-ai/research-platform/pkg/logger"
)

type fakeClassifier struct {
	decision router.Decision
	err      error
}

func (f fakeClassifier) Classify(ctx context.Context, message string, history model.History) (router.Decision, error) {
	return f.decision, f.err
}

type fakeResponder struct {
	reply string
	err   error
}

func (f fakeResponder) Generate(ctx context.Context, message string, history model.History) (string, error) {
	return f.reply, f.err
}

type fakeResearcher struct {
	result *model.SearchResult
	err    error
}

func (f fakeResearcher) Search(ctx context.Context, query string) (*model.SearchResult, error) {
	return f.result, f.err
}

func newExecutor(c fakeClassifier, resp fakeResponder, res fakeResearcher) *Executor {
	log := logger.NewNop()
	return NewExecutor(
		router.New(c, log),
		resp,
		res,
		research.NewNormalizer(log),
		log,
	)
}

func TestRunConversationScenario(t *testing.T) {
	e := newExecutor(
		fakeClassifier{decision: router.Decision{
			Intent:    model.IntentConversation,
			Reasoning: "general greeting",
		}},
		fakeResponder{reply: "Hi there! How can I help today?"},
		fakeResearcher{},
	)

	state, err := e.Run(context.Background(), "Hello, how are you?", nil)
	require.NoError(t, err)

	require.NotNil(t, state.Response)
	assert.Equal(t, model.RoleAssistant, state.Response.Role)
	assert.Equal(t, model.IntentConversation, state.Response.Intent)
	assert.NotEmpty(t, state.Response.Content)
	assert.Equal(t, router.StateRoutedConversation, state.State)

	// The working history carries the appended user turn.
	require.Len(t, state.History, 1)
	assert.Equal(t, model.RoleUser, state.History[0].Role)
	assert.Equal(t, "Hello, how are you?", state.History[0].Content)
}

func TestRunResearchScenario(t *testing.T) {
	summary := "Warming accelerates ice loss (https://example.com/a), and sea levels follow (https://example.com/b)."
	e := newExecutor(
		fakeClassifier{decision: router.Decision{
			Intent:    model.IntentResearch,
			Query:     "climate change impacts studies 2024",
			Reasoning: "requires external sources",
		}},
		fakeResponder{},
		fakeResearcher{result: &model.SearchResult{
			ResearchSummary: summary,
			SourcesList: []model.RawSource{
				{URL: "https://example.com/a", Title: "Ice Loss", RelevantContent: "glacier data"},
				{URL: "https://example.com/b", Title: "Sea Levels", RelevantContent: "tide data"},
			},
		}},
	)

	state, err := e.Run(context.Background(), "What are the latest studies on climate change impacts?", nil)
	require.NoError(t, err)

	require.NotNil(t, state.Response)
	assert.Equal(t, model.IntentResearch, state.Response.Intent)
	assert.Contains(t, state.Response.Content, "(https://example.com/a)")
	assert.Contains(t, state.Response.Content, "(https://example.com/b)")
	require.Len(t, state.Response.Sources, 2)
	assert.Contains(t, state.Response.Reasoning, "climate change impacts studies 2024")
	assert.False(t, state.Fallback)

	require.NotNil(t, state.Research)
	assert.Equal(t, "climate change impacts studies 2024", state.Research.Query)
}

func TestRunResearchCollaboratorFailure(t *testing.T) {
	e := newExecutor(
		fakeClassifier{decision: router.Decision{
			Intent: model.IntentResearch,
			Query:  "anything",
		}},
		fakeResponder{},
		fakeResearcher{err: errors.New("search timed out")},
	)

	state, err := e.Run(context.Background(), "find studies", nil)
	require.Error(t, err)
	assert.Nil(t, state.Response)
}

func TestRunResearchEncodingFallback(t *testing.T) {
	e := newExecutor(
		fakeClassifier{decision: router.Decision{
			Intent: model.IntentResearch,
			Query:  "anything",
		}},
		fakeResponder{},
		fakeResearcher{result: &model.SearchResult{
			ResearchSummary: "☃☃☃",
			SourcesList: []model.RawSource{
				{URL: "https://example.com/a", Title: "A"},
			},
		}},
	)

	state, err := e.Run(context.Background(), "find studies", nil)
	require.NoError(t, err)

	assert.True(t, state.Fallback)
	require.NotNil(t, state.Response)
	assert.Equal(t, FallbackSummary, state.Response.Content)
	assert.Equal(t, "Research completed with encoding fallback", state.Response.Reasoning)
	assert.Empty(t, state.Response.Sources)
}

func TestRunClassificationFailure(t *testing.T) {
	e := newExecutor(
		fakeClassifier{err: errors.New("garbled output")},
		fakeResponder{reply: "unused"},
		fakeResearcher{},
	)

	state, err := e.Run(context.Background(), "hello", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, router.ErrClassification)
	assert.Equal(t, router.StateClassificationFailed, state.State)
	assert.Nil(t, state.Response)
}

func TestRunDoesNotMutatePriorHistory(t *testing.T) {
	prior := model.History{
		{ID: "1", Role: model.RoleUser, Content: "earlier"},
	}
	e := newExecutor(
		fakeClassifier{decision: router.Decision{Intent: model.IntentConversation}},
		fakeResponder{reply: "ok"},
		fakeResearcher{},
	)

	_, err := e.Run(context.Background(), "next", prior)
	require.NoError(t, err)

	require.Len(t, prior, 1)
	assert.Equal(t, "earlier", prior[0].Content)
}
