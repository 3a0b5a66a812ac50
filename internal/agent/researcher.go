package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/synapse-ai/research-platform/internal/llm"
	"github.com/synapse-ai/research-platform/internal/model"
	"github.com/synapse-ai/research-platform/internal/research"
	"github.com/synapse-ai/research-platform/pkg/logger"
	"github.com/synapse-ai/research-platform/pkg/metrics"
)

const researcherPrompt = `You are a deep research specialist synthesizing scholarly sources.

Research query: %s

Search results:
%s

Combine ALL sources into a single cohesive narrative. Every piece of
information MUST be immediately followed by its source URL in parentheses,
for example: "AI adoption is increasing rapidly (https://example.com/source1),
while challenges remain in implementation (https://example.com/source2)."

Respond with a single JSON object and nothing else:
{"research_summary": string, "sources_list": [{"url": string, "title": string, "relevant_content": string}]}

Include every source you used in sources_list.`

// SearchProvider is the external paper-search dependency.
type SearchProvider interface {
	Search(ctx context.Context, query string) ([]research.WebResult, error)
}

// Researcher runs the research branch: it queries the paper-search provider
// and asks the LLM to fold the hits into a citation-bearing summary.
type Researcher struct {
	provider SearchProvider
	llm      llm.Client
	model    string
	logger   *logger.Logger
}

// NewResearcher creates a Researcher.
func NewResearcher(provider SearchProvider, client llm.Client, model string, log *logger.Logger) *Researcher {
	return &Researcher{
		provider: provider,
		llm:      client,
		model:    model,
		logger:   log,
	}
}

// Search executes one research attempt for the optimized query. Provider or
// LLM failure fails the whole attempt; there is no retry.
func (r *Researcher) Search(ctx context.Context, query string) (*model.SearchResult, error) {
	hits, err := r.provider.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("paper search failed: %w", err)
	}
	if len(hits) == 0 {
		return nil, errors.New("paper search returned no results")
	}

	prompt := fmt.Sprintf(researcherPrompt, query, renderHits(hits))

	resp, err := r.llm.Complete(ctx, &llm.CompletionRequest{
		Model:       r.model,
		Messages:    []llm.ChatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.2,
		JSONOnly:    true,
	})
	if err != nil {
		metrics.RecordLLMCall(r.model, "error", 0, 0, 0)
		return nil, fmt.Errorf("research synthesis failed: %w", err)
	}
	metrics.RecordLLMCall(resp.Model, "success", float64(resp.LatencyMs)/1000.0, resp.TokensIn, resp.TokensOut)

	var result model.SearchResult
	if err := json.Unmarshal([]byte(stripFences(resp.Content)), &result); err != nil {
		return nil, fmt.Errorf("unparseable research output: %w", err)
	}
	if result.ResearchSummary == "" {
		return nil, errors.New("research output missing summary")
	}
	return &result, nil
}

// renderHits flattens provider results into prompt context. Markdown content
// is preferred over the short description when present.
func renderHits(hits []research.WebResult) string {
	var b strings.Builder
	for i, h := range hits {
		content := h.Markdown
		if content == "" {
			content = h.Description
		}
		fmt.Fprintf(&b, "[%d] %s\nURL: %s\n%s\n\n", i+1, h.Title, h.URL, content)
	}
	return b.String()
}
