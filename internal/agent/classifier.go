// Package agent implements the LLM-backed collaborators the flow depends on:
// intent classification, conversational replies, and deep research.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/synapse-ai/research-platform/internal/llm"
	"github.com/synapse-ai/research-platform/internal/model"
	"github.com/synapse-ai/research-platform/internal/router"
	"github.com/synapse-ai/research-platform/pkg/logger"
	"github.com/synapse-ai/research-platform/pkg/metrics"
)

const classifierPrompt = `=== TASK ===
You are an intelligent router that determines user intent and generates research queries when appropriate.

=== INSTRUCTIONS ===
Analyze the user's message and conversation history to determine the intent.

RESEARCH intent: the user asks for factual information, studies, or analysis
that requires external research; follow-up questions about previous research
topics; investigation into scientific papers, market trends, or data analysis.

CONVERSATION intent: greetings, casual conversation, personal questions,
simple clarifications, questions about the system's capabilities.

=== INPUT DATA ===
Current user message:
%s

Recent conversation history:
%s

=== OUTPUT REQUIREMENTS ===
Respond with a single JSON object and nothing else:
{"intent": "research" or "conversation", "research_query": string or null, "reasoning": string}

If intent is "research", research_query must be a specific, actionable query
that incorporates conversation context. If intent is "conversation",
research_query must be null. Always provide reasoning.`

// IntentClassifier classifies a user turn via the LLM, requesting the strict
// {intent, research_query, reasoning} shape. Any other shape is a hard
// failure; it never guesses a branch.
type IntentClassifier struct {
	llm    llm.Client
	model  string
	logger *logger.Logger
}

// NewIntentClassifier creates a classifier. An empty model uses the provider
// default.
func NewIntentClassifier(client llm.Client, model string, log *logger.Logger) *IntentClassifier {
	return &IntentClassifier{
		llm:    client,
		model:  model,
		logger: log,
	}
}

// classifierOutput is the collaborator wire contract.
type classifierOutput struct {
	Intent        string  `json:"intent"`
	ResearchQuery *string `json:"research_query"`
	Reasoning     string  `json:"reasoning"`
}

// Classify implements router.Classifier.
func (c *IntentClassifier) Classify(ctx context.Context, message string, history model.History) (router.Decision, error) {
	prompt := fmt.Sprintf(classifierPrompt, message, renderHistory(history))

	resp, err := c.llm.Complete(ctx, &llm.CompletionRequest{
		Model:       c.model,
		Messages:    []llm.ChatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.1,
		JSONOnly:    true,
	})
	if err != nil {
		metrics.RecordLLMCall(c.model, "error", 0, 0, 0)
		return router.Decision{}, fmt.Errorf("classification call failed: %w", err)
	}
	metrics.RecordLLMCall(resp.Model, "success", float64(resp.LatencyMs)/1000.0, resp.TokensIn, resp.TokensOut)

	var out classifierOutput
	if err := json.Unmarshal([]byte(stripFences(resp.Content)), &out); err != nil {
		return router.Decision{}, fmt.Errorf("unparseable classifier output: %w", err)
	}

	decision := router.Decision{
		Intent:    model.Intent(out.Intent),
		Reasoning: out.Reasoning,
	}
	if out.ResearchQuery != nil {
		decision.Query = strings.TrimSpace(*out.ResearchQuery)
	}
	return decision, nil
}

// renderHistory flattens history into prompt context, most recent last.
func renderHistory(history model.History) string {
	if len(history) == 0 {
		return "(no prior messages)"
	}
	var b strings.Builder
	for _, m := range history {
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// stripFences removes a markdown code fence wrapping, which some models add
// around JSON despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
