package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/synapse-ai/research-platform/internal/llm"
	"github.com/synapse-ai/research-platform/internal/model"
	"github.com/synapse-ai/research-platform/pkg/logger"
	"github.com/synapse-ai/research-platform/pkg/metrics"
)

const responderPrompt = `=== ROLE ===
You are a helpful and knowledgeable conversation assistant specialized in
guiding users toward valuable research opportunities when appropriate.

=== CONTEXT ===
Current user message:
%s

Recent conversation history:
%s

=== INSTRUCTIONS ===
Respond naturally and directly to the user's message. Reference previous
conversation points when relevant. When the conversation naturally leads
toward topics that would benefit from research (scientific papers, market
trends, technical deep-dives, current developments), gently suggest research
options. Keep responses concise but comprehensive.

Respond to the user's message now:`

// CannedReplies are returned by the conversation-only endpoint when no LLM is
// configured.
var CannedReplies = []string{
	"I understand your question. Let me help you with that information.",
	"That's an interesting point! Here's what I can share about that topic.",
	"Great question! I'm here to assist you with both research and conversation.",
	"I'm designed to help with both academic research and general inquiries. How can I assist you today?",
}

// Responder generates conversational replies via the LLM.
type Responder struct {
	llm    llm.Client
	model  string
	logger *logger.Logger
}

// NewResponder creates a Responder.
func NewResponder(client llm.Client, model string, log *logger.Logger) *Responder {
	return &Responder{
		llm:    client,
		model:  model,
		logger: log,
	}
}

// Generate produces a reply to the user message given read-only history.
func (r *Responder) Generate(ctx context.Context, message string, history model.History) (string, error) {
	prompt := fmt.Sprintf(responderPrompt, message, renderHistory(history))

	resp, err := r.llm.Complete(ctx, &llm.CompletionRequest{
		Model:       r.model,
		Messages:    []llm.ChatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.7,
	})
	if err != nil {
		metrics.RecordLLMCall(r.model, "error", 0, 0, 0)
		return "", fmt.Errorf("reply generation failed: %w", err)
	}
	metrics.RecordLLMCall(resp.Model, "success", float64(resp.LatencyMs)/1000.0, resp.TokensIn, resp.TokensOut)

	if resp.Content == "" {
		return "", errors.New("empty reply from LLM")
	}
	return resp.Content, nil
}
