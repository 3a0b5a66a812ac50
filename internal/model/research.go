package model

// SourceType tags the kind of a research source. The pipeline currently tags
// everything as a paper; no per-source classification is done.
type SourceType string

const (
	SourceTypePaper SourceType = "paper"
)

// Source is one normalized research source, safe for transport.
type Source struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	URL         string            `json:"url"`
	Description string            `json:"description"`
	Type        SourceType        `json:"type"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// RawSource is a source as returned by the research collaborator, before
// normalization.
type RawSource struct {
	URL             string `json:"url"`
	Title           string `json:"title"`
	RelevantContent string `json:"relevant_content"`
}

// SearchResult is the research collaborator's structured output. Every claim
// in the summary attributable to a source carries an inline (URL) citation.
type SearchResult struct {
	ResearchSummary string      `json:"research_summary"`
	SourcesList     []RawSource `json:"sources_list"`
}

// ResearchOutcome is the normalized result of one research branch: a
// citation-bearing summary plus the cleaned source list.
type ResearchOutcome struct {
	Query   string   `json:"query"`
	Summary string   `json:"summary"`
	Sources []Source `json:"sources"`
	Topics  []string `json:"topics,omitempty"`
}
