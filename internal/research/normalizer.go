// Package research normalizes external research payloads and talks to the
// paper-search provider.
package research

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/synapse-ai/research-platform/internal/model"
	"github.com/synapse-ai/research-platform/pkg/logger"
	"github.com/synapse-ai/research-platform/pkg/metrics"
)

const (
	// maxExcerptLen is the excerpt cap in runes; longer excerpts are cut and
	// marked with an ellipsis.
	maxExcerptLen = 200

	// placeholder replaces characters that do not survive sanitization.
	placeholder = '?'

	// publishedYearPlaceholder fills source metadata until real publication
	// dates are extracted from the provider payload.
	publishedYearPlaceholder = "2024"
)

// ErrUnusableSummary reports a summary that is empty or carries no readable
// content after sanitization.
var ErrUnusableSummary = errors.New("summary unusable after sanitization")

// Normalizer converts raw collaborator output into transport-safe results.
type Normalizer struct {
	logger *logger.Logger
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(log *logger.Logger) *Normalizer {
	return &Normalizer{logger: log}
}

// SanitizeSummary strips the summary down to a transport-safe form. Characters
// outside printable ASCII are replaced with a visible placeholder rather than
// failing the pipeline. The error is returned only when nothing readable
// remains; callers degrade to a fallback message in that case.
func (n *Normalizer) SanitizeSummary(raw string) (string, error) {
	clean := sanitize(raw)
	if !readable(clean) {
		return "", ErrUnusableSummary
	}
	return clean, nil
}

// NormalizeSources transforms raw sources into the API shape: stable 1-based
// ordinal IDs, URL carried verbatim, excerpt truncated to the cap. Entries
// that cannot be salvaged are dropped with a logged skip, never aborting the
// whole list.
func (n *Normalizer) NormalizeSources(raw []model.RawSource) []model.Source {
	sources := make([]model.Source, 0, len(raw))
	for i, src := range raw {
		if err := usable(src); err != nil {
			metrics.SourcesDroppedTotal.Inc()
			n.logger.Warn("dropping unusable research source",
				zap.Int("position", i+1),
				zap.Error(err),
			)
			continue
		}

		excerpt := sanitize(src.RelevantContent)
		if len([]rune(excerpt)) > maxExcerptLen {
			excerpt = string([]rune(excerpt)[:maxExcerptLen]) + "..."
		}

		sources = append(sources, model.Source{
			ID:          strconv.Itoa(len(sources) + 1),
			Title:       sanitize(src.Title),
			URL:         src.URL,
			Description: excerpt,
			Type:        model.SourceTypePaper,
			Metadata: map[string]string{
				"publishedDate": publishedYearPlaceholder,
			},
		})
	}
	return sources
}

// usable rejects sources whose URL cannot be carried verbatim.
func usable(src model.RawSource) error {
	if strings.TrimSpace(src.URL) == "" {
		return errors.New("empty url")
	}
	u, err := url.Parse(src.URL)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("unsupported url scheme")
	}
	for _, r := range src.URL {
		if r > unicode.MaxASCII {
			return errors.New("non-ascii url")
		}
	}
	return nil
}

// sanitize maps every rune outside printable ASCII to the placeholder.
// Newlines and tabs survive.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 32 || r > unicode.MaxASCII {
			return placeholder
		}
		return r
	}, s)
}

// readable reports whether the string still carries at least one letter or
// digit.
func readable(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
