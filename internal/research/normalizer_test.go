package research

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synapse-ai/research-platform/internal/model"
	"github.com/synapse-ai/research-platform/pkg/logger"
)

func newNormalizer() *Normalizer {
	return NewNormalizer(logger.NewNop())
}

func TestSanitizeSummaryReplacesNonASCII(t *testing.T) {
	n := newNormalizer()

	out, err := n.SanitizeSummary("AI adoption rose 12% — see (https://example.com/a)")
	require.NoError(t, err)
	assert.NotContains(t, out, "—")
	assert.Contains(t, out, "?")
	assert.Contains(t, out, "(https://example.com/a)")
}

func TestSanitizeSummaryKeepsNewlines(t *testing.T) {
	n := newNormalizer()

	out, err := n.SanitizeSummary("line one\nline two")
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", out)
}

func TestSanitizeSummaryUnusable(t *testing.T) {
	n := newNormalizer()

	_, err := n.SanitizeSummary("")
	assert.ErrorIs(t, err, ErrUnusableSummary)

	_, err = n.SanitizeSummary("☃☃☃")
	assert.ErrorIs(t, err, ErrUnusableSummary)
}

func TestNormalizeSourcesRoundTrip(t *testing.T) {
	n := newNormalizer()
	long := strings.Repeat("x", 250)

	out := n.NormalizeSources([]model.RawSource{
		{URL: "https://example.com/paper1", Title: "First", RelevantContent: "short excerpt"},
		{URL: "https://example.com/paper2", Title: "Second", RelevantContent: long},
	})

	require.Len(t, out, 2)

	assert.Equal(t, "1", out[0].ID)
	assert.Equal(t, "https://example.com/paper1", out[0].URL)
	assert.Equal(t, "short excerpt", out[0].Description)
	assert.Equal(t, model.SourceTypePaper, out[0].Type)
	assert.Equal(t, "2024", out[0].Metadata["publishedDate"])

	assert.Equal(t, "2", out[1].ID)
	assert.True(t, strings.HasSuffix(out[1].Description, "..."))
	assert.Len(t, out[1].Description, 203)
}

func TestNormalizeSourcesExactCapNotTruncated(t *testing.T) {
	n := newNormalizer()
	exact := strings.Repeat("y", 200)

	out := n.NormalizeSources([]model.RawSource{
		{URL: "https://example.com/p", Title: "Edge", RelevantContent: exact},
	})

	require.Len(t, out, 1)
	assert.Equal(t, exact, out[0].Description)
}

func TestNormalizeSourcesDropsUnusable(t *testing.T) {
	n := newNormalizer()

	out := n.NormalizeSources([]model.RawSource{
		{URL: "", Title: "no url"},
		{URL: "ftp://example.com/file", Title: "bad scheme"},
		{URL: "https://example.com/café", Title: "non-ascii url"},
		{URL: "https://example.com/good", Title: "kept"},
	})

	require.Len(t, out, 1)
	assert.Equal(t, "kept", out[0].Title)
	// IDs are per-call ordinals over the surviving entries.
	assert.Equal(t, "1", out[0].ID)
}

func TestNormalizeSourcesSanitizesTitleAndExcerpt(t *testing.T) {
	n := newNormalizer()

	out := n.NormalizeSources([]model.RawSource{
		{URL: "https://example.com/a", Title: "Café study", RelevantContent: "résumé of findings"},
	})

	require.Len(t, out, 1)
	assert.Equal(t, "Caf? study", out[0].Title)
	assert.Equal(t, "r?sum? of findings", out[0].Description)
}
