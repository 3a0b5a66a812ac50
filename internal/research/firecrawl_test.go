package research

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synapse-ai/research-platform/pkg/logger"
)

func newFirecrawl(t *testing.T, server *httptest.Server, limit int) *FirecrawlClient {
	t.Helper()
	c, err := NewFirecrawlClient("test-key", limit, 2*time.Second, logger.NewNop())
	require.NoError(t, err)
	c.baseURL = server.URL
	return c
}

func TestFirecrawlRequiresAPIKey(t *testing.T) {
	_, err := NewFirecrawlClient("", 5, time.Second, logger.NewNop())
	assert.Error(t, err)
}

func TestFirecrawlSearchSuccess(t *testing.T) {
	var got searchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"web": []map[string]string{
					{"title": "Paper", "url": "https://example.com/p", "description": "d"},
				},
			},
		})
	}))
	defer server.Close()

	c := newFirecrawl(t, server, 5)
	hits, err := c.Search(context.Background(), "climate change")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Paper", hits[0].Title)

	assert.Equal(t, "climate change", got.Query)
	assert.Equal(t, []string{"web"}, got.Sources)
	assert.Equal(t, []string{"research"}, got.Categories)
	assert.Equal(t, "qdr:y", got.TBS)
	assert.Equal(t, 5, got.Limit)
}

func TestFirecrawlClampsLimit(t *testing.T) {
	var got searchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]any{"web": []any{}}})
	}))
	defer server.Close()

	c := newFirecrawl(t, server, 500)
	_, err := c.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, maxSearchLimit, got.Limit)

	c = newFirecrawl(t, server, 0)
	_, err = c.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, minSearchLimit, got.Limit)
}

func TestFirecrawlEmptyQueryFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request should not be sent")
	}))
	defer server.Close()

	c := newFirecrawl(t, server, 5)
	_, err := c.Search(context.Background(), "")
	assert.Error(t, err)
}

func TestFirecrawlNonOKStatusFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := newFirecrawl(t, server, 5)
	_, err := c.Search(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestFirecrawlProviderErrorFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "quota exceeded"})
	}))
	defer server.Close()

	c := newFirecrawl(t, server, 5)
	_, err := c.Search(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestFirecrawlBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newFirecrawl(t, server, 5)
	for i := 0; i < 5; i++ {
		_, err := c.Search(context.Background(), "q")
		require.Error(t, err)
	}

	_, err := c.Search(context.Background(), "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSearchUnavailable)
}
