package research

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/synapse-ai/research-platform/pkg/logger"
	"github.com/synapse-ai/research-platform/pkg/metrics"
)

const (
	firecrawlSearchURL = "https://api.firecrawl.dev/v2/search"

	// Result-count bounds imposed by the provider.
	minSearchLimit = 1
	maxSearchLimit = 50
)

// ErrSearchUnavailable reports that the provider circuit is open.
var ErrSearchUnavailable = errors.New("paper search unavailable")

// WebResult is one web hit from the provider.
type WebResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Markdown    string `json:"markdown,omitempty"`
}

type searchRequest struct {
	Query      string   `json:"query"`
	Sources    []string `json:"sources"`
	Categories []string `json:"categories"`
	TBS        string   `json:"tbs"`
	Limit      int      `json:"limit"`
}

type searchResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    struct {
		Web []WebResult `json:"web"`
	} `json:"data"`
}

// FirecrawlClient searches research-category web sources through the
// Firecrawl search API. Calls are single-attempt: a network timeout is fatal
// for the call, and repeated failures open the circuit breaker.
type FirecrawlClient struct {
	apiKey  string
	baseURL string
	limit   int
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *logger.Logger
}

// NewFirecrawlClient creates a search client. The timeout bounds each request;
// limit is clamped to the provider's 1-50 range.
func NewFirecrawlClient(apiKey string, limit int, timeout time.Duration, log *logger.Logger) (*FirecrawlClient, error) {
	if apiKey == "" {
		return nil, errors.New("Firecrawl API key is required")
	}
	if limit < minSearchLimit {
		limit = minSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "firecrawl",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("search breaker state change",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &FirecrawlClient{
		apiKey:  apiKey,
		baseURL: firecrawlSearchURL,
		limit:   limit,
		http:    &http.Client{Timeout: timeout},
		breaker: breaker,
		logger:  log,
	}, nil
}

// Search queries the provider for recent research publications matching the
// query and returns the raw web results.
func (c *FirecrawlClient) Search(ctx context.Context, query string) ([]WebResult, error) {
	if query == "" {
		return nil, errors.New("search query is required")
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.search(ctx, query)
	})
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrSearchUnavailable, err)
		}
		return nil, err
	}

	metrics.SearchRequestsTotal.WithLabelValues("success").Inc()
	return result.([]WebResult), nil
}

func (c *FirecrawlClient) search(ctx context.Context, query string) ([]WebResult, error) {
	body, err := json.Marshal(searchRequest{
		Query:      query,
		Sources:    []string{"web"},
		Categories: []string{"research"},
		TBS:        "qdr:y", // last year only
		Limit:      c.limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	if !parsed.Success {
		return nil, fmt.Errorf("search failed: %s", parsed.Error)
	}

	c.logger.Debug("search completed",
		zap.String("query", query),
		zap.Int("results", len(parsed.Data.Web)),
	)
	return parsed.Data.Web, nil
}
