// Package main is the entry point for the API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/synapse-ai/research-platform/internal/agent"
	"github.com/synapse-ai/research-platform/internal/config"
	"github.com/synapse-ai/research-platform/internal/flow"
	"github.com/synapse-ai/research-platform/internal/handler"
	"github.com/synapse-ai/research-platform/internal/llm"
	"github.com/synapse-ai/research-platform/internal/middleware"
	"github.com/synapse-ai/research-platform/internal/model"
	natsclient "github.com/synapse-ai/research-platform/internal/nats"
	"github.com/synapse-ai/research-platform/internal/research"
	"github.com/synapse-ai/research-platform/internal/router"
	"github.com/synapse-ai/research-platform/internal/service"
	"github.com/synapse-ai/research-platform/pkg/logger"
	"github.com/synapse-ai/research-platform/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	ctx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()

	// Initialize tracing if enabled
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "research-platform", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(context.Background(), tp)
		}
	}

	// Connect to NATS; eventing is optional and the server runs without it.
	var events *natsclient.Publisher
	var natsConn *natsclient.Client
	natsConn, err = natsclient.Connect(natsclient.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Warn("NATS unavailable, flow events disabled", zap.Error(err))
		natsConn = nil
	} else {
		defer natsConn.Close()
		events = natsclient.NewPublisher(natsConn)
		if err := events.EnsureStream(ctx); err != nil {
			log.Warn("failed to ensure flow event stream", zap.Error(err))
		}
	}

	// Initialize LLM client
	var llmClient llm.Client
	switch {
	case cfg.DefaultLLM == string(llm.ProviderAnthropic) && cfg.AnthropicAPIKey != "":
		llmClient, err = llm.NewAnthropicClient(cfg.AnthropicAPIKey)
	case cfg.OpenAIAPIKey != "":
		llmClient, err = llm.NewOpenAIClient(cfg.OpenAIAPIKey)
	case cfg.AnthropicAPIKey != "":
		llmClient, err = llm.NewAnthropicClient(cfg.AnthropicAPIKey)
	}
	if err != nil {
		log.Warn("failed to create LLM client, LLM features disabled", zap.Error(err))
		llmClient = nil
	}
	if llmClient == nil {
		log.Warn("no LLM configured, classification and replies unavailable")
	}

	// Initialize collaborators
	var (
		classifier router.Classifier
		responder  flow.Responder
		researcher flow.Researcher
	)
	if llmClient != nil {
		classifier = agent.NewIntentClassifier(llmClient, "", log)
		responder = agent.NewResponder(llmClient, "", log)

		if cfg.FirecrawlAPIKey != "" {
			searchClient, err := research.NewFirecrawlClient(cfg.FirecrawlAPIKey, cfg.SearchLimit, cfg.SearchTimeout, log)
			if err != nil {
				log.Warn("failed to create search client, research disabled", zap.Error(err))
			} else {
				researcher = agent.NewResearcher(searchClient, llmClient, "", log)
			}
		} else {
			log.Warn("no Firecrawl key configured, research disabled")
		}
	}
	// The executor always gets non-nil collaborators; stand-ins convert a
	// missing provider into a structured failure. The chat service keeps the
	// real nil so degraded endpoints can tell.
	execClassifier := classifier
	if execClassifier == nil {
		execClassifier = unavailableClassifier{}
	}
	execResponder := responder
	if execResponder == nil {
		execResponder = unavailableResponder{}
	}
	execResearcher := researcher
	if execResearcher == nil {
		execResearcher = unavailableResearcher{}
	}

	// Initialize core components
	normalizer := research.NewNormalizer(log)
	rtr := router.New(execClassifier, log)
	executor := flow.NewExecutor(rtr, execResponder, execResearcher, normalizer, log)
	harness := flow.NewHarness(executor, cfg.FlowWorkers, cfg.FlowTimeout, log)
	defer harness.Close()

	store := service.NewSessionStore(cfg.SessionTTL, log)
	store.StartSweeper(ctx, cfg.SessionSweepInterval)

	chatSvc := service.NewChatService(store, harness, rtr, responder, researcher, normalizer, events, cfg.HistoryWindow, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(natsConn)
	chatHandler := handler.NewChatHandler(chatSvc, log)
	sessionHandler := handler.NewSessionHandler(store, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Post("/chat", chatHandler.Chat)
		r.Post("/classify-intent", chatHandler.ClassifyIntent)
		r.Post("/research", chatHandler.Research)
		r.Post("/conversation", chatHandler.Conversation)

		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", sessionHandler.Get)
			r.Post("/", sessionHandler.Create)
			r.Get("/messages", sessionHandler.ListMessages)
			r.Post("/messages", sessionHandler.AppendMessage)
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

// Stand-in collaborators used when no provider is configured. Every call is a
// structured collaborator failure instead of a nil dereference.

type unavailableClassifier struct{}

func (unavailableClassifier) Classify(ctx context.Context, message string, history model.History) (router.Decision, error) {
	return router.Decision{}, errors.New("no classification collaborator configured")
}

type unavailableResponder struct{}

func (unavailableResponder) Generate(ctx context.Context, message string, history model.History) (string, error) {
	return "", errors.New("no conversational collaborator configured")
}

type unavailableResearcher struct{}

func (unavailableResearcher) Search(ctx context.Context, query string) (*model.SearchResult, error) {
	return nil, errors.New("no research collaborator configured")
}
