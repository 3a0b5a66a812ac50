package handler

import (
	"net/http"
	"time"

	"github.com/synapse-ai/research-platform/internal/model"
	natsclient "github.com/synapse-ai/research-platform/internal/nats"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	natsClient *natsclient.Client
}

// NewHealthHandler creates a new health handler. natsClient may be nil when
// no broker is configured.
func NewHealthHandler(natsClient *natsclient.Client) *HealthHandler {
	return &HealthHandler{
		natsClient: natsClient,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
	})
}

// Ready handles GET /ready. The broker is optional; readiness reports its
// state without failing when eventing is disabled.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	events := "disabled"
	if h.natsClient != nil {
		if h.natsClient.IsConnected() {
			events = "connected"
		} else {
			events = "disconnected"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"events": events,
	})
}
