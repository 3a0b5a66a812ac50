package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/synapse-ai/research-platform/internal/flow"
	"github.com/synapse-ai/research-platform/internal/service"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeFlowError maps a structured flow failure to a client-safe response.
// Internal detail never reaches the caller.
func writeFlowError(w http.ResponseWriter, err error) {
	var flowErr *service.FlowError
	if !errors.As(err, &flowErr) {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	switch flowErr.Kind {
	case flow.FailureClassification:
		writeError(w, http.StatusBadGateway, "could not classify message intent")
	case flow.FailureTimeout:
		writeError(w, http.StatusGatewayTimeout, "processing timed out")
	case flow.FailureCanceled:
		writeError(w, http.StatusRequestTimeout, "request canceled")
	default:
		writeError(w, http.StatusBadGateway, "message processing failed")
	}
}
