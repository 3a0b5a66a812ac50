// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/synapse-ai/research-platform/internal/middleware"
	"github.com/synapse-ai/research-platform/internal/model"
	"github.com/synapse-ai/research-platform/internal/service"
	"github.com/synapse-ai/research-platform/pkg/logger"
)

// ChatHandler handles the chat, classification, research, and conversation
// endpoints.
type ChatHandler struct {
	chatService *service.ChatService
	logger      *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(svc *service.ChatService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: svc,
		logger:      log,
	}
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateMessageContent(req.Message); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.SessionID != "" {
		if err := middleware.ValidateSessionID(req.SessionID); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	response, err := h.chatService.Chat(r.Context(), &req)
	if err != nil {
		h.logger.Error("chat failed", zap.Error(err))
		writeFlowError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// ClassifyIntent handles POST /api/classify-intent
func (h *ChatHandler) ClassifyIntent(w http.ResponseWriter, r *http.Request) {
	var req model.ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateMessageContent(req.Message); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.chatService.Classify(r.Context(), &req)
	if err != nil {
		h.logger.Error("classification failed", zap.Error(err))
		writeFlowError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Research handles POST /api/research
func (h *ChatHandler) Research(w http.ResponseWriter, r *http.Request) {
	var req model.ResearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateQuery(req.Query); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := h.chatService.Research(r.Context(), req.Query)
	if err != nil {
		h.logger.Error("research failed", zap.Error(err))
		writeFlowError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, outcome)
}

// Conversation handles POST /api/conversation
func (h *ChatHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	var req model.ConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateMessageContent(req.Message); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := h.chatService.Converse(r.Context(), &req)
	if err != nil {
		h.logger.Error("conversation failed", zap.Error(err))
		writeFlowError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.ConversationResponse{Response: reply})
}
