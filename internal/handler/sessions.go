package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/synapse-ai/research-platform/internal/middleware"
	"github.com/synapse-ai/research-platform/internal/model"
	"github.com/synapse-ai/research-platform/internal/service"
	"github.com/synapse-ai/research-platform/pkg/logger"
)

// SessionHandler handles session CRUD endpoints.
type SessionHandler struct {
	store  *service.SessionStore
	logger *logger.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(store *service.SessionStore, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		store:  store,
		logger: log,
	}
}

// Get handles GET /api/sessions/{id}. Reading an unknown id is not found;
// only writes auto-create.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateSessionID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := h.store.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		h.logger.Error("failed to get session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get session")
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

// Create handles POST /api/sessions/{id}
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateSessionID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess := h.store.GetOrCreate(id)
	writeJSON(w, http.StatusOK, sess)
}

// ListMessages handles GET /api/sessions/{id}/messages
func (h *SessionHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateSessionID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := h.store.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	writeJSON(w, http.StatusOK, sess.Messages)
}

// AppendMessage handles POST /api/sessions/{id}/messages. Appending to an
// unknown id creates the session.
func (h *SessionHandler) AppendMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateSessionID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var msg model.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateMessageContent(msg.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg.Role != model.RoleUser && msg.Role != model.RoleAssistant {
		writeError(w, http.StatusBadRequest, "role must be user or assistant")
		return
	}

	if msg.ID == "" {
		msg.ID = uuid.Must(uuid.NewV7()).String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	h.store.Append(id, msg)
	writeJSON(w, http.StatusOK, msg)
}
