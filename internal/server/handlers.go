package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/daozhang71/chat-compressor/internal/chat"
	"github.com/daozhang71/chat-compressor/internal/compress"
	"github.com/daozhang71/chat-compressor/internal/engine"
	"github.com/daozhang71/chat-compressor/internal/storage"
)

// ConversationHandler serves the conversation and compression endpoints.
type ConversationHandler struct {
	engine *engine.Engine
	db     *storage.DB
}

// NewConversationHandler creates a conversation handler.
func NewConversationHandler(e *engine.Engine, db *storage.DB) *ConversationHandler {
	return &ConversationHandler{engine: e, db: db}
}

// RegisterRoutes registers the conversation routes on the router.
func (h *ConversationHandler) RegisterRoutes(router *mux.Router) {
	sub := router.PathPrefix("/api/v1").Subrouter()

	sub.HandleFunc("/conversations", h.HandleListConversations).Methods("GET")
	sub.HandleFunc("/conversations", h.HandleCreateConversation).Methods("POST")
	sub.HandleFunc("/conversations/{id}", h.HandleDeleteConversation).Methods("DELETE")

	sub.HandleFunc("/conversations/{id}/messages", h.HandleListMessages).Methods("GET")
	sub.HandleFunc("/conversations/{id}/messages", h.HandleAppendMessage).Methods("POST")

	sub.HandleFunc("/conversations/{id}/compress", h.HandleCompress).Methods("POST")
	sub.HandleFunc("/conversations/{id}/query", h.HandleQuery).Methods("POST")
	sub.HandleFunc("/conversations/{id}/inject", h.HandleInject).Methods("POST")

	sub.HandleFunc("/conversations/{id}/state", h.HandleGetState).Methods("GET")
	sub.HandleFunc("/conversations/{id}/state", h.HandleClearState).Methods("DELETE")
	sub.HandleFunc("/conversations/{id}/summary", h.HandleSetSummary).Methods("PUT")
	sub.HandleFunc("/conversations/{id}/options", h.HandleSetOptions).Methods("PUT")
}

// HandleListConversations returns all conversations.
func (h *ConversationHandler) HandleListConversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.db.ListConversations()
	if err != nil {
		SendError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	SendJSON(w, http.StatusOK, map[string]any{"conversations": conversations})
}

// HandleCreateConversation creates a conversation.
func (h *ConversationHandler) HandleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		SendError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
		return
	}

	var (
		conv *storage.Conversation
		err  error
	)
	if req.ID != "" {
		conv, err = h.db.CreateConversationWithID(req.ID, req.Title)
	} else {
		conv, err = h.db.CreateConversation(req.Title)
	}
	if err != nil {
		SendError(w, http.StatusConflict, ErrCodeConflict, err.Error())
		return
	}

	SendJSON(w, http.StatusCreated, conv)
}

// HandleDeleteConversation removes a conversation and everything under it.
func (h *ConversationHandler) HandleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.db.DeleteConversation(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			SendError(w, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
			return
		}
		SendError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleListMessages returns the message log.
func (h *ConversationHandler) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	messages, err := h.engine.Messages(id)
	if err != nil {
		SendError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	if messages == nil {
		messages = []*storage.StoredMessage{}
	}
	SendJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

// HandleAppendMessage appends one message to the log.
func (h *ConversationHandler) HandleAppendMessage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var msg chat.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		SendError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
		return
	}
	if msg.Name == "" {
		SendError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "name is required")
		return
	}

	stored, err := h.engine.Append(id, msg)
	if err != nil {
		SendError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}

	SendJSON(w, http.StatusCreated, stored)
}

// HandleCompress folds the conversation. No-op conditions are reported as
// a normal response rather than an error: nothing happened, nothing broke.
func (h *ConversationHandler) HandleCompress(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	state, err := h.engine.Fold(r.Context(), id, nil)
	if err != nil {
		switch {
		case compress.IsNoOp(err):
			SendJSON(w, http.StatusOK, map[string]any{
				"status": "noop",
				"reason": err.Error(),
				"state":  state,
			})
		case errors.Is(err, engine.ErrFoldInProgress):
			SendError(w, http.StatusConflict, ErrCodeConflict, err.Error())
		case errors.Is(err, compress.ErrNoProvider):
			SendError(w, http.StatusServiceUnavailable, ErrCodeInternalError, err.Error())
		default:
			SendError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		}
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"status": "compressed",
		"state":  state,
	})
}

// HandleQuery runs retrieval against the conversation's vector index.
func (h *ConversationHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		SendError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
		return
	}

	results, err := h.engine.Retrieve(r.Context(), id, req.Query)
	if err != nil {
		SendError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	SendJSON(w, http.StatusOK, map[string]any{"results": results})
}

// HandleInject builds the context injection for the next request.
func (h *ConversationHandler) HandleInject(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		SendError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
		return
	}

	injection, err := h.engine.Prepare(r.Context(), id, req.Query)
	if err != nil {
		SendError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	SendJSON(w, http.StatusOK, map[string]any{"injection": injection})
}

// HandleGetState returns the stored compression state.
func (h *ConversationHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	state, err := h.engine.State(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			SendError(w, http.StatusNotFound, ErrCodeNotFound, "no compression state")
			return
		}
		SendError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	SendJSON(w, http.StatusOK, state)
}

// HandleClearState removes the compression state; the message log stays.
func (h *ConversationHandler) HandleClearState(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.engine.Clear(id); err != nil {
		SendError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSetSummary overwrites the running summary.
func (h *ConversationHandler) HandleSetSummary(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req struct {
		Summary string `json:"summary"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
		return
	}

	state, err := h.engine.SetSummary(id, req.Summary)
	if err != nil {
		SendError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	SendJSON(w, http.StatusOK, state)
}

// HandleSetOptions stores per-conversation engine option overrides.
func (h *ConversationHandler) HandleSetOptions(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	body, err := io.ReadAll(r.Body)
	if err != nil {
		SendError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "read body")
		return
	}

	if err := h.engine.SetOptions(id, string(body)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			SendError(w, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
			return
		}
		SendError(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
