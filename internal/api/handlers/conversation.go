package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"presetchat/internal/domain/chat"
	"presetchat/internal/infra/llm"
)

// Transcript is the slice of the conversation buffer the HTTP layer needs.
type Transcript interface {
	AppendUser(content string) error
	Clear()
	Snapshot() []llm.Message
}

// ConversationHandler serves the conversation buffer endpoints.
type ConversationHandler struct {
	transcript Transcript
}

func NewConversationHandler(transcript Transcript) *ConversationHandler {
	return &ConversationHandler{transcript: transcript}
}

type appendMessageRequest struct {
	Content string `json:"content"`
}

// Get returns the transcript snapshot.
// GET /api/v1/conversation
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	msgs := h.transcript.Snapshot()
	if msgs == nil {
		msgs = []llm.Message{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": msgs})
}

// Append adds a user turn to the buffer.
// POST /api/v1/conversation/messages
func (h *ConversationHandler) Append(w http.ResponseWriter, r *http.Request) {
	var req appendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.transcript.AppendUser(req.Content); err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Clear empties the buffer ("new chat").
// DELETE /api/v1/conversation
func (h *ConversationHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.transcript.Clear()
	w.WriteHeader(http.StatusNoContent)
}
