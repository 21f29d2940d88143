package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"presetchat/internal/domain/chat"
	"presetchat/internal/domain/preset"
	"presetchat/internal/infra/llm"
)

// ChatStreamService runs one validated inference request and relays the
// provider output as a chunk stream.
type ChatStreamService interface {
	Chat(ctx context.Context, in chat.ChatInput) (<-chan chat.StreamChunk, error)
}

// ChatTranscript is the buffer surface the chat handler drives: snapshot as
// request fallback, assistant chunks applied as they are relayed. Chunks are
// tagged with the generation captured at turn start so a preset switch while
// the stream is still running discards them instead of polluting the fresh
// buffer.
type ChatTranscript interface {
	BeginTurn() ([]llm.Message, uint64)
	AppendAssistantChunk(gen uint64, content string)
}

// CurrentPresetSource reports the active preset, used to tag turns for the
// history log.
type CurrentPresetSource interface {
	Current() (preset.Preset, bool)
}

// ChatHandler serves the streaming inference endpoint.
type ChatHandler struct {
	chatService  ChatStreamService
	transcript   ChatTranscript
	presets      CurrentPresetSource
	defaultModel string
}

func NewChatHandler(chatService ChatStreamService, transcript ChatTranscript, presets CurrentPresetSource, defaultModel string) *ChatHandler {
	return &ChatHandler{
		chatService:  chatService,
		transcript:   transcript,
		presets:      presets,
		defaultModel: defaultModel,
	}
}

type chatRequest struct {
	Messages     []llm.Message `json:"messages,omitempty"`
	SystemPrompt string        `json:"systemPrompt"`
	Model        string        `json:"model,omitempty"`
}

// Chat validates and forwards one inference request, then relays provider
// chunks as server-sent events. Rejections never open a stream: they come
// back as a plain JSON error with the rejection's status.
// POST /api/v1/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// A request without messages runs against the conversation buffer, and
	// relayed assistant chunks are applied back to it.
	bufferBacked := req.Messages == nil
	messages := req.Messages
	var gen uint64
	if bufferBacked {
		messages, gen = h.transcript.BeginTurn()
	}

	model := req.Model
	if model == "" {
		model = h.defaultModel
	}

	presetID := ""
	if current, ok := h.presets.Current(); ok {
		presetID = current.ID
	}

	stream, err := h.chatService.Chat(r.Context(), chat.ChatInput{
		Messages:     messages,
		SystemPrompt: req.SystemPrompt,
		Model:        model,
		PresetID:     presetID,
	})
	if err != nil {
		writeChatError(w, err)
		return
	}

	bw, flusher, err := prepareChatStream(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	h.streamChunks(bw, flusher, stream, bufferBacked, gen)
}

func prepareChatStream(w http.ResponseWriter) (*bufio.Writer, http.Flusher, error) {
	w.Header().Set(headerContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Flusher")
	}

	return bufio.NewWriter(w), flusher, nil
}

func (h *ChatHandler) streamChunks(bw *bufio.Writer, flusher http.Flusher, stream <-chan chat.StreamChunk, bufferBacked bool, gen uint64) {
	for chunk := range stream {
		if bufferBacked && chunk.Type == "token" {
			h.transcript.AppendAssistantChunk(gen, chunk.Delta)
		}

		b, _ := json.Marshal(chunk)
		if _, err := fmt.Fprintf(bw, "data: %s\n\n", string(b)); err != nil {
			return
		}
		_ = bw.Flush()
		flusher.Flush()
	}
}

func writeChatError(w http.ResponseWriter, err error) {
	var rej *chat.Rejection
	if errors.As(err, &rej) {
		writeError(w, rej.Status, rej.Message)
		return
	}
	if errors.Is(err, chat.ErrUpstream) {
		writeError(w, http.StatusBadGateway, "model service unavailable")
		return
	}
	writeError(w, http.StatusInternalServerError, "chat failed")
}
