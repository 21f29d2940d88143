// Package chat holds the conversation transcript, the inference request
// validator, and the streaming chat pipeline.
package chat

import (
	"errors"
	"sync"

	"presetchat/internal/infra/llm"
)

// ErrEmptyMessage is returned when a user turn has no content.
var ErrEmptyMessage = errors.New("message content is required")

// Conversation is the ordered transcript scoped to the active preset. It only
// ever holds user and assistant turns — the system message is injected by the
// gateway at request time, never stored.
type Conversation struct {
	mu       sync.Mutex
	messages []llm.Message

	// gen counts Clear calls. Streamed assistant writes carry the generation
	// they started under and are dropped once a clear has happened, so a
	// preset switch mid-stream cannot leak old-preset output into the fresh
	// transcript.
	gen uint64
}

// NewConversation returns an empty transcript.
func NewConversation() *Conversation {
	return &Conversation{}
}

// AppendUser appends a user turn.
func (c *Conversation) AppendUser(content string) error {
	if content == "" {
		return ErrEmptyMessage
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, llm.Message{Role: llm.RoleUser, Content: content})
	return nil
}

// AppendAssistantChunk grows the trailing assistant message by one streamed
// chunk, creating the message on the first chunk of a reply. This is the only
// operation that mutates an existing entry instead of appending a new one.
// gen must be the generation observed via BeginTurn when the stream started;
// chunks from a stream that outlived a Clear are silently discarded.
func (c *Conversation) AppendAssistantChunk(gen uint64, content string) {
	if content == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return
	}
	if n := len(c.messages); n > 0 && c.messages[n-1].Role == llm.RoleAssistant {
		c.messages[n-1].Content += content
		return
	}
	c.messages = append(c.messages, llm.Message{Role: llm.RoleAssistant, Content: content})
}

// Clear empties the transcript. Called on every preset switch and exposed as
// the explicit "new chat" action.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
	c.gen++
}

// Snapshot returns a copy of the transcript, used to build outgoing requests.
func (c *Conversation) Snapshot() []llm.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyLocked()
}

// BeginTurn returns the transcript to send upstream together with the current
// buffer generation, read under one lock so a Clear cannot slip between them.
func (c *Conversation) BeginTurn() ([]llm.Message, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyLocked(), c.gen
}

func (c *Conversation) copyLocked() []llm.Message {
	out := make([]llm.Message, len(c.messages))
	copy(out, c.messages)
	return out
}
