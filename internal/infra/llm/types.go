// Package llm defines the model-agnostic streaming provider abstraction.
// All types here are shared between the provider interface and adapters.
package llm

// Message roles. Provider-specific roles are passed through opaquely; the
// application itself only ever originates these three.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single turn in a conversation (role + content).
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the input for a streaming chat completion.
type ChatRequest struct {
	// Model overrides the provider default when non-empty.
	Model    string
	Messages []Message
}

// StreamDelta is one increment of a provider token stream. A delta with Err
// set terminates the stream; Done marks clean completion.
type StreamDelta struct {
	Content string
	Done    bool
	Err     error
}

// ModelMeta describes the provider identity.
type ModelMeta struct {
	ID       string // default model id, e.g. "meta-llama/llama-3.3-70b-instruct:free"
	Provider string // e.g. "openrouter"
}
