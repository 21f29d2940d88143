package llm

import "context"

// StreamProvider is the model-agnostic interface for streaming inference.
// Adapters (OpenRouter, local runtimes, etc.) implement it so the chat
// pipeline is never coupled to a specific vendor.
//
// ChatStream returns a lazy, finite, non-restartable sequence of text deltas.
// The channel is closed after the final delta (Done or Err set). Cancelling
// ctx stops the stream and releases the upstream connection; no further
// deltas are sent after cancellation.
type StreamProvider interface {
	ChatStream(ctx context.Context, req ChatRequest) (<-chan StreamDelta, error)

	// ModelInfo returns static metadata about the provider.
	ModelInfo() ModelMeta

	// HealthCheck returns nil if the provider is reachable.
	HealthCheck(ctx context.Context) error
}
