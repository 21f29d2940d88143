package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"presetchat/internal/infra/eventbus"
	"presetchat/internal/infra/llm"
	"presetchat/pkg/uuid"
)

// TopicTurn is the event bus topic published when a chat request reaches a
// terminal state with at least partial output.
const TopicTurn = "chat.turn"

// ErrUpstream marks a provider failure before any chunk could be relayed.
var ErrUpstream = errors.New("upstream provider error")

// State of a single chat request. Each request is single-shot; no state is
// ever re-entered.
type State string

const (
	StateReceived   State = "received"
	StateValidating State = "validating"
	StateRejected   State = "rejected"
	StateForwarding State = "forwarding"
	StateStreaming  State = "streaming"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateTimedOut   State = "timed_out"
	StateCancelled  State = "cancelled"
)

// terminal reports whether a request in state s can transition no further.
func (s State) terminal() bool {
	switch s {
	case StateRejected, StateCompleted, StateFailed, StateTimedOut, StateCancelled:
		return true
	}
	return false
}

// ChatInput is an inference request as submitted by the caller.
type ChatInput struct {
	Messages     []llm.Message
	SystemPrompt string
	Model        string

	// PresetID tags the turn event for the history log. Not validated.
	PresetID string
}

// StreamChunk is one unit of the relayed response stream.
//
//	{type: "token", delta: "..."}            incremental assistant text
//	{type: "done", done: true, meta: {...}}  clean completion
//	{type: "error", reason: "...", error: "..."}  terminal failure
type StreamChunk struct {
	Type   string         `json:"type"`
	Delta  string         `json:"delta,omitempty"`
	Reason string         `json:"reason,omitempty"`
	Error  string         `json:"error,omitempty"`
	Done   bool           `json:"done,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
}

// TurnEvent is the payload published on TopicTurn.
type TurnEvent struct {
	RequestID string
	PresetID  string
	Model     string
	Prompt    string // last user message of the request
	Reply     string // accumulated assistant output, possibly partial
	Outcome   State
	At        time.Time
}

// ChatService is the streaming inference gateway: it validates a request,
// prepends the system message, opens the provider stream and relays output
// chunk by chunk while generation is still running.
type ChatService struct {
	router  *llm.Router
	policy  ModelPolicy
	bus     eventbus.EventBus
	timeout time.Duration
}

// NewChatService wires the gateway. timeout bounds each whole request,
// validation through final chunk.
func NewChatService(router *llm.Router, policy ModelPolicy, bus eventbus.EventBus, timeout time.Duration) *ChatService {
	return &ChatService{router: router, policy: policy, bus: bus, timeout: timeout}
}

// Chat runs one inference request. A *Rejection (as error) is returned for
// requests that fail validation — no upstream call is made. Once the returned
// channel is open, all failures arrive in-band as error chunks; partial
// output already relayed is never retracted. Cancelling ctx aborts the
// upstream stream and stops all chunk delivery.
func (s *ChatService) Chat(ctx context.Context, in ChatInput) (<-chan StreamChunk, error) {
	req := &request{id: uuid.NewV7().String(), state: StateReceived}

	req.to(StateValidating)
	if rej := Validate(in, s.policy); rej != nil {
		req.to(StateRejected)
		return nil, rej
	}

	req.to(StateForwarding)
	provider, err := s.router.Route(ctx)
	if err != nil {
		req.to(StateFailed)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	streamCtx, cancel := context.WithTimeout(ctx, s.timeout)
	deltas, err := provider.ChatStream(streamCtx, llm.ChatRequest{
		Model:    in.Model,
		Messages: outboundMessages(in),
	})
	if err != nil {
		cancel()
		req.to(StateFailed)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	req.to(StateStreaming)
	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		defer cancel()
		s.relay(ctx, streamCtx, req, in, deltas, out)
	}()
	return out, nil
}

// relay pumps provider deltas to the caller in arrival order and settles the
// request into exactly one terminal state.
func (s *ChatService) relay(callerCtx, streamCtx context.Context, req *request, in ChatInput, deltas <-chan llm.StreamDelta, out chan<- StreamChunk) {
	var reply string

	finish := func(outcome State) {
		req.to(outcome)
		s.publishTurn(req, in, reply, outcome)
	}

	for {
		select {
		case d, ok := <-deltas:
			if !ok {
				// Provider closed without a Done/Err delta; the stream ended.
				finish(StateCompleted)
				return
			}
			switch {
			case d.Err != nil:
				s.emit(streamCtx, out, StreamChunk{Type: "error", Reason: ReasonUpstreamError, Error: d.Err.Error()})
				finish(StateFailed)
				return
			case d.Done:
				s.emit(streamCtx, out, StreamChunk{Type: "done", Done: true, Meta: map[string]any{
					"requestId": req.id,
					"model":     in.Model,
					"at":        time.Now().UTC().Format(time.RFC3339),
				}})
				finish(StateCompleted)
				return
			default:
				reply += d.Content
				if !s.emit(streamCtx, out, StreamChunk{Type: "token", Delta: d.Content}) {
					finish(s.abortOutcome(callerCtx))
					return
				}
			}
		case <-streamCtx.Done():
			outcome := s.abortOutcome(callerCtx)
			if outcome == StateTimedOut {
				// Best effort: the consumer may still be listening.
				s.emit(callerCtx, out, StreamChunk{Type: "error", Reason: ReasonTimeout, Error: "request exceeded time limit"})
			}
			finish(outcome)
			return
		}
	}
}

// abortOutcome distinguishes caller cancellation from the wall-clock ceiling.
func (s *ChatService) abortOutcome(callerCtx context.Context) State {
	if callerCtx.Err() != nil {
		return StateCancelled
	}
	return StateTimedOut
}

// emit delivers a chunk unless ctx is already done. Reports delivery.
func (s *ChatService) emit(ctx context.Context, out chan<- StreamChunk, c StreamChunk) bool {
	select {
	case out <- c:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *ChatService) publishTurn(req *request, in ChatInput, reply string, outcome State) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(TopicTurn, TurnEvent{
		RequestID: req.id,
		PresetID:  in.PresetID,
		Model:     in.Model,
		Prompt:    lastUserMessage(in.Messages),
		Reply:     reply,
		Outcome:   outcome,
		At:        time.Now().UTC(),
	})
}

// outboundMessages builds the provider message list: exactly one leading
// system message, then the caller's turns with any system-role entries
// dropped so the preset's instructions cannot be overridden or duplicated.
func outboundMessages(in ChatInput) []llm.Message {
	out := make([]llm.Message, 0, len(in.Messages)+1)
	out = append(out, llm.Message{Role: llm.RoleSystem, Content: in.SystemPrompt})
	for _, m := range in.Messages {
		if m.Role == llm.RoleSystem {
			continue
		}
		out = append(out, m)
	}
	return out
}

func lastUserMessage(msgs []llm.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == llm.RoleUser {
			return msgs[i].Content
		}
	}
	return ""
}

// request tracks the per-request state machine.
type request struct {
	id    string
	state State
}

// to advances the state machine. Terminal states are sticky — a request that
// already settled ignores further transitions.
func (r *request) to(next State) {
	if r.state.terminal() {
		return
	}
	r.state = next
}
