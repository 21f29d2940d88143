// OpenRouter adapter. Speaks the OpenAI-compatible chat completions API with
// stream=true and decodes the SSE response line by line. Endpoints used:
//   - POST /chat/completions — streaming chat completion
//   - GET  /models           — health check (lists available models)
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	mimeJSON          = "application/json"
	headerContentType = "Content-Type"

	ssePrefix  = "data: "
	sseDone    = "[DONE]"
	maxSSELine = 1024 * 1024
)

// OpenRouterProvider implements StreamProvider against the OpenRouter API
// (or any OpenAI-compatible endpoint).
type OpenRouterProvider struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewOpenRouterProvider creates a provider. apiKey may be empty for endpoints
// that don't require one. The client carries no overall timeout: streams are
// long-lived and bounded by the caller's context instead.
func NewOpenRouterProvider(baseURL, apiKey, model string) *OpenRouterProvider {
	return &OpenRouterProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Transport: &http.Transport{ResponseHeaderTimeout: 30 * time.Second},
		},
	}
}

// ─── internal wire types ─────────────────────────────────────────────────────

type chatCompletionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type chatCompletionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Message string `json:"message"`
	Code    any    `json:"code"`
}

// ─── StreamProvider implementation ──────────────────────────────────────────

// ChatStream opens the upstream completion stream and returns a channel of
// deltas. The returned error covers request construction and connection
// failures only; mid-stream failures arrive as a final delta with Err set.
func (p *OpenRouterProvider) ChatStream(ctx context.Context, req ChatRequest) (<-chan StreamDelta, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	body, err := json.Marshal(chatCompletionRequest{
		Model:    model,
		Messages: req.Messages,
		Stream:   true,
	})
	if err != nil {
		return nil, err
	}

	respBody, err := p.openStream(ctx, body)
	if err != nil {
		return nil, err
	}

	out := make(chan StreamDelta)
	go func() {
		defer close(out)
		defer respBody.Close()
		p.pumpDeltas(ctx, respBody, out)
	}()
	return out, nil
}

// openStream sends the POST and validates the response status.
func (p *OpenRouterProvider) openStream(ctx context.Context, body []byte) (io.ReadCloser, error) {
	url := p.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openrouter: build request: %w", err)
	}
	httpReq.Header.Set(headerContentType, mimeJSON)
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openrouter: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := readErrorBody(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("openrouter: status %d: %s", resp.StatusCode, msg)
	}
	return resp.Body, nil
}

// pumpDeltas decodes SSE lines from r into out until the [DONE] sentinel,
// an upstream error, or ctx cancellation.
func (p *OpenRouterProvider) pumpDeltas(ctx context.Context, r io.Reader, out chan<- StreamDelta) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELine)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, ssePrefix) {
			continue // comments, keep-alives, blank separators
		}
		payload := strings.TrimPrefix(line, ssePrefix)
		if payload == sseDone {
			send(ctx, out, StreamDelta{Done: true})
			return
		}

		var chunk chatCompletionChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			send(ctx, out, StreamDelta{Err: fmt.Errorf("openrouter: decode chunk: %w", err)})
			return
		}
		if chunk.Error != nil {
			send(ctx, out, StreamDelta{Err: fmt.Errorf("openrouter: %s", chunk.Error.Message)})
			return
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if content := chunk.Choices[0].Delta.Content; content != "" {
			if !send(ctx, out, StreamDelta{Content: content}) {
				return
			}
		}
		if fr := chunk.Choices[0].FinishReason; fr != nil && *fr != "" {
			send(ctx, out, StreamDelta{Done: true})
			return
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, context.Canceled) {
		send(ctx, out, StreamDelta{Err: fmt.Errorf("openrouter: read stream: %w", err)})
		return
	}
	// Upstream closed without [DONE] or finish_reason — treat as clean end.
	send(ctx, out, StreamDelta{Done: true})
}

// send delivers a delta unless ctx is already cancelled. Reports whether the
// consumer is still listening.
func send(ctx context.Context, out chan<- StreamDelta, d StreamDelta) bool {
	select {
	case out <- d:
		return true
	case <-ctx.Done():
		return false
	}
}

// ModelInfo returns static metadata for this provider.
func (p *OpenRouterProvider) ModelInfo() ModelMeta {
	return ModelMeta{ID: p.model, Provider: "openrouter"}
}

// HealthCheck calls GET /models — returns nil if the API is reachable.
func (p *OpenRouterProvider) HealthCheck(ctx context.Context) error {
	url := p.baseURL + "/models"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("openrouter healthcheck: build request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("openrouter healthcheck: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openrouter healthcheck: status %d", resp.StatusCode)
	}
	return nil
}

// readErrorBody extracts a short error message from a non-200 response.
func readErrorBody(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return "no body"
	}
	var wrapped struct {
		Error *apiError `json:"error"`
	}
	if json.Unmarshal(data, &wrapped) == nil && wrapped.Error != nil {
		return wrapped.Error.Message
	}
	return string(data)
}
