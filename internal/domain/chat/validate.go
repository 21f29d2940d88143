package chat

import "strings"

// Rejection reason codes. The UI needs to tell "you picked a disallowed
// model" apart from "the model service failed", so every terminal error
// carries one of these.
const (
	ReasonMissingSystemPrompt = "MISSING_SYSTEM_PROMPT"
	ReasonModelNotAllowed     = "MODEL_NOT_ALLOWED"
	ReasonUpstreamError       = "UPSTREAM_ERROR"
	ReasonTimeout             = "TIMEOUT"
)

// Rejection is a terminal validation failure, produced before any upstream
// resource is consumed.
type Rejection struct {
	Reason  string
	Status  int // HTTP status for the transport layer
	Message string
}

func (r *Rejection) Error() string { return r.Message }

// ModelPolicy decides which model identifiers may be used for inference.
// It is a policy hook: suffix match, set membership, or a remote lookup can
// be swapped in without touching the pipeline.
type ModelPolicy interface {
	Allows(model string) bool
}

// SuffixPolicy allows models carrying a marker suffix, e.g. the ":free"
// tier marker.
type SuffixPolicy struct {
	Suffix string
}

func (p SuffixPolicy) Allows(model string) bool {
	return p.Suffix != "" && strings.HasSuffix(model, p.Suffix)
}

// SetPolicy allows an explicit set of model identifiers.
type SetPolicy map[string]struct{}

func (p SetPolicy) Allows(model string) bool {
	_, ok := p[model]
	return ok
}

// Validate checks an inference request before any network call. Rules run in
// order and the first failure wins. A nil result means the request is
// accepted.
func Validate(in ChatInput, policy ModelPolicy) *Rejection {
	if in.SystemPrompt == "" {
		return &Rejection{
			Reason:  ReasonMissingSystemPrompt,
			Status:  400,
			Message: "No system prompt",
		}
	}
	if in.Model == "" || !policy.Allows(in.Model) {
		return &Rejection{
			Reason:  ReasonModelNotAllowed,
			Status:  403,
			Message: "Invalid model. Only free models are allowed.",
		}
	}
	return nil
}
