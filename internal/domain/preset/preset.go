// Package preset owns the set of chatbot presets and the identity of the
// currently active one. Every mutation is written through to SQLite before
// the in-memory state changes; the full state is rehydrated at startup.
package preset

import (
	"errors"
	"time"
)

// DefaultID is the id of the built-in preset. It exists from first startup
// and cannot be deleted; deleting the active preset falls back to it.
const DefaultID = "default"

// TopicSwitched is the event bus topic published on every preset switch.
const TopicSwitched = "preset.switched"

var (
	// ErrValidation marks malformed input (empty name or system prompt).
	ErrValidation = errors.New("invalid preset input")

	// ErrNotFound is returned when no preset has the requested id.
	ErrNotFound = errors.New("preset not found")

	// ErrDefaultPreset is returned on attempts to delete the built-in preset.
	ErrDefaultPreset = errors.New("default preset cannot be deleted")
)

// Preset is a named, reusable system-instruction configuration. ID is derived
// from the name at creation time and never changes afterwards, even when the
// preset is renamed.
type Preset struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	SystemPrompt string    `json:"systemPrompt"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// EditInput carries the mutable preset fields. Nil means "leave unchanged".
type EditInput struct {
	Name         *string
	SystemPrompt *string
}

// SwitchEvent is the payload published on TopicSwitched.
type SwitchEvent struct {
	PresetID string
	At       time.Time
}
