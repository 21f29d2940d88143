package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"presetchat/internal/domain/preset"
)

// PresetStore is the slice of the preset store the HTTP layer needs.
type PresetStore interface {
	Add(name, systemPrompt string) (preset.Preset, error)
	Edit(id string, input preset.EditInput) error
	Delete(id string) error
	SetCurrent(id string) error
	Current() (preset.Preset, bool)
	List() []preset.Preset
}

// PresetHandler serves the preset CRUD and selection endpoints.
type PresetHandler struct {
	store PresetStore
}

func NewPresetHandler(store PresetStore) *PresetHandler {
	return &PresetHandler{store: store}
}

type createPresetRequest struct {
	Name         string `json:"name"`
	SystemPrompt string `json:"systemPrompt"`
}

type updatePresetRequest struct {
	Name         *string `json:"name,omitempty"`
	SystemPrompt *string `json:"systemPrompt,omitempty"`
}

// List returns every preset plus the id of the active one.
// GET /api/v1/presets
func (h *PresetHandler) List(w http.ResponseWriter, r *http.Request) {
	currentID := ""
	if current, ok := h.store.Current(); ok {
		currentID = current.ID
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":      h.store.List(),
		"currentId": currentID,
	})
}

// Create adds a preset and returns it.
// POST /api/v1/presets
func (h *PresetHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPresetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.store.Add(req.Name, req.SystemPrompt)
	if err != nil {
		writePresetError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"data": p})
}

// Update edits a preset's name and/or system prompt.
// PUT /api/v1/presets/{id}
func (h *PresetHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updatePresetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.store.Edit(id, preset.EditInput{Name: req.Name, SystemPrompt: req.SystemPrompt}); err != nil {
		writePresetError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete removes a preset. The default preset is refused with 409.
// DELETE /api/v1/presets/{id}
func (h *PresetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(chi.URLParam(r, "id")); err != nil {
		writePresetError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Select makes a preset the active one. Selecting always clears the
// conversation buffer, including re-selecting the current preset.
// POST /api/v1/presets/{id}/select
func (h *PresetHandler) Select(w http.ResponseWriter, r *http.Request) {
	if err := h.store.SetCurrent(chi.URLParam(r, "id")); err != nil {
		writePresetError(w, err)
		return
	}

	current, _ := h.store.Current()
	writeJSON(w, http.StatusOK, map[string]any{"data": current})
}
