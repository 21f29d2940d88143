package preset

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"presetchat/internal/infra/eventbus"
)

// ConversationClearer is the hook the store uses to reset the transcript on
// preset switches. Implemented by chat.Conversation.
type ConversationClearer interface {
	Clear()
}

// Store owns preset state. All mutations are serialized by the store mutex
// and written to the database before the in-memory copy is touched, so a
// failed write leaves the running state consistent with disk.
type Store struct {
	mu         sync.Mutex
	db         *sql.DB
	bus        eventbus.EventBus
	transcript ConversationClearer

	presets   []Preset // insertion order
	currentID string
	lastPos   int
}

const (
	stateKeyCurrent = "current_preset_id"

	defaultName   = "Assistant"
	defaultPrompt = "You are a helpful assistant."
)

// NewStore rehydrates preset state from db. When no state exists yet it seeds
// the built-in default preset and makes it current.
func NewStore(db *sql.DB, bus eventbus.EventBus, transcript ConversationClearer) (*Store, error) {
	s := &Store{db: db, bus: bus, transcript: transcript}

	if err := s.load(); err != nil {
		return nil, fmt.Errorf("preset store: load: %w", err)
	}
	if len(s.presets) == 0 {
		if err := s.seedDefault(); err != nil {
			return nil, fmt.Errorf("preset store: seed default: %w", err)
		}
	}
	return s, nil
}

// Add validates both fields, derives a unique id from name, and appends the
// preset. The current selection is left unchanged.
func (s *Store) Add(name, systemPrompt string) (Preset, error) {
	if name == "" {
		return Preset{}, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if systemPrompt == "" {
		return Preset{}, fmt.Errorf("%w: system prompt is required", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	slug := slugify(name)
	if slug == "" {
		return Preset{}, fmt.Errorf("%w: name has no usable characters", ErrValidation)
	}

	taken := make(map[string]bool, len(s.presets))
	for _, p := range s.presets {
		taken[p.ID] = true
	}

	now := time.Now().UTC()
	p := Preset{
		ID:           uniqueID(slug, taken),
		Name:         name,
		SystemPrompt: systemPrompt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := s.db.Exec(
		"INSERT INTO preset (id, name, system_prompt, position, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		p.ID, p.Name, p.SystemPrompt, s.nextPosition(), fmtTime(now), fmtTime(now),
	); err != nil {
		return Preset{}, fmt.Errorf("preset store: insert %s: %w", p.ID, err)
	}

	s.presets = append(s.presets, p)
	return p, nil
}

// Edit mutates name and/or system prompt in place. The id is immutable and
// never recomputed from a renamed name.
func (s *Store) Edit(id string, input EditInput) error {
	if input.Name != nil && *input.Name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrValidation)
	}
	if input.SystemPrompt != nil && *input.SystemPrompt == "" {
		return fmt.Errorf("%w: system prompt cannot be empty", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return ErrNotFound
	}

	p := s.presets[i]
	if input.Name != nil {
		p.Name = *input.Name
	}
	if input.SystemPrompt != nil {
		p.SystemPrompt = *input.SystemPrompt
	}
	p.UpdatedAt = time.Now().UTC()

	if _, err := s.db.Exec(
		"UPDATE preset SET name = ?, system_prompt = ?, updated_at = ? WHERE id = ?",
		p.Name, p.SystemPrompt, fmtTime(p.UpdatedAt), p.ID,
	); err != nil {
		return fmt.Errorf("preset store: update %s: %w", id, err)
	}

	s.presets[i] = p
	return nil
}

// Delete removes a preset. The built-in default is refused. Deleting the
// active preset reassigns the selection to the default and clears the
// transcript, so the current reference never dangles.
func (s *Store) Delete(id string) error {
	if id == DefaultID {
		return ErrDefaultPreset
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return ErrNotFound
	}

	wasCurrent := s.currentID == id

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("preset store: begin delete %s: %w", id, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM preset WHERE id = ?", id); err != nil {
		return fmt.Errorf("preset store: delete %s: %w", id, err)
	}
	if wasCurrent {
		if err := saveState(tx, stateKeyCurrent, DefaultID); err != nil {
			return fmt.Errorf("preset store: reassign current: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("preset store: commit delete %s: %w", id, err)
	}

	s.presets = append(s.presets[:i], s.presets[i+1:]...)
	if wasCurrent {
		s.switchTo(DefaultID)
	}
	return nil
}

// SetCurrent activates the preset with the given id and clears the
// transcript. Re-selecting the already-active preset still clears — that is
// the user's "reset conversation" affordance.
func (s *Store) SetCurrent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index(id) < 0 {
		return ErrNotFound
	}
	if err := saveState(s.db, stateKeyCurrent, id); err != nil {
		return fmt.Errorf("preset store: persist current: %w", err)
	}

	s.switchTo(id)
	return nil
}

// Current returns the active preset. ok is false only before any preset
// exists, which cannot happen after NewStore seeds the default.
func (s *Store) Current() (Preset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(s.currentID)
	if i < 0 {
		return Preset{}, false
	}
	return s.presets[i], true
}

// List returns a snapshot of all presets in insertion order.
func (s *Store) List() []Preset {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Preset, len(s.presets))
	copy(out, s.presets)
	return out
}

// --- internal ---

// switchTo updates the in-memory selection, clears the transcript and
// publishes the switch. Caller holds s.mu; the clear happens synchronously so
// the buffer is already empty when the mutation returns.
func (s *Store) switchTo(id string) {
	s.currentID = id
	if s.transcript != nil {
		s.transcript.Clear()
	}
	if s.bus != nil {
		s.bus.Publish(TopicSwitched, SwitchEvent{PresetID: id, At: time.Now().UTC()})
	}
}

// index returns the position of id in s.presets, -1 when absent. Caller holds s.mu.
func (s *Store) index(id string) int {
	for i := range s.presets {
		if s.presets[i].ID == id {
			return i
		}
	}
	return -1
}

// nextPosition hands out strictly increasing positions so insertion order
// survives deletions. Caller holds s.mu.
func (s *Store) nextPosition() int {
	s.lastPos++
	return s.lastPos
}

// load reads the full preset collection and the current selection from db.
func (s *Store) load() error {
	rows, err := s.db.Query("SELECT id, name, system_prompt, position, created_at, updated_at FROM preset ORDER BY position")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p Preset
		var pos int
		var created, updated string
		if err := rows.Scan(&p.ID, &p.Name, &p.SystemPrompt, &pos, &created, &updated); err != nil {
			return err
		}
		p.CreatedAt = parseTime(created)
		p.UpdatedAt = parseTime(updated)
		s.presets = append(s.presets, p)
		if pos > s.lastPos {
			s.lastPos = pos
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	var current string
	err = s.db.QueryRow("SELECT value FROM app_state WHERE key = ?", stateKeyCurrent).Scan(&current)
	switch {
	case err == sql.ErrNoRows:
		// no selection persisted yet
	case err != nil:
		return err
	default:
		s.currentID = current
	}

	// A stale selection (preset removed out of band) falls back to default.
	if s.currentID != "" && s.index(s.currentID) < 0 {
		s.currentID = DefaultID
	}
	return nil
}

// seedDefault creates the built-in preset and selects it.
func (s *Store) seedDefault() error {
	now := time.Now().UTC()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(
		"INSERT INTO preset (id, name, system_prompt, position, created_at, updated_at) VALUES (?, ?, ?, 0, ?, ?)",
		DefaultID, defaultName, defaultPrompt, fmtTime(now), fmtTime(now),
	); err != nil {
		return err
	}
	if err := saveState(tx, stateKeyCurrent, DefaultID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.presets = append(s.presets, Preset{
		ID: DefaultID, Name: defaultName, SystemPrompt: defaultPrompt,
		CreatedAt: now, UpdatedAt: now,
	})
	s.currentID = DefaultID
	return nil
}

// execer covers *sql.DB and *sql.Tx for the state upsert.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func saveState(db execer, key, value string) error {
	_, err := db.Exec(
		"INSERT INTO app_state (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

func fmtTime(t time.Time) string { return t.Format(time.RFC3339) }

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
