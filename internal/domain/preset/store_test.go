package preset_test

import (
	"database/sql"
	"errors"
	"testing"

	"presetchat/internal/domain/preset"
	"presetchat/internal/infra/eventbus"
	"presetchat/internal/infra/sqlite"
)

type clearerSpy struct{ calls int }

func (c *clearerSpy) Clear() { c.calls++ }

func newTestStore(t *testing.T) (*preset.Store, *clearerSpy, *sql.DB) {
	t.Helper()
	db, err := sqlite.NewDB(":memory:")
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := sqlite.MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}

	spy := &clearerSpy{}
	s, err := preset.NewStore(db, eventbus.New(), spy)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s, spy, db
}

func TestNewStore_SeedsDefault(t *testing.T) {
	s, _, _ := newTestStore(t)

	presets := s.List()
	if len(presets) != 1 {
		t.Fatalf("expected 1 seeded preset, got %d", len(presets))
	}
	if presets[0].ID != preset.DefaultID {
		t.Errorf("seeded id = %q; want %q", presets[0].ID, preset.DefaultID)
	}

	current, ok := s.Current()
	if !ok || current.ID != preset.DefaultID {
		t.Errorf("current = %+v ok=%v; want default preset", current, ok)
	}
}

func TestAdd_DerivesSlugID(t *testing.T) {
	s, _, _ := newTestStore(t)

	p, err := s.Add("Code Helper", "You write code.")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if p.ID != "code-helper" {
		t.Errorf("id = %q; want code-helper", p.ID)
	}

	// Adding does not change the current selection.
	current, _ := s.Current()
	if current.ID != preset.DefaultID {
		t.Errorf("current changed to %q after Add", current.ID)
	}
}

func TestAdd_Validation(t *testing.T) {
	s, _, _ := newTestStore(t)

	if _, err := s.Add("", "prompt"); !errors.Is(err, preset.ErrValidation) {
		t.Errorf("empty name: err = %v; want ErrValidation", err)
	}
	if _, err := s.Add("Name", ""); !errors.Is(err, preset.ErrValidation) {
		t.Errorf("empty prompt: err = %v; want ErrValidation", err)
	}
}

func TestAdd_CollisionsGetSuffixes(t *testing.T) {
	s, _, _ := newTestStore(t)

	first, err := s.Add("Code Helper", "a")
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Add("Code  helper", "b") // same slug after collapsing
	if err != nil {
		t.Fatal(err)
	}
	third, err := s.Add("CODE HELPER", "c")
	if err != nil {
		t.Fatal(err)
	}

	ids := map[string]bool{first.ID: true, second.ID: true, third.ID: true}
	if len(ids) != 3 {
		t.Fatalf("ids collided: %q %q %q", first.ID, second.ID, third.ID)
	}
	if second.ID != "code-helper-2" || third.ID != "code-helper-3" {
		t.Errorf("expected deterministic suffixes, got %q %q", second.ID, third.ID)
	}
}

func TestEdit_MutatesInPlaceKeepsID(t *testing.T) {
	s, _, _ := newTestStore(t)

	p, _ := s.Add("Code Helper", "You write code.")

	newName := "Refactoring Buddy"
	if err := s.Edit(p.ID, preset.EditInput{Name: &newName}); err != nil {
		t.Fatalf("Edit: %v", err)
	}

	var got preset.Preset
	for _, q := range s.List() {
		if q.ID == p.ID {
			got = q
		}
	}
	if got.Name != newName {
		t.Errorf("name = %q; want %q", got.Name, newName)
	}
	if got.ID != "code-helper" {
		t.Errorf("id changed on rename: %q", got.ID)
	}
	if got.SystemPrompt != "You write code." {
		t.Errorf("prompt mutated unexpectedly: %q", got.SystemPrompt)
	}
}

func TestEdit_Errors(t *testing.T) {
	s, _, _ := newTestStore(t)

	if err := s.Edit("missing", preset.EditInput{}); !errors.Is(err, preset.ErrNotFound) {
		t.Errorf("unknown id: err = %v; want ErrNotFound", err)
	}
	empty := ""
	if err := s.Edit(preset.DefaultID, preset.EditInput{Name: &empty}); !errors.Is(err, preset.ErrValidation) {
		t.Errorf("empty name: err = %v; want ErrValidation", err)
	}
}

func TestSetCurrent_ClearsTranscriptEvenWhenReselecting(t *testing.T) {
	s, spy, _ := newTestStore(t)

	p, _ := s.Add("Code Helper", "You write code.")

	if err := s.SetCurrent(p.ID); err != nil {
		t.Fatalf("SetCurrent: %v", err)
	}
	if spy.calls != 1 {
		t.Fatalf("expected 1 clear after switch, got %d", spy.calls)
	}

	// Re-selecting the active preset is the "reset conversation" affordance.
	if err := s.SetCurrent(p.ID); err != nil {
		t.Fatalf("SetCurrent (reselect): %v", err)
	}
	if spy.calls != 2 {
		t.Errorf("expected clear on reselect, got %d calls", spy.calls)
	}

	if err := s.SetCurrent("missing"); !errors.Is(err, preset.ErrNotFound) {
		t.Errorf("unknown id: err = %v; want ErrNotFound", err)
	}
}

func TestDelete_DefaultRefused(t *testing.T) {
	s, _, _ := newTestStore(t)

	if err := s.Delete(preset.DefaultID); !errors.Is(err, preset.ErrDefaultPreset) {
		t.Errorf("err = %v; want ErrDefaultPreset", err)
	}
	if err := s.Delete("missing"); !errors.Is(err, preset.ErrNotFound) {
		t.Errorf("err = %v; want ErrNotFound", err)
	}
}

func TestDelete_ActiveFallsBackToDefault(t *testing.T) {
	s, spy, _ := newTestStore(t)

	p, _ := s.Add("Code Helper", "You write code.")
	if err := s.SetCurrent(p.ID); err != nil {
		t.Fatal(err)
	}
	clearsBefore := spy.calls

	if err := s.Delete(p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	current, ok := s.Current()
	if !ok || current.ID != preset.DefaultID {
		t.Errorf("current = %+v; want default after deleting active", current)
	}
	if spy.calls != clearsBefore+1 {
		t.Errorf("expected transcript clear on fallback switch")
	}
	for _, q := range s.List() {
		if q.ID == p.ID {
			t.Errorf("deleted preset still listed")
		}
	}
}

func TestDelete_InactiveKeepsSelection(t *testing.T) {
	s, spy, _ := newTestStore(t)

	p, _ := s.Add("Code Helper", "You write code.")
	clearsBefore := spy.calls

	if err := s.Delete(p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	current, _ := s.Current()
	if current.ID != preset.DefaultID {
		t.Errorf("selection moved unexpectedly to %q", current.ID)
	}
	if spy.calls != clearsBefore {
		t.Errorf("transcript cleared on deleting an inactive preset")
	}
}

func TestStore_RehydratesFromDB(t *testing.T) {
	s, _, db := newTestStore(t)

	p, _ := s.Add("Code Helper", "You write code.")
	if err := s.SetCurrent(p.ID); err != nil {
		t.Fatal(err)
	}

	// A second store over the same database sees the same state.
	reloaded, err := preset.NewStore(db, eventbus.New(), nil)
	if err != nil {
		t.Fatalf("NewStore (reload): %v", err)
	}

	presets := reloaded.List()
	if len(presets) != 2 {
		t.Fatalf("expected 2 presets after reload, got %d", len(presets))
	}
	if presets[0].ID != preset.DefaultID || presets[1].ID != "code-helper" {
		t.Errorf("insertion order lost: %q, %q", presets[0].ID, presets[1].ID)
	}
	current, ok := reloaded.Current()
	if !ok || current.ID != "code-helper" {
		t.Errorf("current after reload = %+v; want code-helper", current)
	}
}

func TestStore_IDsStayUniqueAcrossMutations(t *testing.T) {
	s, _, _ := newTestStore(t)

	names := []string{"Helper", "Helper", "helper", "Other Bot", "Helper"}
	for _, n := range names {
		if _, err := s.Add(n, "prompt"); err != nil {
			t.Fatalf("Add(%q): %v", n, err)
		}
	}
	if err := s.Delete("helper-2"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add("Helper", "prompt"); err != nil {
		t.Fatal(err)
	}

	seen := map[string]bool{}
	for _, p := range s.List() {
		if seen[p.ID] {
			t.Fatalf("duplicate id %q", p.ID)
		}
		seen[p.ID] = true
	}

	current, ok := s.Current()
	if !ok || !seen[current.ID] {
		t.Errorf("current %q is not a member of the store", current.ID)
	}
}
