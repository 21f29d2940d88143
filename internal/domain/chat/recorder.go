package chat

import (
	"context"
	"database/sql"
	"log"
	"time"

	"presetchat/internal/domain/preset"
	"presetchat/internal/infra/eventbus"
	"presetchat/pkg/uuid"
)

// HistoryRecorder consumes turn and preset-switch events off the bus and
// appends them to the history table. It runs outside the request path; a
// dropped event loses a log row, never a response.
type HistoryRecorder struct {
	db *sql.DB
}

func NewHistoryRecorder(db *sql.DB) *HistoryRecorder {
	return &HistoryRecorder{db: db}
}

// Start consumes events until ctx is cancelled. Run it in its own goroutine.
func (r *HistoryRecorder) Start(ctx context.Context, bus eventbus.EventBus) {
	turns := bus.Subscribe(TopicTurn)
	switches := bus.Subscribe(preset.TopicSwitched)

	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-turns:
			if turn, ok := evt.Payload.(TurnEvent); ok {
				r.recordTurn(turn)
			}
		case evt := <-switches:
			if sw, ok := evt.Payload.(preset.SwitchEvent); ok {
				r.recordSwitch(sw)
			}
		}
	}
}

func (r *HistoryRecorder) recordTurn(turn TurnEvent) {
	_, err := r.db.Exec(
		"INSERT INTO history (id, kind, preset_id, model, prompt, reply, outcome, created_at) VALUES (?, 'turn', ?, ?, ?, ?, ?, ?)",
		uuid.NewV7().String(), turn.PresetID, turn.Model, turn.Prompt, turn.Reply, string(turn.Outcome), turn.At.Format(time.RFC3339),
	)
	if err != nil {
		log.Printf("history: record turn: %v", err)
	}
}

func (r *HistoryRecorder) recordSwitch(sw preset.SwitchEvent) {
	_, err := r.db.Exec(
		"INSERT INTO history (id, kind, preset_id, created_at) VALUES (?, 'preset_switch', ?, ?)",
		uuid.NewV7().String(), sw.PresetID, sw.At.Format(time.RFC3339),
	)
	if err != nil {
		log.Printf("history: record switch: %v", err)
	}
}
