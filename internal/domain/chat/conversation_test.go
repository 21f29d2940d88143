package chat

import (
	"errors"
	"testing"

	"presetchat/internal/infra/llm"
)

func TestConversation_AppendUser(t *testing.T) {
	c := NewConversation()

	if err := c.AppendUser("hello"); err != nil {
		t.Fatalf("AppendUser: %v", err)
	}
	if err := c.AppendUser(""); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("empty content: err = %v; want ErrEmptyMessage", err)
	}

	msgs := c.Snapshot()
	if len(msgs) != 1 || msgs[0].Role != llm.RoleUser || msgs[0].Content != "hello" {
		t.Errorf("unexpected transcript: %+v", msgs)
	}
}

func TestConversation_AssistantChunksGrowOneMessage(t *testing.T) {
	c := NewConversation()
	_ = c.AppendUser("question")

	_, gen := c.BeginTurn()
	c.AppendAssistantChunk(gen, "The ")
	c.AppendAssistantChunk(gen, "answer")
	c.AppendAssistantChunk(gen, ".")

	msgs := c.Snapshot()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages (user + assistant), got %d: %+v", len(msgs), msgs)
	}
	if msgs[1].Role != llm.RoleAssistant || msgs[1].Content != "The answer." {
		t.Errorf("assistant message = %+v; want concatenated chunks", msgs[1])
	}
}

func TestConversation_NewAssistantMessageAfterUserTurn(t *testing.T) {
	c := NewConversation()
	_ = c.AppendUser("one")
	_, gen := c.BeginTurn()
	c.AppendAssistantChunk(gen, "first reply")
	_ = c.AppendUser("two")
	c.AppendAssistantChunk(gen, "second reply")

	msgs := c.Snapshot()
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d: %+v", len(msgs), msgs)
	}
	if msgs[3].Content != "second reply" {
		t.Errorf("chunks merged across turns: %+v", msgs)
	}
}

func TestConversation_NeverHoldsSystemMessages(t *testing.T) {
	c := NewConversation()
	_ = c.AppendUser("hi")
	_, gen := c.BeginTurn()
	c.AppendAssistantChunk(gen, "hello")

	for _, m := range c.Snapshot() {
		if m.Role == llm.RoleSystem {
			t.Errorf("transcript holds a system message: %+v", m)
		}
	}
}

func TestConversation_Clear(t *testing.T) {
	c := NewConversation()
	_ = c.AppendUser("hi")
	_, gen := c.BeginTurn()
	c.AppendAssistantChunk(gen, "hello")

	c.Clear()

	if got := c.Snapshot(); len(got) != 0 {
		t.Errorf("expected empty transcript after Clear, got %+v", got)
	}
}

// A stream that started before a preset switch must not write into the
// cleared buffer: chunks carrying a pre-Clear generation are discarded.
func TestConversation_ClearInvalidatesRunningStream(t *testing.T) {
	c := NewConversation()
	_ = c.AppendUser("hi")

	_, gen := c.BeginTurn()
	c.AppendAssistantChunk(gen, "old preset partial")

	c.Clear()
	c.AppendAssistantChunk(gen, " stale tail")

	if got := c.Snapshot(); len(got) != 0 {
		t.Fatalf("buffer after switch holds stale output: %+v", got)
	}

	// A fresh turn against the cleared buffer writes normally.
	_ = c.AppendUser("new question")
	_, gen = c.BeginTurn()
	c.AppendAssistantChunk(gen, "new reply")

	msgs := c.Snapshot()
	if len(msgs) != 2 || msgs[1].Content != "new reply" {
		t.Fatalf("unexpected transcript after new turn: %+v", msgs)
	}
}

func TestConversation_SnapshotIsACopy(t *testing.T) {
	c := NewConversation()
	_ = c.AppendUser("hi")

	snap := c.Snapshot()
	snap[0].Content = "mutated"

	if c.Snapshot()[0].Content != "hi" {
		t.Error("snapshot aliases internal state")
	}
}
