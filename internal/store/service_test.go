package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/lmgram/lmgram/internal/db"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	conn, err := db.Open(filepath.Join(t.TempDir(), "lmgram.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	if err := db.InitSchema(conn); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return NewService(nil, conn, "llava")
}

func TestActiveConversationCreatesOnFirstContact(t *testing.T) {
	t.Parallel()
	s := newTestService(t)
	ctx := context.Background()

	if err := s.UpsertUser(ctx, 1, "alice"); err != nil {
		t.Fatalf("upsert user: %v", err)
	}
	conv, err := s.ActiveConversation(ctx, 1)
	if err != nil {
		t.Fatalf("active conversation: %v", err)
	}
	if conv.Model != "llava" {
		t.Errorf("model = %q, want llava", conv.Model)
	}

	again, err := s.ActiveConversation(ctx, 1)
	if err != nil {
		t.Fatalf("active conversation again: %v", err)
	}
	if again.ID != conv.ID {
		t.Errorf("second resolve returned %q, want stable %q", again.ID, conv.ID)
	}
}

func TestHistoryRoundTripPreservesInsertionOrder(t *testing.T) {
	t.Parallel()
	s := newTestService(t)
	ctx := context.Background()

	if err := s.UpsertUser(ctx, 2, "bob"); err != nil {
		t.Fatalf("upsert user: %v", err)
	}
	conv, err := s.ActiveConversation(ctx, 2)
	if err != nil {
		t.Fatalf("active conversation: %v", err)
	}

	// Appends land within the same second, so ordering must come from
	// insertion order, not the timestamp.
	turns := []struct{ role, content string }{
		{"user", "first"},
		{"assistant", "second"},
		{"user", "third"},
		{"assistant", "fourth"},
	}
	for _, turn := range turns {
		if err := s.AppendMessage(ctx, conv.ID, turn.role, turn.content); err != nil {
			t.Fatalf("append %q: %v", turn.content, err)
		}
	}

	got, err := s.History(ctx, conv.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(got) != len(turns) {
		t.Fatalf("history length = %d, want %d", len(got), len(turns))
	}
	for i, turn := range turns {
		if got[i].Role != turn.role || got[i].Content != turn.content {
			t.Errorf("message %d = %+v, want {%s %s}", i, got[i], turn.role, turn.content)
		}
	}
}

func TestNewConversationSwitchesActive(t *testing.T) {
	t.Parallel()
	s := newTestService(t)
	ctx := context.Background()

	if err := s.UpsertUser(ctx, 3, "carol"); err != nil {
		t.Fatalf("upsert user: %v", err)
	}
	first, err := s.ActiveConversation(ctx, 3)
	if err != nil {
		t.Fatalf("active conversation: %v", err)
	}
	if err := s.AppendMessage(ctx, first.ID, "user", "old thread"); err != nil {
		t.Fatalf("append: %v", err)
	}

	second, err := s.NewConversation(ctx, 3)
	if err != nil {
		t.Fatalf("new conversation: %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("new conversation reused the old ID")
	}

	active, err := s.ActiveConversation(ctx, 3)
	if err != nil {
		t.Fatalf("active conversation: %v", err)
	}
	if active.ID != second.ID {
		t.Errorf("active = %q, want %q", active.ID, second.ID)
	}

	hist, err := s.History(ctx, second.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 0 {
		t.Errorf("new conversation history = %d messages, want 0", len(hist))
	}

	// The old thread is retained, not deleted.
	old, err := s.History(ctx, first.ID)
	if err != nil {
		t.Fatalf("old history: %v", err)
	}
	if len(old) != 1 {
		t.Errorf("old conversation history = %d messages, want 1", len(old))
	}
}

func TestSetDefaultModelStartsFreshConversation(t *testing.T) {
	t.Parallel()
	s := newTestService(t)
	ctx := context.Background()

	if err := s.UpsertUser(ctx, 4, "dave"); err != nil {
		t.Fatalf("upsert user: %v", err)
	}
	first, err := s.ActiveConversation(ctx, 4)
	if err != nil {
		t.Fatalf("active conversation: %v", err)
	}

	conv, err := s.SetDefaultModel(ctx, 4, "qwen2-vl")
	if err != nil {
		t.Fatalf("set default model: %v", err)
	}
	if conv.Model != "qwen2-vl" {
		t.Errorf("model = %q, want qwen2-vl", conv.Model)
	}
	if conv.ID == first.ID {
		t.Error("model change kept the old conversation active")
	}

	// The previous conversation keeps the model it was created with.
	if first.Model != "llava" {
		t.Errorf("first conversation model = %q, want llava", first.Model)
	}
}

func TestHistoryEmptyConversation(t *testing.T) {
	t.Parallel()
	s := newTestService(t)
	ctx := context.Background()

	if err := s.UpsertUser(ctx, 5, "erin"); err != nil {
		t.Fatalf("upsert user: %v", err)
	}
	conv, err := s.ActiveConversation(ctx, 5)
	if err != nil {
		t.Fatalf("active conversation: %v", err)
	}
	got, err := s.History(ctx, conv.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("history length = %d, want 0", len(got))
	}
}
