package prune

import (
	"strings"
	"testing"

	"github.com/lmgram/lmgram/internal/chat"
)

func msgsOfLengths(lengths ...int) []chat.Message {
	out := make([]chat.Message, 0, len(lengths))
	for i, n := range lengths {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		out = append(out, chat.Message{Role: role, Content: strings.Repeat("x", n)})
	}
	return out
}

func TestMessagesKeepsNewestSuffix(t *testing.T) {
	t.Parallel()

	in := msgsOfLengths(3000, 4000, 5000, 6000)
	got := Messages(in, 12000)
	if len(got) != 3 {
		t.Fatalf("kept %d messages, want 3", len(got))
	}
	for i, want := range []int{4000, 5000, 6000} {
		if len(got[i].Content) != want {
			t.Errorf("message %d length = %d, want %d", i, len(got[i].Content), want)
		}
	}
}

func TestMessagesAllFit(t *testing.T) {
	t.Parallel()

	in := msgsOfLengths(10, 20, 30)
	got := Messages(in, 12000)
	if len(got) != len(in) {
		t.Fatalf("kept %d messages, want %d", len(got), len(in))
	}
	for i := range in {
		if got[i] != in[i] {
			t.Errorf("message %d changed: %+v", i, got[i])
		}
	}
}

func TestMessagesEmptyInput(t *testing.T) {
	t.Parallel()

	if got := Messages(nil, 12000); len(got) != 0 {
		t.Fatalf("kept %d messages, want 0", len(got))
	}
}

func TestMessagesNewestAloneOverflows(t *testing.T) {
	t.Parallel()

	in := msgsOfLengths(100, 13000)
	if got := Messages(in, 12000); len(got) != 0 {
		t.Fatalf("kept %d messages, want 0 when newest alone exceeds budget", len(got))
	}
}

func TestMessagesExactBudgetKept(t *testing.T) {
	t.Parallel()

	in := msgsOfLengths(6000, 6000)
	got := Messages(in, 12000)
	if len(got) != 2 {
		t.Fatalf("kept %d messages, want 2 at exact budget", len(got))
	}
}

func TestMessagesZeroBudgetUsesDefault(t *testing.T) {
	t.Parallel()

	in := msgsOfLengths(3000, 4000, 5000, 6000)
	got := Messages(in, 0)
	if len(got) != 3 {
		t.Fatalf("kept %d messages, want 3 under DefaultMaxChars", len(got))
	}
}

func TestMessagesPreservesOrder(t *testing.T) {
	t.Parallel()

	in := []chat.Message{
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "second"},
		{Role: "user", Content: "third"},
	}
	got := Messages(in, 12000)
	if got[0].Content != "first" || got[2].Content != "third" {
		t.Fatalf("order changed: %+v", got)
	}
}
