package telegram

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeTextValidPassthrough(t *testing.T) {
	t.Parallel()
	in := "hello, мир 🌍"
	if got := sanitizeText(in); got != in {
		t.Fatalf("sanitizeText changed valid input: %q", got)
	}
}

func TestSanitizeTextStripsInvalidBytes(t *testing.T) {
	t.Parallel()
	in := "ok\xff\xfebad"
	got := sanitizeText(in)
	if !utf8.ValidString(got) {
		t.Fatalf("result is not valid UTF-8: %q", got)
	}
	if !strings.Contains(got, "ok") || !strings.Contains(got, "bad") {
		t.Errorf("valid content lost: %q", got)
	}
}

func TestTruncateTextShortPassthrough(t *testing.T) {
	t.Parallel()
	in := strings.Repeat("a", maxMessageLength)
	if got := truncateText(in); got != in {
		t.Fatalf("truncateText changed text at the limit")
	}
}

func TestTruncateTextLongGetsEllipsis(t *testing.T) {
	t.Parallel()
	got := truncateText(strings.Repeat("a", maxMessageLength+100))
	if len(got) > maxMessageLength {
		t.Fatalf("length = %d, over the limit", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("missing ellipsis: %q", got[len(got)-10:])
	}
}

func TestTruncateTextRuneBoundary(t *testing.T) {
	t.Parallel()
	got := truncateText(strings.Repeat("🌍", maxMessageLength/4+100))
	if !utf8.ValidString(got) {
		t.Fatalf("truncation split a rune: %q", got[len(got)-10:])
	}
	if len(got) > maxMessageLength {
		t.Fatalf("length = %d, over the limit", len(got))
	}
}

func TestFormatStatus(t *testing.T) {
	t.Parallel()
	cases := []struct {
		processing bool
		depth      int
		want       string
	}{
		{false, 0, "Nothing in flight. Send me something!"},
		{true, 0, "Answering your message now. Nothing else is queued."},
		{true, 1, "Answering your message now. 1 message is waiting in line."},
		{true, 3, "Answering your message now. 3 messages are waiting in line."},
	}
	for _, tc := range cases {
		if got := formatStatus(tc.processing, tc.depth); got != tc.want {
			t.Errorf("formatStatus(%v, %d) = %q, want %q", tc.processing, tc.depth, got, tc.want)
		}
	}
}
