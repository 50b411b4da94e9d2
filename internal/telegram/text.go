package telegram

import (
	"strings"
	"unicode/utf8"
)

const maxMessageLength = 4096

// sanitizeText ensures text is valid UTF-8 for the Telegram API, stripping
// invalid byte sequences.
func sanitizeText(text string) string {
	if utf8.ValidString(text) {
		return text
	}
	return strings.ToValidUTF8(text, "")
}

// truncateText truncates text to maxMessageLength on a valid UTF-8 rune
// boundary, appending "..." when truncation occurs.
func truncateText(text string) string {
	if len(text) <= maxMessageLength {
		return text
	}
	const suffix = "..."
	limit := maxMessageLength - len(suffix)
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit] + suffix
}
