// Package prune keeps conversation history inside the context window of the
// completion backend.
package prune

import "github.com/lmgram/lmgram/internal/chat"

// DefaultMaxChars bounds the total content length sent to the backend.
// Character count is a cheap stand-in for tokens; the backend still enforces
// its own context limit.
const DefaultMaxChars = 12000

// Messages returns the longest suffix of msgs whose summed content length
// fits maxChars, in original chronological order. The message that would
// overflow the budget is excluded entirely, so a single oversized newest
// message yields an empty result. maxChars <= 0 selects DefaultMaxChars.
func Messages(msgs []chat.Message, maxChars int) []chat.Message {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	start := len(msgs)
	total := 0
	for start > 0 {
		c := len(msgs[start-1].Content)
		if total+c > maxChars {
			break
		}
		total += c
		start--
	}
	return msgs[start:]
}
