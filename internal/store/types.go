package store

import "errors"

// Conversation is one thread of messages for a user. Model is fixed at
// creation so a /model change only affects later conversations.
type Conversation struct {
	ID     string
	UserID int64
	Model  string
}

var (
	ErrConversationNotFound = errors.New("conversation not found")
)
