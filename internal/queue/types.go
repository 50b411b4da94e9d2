package queue

import (
	"context"

	"github.com/lmgram/lmgram/internal/chat"
	"github.com/lmgram/lmgram/internal/store"
)

// Request is one inbound user message waiting for its turn at the backend.
// ImageURL, when set, carries a data URL and marks the request as a vision
// request answered outside conversation history.
type Request struct {
	UserID    int64
	Username  string
	ChatID    int64
	MessageID int
	Text      string
	ImageURL  string
}

// ConversationStore is the persistence surface the worker needs. Failures
// are request-fatal: the current item is abandoned, the drain continues.
type ConversationStore interface {
	UpsertUser(ctx context.Context, userID int64, username string) error
	ActiveConversation(ctx context.Context, userID int64) (store.Conversation, error)
	AppendMessage(ctx context.Context, conversationID, role, content string) error
	History(ctx context.Context, conversationID string) ([]chat.Message, error)
}

// Completer produces assistant replies. Errors are expected to be
// *chat.BackendError and are recoverable: reported to the user, queue moves
// on.
type Completer interface {
	Complete(ctx context.Context, model string, msgs []chat.Message) (string, error)
	CompleteVision(ctx context.Context, model, prompt, imageURL string) (string, error)
}

// MessageRef identifies a sent message so it can be edited later.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Replier is the outbound messaging surface. Send and edit failures are
// advisory: logged by the caller, never fatal to the drain.
type Replier interface {
	SendReply(ctx context.Context, chatID int64, replyTo int, text string) (MessageRef, error)
	EditReply(ctx context.Context, ref MessageRef, text string) error
	SendTyping(ctx context.Context, chatID int64)
}
