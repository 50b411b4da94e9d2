package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lmgram/lmgram/internal/prune"
)

const (
	provisionalText = "..."
	storeErrorText  = "Something went wrong on my side, please try again."
)

// Worker drains one user's queue at a time. A Worker value is shared across
// users; all per-drain state lives on the stack.
type Worker struct {
	registry *Registry
	store    ConversationStore
	backend  Completer
	replier  Replier
	maxChars int
	logger   *slog.Logger
}

func NewWorker(logger *slog.Logger, registry *Registry, cs ConversationStore, backend Completer, replier Replier, maxChars int) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	if maxChars <= 0 {
		maxChars = prune.DefaultMaxChars
	}
	return &Worker{
		registry: registry,
		store:    cs,
		backend:  backend,
		replier:  replier,
		maxChars: maxChars,
		logger:   logger.With(slog.String("component", "worker")),
	}
}

// Drain processes the user's queue until empty. The gate releases through
// Next on the empty check; after that release a new enqueue may claim the
// gate and start the next worker, so a finished drain must not touch the
// registry again. The deferred Release fires only when the loop never
// reached the empty check (a panic in process), where this worker still
// owns the gate and clearing it lets the user recover on their next
// message.
func (w *Worker) Drain(ctx context.Context, userID int64) {
	drained := false
	defer func() {
		if !drained {
			w.registry.Release(userID)
		}
	}()
	for {
		req, ok := w.registry.Next(userID)
		if !ok {
			drained = true
			return
		}
		w.process(ctx, req)
	}
}

func (w *Worker) process(ctx context.Context, req Request) {
	log := w.logger.With(slog.Int64("user_id", req.UserID))

	if err := w.store.UpsertUser(ctx, req.UserID, req.Username); err != nil {
		log.Error("upsert user failed", slog.Any("error", err))
		w.notify(ctx, req, storeErrorText)
		return
	}
	conv, err := w.store.ActiveConversation(ctx, req.UserID)
	if err != nil {
		log.Error("resolving conversation failed", slog.Any("error", err))
		w.notify(ctx, req, storeErrorText)
		return
	}
	if err := w.store.AppendMessage(ctx, conv.ID, "user", req.Text); err != nil {
		log.Error("persisting user message failed",
			slog.String("conversation_id", conv.ID), slog.Any("error", err))
		w.notify(ctx, req, storeErrorText)
		return
	}

	w.replier.SendTyping(ctx, req.ChatID)
	ack, ackErr := w.replier.SendReply(ctx, req.ChatID, req.MessageID, provisionalText)
	if ackErr != nil {
		// Advisory: without an ack there is nothing to edit, the final
		// reply goes out as a fresh message instead.
		log.Warn("provisional ack failed", slog.Any("error", ackErr))
	}

	reply, err := w.complete(ctx, conv.ID, conv.Model, req)
	if err != nil {
		log.Error("backend request failed",
			slog.String("conversation_id", conv.ID),
			slog.String("model", conv.Model),
			slog.Any("error", err))
		w.deliver(ctx, req, ack, ackErr == nil, fmt.Sprintf("Backend error:\n%v", err))
		return
	}

	if err := w.store.AppendMessage(ctx, conv.ID, "assistant", reply); err != nil {
		log.Error("persisting assistant message failed",
			slog.String("conversation_id", conv.ID), slog.Any("error", err))
		w.deliver(ctx, req, ack, ackErr == nil, storeErrorText)
		return
	}

	w.deliver(ctx, req, ack, ackErr == nil, reply)
}

func (w *Worker) complete(ctx context.Context, conversationID, model string, req Request) (string, error) {
	if req.ImageURL != "" {
		return w.backend.CompleteVision(ctx, model, req.Text, req.ImageURL)
	}
	history, err := w.store.History(ctx, conversationID)
	if err != nil {
		return "", err
	}
	return w.backend.Complete(ctx, model, prune.Messages(history, w.maxChars))
}

// deliver edits the provisional ack into the final text, falling back to a
// fresh reply when there is no ack or the edit fails. Gateway failures stay
// advisory.
func (w *Worker) deliver(ctx context.Context, req Request, ack MessageRef, haveAck bool, text string) {
	if haveAck {
		err := w.replier.EditReply(ctx, ack, text)
		if err == nil {
			return
		}
		w.logger.Warn("editing reply failed",
			slog.Int64("user_id", req.UserID), slog.Any("error", err))
	}
	w.notify(ctx, req, text)
}

func (w *Worker) notify(ctx context.Context, req Request, text string) {
	if _, err := w.replier.SendReply(ctx, req.ChatID, req.MessageID, text); err != nil {
		w.logger.Warn("sending reply failed",
			slog.Int64("user_id", req.UserID), slog.Any("error", err))
	}
}
