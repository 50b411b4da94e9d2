package queue

import (
	"context"
	"fmt"
	"log/slog"
)

// Dispatcher is the entry point for inbound messages: it enqueues the
// request and either starts a worker for the user or tells them they are in
// line.
type Dispatcher struct {
	registry *Registry
	worker   *Worker
	replier  Replier
	logger   *slog.Logger
}

func NewDispatcher(logger *slog.Logger, registry *Registry, worker *Worker, replier Replier) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		registry: registry,
		worker:   worker,
		replier:  replier,
		logger:   logger.With(slog.String("component", "dispatcher")),
	}
}

// Dispatch enqueues req. The caller that claims the gate spawns the drain
// goroutine; everyone else gets a courtesy notice. ctx should be the
// service's run context so workers survive the inbound handler returning.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) {
	position, owner := d.registry.Enqueue(req.UserID, req)
	d.logger.Debug("request enqueued",
		slog.Int64("user_id", req.UserID),
		slog.Int("position", position),
		slog.Bool("owner", owner))

	if owner {
		go d.worker.Drain(ctx, req.UserID)
		return
	}

	// Advisory only. A failed notice never touches the queued request.
	notice := fmt.Sprintf("Hold on, I am still answering your earlier message. This one is number %d in line.", position)
	if _, err := d.replier.SendReply(ctx, req.ChatID, req.MessageID, notice); err != nil {
		d.logger.Warn("queue notice failed",
			slog.Int64("user_id", req.UserID), slog.Any("error", err))
	}
}

// Status reports whether a worker owns the user's queue and how many
// requests are waiting behind the in-flight one.
func (d *Dispatcher) Status(userID int64) (processing bool, depth int) {
	return d.registry.IsProcessing(userID), d.registry.Depth(userID)
}
