// Package telegram is the messaging gateway: one long-polling bot feeding
// the per-user request queues, plus the reply surface the queue worker edits
// through.
package telegram

import (
	"context"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lmgram/lmgram/internal/queue"
	"github.com/lmgram/lmgram/internal/store"
)

const (
	pollTimeout         = 30
	animationRejectText = "Animated media and stickers are beyond me. Send a photo or plain text instead."
)

// Bot long-polls Telegram for updates and routes each message: commands are
// answered inline, chat and photo messages go through the dispatcher to the
// per-user queue.
type Bot struct {
	api        *tgbotapi.BotAPI
	sender     *Sender
	dispatcher *queue.Dispatcher
	store      *store.Service
	logger     *slog.Logger

	cancel  context.CancelFunc
	updates tgbotapi.UpdatesChannel
	done    chan struct{}
}

func NewBot(logger *slog.Logger, api *tgbotapi.BotAPI, sender *Sender, dispatcher *queue.Dispatcher, st *store.Service) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		api:        api,
		sender:     sender,
		dispatcher: dispatcher,
		store:      st,
		logger:     logger.With(slog.String("component", "telegram")),
	}
}

// Start begins long-polling. The polling loop and the workers it spawns run
// on a context detached from ctx so they survive the startup call returning.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = pollTimeout
	b.updates = b.api.GetUpdatesChan(updateConfig)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	b.cancel = cancel
	b.done = make(chan struct{})

	b.logger.Info("start", slog.String("bot", b.api.Self.UserName))
	go b.loop(runCtx)
	return nil
}

// Stop halts polling and waits for the loop to exit. Queued requests are
// in-memory only and are dropped with the process.
func (b *Bot) Stop(ctx context.Context) error {
	b.logger.Info("stop")
	b.api.StopReceivingUpdates()
	b.cancel()
	// Drain remaining updates so the library's polling goroutine can finish
	// writing and exit. Without this, the in-flight long-poll HTTP request
	// keeps the old getUpdates session alive, causing "Conflict: terminated
	// by other getUpdates request" when a new connection starts with the
	// same bot token.
	for range b.updates {
	}
	select {
	case <-b.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (b *Bot) loop(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-b.updates:
			if !ok {
				b.logger.Info("updates channel closed")
				return
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.From.IsBot {
		return
	}
	log := b.logger.With(
		slog.Int64("user_id", msg.From.ID),
		slog.Int64("chat_id", msg.Chat.ID),
	)

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	if msg.Animation != nil || msg.Sticker != nil {
		log.Info("rejecting animated media")
		if _, err := b.sender.SendReply(ctx, msg.Chat.ID, msg.MessageID, animationRejectText); err != nil {
			log.Warn("rejection notice failed", slog.Any("error", err))
		}
		return
	}

	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	log.Info("inbound message", slog.Int("length", len(text)))
	b.dispatcher.Dispatch(ctx, queue.Request{
		UserID:    msg.From.ID,
		Username:  msg.From.UserName,
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
		Text:      text,
	})
}

func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	log := b.logger.With(slog.Int64("user_id", msg.From.ID))

	photo := pickLargestPhoto(msg.Photo)
	dataURL, err := b.downloadPhotoDataURL(ctx, photo.FileID)
	if err != nil {
		log.Error("photo download failed", slog.Any("error", err))
		if _, err := b.sender.SendReply(ctx, msg.Chat.ID, msg.MessageID, "I could not fetch that photo, please try again."); err != nil {
			log.Warn("photo failure notice failed", slog.Any("error", err))
		}
		return
	}

	prompt := strings.TrimSpace(msg.Caption)
	if prompt == "" {
		prompt = "What is in this image?"
	}
	log.Info("inbound photo", slog.Int("file_size", photo.FileSize))
	b.dispatcher.Dispatch(ctx, queue.Request{
		UserID:    msg.From.ID,
		Username:  msg.From.UserName,
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
		Text:      prompt,
		ImageURL:  dataURL,
	})
}

func pickLargestPhoto(items []tgbotapi.PhotoSize) tgbotapi.PhotoSize {
	if len(items) == 0 {
		return tgbotapi.PhotoSize{}
	}
	best := items[0]
	for _, item := range items[1:] {
		if item.FileSize > best.FileSize {
			best = item
			continue
		}
		if item.Width*item.Height > best.Width*best.Height {
			best = item
		}
	}
	return best
}
