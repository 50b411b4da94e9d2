package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lmgram/lmgram/internal/queue"
)

// Sender implements the outbound half of the gateway over one bot API
// connection. Replies go out as Markdown first and fall back to plain text
// when Telegram rejects the formatting.
type Sender struct {
	api    *tgbotapi.BotAPI
	logger *slog.Logger
}

func NewSender(logger *slog.Logger, api *tgbotapi.BotAPI) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{
		api:    api,
		logger: logger.With(slog.String("component", "telegram")),
	}
}

// SendReply sends text as a reply to the given message and returns a ref for
// later editing.
func (s *Sender) SendReply(ctx context.Context, chatID int64, replyTo int, text string) (queue.MessageRef, error) {
	text = truncateText(sanitizeText(text))

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if replyTo > 0 {
		msg.ReplyToMessageID = replyTo
	}
	sent, err := s.api.Send(msg)
	if err != nil {
		// Model output is not always valid Markdown; retry unformatted.
		msg.ParseMode = ""
		sent, err = s.api.Send(msg)
	}
	if err != nil {
		return queue.MessageRef{}, &SendError{Op: "send", Err: err}
	}
	ref := queue.MessageRef{ChatID: chatID, MessageID: sent.MessageID}
	if sent.Chat != nil {
		ref.ChatID = sent.Chat.ID
	}
	return ref, nil
}

// EditReply replaces the text of a previously sent message. "message is not
// modified" is not an error: the content was already in place.
func (s *Sender) EditReply(ctx context.Context, ref queue.MessageRef, text string) error {
	text = truncateText(sanitizeText(text))

	edit := tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	_, err := s.api.Send(edit)
	if err != nil && !isMessageNotModified(err) {
		edit.ParseMode = ""
		_, err = s.api.Send(edit)
	}
	if err != nil && !isMessageNotModified(err) {
		return &SendError{Op: "edit", Err: err}
	}
	return nil
}

// SendTyping shows the typing indicator while a request is at the backend.
// Failures are ignored; the indicator is cosmetic.
func (s *Sender) SendTyping(ctx context.Context, chatID int64) {
	action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	if _, err := s.api.Request(action); err != nil {
		s.logger.Debug("send typing action failed", slog.Any("error", err))
	}
}

func isMessageNotModified(err error) bool {
	if err == nil {
		return false
	}
	var apiErr tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 400 && strings.Contains(apiErr.Message, "message is not modified")
	}
	return false
}
