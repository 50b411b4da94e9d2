package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const welcomeText = "Hi! Send me a message or a photo and I will answer with the local model.\n\n" +
	"/new starts a fresh conversation\n" +
	"/model <name> switches the model\n" +
	"/status shows your queue"

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	log := b.logger.With(
		slog.Int64("user_id", msg.From.ID),
		slog.String("command", msg.Command()),
	)

	// Commands may arrive before any chat message, so the user row has to
	// exist before the conversation operations below.
	if err := b.store.UpsertUser(ctx, msg.From.ID, msg.From.UserName); err != nil {
		log.Error("upsert user failed", slog.Any("error", err))
	}

	var reply string
	switch msg.Command() {
	case "start":
		reply = welcomeText

	case "new":
		conv, err := b.store.NewConversation(ctx, msg.From.ID)
		if err != nil {
			log.Error("new conversation failed", slog.Any("error", err))
			reply = "Could not start a new conversation, please try again."
			break
		}
		reply = fmt.Sprintf("Fresh conversation started on %s.", conv.Model)

	case "model":
		name := strings.TrimSpace(msg.CommandArguments())
		if name == "" {
			conv, err := b.store.ActiveConversation(ctx, msg.From.ID)
			if err != nil {
				log.Error("resolving conversation failed", slog.Any("error", err))
				reply = "Could not look up your model, please try again."
				break
			}
			reply = fmt.Sprintf("Current model: %s. Use /model <name> to switch.", conv.Model)
			break
		}
		conv, err := b.store.SetDefaultModel(ctx, msg.From.ID, name)
		if err != nil {
			log.Error("set model failed", slog.Any("error", err))
			reply = "Could not switch the model, please try again."
			break
		}
		reply = fmt.Sprintf("Model set to %s, fresh conversation started.", conv.Model)

	case "status":
		processing, depth := b.dispatcher.Status(msg.From.ID)
		reply = formatStatus(processing, depth)

	default:
		reply = "Unknown command. Try /start, /new, /model or /status."
	}

	if _, err := b.sender.SendReply(ctx, msg.Chat.ID, msg.MessageID, reply); err != nil {
		log.Warn("command reply failed", slog.Any("error", err))
	}
}

func formatStatus(processing bool, depth int) string {
	if !processing && depth == 0 {
		return "Nothing in flight. Send me something!"
	}
	status := "Answering your message now."
	if !processing {
		status = "Not processing right now."
	}
	switch depth {
	case 0:
		return status + " Nothing else is queued."
	case 1:
		return status + " 1 message is waiting in line."
	default:
		return fmt.Sprintf("%s %d messages are waiting in line.", status, depth)
	}
}
