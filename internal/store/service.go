// Package store persists users, their settings, and conversation history in
// SQLite. Store failures are request-fatal for the queue worker: the current
// item is abandoned but the queue keeps draining.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lmgram/lmgram/internal/chat"
)

// Service wraps the database handle with the conversation operations the
// worker and the command handlers need.
type Service struct {
	db           *sql.DB
	defaultModel string
	logger       *slog.Logger
}

func NewService(logger *slog.Logger, conn *sql.DB, defaultModel string) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultModel == "" {
		defaultModel = chat.DefaultModel
	}
	return &Service{
		db:           conn,
		defaultModel: defaultModel,
		logger:       logger.With(slog.String("service", "store")),
	}
}

// UpsertUser records the user and refreshes last_seen.
func (s *Service) UpsertUser(ctx context.Context, userID int64, username string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, username, last_seen)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET username = excluded.username, last_seen = excluded.last_seen
	`, userID, username, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("upserting user: %w", err)
	}
	return nil
}

// ActiveConversation returns the user's current conversation, creating one
// (and the settings row) on first contact or after the active pointer was
// cleared.
func (s *Service) ActiveConversation(ctx context.Context, userID int64) (Conversation, error) {
	var defaultModel string
	var activeID sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT default_model, active_conversation_id FROM user_settings WHERE user_id = ?
	`, userID).Scan(&defaultModel, &activeID)
	switch {
	case err == sql.ErrNoRows:
		conv, createErr := s.createConversation(ctx, userID, s.defaultModel)
		if createErr != nil {
			return Conversation{}, createErr
		}
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO user_settings (user_id, default_model, active_conversation_id)
			VALUES (?, ?, ?)
		`, userID, s.defaultModel, conv.ID)
		if err != nil {
			return Conversation{}, fmt.Errorf("creating user settings: %w", err)
		}
		return conv, nil
	case err != nil:
		return Conversation{}, fmt.Errorf("reading user settings: %w", err)
	}

	if activeID.Valid {
		conv, err := s.conversationByID(ctx, activeID.String)
		if err == nil {
			return conv, nil
		}
		if err != ErrConversationNotFound {
			return Conversation{}, err
		}
		// Dangling pointer, fall through and start fresh.
		s.logger.Warn("active conversation missing, creating a new one",
			slog.Int64("user_id", userID), slog.String("conversation_id", activeID.String))
	}

	conv, err := s.createConversation(ctx, userID, defaultModel)
	if err != nil {
		return Conversation{}, err
	}
	if err := s.setActiveConversation(ctx, userID, conv.ID); err != nil {
		return Conversation{}, err
	}
	return conv, nil
}

// NewConversation starts a fresh thread with the user's default model and
// makes it active. Old messages stay in the database.
func (s *Service) NewConversation(ctx context.Context, userID int64) (Conversation, error) {
	if _, err := s.ActiveConversation(ctx, userID); err != nil {
		return Conversation{}, err
	}
	var defaultModel string
	err := s.db.QueryRowContext(ctx, `
		SELECT default_model FROM user_settings WHERE user_id = ?
	`, userID).Scan(&defaultModel)
	if err != nil {
		return Conversation{}, fmt.Errorf("reading default model: %w", err)
	}
	conv, err := s.createConversation(ctx, userID, defaultModel)
	if err != nil {
		return Conversation{}, err
	}
	if err := s.setActiveConversation(ctx, userID, conv.ID); err != nil {
		return Conversation{}, err
	}
	return conv, nil
}

// SetDefaultModel updates the model used for conversations created from now
// on and switches the user to a fresh conversation on it.
func (s *Service) SetDefaultModel(ctx context.Context, userID int64, model string) (Conversation, error) {
	if _, err := s.ActiveConversation(ctx, userID); err != nil {
		return Conversation{}, err
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE user_settings SET default_model = ? WHERE user_id = ?
	`, model, userID)
	if err != nil {
		return Conversation{}, fmt.Errorf("updating default model: %w", err)
	}
	return s.NewConversation(ctx, userID)
}

// AppendMessage persists one turn at the tail of the conversation.
func (s *Service) AppendMessage(ctx context.Context, conversationID, role, content string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (conversation_id, role, content, ts)
		VALUES (?, ?, ?, ?)
	`, conversationID, role, content, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("appending message: %w", err)
	}
	return nil
}

// History returns all messages of the conversation in insertion order.
func (s *Service) History(ctx context.Context, conversationID string) ([]chat.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content FROM messages
		WHERE conversation_id = ?
		ORDER BY id ASC
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		var m chat.Message
		if err := rows.Scan(&m.Role, &m.Content); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading history rows: %w", err)
	}
	return msgs, nil
}

func (s *Service) createConversation(ctx context.Context, userID int64, model string) (Conversation, error) {
	conv := Conversation{
		ID:     fmt.Sprintf("conv_%s", uuid.New().String()[:8]),
		UserID: userID,
		Model:  model,
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, user_id, model, created_at)
		VALUES (?, ?, ?, ?)
	`, conv.ID, conv.UserID, conv.Model, time.Now().Unix())
	if err != nil {
		return Conversation{}, fmt.Errorf("creating conversation: %w", err)
	}
	return conv, nil
}

func (s *Service) conversationByID(ctx context.Context, id string) (Conversation, error) {
	var conv Conversation
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, model FROM conversations WHERE id = ?
	`, id).Scan(&conv.ID, &conv.UserID, &conv.Model)
	if err == sql.ErrNoRows {
		return Conversation{}, ErrConversationNotFound
	}
	if err != nil {
		return Conversation{}, fmt.Errorf("getting conversation: %w", err)
	}
	return conv, nil
}

func (s *Service) setActiveConversation(ctx context.Context, userID int64, conversationID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE user_settings SET active_conversation_id = ? WHERE user_id = ?
	`, conversationID, userID)
	if err != nil {
		return fmt.Errorf("setting active conversation: %w", err)
	}
	return nil
}
