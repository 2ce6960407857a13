package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mkorchagin/dishchat/internal/core/domain"
)

// ConversationRepository persists per-session message logs. Messages live
// in one jsonb column per conversation; appends run as a single atomic
// jsonb concatenation so concurrent turns against the same session never
// interleave partial writes.
type ConversationRepository struct {
	db *sql.DB
}

func NewConversationRepository(db *sql.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS conversations (
	id TEXT PRIMARY KEY,
	messages JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)
`)
	if err != nil {
		return fmt.Errorf("ensure conversations schema: %w", err)
	}
	return nil
}

func (r *ConversationRepository) Insert(ctx context.Context, conv domain.Conversation) error {
	messages, err := json.Marshal(conv.Messages)
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}

	createdAt := conv.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := conv.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO conversations (id, messages, created_at, updated_at)
VALUES ($1, $2, $3, $4)
`, conv.ID, messages, createdAt, updatedAt)
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

func (r *ConversationRepository) PushMessages(ctx context.Context, id string, newMessages []domain.Message) error {
	if len(newMessages) == 0 {
		return fmt.Errorf("no messages to push")
	}
	messages, err := json.Marshal(newMessages)
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
UPDATE conversations
SET messages = messages || $2::jsonb, updated_at = $3
WHERE id = $1
`, id, messages, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("push messages: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("push messages rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("conversation %s not found", id)
	}
	return nil
}
