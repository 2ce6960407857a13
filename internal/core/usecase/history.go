package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/mkorchagin/dishchat/internal/core/domain"
)

// appendHistory persists one chat turn best-effort: any failure is reported
// through the boolean result and logged, never raised. Chat availability is
// prioritized over history durability.
func (uc *ChatUseCase) appendHistory(ctx context.Context, oldMessages []domain.Message, newMessage domain.Message, sessionState, newSessionState string) bool {
	if len(oldMessages) == 0 || newMessage.Text() == "" || newSessionState == "" {
		return false
	}

	// First turn: no prior session id, create the record with the full
	// combined message list.
	if sessionState == "" {
		now := time.Now().UTC()
		combined := make([]domain.Message, 0, len(oldMessages)+1)
		combined = append(combined, oldMessages...)
		combined = append(combined, newMessage)

		err := uc.conversations.Insert(ctx, domain.Conversation{
			ID:        newSessionState,
			Messages:  combined,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			slog.Warn("conversation_insert_failed", "session_state", newSessionState, "error", err)
			return false
		}
		return true
	}

	// Continuing turn: push the user's latest turn and the assistant reply
	// onto the existing record.
	err := uc.conversations.PushMessages(ctx, newSessionState, []domain.Message{
		oldMessages[len(oldMessages)-1],
		newMessage,
	})
	if err != nil {
		slog.Warn("conversation_append_failed", "session_state", newSessionState, "error", err)
		return false
	}
	return true
}
