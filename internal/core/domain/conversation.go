package domain

import "time"

// Conversation is the persisted per-session message log. It is created on
// the first turn of a session and only ever appended to afterwards; the
// session id is the sole key.
type Conversation struct {
	ID        string    `json:"id"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
