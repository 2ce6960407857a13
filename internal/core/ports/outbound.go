package ports

import (
	"context"

	"github.com/mkorchagin/dishchat/internal/core/domain"
)

// DocumentStore performs ranked retrieval over the indexed corpus and
// accepts new items for indexing. Result order is store-side ranking; the
// core never re-ranks.
type DocumentStore interface {
	SimilaritySearch(ctx context.Context, queryVector []float32, limit int, scoreThreshold float64) ([]domain.Document, error)
	FullTextSearch(ctx context.Context, query string, limit int) ([]domain.Document, error)
	IndexItem(ctx context.Context, item domain.FoodItem, vector []float32) error
}

// Embedder builds vectors for query and item text.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ChatModel generates text for a prompt, either materialized or as an
// incremental fragment stream. The returned channel is closed after the
// final chunk; a chunk with Err set is terminal.
type ChatModel interface {
	Complete(ctx context.Context, prompt string, temperature float64) (string, error)
	StreamComplete(ctx context.Context, prompt string, temperature float64) (<-chan domain.GenerationChunk, error)
}

// ConversationStore persists per-session message logs.
type ConversationStore interface {
	Insert(ctx context.Context, conv domain.Conversation) error
	PushMessages(ctx context.Context, id string, messages []domain.Message) error
}

// ItemQueue publishes/consumes corpus ingestion events.
type ItemQueue interface {
	PublishItem(ctx context.Context, item domain.FoodItem) error
	SubscribeItems(ctx context.Context, handler func(context.Context, domain.FoodItem) error) error
}
