package ports

import (
	"context"

	"github.com/mkorchagin/dishchat/internal/core/domain"
)

// ChatService is the inbound contract for retrieval-augmented chat turns.
// RunRAGStream returns a channel of stream events: one context-bearing
// fragment followed by delta-only fragments, closed on completion; an event
// with Err set is terminal.
type ChatService interface {
	RunVector(ctx context.Context, messages []domain.Message, opts domain.ChatOptions) (*domain.RetrievalResponse, error)
	RunKeyword(ctx context.Context, messages []domain.Message, opts domain.ChatOptions) (*domain.RetrievalResponse, error)
	RunRAG(ctx context.Context, messages []domain.Message, opts domain.ChatOptions) (*domain.RetrievalResponse, error)
	RunRAGStream(ctx context.Context, messages []domain.Message, opts domain.ChatOptions) (<-chan domain.StreamEvent, error)
}

// ItemIngestor is the inbound contract for asynchronous corpus ingestion.
type ItemIngestor interface {
	IngestItem(ctx context.Context, item domain.FoodItem) error
}
