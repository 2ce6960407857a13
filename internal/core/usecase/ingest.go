package usecase

import (
	"context"
	"fmt"

	"github.com/mkorchagin/dishchat/internal/core/domain"
	"github.com/mkorchagin/dishchat/internal/core/ports"
)

// IngestItemUseCase embeds one corpus item and indexes it into the
// document store. Invoked by the worker for each queued item.
type IngestItemUseCase struct {
	embedder ports.Embedder
	store    ports.DocumentStore
}

func NewIngestItemUseCase(embedder ports.Embedder, store ports.DocumentStore) *IngestItemUseCase {
	return &IngestItemUseCase{embedder: embedder, store: store}
}

func (uc *IngestItemUseCase) IngestItem(ctx context.Context, item domain.FoodItem) error {
	content, err := item.PayloadJSON()
	if err != nil {
		return fmt.Errorf("render item payload: %w", err)
	}

	vector, err := uc.embedder.EmbedQuery(ctx, content)
	if err != nil {
		return fmt.Errorf("embed item: %w", err)
	}

	if err := uc.store.IndexItem(ctx, item, vector); err != nil {
		return fmt.Errorf("index item: %w", err)
	}
	return nil
}
