package usecase

import (
	"context"
	"fmt"

	"github.com/mkorchagin/dishchat/internal/core/domain"
	"github.com/mkorchagin/dishchat/internal/core/ports"
)

// Strategy produces supporting documents plus a primary answer text for one
// chat turn. An empty message list is a caller contract violation and fails
// with domain.ErrEmptyConversation.
type Strategy interface {
	Run(ctx context.Context, messages []domain.Message, temperature float64, limit int, scoreThreshold float64) ([]domain.Document, string, error)
}

func lastMessageText(messages []domain.Message) (string, error) {
	if len(messages) == 0 {
		return "", domain.ErrEmptyConversation
	}
	return messages[len(messages)-1].Text(), nil
}

// VectorStrategy answers with the top similarity hit for the current user
// message. No generation call is made.
type VectorStrategy struct {
	embedder ports.Embedder
	store    ports.DocumentStore
}

func NewVectorStrategy(embedder ports.Embedder, store ports.DocumentStore) *VectorStrategy {
	return &VectorStrategy{embedder: embedder, store: store}
}

func (s *VectorStrategy) Run(ctx context.Context, messages []domain.Message, _ float64, limit int, scoreThreshold float64) ([]domain.Document, string, error) {
	query, err := lastMessageText(messages)
	if err != nil {
		return nil, "", err
	}

	queryVector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, "", fmt.Errorf("embed query: %w", err)
	}

	documents, err := s.store.SimilaritySearch(ctx, queryVector, limit, scoreThreshold)
	if err != nil {
		return nil, "", fmt.Errorf("similarity search: %w", err)
	}
	if len(documents) == 0 {
		return nil, "", nil
	}
	return documents, documents[0].Content, nil
}

// KeywordStrategy answers with the top full-text hit for the current user
// message. No vector math, no generation call.
type KeywordStrategy struct {
	store ports.DocumentStore
}

func NewKeywordStrategy(store ports.DocumentStore) *KeywordStrategy {
	return &KeywordStrategy{store: store}
}

func (s *KeywordStrategy) Run(ctx context.Context, messages []domain.Message, _ float64, limit int, _ float64) ([]domain.Document, string, error) {
	query, err := lastMessageText(messages)
	if err != nil {
		return nil, "", err
	}

	documents, err := s.store.FullTextSearch(ctx, query, limit)
	if err != nil {
		return nil, "", fmt.Errorf("full text search: %w", err)
	}
	if len(documents) == 0 {
		return nil, "", nil
	}
	return documents, documents[0].Content, nil
}

// HybridStrategy is the two-phase RAG variant: rephrase the conversation
// into a standalone query, retrieve by similarity, then synthesize an
// answer from the retrieved context. Synthesis still runs when retrieval
// comes back empty; the prompt handles irrelevant context by refusing.
type HybridStrategy struct {
	embedder ports.Embedder
	store    ports.DocumentStore
	model    ports.ChatModel
}

func NewHybridStrategy(embedder ports.Embedder, store ports.DocumentStore, model ports.ChatModel) *HybridStrategy {
	return &HybridStrategy{embedder: embedder, store: store, model: model}
}

func (s *HybridStrategy) Run(ctx context.Context, messages []domain.Message, temperature float64, limit int, scoreThreshold float64) ([]domain.Document, string, error) {
	documents, _, answer, err := s.run(ctx, messages, temperature, limit, scoreThreshold)
	return documents, answer, err
}

func (s *HybridStrategy) run(ctx context.Context, messages []domain.Message, temperature float64, limit int, scoreThreshold float64) ([]domain.Document, string, string, error) {
	documents, rephrased, err := s.retrieve(ctx, messages, limit, scoreThreshold)
	if err != nil {
		return nil, "", "", err
	}

	answer, err := s.model.Complete(ctx, buildAnswerPrompt(documents, rephrased), temperature)
	if err != nil {
		return nil, "", "", fmt.Errorf("synthesize answer: %w", err)
	}
	return documents, rephrased, answer, nil
}

func (s *HybridStrategy) runStream(ctx context.Context, messages []domain.Message, temperature float64, limit int, scoreThreshold float64) ([]domain.Document, <-chan domain.GenerationChunk, error) {
	documents, rephrased, err := s.retrieve(ctx, messages, limit, scoreThreshold)
	if err != nil {
		return nil, nil, err
	}

	chunks, err := s.model.StreamComplete(ctx, buildAnswerPrompt(documents, rephrased), temperature)
	if err != nil {
		return nil, nil, fmt.Errorf("synthesize answer stream: %w", err)
	}
	return documents, chunks, nil
}

func (s *HybridStrategy) retrieve(ctx context.Context, messages []domain.Message, limit int, scoreThreshold float64) ([]domain.Document, string, error) {
	if len(messages) == 0 {
		return nil, "", domain.ErrEmptyConversation
	}

	rephrased, err := s.model.Complete(ctx, buildRephrasePrompt(messages), rephraseTemperature)
	if err != nil {
		return nil, "", fmt.Errorf("rephrase question: %w", err)
	}

	queryVector, err := s.embedder.EmbedQuery(ctx, rephrased)
	if err != nil {
		return nil, "", fmt.Errorf("embed rephrased query: %w", err)
	}

	documents, err := s.store.SimilaritySearch(ctx, queryVector, limit, scoreThreshold)
	if err != nil {
		return nil, "", fmt.Errorf("similarity search: %w", err)
	}
	return documents, rephrased, nil
}
