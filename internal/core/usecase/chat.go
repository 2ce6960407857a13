package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mkorchagin/dishchat/internal/core/domain"
	"github.com/mkorchagin/dishchat/internal/core/ports"
)

const noResultsAnswer = "No results found"

// ChatUseCase dispatches a chat turn to the retrieval strategy selected by
// mode, assembles the response envelope, and persists the turn best-effort.
// It holds no per-request state; all collaborators are injected.
type ChatUseCase struct {
	vector         *VectorStrategy
	keyword        *KeywordStrategy
	hybrid         *HybridStrategy
	contextBuilder *ContextBuilder
	conversations  ports.ConversationStore
}

func NewChatUseCase(
	vector *VectorStrategy,
	keyword *KeywordStrategy,
	hybrid *HybridStrategy,
	contextBuilder *ContextBuilder,
	conversations ports.ConversationStore,
) *ChatUseCase {
	return &ChatUseCase{
		vector:         vector,
		keyword:        keyword,
		hybrid:         hybrid,
		contextBuilder: contextBuilder,
		conversations:  conversations,
	}
}

// resolveSessionState picks the caller-supplied session id or generates a
// fresh one. Resolution happens once per request so the caller learns the
// session id even on a no-results path.
func resolveSessionState(sessionState string) string {
	if sessionState != "" {
		return sessionState
	}
	return uuid.NewString()
}

func (uc *ChatUseCase) RunVector(ctx context.Context, messages []domain.Message, opts domain.ChatOptions) (*domain.RetrievalResponse, error) {
	return uc.runSearch(ctx, uc.vector, "Vector Search", messages, opts)
}

func (uc *ChatUseCase) RunKeyword(ctx context.Context, messages []domain.Message, opts domain.ChatOptions) (*domain.RetrievalResponse, error) {
	return uc.runSearch(ctx, uc.keyword, "Text Search", messages, opts)
}

// runSearch is the shared shape of the vector and keyword modes: top-hit
// answer rendered through the display template, three diagnostic thoughts
// prepended newest-first.
func (uc *ChatUseCase) runSearch(ctx context.Context, strategy Strategy, label string, messages []domain.Message, opts domain.ChatOptions) (*domain.RetrievalResponse, error) {
	documents, answer, err := strategy.Run(ctx, messages, opts.Temperature, opts.Limit, opts.ScoreThreshold)
	if err != nil {
		return nil, err
	}

	sessionState := resolveSessionState(opts.SessionState)
	if len(documents) == 0 {
		return noResultsResponse(sessionState), nil
	}

	contextValue, err := uc.contextBuilder.Build(documents)
	if err != nil {
		return nil, err
	}

	top, err := parseItemPayload(answer)
	if err != nil {
		return nil, err
	}

	contextValue.PushThought(label+" Top Result", answer)
	contextValue.PushThought(label+" Result", describeDocuments(documents))
	contextValue.PushThought(label+" Query", messages[len(messages)-1].Text())

	message := domain.NewMessage(uc.formatTopResult(top), domain.RoleAssistant)
	uc.appendHistory(ctx, messages, message, opts.SessionState, sessionState)

	return &domain.RetrievalResponse{
		Context:      contextValue,
		Message:      message,
		SessionState: sessionState,
	}, nil
}

func (uc *ChatUseCase) RunRAG(ctx context.Context, messages []domain.Message, opts domain.ChatOptions) (*domain.RetrievalResponse, error) {
	documents, rephrased, answer, err := uc.hybrid.run(ctx, messages, opts.Temperature, opts.Limit, opts.ScoreThreshold)
	if err != nil {
		return nil, err
	}

	sessionState := resolveSessionState(opts.SessionState)
	if len(documents) == 0 {
		// The synthesis prompt already produced the refusal sentence when
		// context was empty; fall back only if the model returned nothing.
		if answer == "" {
			answer = noResultsAnswer
		}
		return &domain.RetrievalResponse{
			Context:      domain.PlaceholderContext(),
			Message:      domain.NewMessage(answer, domain.RoleAssistant),
			SessionState: sessionState,
		}, nil
	}

	contextValue, err := uc.contextBuilder.Build(documents)
	if err != nil {
		return nil, err
	}

	contextValue.PushThought("Generated Response", answer)
	contextValue.PushThought("Vector Search Result", describeDocuments(documents))
	contextValue.PushThought("Rephrased Query", rephrased)
	contextValue.PushThought("RAG Query", messages[len(messages)-1].Text())

	message := domain.NewMessage(answer, domain.RoleAssistant)
	uc.appendHistory(ctx, messages, message, opts.SessionState, sessionState)

	return &domain.RetrievalResponse{
		Context:      contextValue,
		Message:      message,
		SessionState: sessionState,
	}, nil
}

// RunRAGStream runs the hybrid pipeline with a streamed synthesis phase.
// A producer goroutine emits one context-bearing fragment, then one
// delta-only fragment per generated text chunk, preserving provider
// boundaries. Persistence happens only on natural completion; consumer
// cancellation abandons the turn without writing history.
func (uc *ChatUseCase) RunRAGStream(ctx context.Context, messages []domain.Message, opts domain.ChatOptions) (<-chan domain.StreamEvent, error) {
	documents, chunks, err := uc.hybrid.runStream(ctx, messages, opts.Temperature, opts.Limit, opts.ScoreThreshold)
	if err != nil {
		return nil, err
	}

	sessionState := resolveSessionState(opts.SessionState)
	events := make(chan domain.StreamEvent)

	go func() {
		defer close(events)

		contextValue := domain.PlaceholderContext()
		if len(documents) > 0 {
			built, err := uc.contextBuilder.Build(documents)
			if err != nil {
				emitEvent(ctx, events, domain.StreamEvent{Err: err})
				return
			}
			built.PushThought("Vector Search Result", describeDocuments(documents))
			built.PushThought("RAG Query", messages[len(messages)-1].Text())
			contextValue = built
		}

		if !emitEvent(ctx, events, domain.StreamEvent{Delta: &domain.RetrievalResponseDelta{
			Context:      &contextValue,
			SessionState: &sessionState,
		}}) {
			return
		}

		var parts []string
		for chunk := range chunks {
			if chunk.Err != nil {
				emitEvent(ctx, events, domain.StreamEvent{Err: chunk.Err})
				return
			}
			parts = append(parts, chunk.Content)
			delta := domain.NewMessage(chunk.Content, domain.RoleAssistant)
			if !emitEvent(ctx, events, domain.StreamEvent{Delta: &domain.RetrievalResponseDelta{Delta: &delta}}) {
				return
			}
		}

		final := domain.NewMessage(strings.Join(parts, ""), domain.RoleAssistant)
		uc.appendHistory(ctx, messages, final, opts.SessionState, sessionState)
	}()

	return events, nil
}

// emitEvent reports false when the consumer is gone, which skips the
// persistence step for abandoned streams.
func emitEvent(ctx context.Context, events chan<- domain.StreamEvent, event domain.StreamEvent) bool {
	select {
	case events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

func noResultsResponse(sessionState string) *domain.RetrievalResponse {
	return &domain.RetrievalResponse{
		Context:      domain.PlaceholderContext(),
		Message:      domain.NewMessage(noResultsAnswer, domain.RoleAssistant),
		SessionState: sessionState,
	}
}

// formatTopResult is the fixed display template for the vector and keyword
// modes, interpolating the parsed top hit plus the configured collection.
func (uc *ChatUseCase) formatTopResult(top itemPayload) string {
	return fmt.Sprintf(
		"Name: %s\nDescription: %s\nPrice: %s\nCategory: %s\nCollection: %s",
		stringOrEmpty(top.Name),
		stringOrEmpty(top.Description),
		stringOrEmpty(top.Price),
		stringOrEmpty(top.Category),
		uc.contextBuilder.collection,
	)
}

func stringOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func describeDocuments(documents []domain.Document) string {
	raw, err := json.Marshal(documents)
	if err != nil {
		return fmt.Sprintf("%v", documents)
	}
	return string(raw)
}
