package bootstrap

import (
	"context"
	"fmt"

	"github.com/mkorchagin/dishchat/internal/config"
	"github.com/mkorchagin/dishchat/internal/core/ports"
	"github.com/mkorchagin/dishchat/internal/core/usecase"
	"github.com/mkorchagin/dishchat/internal/infrastructure/llm/ollama"
	"github.com/mkorchagin/dishchat/internal/infrastructure/queue/nats"
	"github.com/mkorchagin/dishchat/internal/infrastructure/repository/postgres"
	"github.com/mkorchagin/dishchat/internal/infrastructure/resilience"
	"github.com/mkorchagin/dishchat/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config

	Queue    *nats.Queue
	ChatUC   ports.ChatService
	IngestUC ports.ItemIngestor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	conversations := postgres.NewConversationRepository(db)
	if err := conversations.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init item queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaChatModel, cfg.OllamaEmbedModel, executor)
	embedder := ollama.NewEmbedder(ollamaClient)
	chatModel := ollama.NewChat(ollamaClient)

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)

	vectorStrategy := usecase.NewVectorStrategy(embedder, vectorDB)
	keywordStrategy := usecase.NewKeywordStrategy(vectorDB)
	hybridStrategy := usecase.NewHybridStrategy(embedder, vectorDB, chatModel)
	contextBuilder := usecase.NewContextBuilder(cfg.QdrantCollection)

	chatUC := usecase.NewChatUseCase(vectorStrategy, keywordStrategy, hybridStrategy, contextBuilder, conversations)
	ingestUC := usecase.NewIngestItemUseCase(embedder, vectorDB)

	return &App{
		Config: cfg,

		Queue:    queue,
		ChatUC:   chatUC,
		IngestUC: ingestUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
