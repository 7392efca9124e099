package app

import (
	"context"
	"fmt"
	"io"

	"codeit-chatbot/internal/models"
	"codeit-chatbot/internal/repository"
	"codeit-chatbot/internal/service"
	"codeit-chatbot/pkg/config"
	"codeit-chatbot/pkg/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Container holds everything built during initialization. It is created once
// per process and is read-only afterwards; both binaries share it.
type Container struct {
	Config        *config.Config
	Dataset       *models.Dataset
	KnowledgeBase *models.KnowledgeBase
	Index         *service.EmbeddingIndex
	Resolver      *service.AnswerResolver
	Conversations *service.ConversationService
	Chat          *service.ChatService

	logger  *zap.Logger
	db      *pgxpool.Pool
	closers []io.Closer
}

// New loads the dataset and wires the capabilities selected by cfg. It does
// not build the embedding index; call Warmup for that.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	c := &Container{Config: cfg, logger: logger}

	dataset, err := repository.NewDatasetRepository(cfg.Dataset.Path, logger).Load(ctx)
	if err != nil {
		return nil, err
	}
	c.Dataset = dataset
	c.KnowledgeBase = service.BuildKnowledgeBase(dataset)
	logger.Info("Knowledge base built", zap.Int("entries", c.KnowledgeBase.Len()))

	cache, err := c.embeddingCache(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}

	embedder, err := c.embedder(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}

	generator, err := c.generator(ctx, embedder)
	if err != nil {
		c.Close()
		return nil, err
	}

	c.Index = service.NewEmbeddingIndex(embedder, cache, logger)
	c.Resolver = service.NewAnswerResolver(
		dataset,
		c.Index,
		service.NewSemanticSearcher(embedder, logger),
		service.NewGenerativeFallback(generator, cfg.LLM.Timeout, logger),
		service.ResolverConfig{
			TopK:                cfg.RAG.TopK,
			SimilarityThreshold: cfg.RAG.SimilarityThreshold,
		},
		logger,
	)
	c.Conversations = service.NewConversationService(repository.NewSessionRepository(), logger)
	c.Chat = service.NewChatService(c.Resolver, c.Conversations, logger)

	return c, nil
}

// Warmup builds (or loads) the embedding index and runs one resolution so
// that the first real request does not pay for it.
func (c *Container) Warmup(ctx context.Context) error {
	if _, err := c.Index.Rebuild(ctx, c.KnowledgeBase, false); err != nil {
		return fmt.Errorf("failed to build embedding index: %w", err)
	}
	if _, err := c.Resolver.Resolve(ctx, "Hello", nil); err != nil {
		return fmt.Errorf("warm-up resolution failed: %w", err)
	}
	c.logger.Info("Chatbot warmed up")
	return nil
}

// Close releases provider clients and the database pool.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			c.logger.Warn("Failed to close client", zap.Error(err))
		}
	}
	c.closers = nil
	if c.db != nil {
		c.db.Close()
		c.db = nil
	}
}

func (c *Container) embeddingCache(ctx context.Context) (service.EmbeddingCache, error) {
	switch c.Config.Embedding.CacheBackend {
	case config.CacheBackendFile:
		return repository.NewFileEmbeddingCache(c.Config.Embedding.CacheDir, c.logger), nil
	case config.CacheBackendPostgres:
		db, err := postgres.NewPool(ctx, &c.Config.Database, c.logger)
		if err != nil {
			return nil, err
		}
		c.db = db
		cache := repository.NewPostgresEmbeddingCache(db, c.logger)
		if err := cache.Migrate(ctx); err != nil {
			return nil, err
		}
		return cache, nil
	default:
		return nil, fmt.Errorf("unknown embedding cache backend %q", c.Config.Embedding.CacheBackend)
	}
}

func (c *Container) embedder(ctx context.Context) (*service.GeminiClient, error) {
	if c.Config.Embedding.Provider != config.ProviderGemini {
		return nil, fmt.Errorf("unknown embedding provider %q", c.Config.Embedding.Provider)
	}

	client, err := service.NewGeminiClient(ctx,
		c.Config.Gemini.APIKey,
		c.Config.Embedding.Model,
		c.Config.Gemini.Model,
		c.logger,
	)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, client)
	return client, nil
}

// generator returns nil when the generative stage is disabled. The Gemini
// client doubles as the generator so only one connection is opened.
func (c *Container) generator(ctx context.Context, gemini *service.GeminiClient) (service.Generator, error) {
	switch c.Config.LLM.Provider {
	case config.ProviderGemini:
		return gemini, nil
	case config.ProviderGigaChat:
		client, err := service.NewGigaChatClient(ctx, &c.Config.GigaChat, c.logger)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, client)
		return client, nil
	case config.ProviderNone:
		c.logger.Info("Generative fallback disabled")
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", c.Config.LLM.Provider)
	}
}
