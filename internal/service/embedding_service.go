package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"codeit-chatbot/internal/models"
	"codeit-chatbot/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Embedder is the batch embedding capability.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbeddingModeler is implemented by embedders that know which model they
// call. The name is stored with the cache so vectors from another model are
// never reused.
type EmbeddingModeler interface {
	EmbeddingModel() string
}

// EmbeddingCache persists a matrix together with the text list it was
// computed from.
type EmbeddingCache interface {
	Load(ctx context.Context) (*models.EmbeddingSet, error)
	Save(ctx context.Context, set *models.EmbeddingSet) error
}

// IndexSnapshot is an immutable view of the knowledge base and its
// embeddings. Row i of Matrix embeds Texts[i], which Answers[i] answers.
type IndexSnapshot struct {
	Texts   []string
	Answers []string
	Matrix  [][]float32
}

// Snapshot lets a fixed snapshot stand in wherever an index is expected.
func (s *IndexSnapshot) Snapshot() *IndexSnapshot {
	return s
}

// EmbeddingIndex owns the embedding matrix. Readers take the current
// snapshot; Rebuild builds a complete replacement and swaps it in.
type EmbeddingIndex struct {
	embedder Embedder
	cache    EmbeddingCache
	logger   *zap.Logger

	current atomic.Pointer[IndexSnapshot]
	group   singleflight.Group
}

func NewEmbeddingIndex(embedder Embedder, cache EmbeddingCache, logger *zap.Logger) *EmbeddingIndex {
	return &EmbeddingIndex{
		embedder: embedder,
		cache:    cache,
		logger:   logger,
	}
}

// Snapshot returns the active snapshot, or nil before the first Rebuild.
func (i *EmbeddingIndex) Snapshot() *IndexSnapshot {
	return i.current.Load()
}

// GetOrBuild returns the cached matrix when the cached text list equals texts
// element for element, the cache was built by the current embedding model and
// every row has the same non-zero size. Anything else, including an unreadable
// cache, recomputes every embedding and rewrites the cache.
func (i *EmbeddingIndex) GetOrBuild(ctx context.Context, texts []string) ([][]float32, error) {
	if matrix, ok := i.loadCached(ctx, texts); ok {
		i.logger.Info("Embedding cache hit", zap.Int("rows", len(matrix)))
		return matrix, nil
	}
	return i.compute(ctx, texts)
}

// Rebuild recomputes (or reloads) the matrix for kb and atomically replaces
// the active snapshot. Concurrent callers share one rebuild.
func (i *EmbeddingIndex) Rebuild(ctx context.Context, kb *models.KnowledgeBase, force bool) (*IndexSnapshot, error) {
	v, err, _ := i.group.Do("rebuild", func() (interface{}, error) {
		texts := slices.Clone(kb.Texts)
		answers := slices.Clone(kb.Answers)
		if len(texts) != len(answers) {
			return nil, fmt.Errorf("knowledge base is inconsistent: %d texts, %d answers", len(texts), len(answers))
		}

		var matrix [][]float32
		var err error
		if force {
			matrix, err = i.compute(ctx, texts)
		} else {
			matrix, err = i.GetOrBuild(ctx, texts)
		}
		if err != nil {
			return nil, err
		}

		snapshot := &IndexSnapshot{Texts: texts, Answers: answers, Matrix: matrix}
		i.current.Store(snapshot)
		return snapshot, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*IndexSnapshot), nil
}

func (i *EmbeddingIndex) model() string {
	if m, ok := i.embedder.(EmbeddingModeler); ok {
		return m.EmbeddingModel()
	}
	return ""
}

func (i *EmbeddingIndex) loadCached(ctx context.Context, texts []string) ([][]float32, bool) {
	if i.cache == nil {
		return nil, false
	}

	cached, err := i.cache.Load(ctx)
	switch {
	case errors.Is(err, repository.ErrCacheMiss):
		i.logger.Info("Embedding cache is empty")
		return nil, false
	case err != nil:
		i.logger.Warn("Embedding cache unreadable, recomputing", zap.Error(err))
		return nil, false
	}

	if model := i.model(); cached.Model != model {
		i.logger.Info("Embedding model changed, recomputing embeddings",
			zap.String("cached", cached.Model),
			zap.String("current", model),
		)
		return nil, false
	}
	if !slices.Equal(cached.Texts, texts) {
		i.logger.Info("Knowledge base changed, recomputing embeddings",
			zap.Int("cached", len(cached.Texts)),
			zap.Int("current", len(texts)),
		)
		return nil, false
	}
	if _, err := cached.Dim(); err != nil {
		i.logger.Warn("Cached embedding matrix has wrong shape, recomputing", zap.Error(err))
		return nil, false
	}
	return cached.Matrix, true
}

func (i *EmbeddingIndex) compute(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	start := time.Now()
	matrix, err := i.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed knowledge base: %w", err)
	}

	set := &models.EmbeddingSet{Model: i.model(), Texts: texts, Matrix: matrix}
	dim, err := set.Dim()
	if err != nil {
		return nil, fmt.Errorf("embedder returned an unusable matrix: %w", err)
	}

	i.logger.Info("Knowledge base embedded",
		zap.Int("rows", len(matrix)),
		zap.Int("dimensions", dim),
		zap.Duration("elapsed", time.Since(start)),
	)

	if i.cache != nil {
		if err := i.cache.Save(ctx, set); err != nil {
			i.logger.Warn("Failed to persist embedding cache", zap.Error(err))
		}
	}
	return matrix, nil
}
