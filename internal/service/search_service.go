package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"
)

// ErrDimensionMismatch means the query vector and the index rows were
// produced by different embedding models.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

type SearchResult struct {
	Text  string
	Score float64
	Index int
}

type SemanticSearcher struct {
	embedder Embedder
	logger   *zap.Logger
}

func NewSemanticSearcher(embedder Embedder, logger *zap.Logger) *SemanticSearcher {
	return &SemanticSearcher{
		embedder: embedder,
		logger:   logger,
	}
}

// Search ranks matrix rows by cosine similarity to the query and returns at
// most topK of them, best first. Equal scores keep row order. A row whose size
// differs from the query vector fails the search with ErrDimensionMismatch.
func (s *SemanticSearcher) Search(ctx context.Context, query string, matrix [][]float32, texts []string, topK int) ([]SearchResult, error) {
	rows := min(len(matrix), len(texts))
	if rows == 0 || topK <= 0 {
		return nil, nil
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedding returned empty result")
	}
	queryVec := vectors[0]

	results := make([]SearchResult, rows)
	for i := 0; i < rows; i++ {
		if len(matrix[i]) != len(queryVec) {
			return nil, fmt.Errorf("%w: query has %d dimensions, row %d has %d",
				ErrDimensionMismatch, len(queryVec), i, len(matrix[i]))
		}
		results[i] = SearchResult{
			Text:  texts[i],
			Score: cosineSimilarity(queryVec, matrix[i]),
			Index: i,
		}
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}

	s.logger.Debug("Semantic search completed",
		zap.String("query", query),
		zap.Int("results", len(results)),
		zap.Float64("top_score", results[0].Score),
	)
	return results, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dotProduct += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
