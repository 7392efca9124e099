package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// geminiBatchLimit is the largest batch BatchEmbedContents accepts.
const geminiBatchLimit = 100

// GeminiClient serves both capabilities the resolver needs: batch embeddings
// and text generation.
type GeminiClient struct {
	client   *genai.Client
	embName  string
	embModel *genai.EmbeddingModel
	genModel *genai.GenerativeModel
	logger   *zap.Logger
}

func NewGeminiClient(ctx context.Context, apiKey, embeddingModel, generativeModel string, logger *zap.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	logger.Info("Gemini client initialized",
		zap.String("embedding_model", embeddingModel),
		zap.String("generative_model", generativeModel),
	)

	return &GeminiClient{
		client:   client,
		embName:  embeddingModel,
		embModel: client.EmbeddingModel(embeddingModel),
		genModel: client.GenerativeModel(generativeModel),
		logger:   logger,
	}, nil
}

func (g *GeminiClient) EmbeddingModel() string {
	return g.embName
}

// Embed returns one vector per input text, in input order.
func (g *GeminiClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += geminiBatchLimit {
		end := min(start+geminiBatchLimit, len(texts))

		batch := g.embModel.NewBatch()
		for _, text := range texts[start:end] {
			batch.AddContent(genai.Text(text))
		}

		resp, err := g.embModel.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("failed to embed batch %d-%d: %w", start, end, err)
		}
		if len(resp.Embeddings) != end-start {
			return nil, fmt.Errorf("embedding batch returned %d vectors for %d texts", len(resp.Embeddings), end-start)
		}
		for _, emb := range resp.Embeddings {
			vectors = append(vectors, emb.Values)
		}
	}

	g.logger.Debug("Texts embedded", zap.Int("count", len(vectors)))
	return vectors, nil
}

func (g *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := g.genModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("calling generative model: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response from Gemini")
	}

	var parts []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	return strings.Join(parts, ""), nil
}

func (g *GeminiClient) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
