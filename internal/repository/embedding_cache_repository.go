package repository

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"codeit-chatbot/internal/models"

	"go.uber.org/zap"
)

// ErrCacheMiss is returned when no cached embeddings exist yet.
var ErrCacheMiss = errors.New("embedding cache miss")

const (
	EmbeddingsFileName = "kb_embeddings.gob"
	TextsFileName      = "kb_texts.json"
)

// FileEmbeddingCache keeps the embedding matrix and the knowledge base texts it
// was computed from as two sibling files in one directory. The gob file also
// records the embedding model name.
type FileEmbeddingCache struct {
	dir    string
	logger *zap.Logger
}

func NewFileEmbeddingCache(dir string, logger *zap.Logger) *FileEmbeddingCache {
	return &FileEmbeddingCache{
		dir:    dir,
		logger: logger,
	}
}

// embeddingsPayload is the gob file layout.
type embeddingsPayload struct {
	Model  string
	Matrix [][]float32
}

func (r *FileEmbeddingCache) Load(ctx context.Context) (*models.EmbeddingSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	textsPath := filepath.Join(r.dir, TextsFileName)
	matrixPath := filepath.Join(r.dir, EmbeddingsFileName)
	if !fileExists(textsPath) || !fileExists(matrixPath) {
		return nil, ErrCacheMiss
	}

	data, err := os.ReadFile(textsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read cached texts: %w", err)
	}
	var texts []string
	if err := json.Unmarshal(data, &texts); err != nil {
		return nil, fmt.Errorf("failed to parse cached texts: %w", err)
	}

	file, err := os.Open(matrixPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cached embeddings: %w", err)
	}
	defer file.Close()

	var payload embeddingsPayload
	if err := gob.NewDecoder(file).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode cached embeddings: %w", err)
	}

	return &models.EmbeddingSet{Model: payload.Model, Texts: texts, Matrix: payload.Matrix}, nil
}

// Save writes both artifacts through temporary files and renames them into
// place, matrix first, so a crash never leaves a texts file that vouches for
// a half-written matrix.
func (r *FileEmbeddingCache) Save(ctx context.Context, set *models.EmbeddingSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	err := writeAtomic(filepath.Join(r.dir, EmbeddingsFileName), func(f *os.File) error {
		return gob.NewEncoder(f).Encode(embeddingsPayload{Model: set.Model, Matrix: set.Matrix})
	})
	if err != nil {
		return fmt.Errorf("failed to write embeddings: %w", err)
	}

	err = writeAtomic(filepath.Join(r.dir, TextsFileName), func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(set.Texts)
	})
	if err != nil {
		return fmt.Errorf("failed to write texts: %w", err)
	}

	r.logger.Info("Embedding cache saved",
		zap.String("dir", r.dir),
		zap.String("model", set.Model),
		zap.Int("rows", len(set.Matrix)),
	)
	return nil
}

func writeAtomic(path string, write func(f *os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
