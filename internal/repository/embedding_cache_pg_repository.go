package repository

import (
	"context"
	"fmt"

	"codeit-chatbot/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const embeddingsTable = "kb_embeddings"

// insertBatchSize keeps a single INSERT well under the 65535 bind parameter limit.
const insertBatchSize = 1000

const createEmbeddingsTable = `CREATE TABLE IF NOT EXISTS kb_embeddings (
	position  INTEGER PRIMARY KEY,
	text      TEXT NOT NULL,
	model     TEXT NOT NULL DEFAULT '',
	embedding REAL[] NOT NULL
)`

// Tables created before the model column existed.
const addModelColumn = `ALTER TABLE kb_embeddings ADD COLUMN IF NOT EXISTS model TEXT NOT NULL DEFAULT ''`

// PostgresEmbeddingCache stores one row per knowledge base entry; the text
// column plays the role of the cached text list and the embedding column the
// matrix row, so both artifacts are always written in the same transaction.
// Every row carries the name of the model that produced it.
type PostgresEmbeddingCache struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgresEmbeddingCache(db *pgxpool.Pool, logger *zap.Logger) *PostgresEmbeddingCache {
	return &PostgresEmbeddingCache{
		db:     db,
		logger: logger,
	}
}

func (r *PostgresEmbeddingCache) Migrate(ctx context.Context) error {
	for _, stmt := range []string{createEmbeddingsTable, addModelColumn} {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", embeddingsTable, err)
		}
	}
	return nil
}

func (r *PostgresEmbeddingCache) Load(ctx context.Context) (*models.EmbeddingSet, error) {
	sql, args, err := selectEmbeddingsQuery().ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cached embeddings: %w", err)
	}
	defer rows.Close()

	set := &models.EmbeddingSet{}
	for rows.Next() {
		var position int
		var text, model string
		var embedding pgtype.FlatArray[float32]
		if err := rows.Scan(&position, &text, &model, &embedding); err != nil {
			return nil, err
		}
		if len(set.Texts) == 0 {
			set.Model = model
		} else if model != set.Model {
			return nil, fmt.Errorf("cached embeddings mix models %q and %q", set.Model, model)
		}
		set.Texts = append(set.Texts, text)
		set.Matrix = append(set.Matrix, []float32(embedding))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(set.Texts) == 0 {
		return nil, ErrCacheMiss
	}
	return set, nil
}

func (r *PostgresEmbeddingCache) Save(ctx context.Context, set *models.EmbeddingSet) error {
	texts, matrix := set.Texts, set.Matrix
	if len(texts) != len(matrix) {
		return fmt.Errorf("cache rows mismatch: %d texts, %d vectors", len(texts), len(matrix))
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM "+embeddingsTable); err != nil {
		return fmt.Errorf("failed to clear cached embeddings: %w", err)
	}

	for start := 0; start < len(texts); start += insertBatchSize {
		end := min(start+insertBatchSize, len(texts))
		sql, args, err := insertEmbeddingsQuery(start, set.Model, texts[start:end], matrix[start:end]).ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("failed to insert cached embeddings: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit cached embeddings: %w", err)
	}

	r.logger.Info("Embedding cache saved",
		zap.String("table", embeddingsTable),
		zap.String("model", set.Model),
		zap.Int("rows", len(texts)),
	)
	return nil
}

func selectEmbeddingsQuery() squirrel.SelectBuilder {
	return squirrel.Select("position", "text", "model", "embedding").
		From(embeddingsTable).
		OrderBy("position ASC").
		PlaceholderFormat(squirrel.Dollar)
}

func insertEmbeddingsQuery(offset int, model string, texts []string, matrix [][]float32) squirrel.InsertBuilder {
	builder := squirrel.Insert(embeddingsTable).
		Columns("position", "text", "model", "embedding").
		PlaceholderFormat(squirrel.Dollar)
	for i, text := range texts {
		builder = builder.Values(offset+i, text, model, pgtype.FlatArray[float32](matrix[i]))
	}
	return builder
}
