package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"codeit-chatbot/internal/models"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type DatasetRepository struct {
	path   string
	logger *zap.Logger
}

func NewDatasetRepository(path string, logger *zap.Logger) *DatasetRepository {
	return &DatasetRepository{
		path:   path,
		logger: logger,
	}
}

// Load reads the dataset file. The format is chosen by extension: .yaml and
// .yml are YAML, everything else is JSON.
func (r *DatasetRepository) Load(ctx context.Context) (*models.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	var ds models.Dataset
	switch strings.ToLower(filepath.Ext(r.path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &ds)
	default:
		err = json.Unmarshal(data, &ds)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse dataset %s: %w", r.path, err)
	}

	for _, anomaly := range ds.Anomalies {
		r.logger.Warn("Dataset section ignored",
			zap.String("path", r.path),
			zap.String("reason", anomaly),
		)
	}

	courses := 0
	for _, category := range ds.Courses {
		courses += len(category.Courses)
	}
	r.logger.Info("Dataset loaded",
		zap.String("path", r.path),
		zap.String("company", ds.Company.Name.String()),
		zap.Int("mentors", len(ds.Company.Mentors)),
		zap.Int("categories", len(ds.Courses)),
		zap.Int("courses", courses),
		zap.Int("projects", len(ds.Projects)),
	)

	return &ds, nil
}
