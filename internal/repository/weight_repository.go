package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadset/course-load-api/internal/models"
)

// WeightRepository persists the scalar pairs weight tables are generated from.
type WeightRepository struct {
	db *sqlx.DB
}

// NewWeightRepository constructs the repository.
func NewWeightRepository(db *sqlx.DB) *WeightRepository {
	return &WeightRepository{db: db}
}

// GetByKind returns the configuration for one weight table kind.
func (r *WeightRepository) GetByKind(ctx context.Context, kind models.WeightKind) (*models.WeightConfig, error) {
	const query = `SELECT * FROM weight_configs WHERE kind = $1`
	var cfg models.WeightConfig
	if err := r.db.GetContext(ctx, &cfg, query, kind); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Upsert stores the configuration for a weight table kind, replacing any
// previous scalars.
func (r *WeightRepository) Upsert(ctx context.Context, cfg *models.WeightConfig) error {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	cfg.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO weight_configs (id, kind, max_weight, interval, updated_at)
		VALUES (:id, :kind, :max_weight, :interval, :updated_at)
		ON CONFLICT (kind)
		DO UPDATE SET max_weight = EXCLUDED.max_weight, interval = EXCLUDED.interval, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, cfg); err != nil {
		return fmt.Errorf("upsert weight config: %w", err)
	}
	return nil
}
