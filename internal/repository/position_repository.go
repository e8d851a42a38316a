package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadset/course-load-api/internal/models"
)

// PositionRepository persists academic positions and their exemptions.
type PositionRepository struct {
	db *sqlx.DB
}

// NewPositionRepository constructs the repository.
func NewPositionRepository(db *sqlx.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// FindByName returns the position with the given unique name.
func (r *PositionRepository) FindByName(ctx context.Context, name string) (*models.Position, error) {
	const query = `SELECT * FROM positions WHERE name = $1`
	var position models.Position
	if err := r.db.GetContext(ctx, &position, query, name); err != nil {
		return nil, err
	}
	return &position, nil
}

// List returns every configured position.
func (r *PositionRepository) List(ctx context.Context) ([]models.Position, error) {
	const query = `SELECT * FROM positions ORDER BY name ASC`
	var positions []models.Position
	if err := r.db.SelectContext(ctx, &positions, query); err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	return positions, nil
}

// ExistsByName checks position name uniqueness.
func (r *PositionRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	const query = `SELECT 1 FROM positions WHERE name = $1 AND id <> $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, name, excludeID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check position name: %w", err)
	}
	return true, nil
}

// Create inserts a new position.
func (r *PositionRepository) Create(ctx context.Context, position *models.Position) error {
	if position.ID == "" {
		position.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	position.CreatedAt = now
	position.UpdatedAt = now
	const query = `INSERT INTO positions (id, name, exemption, created_at, updated_at)
		VALUES (:id, :name, :exemption, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, position); err != nil {
		return fmt.Errorf("create position: %w", err)
	}
	return nil
}

// Update overwrites a position.
func (r *PositionRepository) Update(ctx context.Context, position *models.Position) error {
	position.UpdatedAt = time.Now().UTC()
	const query = `UPDATE positions SET name = :name, exemption = :exemption, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, position)
	if err != nil {
		return fmt.Errorf("update position: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated position rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes the position with the given unique name.
func (r *PositionRepository) Delete(ctx context.Context, name string) error {
	const query = `DELETE FROM positions WHERE name = $1`
	result, err := r.db.ExecContext(ctx, query, name)
	if err != nil {
		return fmt.Errorf("delete position: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted position rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
