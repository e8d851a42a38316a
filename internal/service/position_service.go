package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acadset/course-load-api/internal/models"
	appErrors "github.com/acadset/course-load-api/pkg/errors"
)

type positionRepository interface {
	List(ctx context.Context) ([]models.Position, error)
	FindByName(ctx context.Context, name string) (*models.Position, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	Create(ctx context.Context, position *models.Position) error
	Update(ctx context.Context, position *models.Position) error
	Delete(ctx context.Context, name string) error
}

// PositionRequest captures fields for creating or updating a position.
type PositionRequest struct {
	Name      string  `json:"name" validate:"required"`
	Exemption float64 `json:"exemption" validate:"gte=0,lte=12"`
}

// PositionService handles academic position workflows.
type PositionService struct {
	repo      positionRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPositionService creates a new position service.
func NewPositionService(repo positionRepository, validate *validator.Validate, logger *zap.Logger) *PositionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PositionService{repo: repo, validator: validate, logger: logger}
}

// List returns every configured position.
func (s *PositionService) List(ctx context.Context) ([]models.Position, error) {
	positions, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list positions")
	}
	return positions, nil
}

// Get returns a position by its unique name.
func (s *PositionService) Get(ctx context.Context, name string) (*models.Position, error) {
	position, err := s.repo.FindByName(ctx, name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "position not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load position")
	}
	return position, nil
}

// Create adds a new position ensuring name uniqueness.
func (s *PositionService) Create(ctx context.Context, req PositionRequest) (*models.Position, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid position payload")
	}

	req.Name = strings.TrimSpace(req.Name)

	exists, err := s.repo.ExistsByName(ctx, req.Name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check position name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "position name already exists")
	}

	position := &models.Position{Name: req.Name, Exemption: req.Exemption}
	if err := s.repo.Create(ctx, position); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create position")
	}
	return position, nil
}

// Update modifies an existing position.
func (s *PositionService) Update(ctx context.Context, name string, req PositionRequest) (*models.Position, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid position payload")
	}

	position, err := s.repo.FindByName(ctx, name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "position not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load position")
	}

	req.Name = strings.TrimSpace(req.Name)

	exists, err := s.repo.ExistsByName(ctx, req.Name, position.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check position name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "position name already exists")
	}

	position.Name = req.Name
	position.Exemption = req.Exemption
	if err := s.repo.Update(ctx, position); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update position")
	}
	return position, nil
}

// Delete removes a position by its unique name.
func (s *PositionService) Delete(ctx context.Context, name string) error {
	if err := s.repo.Delete(ctx, name); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "position not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete position")
	}
	return nil
}
