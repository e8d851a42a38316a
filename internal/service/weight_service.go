package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acadset/course-load-api/internal/models"
	appErrors "github.com/acadset/course-load-api/pkg/errors"
)

type weightRepository interface {
	GetByKind(ctx context.Context, kind models.WeightKind) (*models.WeightConfig, error)
	Upsert(ctx context.Context, cfg *models.WeightConfig) error
}

type cacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// WeightConfigRequest sets the scalars one weight table is generated from.
type WeightConfigRequest struct {
	Kind      models.WeightKind `json:"kind" validate:"required,oneof=PREFERENCE_RANK EXPERIENCE_YEARS"`
	MaxWeight float64           `json:"max_weight" validate:"gt=0"`
	Interval  float64           `json:"interval" validate:"gt=0"`
}

// WeightService manages weight table configuration and serves generated
// tables, caching them since they only change on reconfiguration.
type WeightService struct {
	repo      weightRepository
	cache     cacheStore
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWeightService creates a new weight service.
func NewWeightService(repo weightRepository, cache cacheStore, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *WeightService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &WeightService{repo: repo, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// Get returns the stored configuration for a table kind.
func (s *WeightService) Get(ctx context.Context, kind models.WeightKind) (*models.WeightConfig, error) {
	cfg, err := s.repo.GetByKind(ctx, kind)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "weight configuration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load weight configuration")
	}
	return cfg, nil
}

// Configure stores the scalars for a table kind and drops the cached table.
func (s *WeightService) Configure(ctx context.Context, req WeightConfigRequest) (*models.WeightConfig, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid weight configuration payload")
	}

	cfg := &models.WeightConfig{Kind: req.Kind, MaxWeight: req.MaxWeight, Interval: req.Interval}
	if err := s.repo.Upsert(ctx, cfg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store weight configuration")
	}

	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, s.cacheKey(req.Kind)); err != nil {
			s.logger.Warn("failed to invalidate weight table cache", zap.String("kind", string(req.Kind)), zap.Error(err))
		}
	}
	return cfg, nil
}

// Table returns the generated table for a kind, from cache when warm. An
// unconfigured kind yields an empty table; every lookup against it scores
// zero.
func (s *WeightService) Table(ctx context.Context, kind models.WeightKind) ([]models.WeightEntry, error) {
	key := s.cacheKey(kind)
	if s.cache != nil {
		var cached []models.WeightEntry
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("weight table cache read failed", zap.String("kind", string(kind)), zap.Error(err))
		}
	}

	cfg, err := s.repo.GetByKind(ctx, kind)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load weight configuration")
	}
	entries := GenerateWeightTable(*cfg)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, entries, s.cacheTTL); err != nil {
			s.logger.Warn("weight table cache write failed", zap.String("kind", string(kind)), zap.Error(err))
		}
	}
	return entries, nil
}

func (s *WeightService) cacheKey(kind models.WeightKind) string {
	return fmt.Sprintf("weights:table:%s", kind)
}
