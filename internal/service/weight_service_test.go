package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acadset/course-load-api/internal/models"
	appErrors "github.com/acadset/course-load-api/pkg/errors"
)

type weightRepoStub struct {
	configs map[models.WeightKind]*models.WeightConfig
	upserts []*models.WeightConfig
	reads   int
}

func (s *weightRepoStub) GetByKind(ctx context.Context, kind models.WeightKind) (*models.WeightConfig, error) {
	s.reads++
	if cfg, ok := s.configs[kind]; ok {
		cp := *cfg
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *weightRepoStub) Upsert(ctx context.Context, cfg *models.WeightConfig) error {
	s.upserts = append(s.upserts, cfg)
	return nil
}

type cacheStoreStub struct {
	values  map[string][]byte
	deleted []string
}

func newCacheStoreStub() *cacheStoreStub {
	return &cacheStoreStub{values: make(map[string][]byte)}
}

func (s *cacheStoreStub) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := s.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *cacheStoreStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.values[key] = raw
	return nil
}

func (s *cacheStoreStub) DeleteByPattern(ctx context.Context, pattern string) error {
	s.deleted = append(s.deleted, pattern)
	for key := range s.values {
		delete(s.values, key)
	}
	return nil
}

func TestWeightServiceTableCaches(t *testing.T) {
	repo := &weightRepoStub{configs: map[models.WeightKind]*models.WeightConfig{
		models.WeightKindPreferenceRank: {Kind: models.WeightKindPreferenceRank, MaxWeight: 10, Interval: 3},
	}}
	cache := newCacheStoreStub()
	svc := NewWeightService(repo, cache, time.Minute, validator.New(), zap.NewNop())

	entries, err := svc.Table(context.Background(), models.WeightKindPreferenceRank)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, 1, repo.reads)

	// Second read is served from cache.
	entries, err = svc.Table(context.Background(), models.WeightKindPreferenceRank)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, 1, repo.reads)
}

func TestWeightServiceConfigureInvalidatesCache(t *testing.T) {
	repo := &weightRepoStub{configs: map[models.WeightKind]*models.WeightConfig{
		models.WeightKindPreferenceRank: {Kind: models.WeightKindPreferenceRank, MaxWeight: 10, Interval: 3},
	}}
	cache := newCacheStoreStub()
	svc := NewWeightService(repo, cache, time.Minute, validator.New(), zap.NewNop())

	_, err := svc.Table(context.Background(), models.WeightKindPreferenceRank)
	require.NoError(t, err)
	require.NotEmpty(t, cache.values)

	cfg, err := svc.Configure(context.Background(), WeightConfigRequest{
		Kind:      models.WeightKindPreferenceRank,
		MaxWeight: 8,
		Interval:  2,
	})
	require.NoError(t, err)
	assert.InDelta(t, 8.0, cfg.MaxWeight, 1e-9)
	require.Len(t, repo.upserts, 1)
	assert.Contains(t, cache.deleted, "weights:table:PREFERENCE_RANK")
	assert.Empty(t, cache.values)
}

func TestWeightServiceConfigureRejectsInvalidScalars(t *testing.T) {
	svc := NewWeightService(&weightRepoStub{}, nil, time.Minute, validator.New(), zap.NewNop())

	_, err := svc.Configure(context.Background(), WeightConfigRequest{
		Kind:      models.WeightKindPreferenceRank,
		MaxWeight: 0,
		Interval:  1,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestWeightServiceTableUnconfiguredKind(t *testing.T) {
	svc := NewWeightService(&weightRepoStub{}, nil, time.Minute, validator.New(), zap.NewNop())

	entries, err := svc.Table(context.Background(), models.WeightKindExperienceYears)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
