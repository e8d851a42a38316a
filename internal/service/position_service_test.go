package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acadset/course-load-api/internal/models"
	appErrors "github.com/acadset/course-load-api/pkg/errors"
)

type positionRepoStub struct {
	items   map[string]*models.Position
	created []*models.Position
	deleted []string
}

func (s *positionRepoStub) List(ctx context.Context) ([]models.Position, error) {
	positions := make([]models.Position, 0, len(s.items))
	for _, position := range s.items {
		positions = append(positions, *position)
	}
	return positions, nil
}

func (s *positionRepoStub) FindByName(ctx context.Context, name string) (*models.Position, error) {
	if position, ok := s.items[name]; ok {
		cp := *position
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *positionRepoStub) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	position, ok := s.items[name]
	return ok && position.ID != excludeID, nil
}

func (s *positionRepoStub) Create(ctx context.Context, position *models.Position) error {
	position.ID = "position-new"
	s.created = append(s.created, position)
	return nil
}

func (s *positionRepoStub) Update(ctx context.Context, position *models.Position) error {
	return nil
}

func (s *positionRepoStub) Delete(ctx context.Context, name string) error {
	if _, ok := s.items[name]; !ok {
		return sql.ErrNoRows
	}
	s.deleted = append(s.deleted, name)
	return nil
}

func newPositionService(repo *positionRepoStub) *PositionService {
	return NewPositionService(repo, validator.New(), zap.NewNop())
}

func TestPositionServiceCreateDuplicateName(t *testing.T) {
	repo := &positionRepoStub{items: map[string]*models.Position{
		"Dean": {ID: "position-1", Name: "Dean", Exemption: 6},
	}}
	svc := newPositionService(repo)

	_, err := svc.Create(context.Background(), PositionRequest{Name: "Dean", Exemption: 6})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

// Positions are addressed by their unique name on every route, delete
// included.
func TestPositionServiceDeleteByName(t *testing.T) {
	repo := &positionRepoStub{items: map[string]*models.Position{
		"Lecturer": {ID: "position-1", Name: "Lecturer"},
	}}
	svc := newPositionService(repo)

	require.NoError(t, svc.Delete(context.Background(), "Lecturer"))
	assert.Equal(t, []string{"Lecturer"}, repo.deleted)

	err := svc.Delete(context.Background(), "Provost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
