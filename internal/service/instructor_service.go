package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acadset/course-load-api/internal/models"
	appErrors "github.com/acadset/course-load-api/pkg/errors"
)

type instructorRepository interface {
	List(ctx context.Context, filter models.InstructorFilter) ([]models.Instructor, int, error)
	FindByID(ctx context.Context, id string) (*models.Instructor, error)
	FindByUserID(ctx context.Context, userID string) (*models.Instructor, error)
	Create(ctx context.Context, instructor *models.Instructor) error
	Update(ctx context.Context, instructor *models.Instructor) error
}

type workloadReader interface {
	ListByInstructor(ctx context.Context, instructorID string) ([]models.WorkloadEntry, error)
	SumBySemesters(ctx context.Context, instructorID string, semesters []string) (float64, error)
}

// CreateInstructorRequest captures fields for creating instructor profiles.
type CreateInstructorRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	FullName string `json:"full_name" validate:"required"`
	Location string `json:"location"`
	Position string `json:"position"`
	Chair    string `json:"chair"`
}

// UpdateInstructorRequest modifies instructor profile fields.
type UpdateInstructorRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Location string `json:"location"`
	Position string `json:"position"`
	Chair    string `json:"chair"`
}

// WorkloadSummary reports an instructor's ledger together with the
// aggregates the allocators score against.
type WorkloadSummary struct {
	InstructorID  string                 `json:"instructor_id"`
	Entries       []models.WorkloadEntry `json:"entries"`
	RegularLoad   float64                `json:"regular_load"`
	ExtensionLoad float64                `json:"extension_load"`
}

// InstructorService handles instructor profiles and ledger reads.
type InstructorService struct {
	repo      instructorRepository
	workloads workloadReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInstructorService creates a new instructor service.
func NewInstructorService(repo instructorRepository, workloads workloadReader, validate *validator.Validate, logger *zap.Logger) *InstructorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstructorService{repo: repo, workloads: workloads, validator: validate, logger: logger}
}

// List returns paginated instructor profiles.
func (s *InstructorService) List(ctx context.Context, filter models.InstructorFilter) ([]models.Instructor, *models.Pagination, error) {
	instructors, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructors")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return instructors, pagination, nil
}

// Get returns an instructor by identifier.
func (s *InstructorService) Get(ctx context.Context, id string) (*models.Instructor, error) {
	instructor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	return instructor, nil
}

// GetByUser returns the instructor profile owned by a user account.
func (s *InstructorService) GetByUser(ctx context.Context, userID string) (*models.Instructor, error) {
	instructor, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	return instructor, nil
}

// Create adds a new instructor profile.
func (s *InstructorService) Create(ctx context.Context, req CreateInstructorRequest) (*models.Instructor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid instructor payload")
	}

	instructor := &models.Instructor{
		UserID:   req.UserID,
		FullName: req.FullName,
		Location: req.Location,
		Position: req.Position,
		Chair:    req.Chair,
	}
	if err := s.repo.Create(ctx, instructor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create instructor")
	}
	return instructor, nil
}

// Update modifies an existing instructor profile.
func (s *InstructorService) Update(ctx context.Context, id string, req UpdateInstructorRequest) (*models.Instructor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid instructor payload")
	}

	instructor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}

	instructor.FullName = req.FullName
	instructor.Location = req.Location
	instructor.Position = req.Position
	instructor.Chair = req.Chair
	if err := s.repo.Update(ctx, instructor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update instructor")
	}
	return instructor, nil
}

// Workload returns an instructor's ledger and the regular/extension
// aggregates used in allocator scoring.
func (s *InstructorService) Workload(ctx context.Context, id string) (*WorkloadSummary, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	entries, err := s.workloads.ListByInstructor(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workload ledger")
	}
	regular, err := s.workloads.SumBySemesters(ctx, id, []string{models.SemesterRegular1, models.SemesterRegular2})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to total regular load")
	}
	extension, err := s.workloads.SumBySemesters(ctx, id, []string{models.SemesterExtension1, models.SemesterExtension2, models.SemesterSummer})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to total extension load")
	}

	return &WorkloadSummary{
		InstructorID:  id,
		Entries:       entries,
		RegularLoad:   regular,
		ExtensionLoad: extension,
	}, nil
}
