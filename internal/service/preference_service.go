package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acadset/course-load-api/internal/models"
	appErrors "github.com/acadset/course-load-api/pkg/errors"
)

type preferenceRepository interface {
	CreateForm(ctx context.Context, form *models.PreferenceForm, courseIDs []string) error
	FindFormByID(ctx context.Context, id string) (*models.PreferenceForm, error)
	ListForms(ctx context.Context, chair string) ([]models.PreferenceForm, error)
	ListFormCourses(ctx context.Context, formID string) ([]string, error)
	SetFormOpen(ctx context.Context, formID string, open bool) error
	Upsert(ctx context.Context, pref *models.Preference) error
	ListByForm(ctx context.Context, formID string) ([]models.Preference, error)
}

// CreateFormRequest publishes a preference form for a chair's courses.
type CreateFormRequest struct {
	Title     string   `json:"title" validate:"required"`
	Chair     string   `json:"chair" validate:"required"`
	Year      int      `json:"year" validate:"required"`
	Semester  string   `json:"semester" validate:"required"`
	CourseIDs []string `json:"course_ids" validate:"required,min=1,dive,required"`
}

// SubmitPreferenceRequest records one instructor's ranked choices.
type SubmitPreferenceRequest struct {
	FormID  string                  `json:"form_id" validate:"required"`
	Choices []SubmitPreferenceEntry `json:"choices" validate:"required,min=1,dive"`
}

// SubmitPreferenceEntry ranks a single course; rank 1 is most preferred.
type SubmitPreferenceEntry struct {
	CourseID string `json:"course_id" validate:"required"`
	Rank     int    `json:"rank" validate:"required,min=1"`
}

// FormDetail is a form with its course allowlist attached.
type FormDetail struct {
	models.PreferenceForm
	CourseIDs []string `json:"course_ids"`
}

// PreferenceService manages preference forms and instructor submissions.
type PreferenceService struct {
	repo      preferenceRepository
	courses   allocCourseReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPreferenceService creates a new preference service.
func NewPreferenceService(repo preferenceRepository, courses allocCourseReader, validate *validator.Validate, logger *zap.Logger) *PreferenceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreferenceService{repo: repo, courses: courses, validator: validate, logger: logger}
}

// CreateForm publishes a new form after checking every listed course exists.
func (s *PreferenceService) CreateForm(ctx context.Context, req CreateFormRequest) (*FormDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preference form payload")
	}

	courses, err := s.courses.FindByIDs(ctx, req.CourseIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	for _, id := range req.CourseIDs {
		if _, ok := courses[id]; !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s not found", id))
		}
	}

	form := &models.PreferenceForm{
		Title:    req.Title,
		Chair:    req.Chair,
		Year:     req.Year,
		Semester: req.Semester,
		Open:     true,
	}
	if err := s.repo.CreateForm(ctx, form, req.CourseIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create preference form")
	}
	return &FormDetail{PreferenceForm: *form, CourseIDs: req.CourseIDs}, nil
}

// GetForm returns a form with its course allowlist.
func (s *PreferenceService) GetForm(ctx context.Context, id string) (*FormDetail, error) {
	form, err := s.repo.FindFormByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "preference form not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load preference form")
	}
	courseIDs, err := s.repo.ListFormCourses(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load form courses")
	}
	return &FormDetail{PreferenceForm: *form, CourseIDs: courseIDs}, nil
}

// ListForms returns a chair's forms, newest first.
func (s *PreferenceService) ListForms(ctx context.Context, chair string) ([]models.PreferenceForm, error) {
	forms, err := s.repo.ListForms(ctx, chair)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list preference forms")
	}
	return forms, nil
}

// SetFormOpen opens or closes a form for submissions.
func (s *PreferenceService) SetFormOpen(ctx context.Context, id string, open bool) error {
	if err := s.repo.SetFormOpen(ctx, id, open); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "preference form not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle preference form")
	}
	return nil
}

// Submit records an instructor's ranked choices against an open form. Every
// choice must come from the form's allowlist; a resubmission replaces the
// previous one.
func (s *PreferenceService) Submit(ctx context.Context, instructorID string, req SubmitPreferenceRequest) (*models.Preference, error) {
	if instructorID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "instructor id is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preference payload")
	}

	form, err := s.repo.FindFormByID(ctx, req.FormID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "preference form not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load preference form")
	}
	if !form.Open {
		return nil, appErrors.Clone(appErrors.ErrConflict, "preference form is closed")
	}

	courseIDs, err := s.repo.ListFormCourses(ctx, req.FormID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load form courses")
	}
	allowed := make(map[string]bool, len(courseIDs))
	for _, id := range courseIDs {
		allowed[id] = true
	}

	seen := make(map[string]bool, len(req.Choices))
	choices := make([]models.PreferenceChoice, 0, len(req.Choices))
	for _, choice := range req.Choices {
		if !allowed[choice.CourseID] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("course %s is not on this form", choice.CourseID))
		}
		if seen[choice.CourseID] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("course %s ranked more than once", choice.CourseID))
		}
		seen[choice.CourseID] = true
		choices = append(choices, models.PreferenceChoice{CourseID: choice.CourseID, Rank: choice.Rank})
	}

	pref := &models.Preference{
		FormID:       req.FormID,
		InstructorID: instructorID,
		Choices:      choices,
	}
	if err := s.repo.Upsert(ctx, pref); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store preference")
	}
	return pref, nil
}

// ListSubmissions returns every submission against a form.
func (s *PreferenceService) ListSubmissions(ctx context.Context, formID string) ([]models.Preference, error) {
	if _, err := s.repo.FindFormByID(ctx, formID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "preference form not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load preference form")
	}
	submissions, err := s.repo.ListByForm(ctx, formID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list preference submissions")
	}
	return submissions, nil
}
