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

type preferenceRepoStub struct {
	forms       map[string]*models.PreferenceForm
	formCourses map[string][]string
	submissions map[string][]models.Preference
	upserts     []*models.Preference
	toggles     map[string]bool
}

func (s *preferenceRepoStub) CreateForm(ctx context.Context, form *models.PreferenceForm, courseIDs []string) error {
	form.ID = "form-new"
	if s.forms == nil {
		s.forms = make(map[string]*models.PreferenceForm)
	}
	s.forms[form.ID] = form
	return nil
}

func (s *preferenceRepoStub) FindFormByID(ctx context.Context, id string) (*models.PreferenceForm, error) {
	if form, ok := s.forms[id]; ok {
		cp := *form
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *preferenceRepoStub) ListForms(ctx context.Context, chair string) ([]models.PreferenceForm, error) {
	var forms []models.PreferenceForm
	for _, form := range s.forms {
		if chair == "" || form.Chair == chair {
			forms = append(forms, *form)
		}
	}
	return forms, nil
}

func (s *preferenceRepoStub) ListFormCourses(ctx context.Context, formID string) ([]string, error) {
	return s.formCourses[formID], nil
}

func (s *preferenceRepoStub) SetFormOpen(ctx context.Context, formID string, open bool) error {
	if _, ok := s.forms[formID]; !ok {
		return sql.ErrNoRows
	}
	if s.toggles == nil {
		s.toggles = make(map[string]bool)
	}
	s.toggles[formID] = open
	return nil
}

func (s *preferenceRepoStub) Upsert(ctx context.Context, pref *models.Preference) error {
	s.upserts = append(s.upserts, pref)
	return nil
}

func (s *preferenceRepoStub) ListByForm(ctx context.Context, formID string) ([]models.Preference, error) {
	return s.submissions[formID], nil
}

func newPreferenceService(repo *preferenceRepoStub, courses *allocCoursesStub) *PreferenceService {
	return NewPreferenceService(repo, courses, validator.New(), zap.NewNop())
}

func TestPreferenceServiceCreateForm(t *testing.T) {
	repo := &preferenceRepoStub{}
	courses := &allocCoursesStub{items: map[string]models.Course{
		"course-1": {ID: "course-1"},
		"course-2": {ID: "course-2"},
	}}
	svc := newPreferenceService(repo, courses)

	detail, err := svc.CreateForm(context.Background(), CreateFormRequest{
		Title:     "Fall offerings",
		Chair:     "chair-1",
		Year:      2026,
		Semester:  models.SemesterRegular1,
		CourseIDs: []string{"course-1", "course-2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "form-new", detail.ID)
	assert.True(t, detail.Open)
	assert.Equal(t, []string{"course-1", "course-2"}, detail.CourseIDs)
}

func TestPreferenceServiceCreateFormUnknownCourse(t *testing.T) {
	svc := newPreferenceService(&preferenceRepoStub{}, &allocCoursesStub{items: map[string]models.Course{}})

	_, err := svc.CreateForm(context.Background(), CreateFormRequest{
		Title:     "Fall offerings",
		Chair:     "chair-1",
		Year:      2026,
		Semester:  models.SemesterRegular1,
		CourseIDs: []string{"course-ghost"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPreferenceServiceSubmit(t *testing.T) {
	repo := &preferenceRepoStub{
		forms: map[string]*models.PreferenceForm{
			"form-1": {ID: "form-1", Open: true},
		},
		formCourses: map[string][]string{"form-1": {"course-1", "course-2"}},
	}
	svc := newPreferenceService(repo, &allocCoursesStub{})

	pref, err := svc.Submit(context.Background(), "inst-1", SubmitPreferenceRequest{
		FormID: "form-1",
		Choices: []SubmitPreferenceEntry{
			{CourseID: "course-1", Rank: 1},
			{CourseID: "course-2", Rank: 2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "inst-1", pref.InstructorID)
	assert.Len(t, pref.Choices, 2)
	require.Len(t, repo.upserts, 1)
}

func TestPreferenceServiceSubmitClosedForm(t *testing.T) {
	repo := &preferenceRepoStub{
		forms:       map[string]*models.PreferenceForm{"form-1": {ID: "form-1", Open: false}},
		formCourses: map[string][]string{"form-1": {"course-1"}},
	}
	svc := newPreferenceService(repo, &allocCoursesStub{})

	_, err := svc.Submit(context.Background(), "inst-1", SubmitPreferenceRequest{
		FormID:  "form-1",
		Choices: []SubmitPreferenceEntry{{CourseID: "course-1", Rank: 1}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestPreferenceServiceSubmitOffFormCourse(t *testing.T) {
	repo := &preferenceRepoStub{
		forms:       map[string]*models.PreferenceForm{"form-1": {ID: "form-1", Open: true}},
		formCourses: map[string][]string{"form-1": {"course-1"}},
	}
	svc := newPreferenceService(repo, &allocCoursesStub{})

	_, err := svc.Submit(context.Background(), "inst-1", SubmitPreferenceRequest{
		FormID:  "form-1",
		Choices: []SubmitPreferenceEntry{{CourseID: "course-rogue", Rank: 1}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.upserts)
}

func TestPreferenceServiceSubmitDuplicateCourse(t *testing.T) {
	repo := &preferenceRepoStub{
		forms:       map[string]*models.PreferenceForm{"form-1": {ID: "form-1", Open: true}},
		formCourses: map[string][]string{"form-1": {"course-1"}},
	}
	svc := newPreferenceService(repo, &allocCoursesStub{})

	_, err := svc.Submit(context.Background(), "inst-1", SubmitPreferenceRequest{
		FormID: "form-1",
		Choices: []SubmitPreferenceEntry{
			{CourseID: "course-1", Rank: 1},
			{CourseID: "course-1", Rank: 2},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPreferenceServiceSetFormOpen(t *testing.T) {
	repo := &preferenceRepoStub{
		forms: map[string]*models.PreferenceForm{"form-1": {ID: "form-1", Open: true}},
	}
	svc := newPreferenceService(repo, &allocCoursesStub{})

	require.NoError(t, svc.SetFormOpen(context.Background(), "form-1", false))
	assert.False(t, repo.toggles["form-1"])

	err := svc.SetFormOpen(context.Background(), "form-ghost", false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
