package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acadset/course-load-api/internal/dto"
	"github.com/acadset/course-load-api/internal/models"
	appErrors "github.com/acadset/course-load-api/pkg/errors"
)

type prefSubmissionReader interface {
	FindFormByID(ctx context.Context, id string) (*models.PreferenceForm, error)
	ListFormCourses(ctx context.Context, formID string) ([]string, error)
	ListByForm(ctx context.Context, formID string) ([]models.Preference, error)
}

type weightConfigReader interface {
	GetByKind(ctx context.Context, kind models.WeightKind) (*models.WeightConfig, error)
}

type experienceCounter interface {
	CountCourseExperience(ctx context.Context, instructorID, courseID string) (int, error)
}

// PreferenceAllocatorService assigns a preference form's courses to the
// instructors who ranked them, scoring each candidate by rank weight plus
// course-experience weight.
type PreferenceAllocatorService struct {
	forms       prefSubmissionReader
	weights     weightConfigReader
	experience  experienceCounter
	courses     allocCourseReader
	ledger      ledgerStore
	assignments assignmentStore
	tx          txProvider
	locks       *RunLocks
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         AllocatorConfig
}

// NewPreferenceAllocatorService wires the preference-score allocator.
func NewPreferenceAllocatorService(
	forms prefSubmissionReader,
	weights weightConfigReader,
	experience experienceCounter,
	courses allocCourseReader,
	ledger ledgerStore,
	assignments assignmentStore,
	tx txProvider,
	locks *RunLocks,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg AllocatorConfig,
) *PreferenceAllocatorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if locks == nil {
		locks = NewRunLocks()
	}
	return &PreferenceAllocatorService{
		forms:       forms,
		weights:     weights,
		experience:  experience,
		courses:     courses,
		ledger:      ledger,
		assignments: assignments,
		tx:          tx,
		locks:       locks,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
	}
}

type prefCandidate struct {
	InstructorID    string
	Score           float64
	Rank            int
	ExperienceYears int
	SubmittedAt     time.Time
}

// Allocate runs the score-based allocator over one form. Two passes: a
// greedy pass that gives each instructor at most one course, then a fallback
// pass that force-assigns any leftover course to its top-scoring candidate
// even when that instructor already won another course.
func (s *PreferenceAllocatorService) Allocate(ctx context.Context, req dto.PreferenceAllocationRequest, assignedBy string) (*dto.AllocationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preference allocation payload")
	}

	form, err := s.forms.FindFormByID(ctx, req.FormID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("preference form %s not found", req.FormID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load preference form")
	}

	release := s.locks.Acquire(form.Year, form.Semester, models.ProgramRegular)
	defer release()
	ctx, cancel := context.WithTimeout(ctx, s.cfg.timeout())
	defer cancel()

	courseIDs, err := s.forms.ListFormCourses(ctx, req.FormID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load form courses")
	}
	if len(courseIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrEmptyInput, "preference form has no courses")
	}
	submissions, err := s.forms.ListByForm(ctx, req.FormID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load preference submissions")
	}
	if len(submissions) == 0 {
		return nil, appErrors.Clone(appErrors.ErrEmptyInput, "preference form has no submissions")
	}

	rankTable, err := s.weightTable(ctx, models.WeightKindPreferenceRank)
	if err != nil {
		return nil, err
	}
	yearsTable, err := s.weightTable(ctx, models.WeightKindExperienceYears)
	if err != nil {
		return nil, err
	}

	candidates, err := s.scoreCandidates(ctx, courseIDs, submissions, rankTable, yearsTable)
	if err != nil {
		return nil, err
	}

	courses, err := s.courses.FindByIDs(ctx, courseIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	for _, id := range courseIDs {
		if _, ok := courses[id]; !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s not found", id))
		}
	}

	view := newLedgerView(nil)
	assigned := make(map[string]bool)
	winners := make(map[string]prefCandidate, len(courseIDs))
	fallbacks := 0

	// Greedy pass: one course per instructor.
	for _, courseID := range courseIDs {
		for _, candidate := range candidates[courseID] {
			if assigned[candidate.InstructorID] {
				continue
			}
			assigned[candidate.InstructorID] = true
			winners[courseID] = candidate
			break
		}
	}
	// Fallback pass: leftover courses go to their top candidate regardless of
	// the one-course constraint.
	for _, courseID := range courseIDs {
		if _, done := winners[courseID]; done {
			continue
		}
		if len(candidates[courseID]) == 0 {
			continue
		}
		winners[courseID] = candidates[courseID][0]
		fallbacks++
	}

	lines := make([]models.AssignmentLine, 0, len(winners))
	for _, courseID := range courseIDs {
		candidate, ok := winners[courseID]
		if !ok {
			continue
		}
		workload := ManualWorkload(courses[courseID], false)
		view.add(candidate.InstructorID, form.Year, form.Semester, models.ProgramRegular, workload)
		score := candidate.Score
		rank := candidate.Rank
		years := candidate.ExperienceYears
		lines = append(lines, models.AssignmentLine{
			InstructorID:    candidate.InstructorID,
			CourseID:        courseID,
			Section:         "",
			NoOfSections:    1,
			LabDivision:     false,
			Workload:        workload,
			Score:           &score,
			PreferenceRank:  &rank,
			ExperienceYears: &years,
		})
	}
	if len(lines) == 0 {
		return nil, appErrors.Clone(appErrors.ErrEmptyInput, "no submission ranked any course on this form")
	}

	record := &models.Assignment{
		Year:       form.Year,
		Semester:   form.Semester,
		Program:    models.ProgramRegular,
		AssignedBy: assignedBy,
		Lines:      lines,
	}
	if err := commitAllocation(ctx, s.tx, s.assignments, s.ledger, record, view, ""); err != nil {
		return nil, err
	}

	s.logger.Info("preference allocation committed",
		zap.String("assignmentId", record.ID),
		zap.String("formId", req.FormID),
		zap.Int("lines", len(lines)),
		zap.Int("fallbacks", fallbacks))
	message := "preference allocation completed"
	if fallbacks > 0 {
		message = fmt.Sprintf("preference allocation completed, %d course(s) assigned through fallback", fallbacks)
	}
	return allocationResponse(record, message), nil
}

// weightTable loads a configured table, or an empty one when the kind has
// never been configured; every lookup then scores zero.
func (s *PreferenceAllocatorService) weightTable(ctx context.Context, kind models.WeightKind) ([]models.WeightEntry, error) {
	cfg, err := s.weights.GetByKind(ctx, kind)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load weight configuration")
	}
	return GenerateWeightTable(*cfg), nil
}

// scoreCandidates builds per-course candidate lists from the submissions,
// sorted by descending score with earlier submissions winning ties.
func (s *PreferenceAllocatorService) scoreCandidates(ctx context.Context, courseIDs []string, submissions []models.Preference, rankTable, yearsTable []models.WeightEntry) (map[string][]prefCandidate, error) {
	allowed := make(map[string]bool, len(courseIDs))
	for _, id := range courseIDs {
		allowed[id] = true
	}

	candidates := make(map[string][]prefCandidate)
	for _, submission := range submissions {
		for _, choice := range submission.Choices {
			if !allowed[choice.CourseID] {
				continue
			}
			years, err := s.experience.CountCourseExperience(ctx, submission.InstructorID, choice.CourseID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count course experience")
			}
			candidates[choice.CourseID] = append(candidates[choice.CourseID], prefCandidate{
				InstructorID:    submission.InstructorID,
				Score:           weightFor(rankTable, choice.Rank) + weightFor(yearsTable, years),
				Rank:            choice.Rank,
				ExperienceYears: years,
				SubmittedAt:     submission.SubmittedAt,
			})
		}
	}
	// Submissions arrive ordered by submittedAt, so a stable sort keeps the
	// earliest submitter first within a score tie.
	for courseID := range candidates {
		list := candidates[courseID]
		sort.SliceStable(list, func(i, j int) bool { return list[i].Score > list[j].Score })
	}
	return candidates, nil
}
