package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acadset/course-load-api/internal/dto"
	"github.com/acadset/course-load-api/internal/models"
	appErrors "github.com/acadset/course-load-api/pkg/errors"
)

// RegularAllocatorService covers the two regular-program allocation modes:
// manual pairings supplied by the caller, and automatic common-course
// assignment to the least-loaded location-matched instructor.
type RegularAllocatorService struct {
	courses     allocCourseReader
	instructors allocInstructorReader
	ledger      ledgerStore
	assignments assignmentStore
	tx          txProvider
	locks       *RunLocks
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         AllocatorConfig
}

// NewRegularAllocatorService wires the regular allocator.
func NewRegularAllocatorService(
	courses allocCourseReader,
	instructors allocInstructorReader,
	ledger ledgerStore,
	assignments assignmentStore,
	tx txProvider,
	locks *RunLocks,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg AllocatorConfig,
) *RegularAllocatorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if locks == nil {
		locks = NewRunLocks()
	}
	return &RegularAllocatorService{
		courses:     courses,
		instructors: instructors,
		ledger:      ledger,
		assignments: assignments,
		tx:          tx,
		locks:       locks,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
	}
}

// AllocateManual assigns the caller's explicit course/instructor pairings.
// The whole batch is validated before anything is written; the ledger deltas
// and the record commit in one transaction, so a bad id rejects the entire
// run instead of leaving it half applied.
func (s *RegularAllocatorService) AllocateManual(ctx context.Context, req dto.ManualAllocationRequest, assignedBy string) (*dto.AllocationResponse, error) {
	if len(req.Assignments) == 0 {
		return nil, appErrors.Clone(appErrors.ErrEmptyInput, "no assignments supplied")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid manual allocation payload")
	}

	release := s.locks.Acquire(req.Year, req.Semester, req.Program)
	defer release()
	ctx, cancel := context.WithTimeout(ctx, s.cfg.timeout())
	defer cancel()

	courseIDs := make([]string, 0, len(req.Assignments))
	instructorIDs := make([]string, 0, len(req.Assignments))
	for _, input := range req.Assignments {
		courseIDs = append(courseIDs, input.CourseID)
		instructorIDs = append(instructorIDs, input.InstructorID)
	}

	courses, err := s.courses.FindByIDs(ctx, courseIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	instructors, err := s.instructors.FindByIDs(ctx, instructorIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructors")
	}
	for _, input := range req.Assignments {
		if _, ok := courses[input.CourseID]; !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s not found", input.CourseID))
		}
		if _, ok := instructors[input.InstructorID]; !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("instructor %s not found", input.InstructorID))
		}
	}

	view := newLedgerView(nil)
	lines := make([]models.AssignmentLine, 0, len(req.Assignments))
	for _, input := range req.Assignments {
		course := courses[input.CourseID]
		sections := input.NoOfSections
		if sections <= 0 {
			sections = 1
		}
		workload := ManualWorkload(course, input.LabDivision)
		view.add(input.InstructorID, req.Year, req.Semester, req.Program, workload)
		lines = append(lines, models.AssignmentLine{
			InstructorID: input.InstructorID,
			CourseID:     input.CourseID,
			Section:      input.Section,
			NoOfSections: sections,
			LabDivision:  input.LabDivision,
			Workload:     workload,
		})
	}

	record := &models.Assignment{
		Year:       req.Year,
		Semester:   req.Semester,
		Program:    req.Program,
		AssignedBy: assignedBy,
		Lines:      lines,
	}
	if err := commitAllocation(ctx, s.tx, s.assignments, s.ledger, record, view, ""); err != nil {
		return nil, err
	}

	s.logger.Info("manual allocation committed",
		zap.String("assignmentId", record.ID),
		zap.Int("year", req.Year),
		zap.String("semester", req.Semester),
		zap.Int("lines", len(lines)))
	return allocationResponse(record, "manual allocation completed"), nil
}

// AllocateCommon auto-assigns each course to the least-loaded instructor in
// the candidate pool. An instructor located where the course runs gets a -1
// priority, everyone else +1; the pool is ranked ascending by current
// regular-semester load plus priority, ties resolved by pool order. Program
// is fixed to Regular.
func (s *RegularAllocatorService) AllocateCommon(ctx context.Context, req dto.AutoAllocationRequest, assignedBy string) (*dto.AllocationResponse, error) {
	if len(req.Courses) == 0 || len(req.InstructorIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrEmptyInput, "courses and instructors are required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid automatic allocation payload")
	}

	release := s.locks.Acquire(req.Year, req.Semester, models.ProgramRegular)
	defer release()
	ctx, cancel := context.WithTimeout(ctx, s.cfg.timeout())
	defer cancel()

	courseIDs := make([]string, 0, len(req.Courses))
	for _, input := range req.Courses {
		courseIDs = append(courseIDs, input.CourseID)
	}
	courses, err := s.courses.FindByIDs(ctx, courseIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	instructors, err := s.instructors.FindByIDs(ctx, req.InstructorIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructors")
	}
	for _, input := range req.Courses {
		if _, ok := courses[input.CourseID]; !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s not found", input.CourseID))
		}
	}
	for _, id := range req.InstructorIDs {
		if _, ok := instructors[id]; !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("instructor %s not found", id))
		}
	}

	entries, err := s.ledger.ListByInstructors(ctx, req.InstructorIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workload ledger")
	}
	view := newLedgerView(entries)

	lines := make([]models.AssignmentLine, 0, len(req.Courses))
	for _, input := range req.Courses {
		course := courses[input.CourseID]

		winner := ""
		best := 0.0
		for _, id := range req.InstructorIDs {
			priority := 1.0
			if instructors[id].Location == course.Location {
				priority = -1.0
			}
			rank := view.get(id, req.Year, req.Semester, models.ProgramRegular) + priority
			if winner == "" || rank < best {
				winner = id
				best = rank
			}
		}

		workload := ManualWorkload(course, input.LabDivision)
		view.add(winner, req.Year, req.Semester, models.ProgramRegular, workload)
		lines = append(lines, models.AssignmentLine{
			InstructorID: winner,
			CourseID:     input.CourseID,
			Section:      "",
			NoOfSections: 1,
			LabDivision:  input.LabDivision,
			Workload:     workload,
		})
	}

	record := &models.Assignment{
		Year:       req.Year,
		Semester:   req.Semester,
		Program:    models.ProgramRegular,
		AssignedBy: assignedBy,
		Lines:      lines,
	}
	if err := commitAllocation(ctx, s.tx, s.assignments, s.ledger, record, view, ""); err != nil {
		return nil, err
	}

	s.logger.Info("common-course allocation committed",
		zap.String("assignmentId", record.ID),
		zap.Int("year", req.Year),
		zap.String("semester", req.Semester),
		zap.Int("lines", len(lines)))
	return allocationResponse(record, "automatic allocation completed"), nil
}

func allocationResponse(record *models.Assignment, message string) *dto.AllocationResponse {
	return &dto.AllocationResponse{
		AssignmentID: record.ID,
		Year:         record.Year,
		Semester:     record.Semester,
		Program:      record.Program,
		Lines:        record.Lines,
		Message:      message,
	}
}
