package service

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acadset/course-load-api/internal/dto"
	"github.com/acadset/course-load-api/internal/models"
	appErrors "github.com/acadset/course-load-api/pkg/errors"
)

// ExtensionAllocatorService assigns extension-program courses by minimizing
// each candidate's overload benefit: the compensation the department would
// owe them for carrying the course on top of their regular-semester load.
type ExtensionAllocatorService struct {
	courses     allocCourseReader
	instructors allocInstructorReader
	positions   allocPositionReader
	ledger      ledgerStore
	assignments assignmentStore
	tx          txProvider
	locks       *RunLocks
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         AllocatorConfig
	rngMu       sync.Mutex
	rng         *rand.Rand
}

// NewExtensionAllocatorService wires the extension allocator. A nil rng is
// seeded from the wall clock; tests inject a seeded source for reproducible
// tie-breaks.
func NewExtensionAllocatorService(
	courses allocCourseReader,
	instructors allocInstructorReader,
	positions allocPositionReader,
	ledger ledgerStore,
	assignments assignmentStore,
	tx txProvider,
	locks *RunLocks,
	validate *validator.Validate,
	logger *zap.Logger,
	rng *rand.Rand,
	cfg AllocatorConfig,
) *ExtensionAllocatorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if locks == nil {
		locks = NewRunLocks()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &ExtensionAllocatorService{
		courses:     courses,
		instructors: instructors,
		positions:   positions,
		ledger:      ledger,
		assignments: assignments,
		tx:          tx,
		locks:       locks,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
		rng:         rng,
	}
}

// Allocate runs the extension allocator. Every candidate's benefit is the
// overload compensation on top of their regular-equivalent load plus the
// extension load they already carry this period; the minimum wins, ties are
// resolved uniformly at random. Lines append to an existing record for the
// same period when one exists.
func (s *ExtensionAllocatorService) Allocate(ctx context.Context, req dto.ExtensionAllocationRequest, assignedBy string) (*dto.AllocationResponse, error) {
	if len(req.Courses) == 0 || len(req.InstructorIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrEmptyInput, "courses and instructors are required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid extension allocation payload")
	}

	release := s.locks.Acquire(req.Year, req.Semester, models.ProgramExtension)
	defer release()
	ctx, cancel := context.WithTimeout(ctx, s.cfg.timeout())
	defer cancel()

	courses, instructors, err := loadAllocationPool(ctx, s.courses, s.instructors, req.Courses, req.InstructorIDs)
	if err != nil {
		return nil, err
	}
	exemptions, err := loadExemptions(ctx, s.positions, instructors)
	if err != nil {
		return nil, err
	}

	entries, err := s.ledger.ListByInstructors(ctx, req.InstructorIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workload ledger")
	}
	view := newLedgerView(entries)

	regularEquivalent := regularEquivalentOf(req.Semester)
	lines := make([]models.AssignmentLine, 0, len(req.Courses))
	for _, input := range req.Courses {
		course := courses[input.CourseID]
		workload := OverloadWorkload(course, input.LabDivision)

		var tied []string
		best := 0.0
		for _, id := range req.InstructorIDs {
			expected := ExpectedLoad(exemptions[instructors[id].Position])
			existing := view.get(id, req.Year, regularEquivalent, models.ProgramRegular)
			overload := existing + workload - expected
			benefit := OverloadBenefit(overload) + view.get(id, req.Year, req.Semester, models.ProgramExtension)
			switch {
			case len(tied) == 0 || benefit < best:
				tied = tied[:0]
				tied = append(tied, id)
				best = benefit
			case benefit == best:
				tied = append(tied, id)
			}
		}
		winner := s.pick(tied)

		view.add(winner, req.Year, req.Semester, models.ProgramExtension, workload)
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
		Program:    models.ProgramExtension,
		AssignedBy: assignedBy,
		Lines:      lines,
	}
	appendTo := ""
	existing, err := s.assignments.FindByPeriod(ctx, req.Year, req.Semester, models.ProgramExtension)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up existing record")
	}
	if existing != nil {
		appendTo = existing.ID
	}
	if err := commitAllocation(ctx, s.tx, s.assignments, s.ledger, record, view, appendTo); err != nil {
		return nil, err
	}

	s.logger.Info("extension allocation committed",
		zap.String("assignmentId", record.ID),
		zap.Int("year", req.Year),
		zap.String("semester", req.Semester),
		zap.Bool("appended", appendTo != ""),
		zap.Int("lines", len(lines)))
	message := "extension allocation completed"
	if appendTo != "" {
		message = "extension allocation appended to existing record"
	}
	return allocationResponse(record, message), nil
}

// pick resolves a tie uniformly at random.
func (s *ExtensionAllocatorService) pick(tied []string) string {
	if len(tied) == 1 {
		return tied[0]
	}
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return tied[s.rng.Intn(len(tied))]
}
