package service

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acadset/course-load-api/internal/dto"
	"github.com/acadset/course-load-api/internal/models"
	appErrors "github.com/acadset/course-load-api/pkg/errors"
)

// SummerAllocatorService assigns summer-program courses. It scores every
// course/instructor pair over the instructor's full history: regular load,
// accumulated extension and summer load, and position exemption, then picks
// the cheapest candidate per course. Benefit only accrues for courses whose
// nominal semester is a regular one; a chair penalty discourages assigning a
// course to its own chair holder.
type SummerAllocatorService struct {
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

const chairPenalty = 2.0

// NewSummerAllocatorService wires the summer allocator. A nil rng is seeded
// from the wall clock.
func NewSummerAllocatorService(
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
) *SummerAllocatorService {
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
	return &SummerAllocatorService{
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

// Allocate runs the summer allocator. Candidate evaluation is a pure trial;
// only the winning instructor's ledger entry is touched, inside the commit
// transaction.
func (s *SummerAllocatorService) Allocate(ctx context.Context, req dto.SummerAllocationRequest, assignedBy string) (*dto.AllocationResponse, error) {
	if len(req.Courses) == 0 || len(req.InstructorIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrEmptyInput, "courses and instructors are required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid summer allocation payload")
	}

	release := s.locks.Acquire(req.Year, models.SemesterSummer, models.ProgramSummer)
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

	lines := make([]models.AssignmentLine, 0, len(req.Courses))
	for _, input := range req.Courses {
		course := courses[input.CourseID]
		workload := OverloadWorkload(course, input.LabDivision)
		regularCourse := course.Semester == models.SemesterRegular1 || course.Semester == models.SemesterRegular2

		var tied []string
		best := 0.0
		for _, id := range req.InstructorIDs {
			expected := ExpectedLoad(exemptions[instructors[id].Position])
			regularLoad := view.sumSemesters(id, models.SemesterRegular1, models.SemesterRegular2)
			extensionLoad := view.sumSemesters(id, models.SemesterExtension1, models.SemesterExtension2, models.SemesterSummer)
			summerLoad := view.get(id, req.Year, models.SemesterSummer, models.ProgramSummer)

			overload := regularLoad + summerLoad + workload - expected
			benefit := 0.0
			if regularCourse {
				benefit = OverloadBenefit(overload)
			}
			total := benefit + extensionLoad
			if course.Chair == id {
				total += chairPenalty
			}
			switch {
			case len(tied) == 0 || total < best:
				tied = tied[:0]
				tied = append(tied, id)
				best = total
			case total == best:
				tied = append(tied, id)
			}
		}
		winner := s.pick(tied)

		view.add(winner, req.Year, models.SemesterSummer, models.ProgramSummer, workload)
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
		Semester:   models.SemesterSummer,
		Program:    models.ProgramSummer,
		AssignedBy: assignedBy,
		Lines:      lines,
	}
	if err := commitAllocation(ctx, s.tx, s.assignments, s.ledger, record, view, ""); err != nil {
		return nil, err
	}

	s.logger.Info("summer allocation committed",
		zap.String("assignmentId", record.ID),
		zap.Int("year", req.Year),
		zap.Int("lines", len(lines)))
	return allocationResponse(record, "summer allocation completed"), nil
}

func (s *SummerAllocatorService) pick(tied []string) string {
	if len(tied) == 1 {
		return tied[0]
	}
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return tied[s.rng.Intn(len(tied))]
}
