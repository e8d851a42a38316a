package service

import (
	"context"
	"math/rand"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acadset/course-load-api/internal/dto"
	"github.com/acadset/course-load-api/internal/models"
)

func newSummerAllocator(t *testing.T, courses *allocCoursesStub, instructors *allocInstructorsStub, positions *allocPositionsStub, ledger *ledgerStub, assignments *assignmentsStub) (*SummerAllocatorService, func()) {
	t.Helper()
	db, cleanup := newCommitMock(t)
	svc := NewSummerAllocatorService(courses, instructors, positions, ledger, assignments, db, NewRunLocks(), validator.New(), zap.NewNop(), rand.New(rand.NewSource(1)), AllocatorConfig{})
	return svc, cleanup
}

func TestSummerAllocatorChairPenalty(t *testing.T) {
	courses := &allocCoursesStub{items: map[string]models.Course{
		"course-1": {ID: "course-1", Lecture: 3, Chair: "inst-1", Semester: models.SemesterRegular1},
	}}
	instructors := &allocInstructorsStub{items: map[string]models.Instructor{
		"inst-1": {ID: "inst-1", Position: "Lecturer"},
		"inst-2": {ID: "inst-2", Position: "Lecturer"},
	}}
	positions := &allocPositionsStub{items: map[string]models.Position{
		"Lecturer": {Name: "Lecturer", Exemption: 0},
	}}
	ledger := &ledgerStub{}
	assignments := &assignmentsStub{}
	svc, cleanup := newSummerAllocator(t, courses, instructors, positions, ledger, assignments)
	defer cleanup()

	resp, err := svc.Allocate(context.Background(), dto.SummerAllocationRequest{
		Year:          2026,
		Courses:       []dto.CourseAllocationInput{{CourseID: "course-1"}},
		InstructorIDs: []string{"inst-1", "inst-2"},
	}, "admin-1")
	require.NoError(t, err)

	// Identical loads, but the chair holder carries the penalty.
	require.Len(t, resp.Lines, 1)
	assert.Equal(t, "inst-2", resp.Lines[0].InstructorID)
	assert.Equal(t, models.SemesterSummer, resp.Semester)
	assert.Equal(t, models.ProgramSummer, resp.Program)
}

func TestSummerAllocatorRegularCourseAccruesBenefit(t *testing.T) {
	courses := &allocCoursesStub{items: map[string]models.Course{
		"course-1": {ID: "course-1", Lecture: 3, Semester: models.SemesterRegular1},
	}}
	instructors := &allocInstructorsStub{items: map[string]models.Instructor{
		"inst-1": {ID: "inst-1", Position: "Lecturer"},
		"inst-2": {ID: "inst-2", Position: "Lecturer"},
	}}
	positions := &allocPositionsStub{items: map[string]models.Position{
		"Lecturer": {Name: "Lecturer", Exemption: 0},
	}}
	// inst-1 is deep into overload on regular semesters; inst-2 carries a
	// little extension load but no overload at all.
	ledger := &ledgerStub{entries: map[string][]models.WorkloadEntry{
		"inst-1": {
			{InstructorID: "inst-1", Year: 2026, Semester: models.SemesterRegular1, Program: models.ProgramRegular, Value: 12},
			{InstructorID: "inst-1", Year: 2026, Semester: models.SemesterRegular2, Program: models.ProgramRegular, Value: 8},
		},
		"inst-2": {
			{InstructorID: "inst-2", Year: 2026, Semester: models.SemesterExtension1, Program: models.ProgramExtension, Value: 2},
		},
	}}
	svc, cleanup := newSummerAllocator(t, courses, instructors, positions, ledger, &assignmentsStub{})
	defer cleanup()

	resp, err := svc.Allocate(context.Background(), dto.SummerAllocationRequest{
		Year:          2026,
		Courses:       []dto.CourseAllocationInput{{CourseID: "course-1"}},
		InstructorIDs: []string{"inst-1", "inst-2"},
	}, "admin-1")
	require.NoError(t, err)

	require.Len(t, resp.Lines, 1)
	assert.Equal(t, "inst-2", resp.Lines[0].InstructorID)
}

func TestSummerAllocatorNonRegularCourseIgnoresOverload(t *testing.T) {
	// The course nominally belongs to the summer semester, so overload
	// benefit never accrues and only accumulated extension/summer load
	// separates the candidates.
	courses := &allocCoursesStub{items: map[string]models.Course{
		"course-1": {ID: "course-1", Lecture: 3, Semester: models.SemesterSummer},
	}}
	instructors := &allocInstructorsStub{items: map[string]models.Instructor{
		"inst-1": {ID: "inst-1", Position: "Lecturer"},
		"inst-2": {ID: "inst-2", Position: "Lecturer"},
	}}
	positions := &allocPositionsStub{items: map[string]models.Position{
		"Lecturer": {Name: "Lecturer", Exemption: 0},
	}}
	ledger := &ledgerStub{entries: map[string][]models.WorkloadEntry{
		"inst-1": {{InstructorID: "inst-1", Year: 2026, Semester: models.SemesterRegular1, Program: models.ProgramRegular, Value: 20}},
		"inst-2": {{InstructorID: "inst-2", Year: 2026, Semester: models.SemesterExtension1, Program: models.ProgramExtension, Value: 1}},
	}}
	svc, cleanup := newSummerAllocator(t, courses, instructors, positions, ledger, &assignmentsStub{})
	defer cleanup()

	resp, err := svc.Allocate(context.Background(), dto.SummerAllocationRequest{
		Year:          2026,
		Courses:       []dto.CourseAllocationInput{{CourseID: "course-1"}},
		InstructorIDs: []string{"inst-1", "inst-2"},
	}, "admin-1")
	require.NoError(t, err)

	require.Len(t, resp.Lines, 1)
	assert.Equal(t, "inst-1", resp.Lines[0].InstructorID)
}

func TestSummerAllocatorOnlyWinnerTouchesLedger(t *testing.T) {
	courses := &allocCoursesStub{items: map[string]models.Course{
		"course-1": {ID: "course-1", Lecture: 3, Semester: models.SemesterRegular1},
	}}
	instructors := &allocInstructorsStub{items: map[string]models.Instructor{
		"inst-1": {ID: "inst-1", Position: "Lecturer"},
		"inst-2": {ID: "inst-2", Position: "Lecturer"},
		"inst-3": {ID: "inst-3", Position: "Lecturer"},
	}}
	positions := &allocPositionsStub{items: map[string]models.Position{
		"Lecturer": {Name: "Lecturer", Exemption: 0},
	}}
	ledger := &ledgerStub{entries: map[string][]models.WorkloadEntry{
		"inst-2": {{InstructorID: "inst-2", Year: 2026, Semester: models.SemesterExtension1, Program: models.ProgramExtension, Value: 3}},
		"inst-3": {{InstructorID: "inst-3", Year: 2026, Semester: models.SemesterExtension1, Program: models.ProgramExtension, Value: 5}},
	}}
	svc, cleanup := newSummerAllocator(t, courses, instructors, positions, ledger, &assignmentsStub{})
	defer cleanup()

	_, err := svc.Allocate(context.Background(), dto.SummerAllocationRequest{
		Year:          2026,
		Courses:       []dto.CourseAllocationInput{{CourseID: "course-1"}},
		InstructorIDs: []string{"inst-1", "inst-2", "inst-3"},
	}, "admin-1")
	require.NoError(t, err)

	// Candidate evaluation is a pure trial; losers leave no trace.
	require.Len(t, ledger.writes, 1)
	assert.Equal(t, "inst-1", ledger.writes[0].InstructorID)
	assert.Equal(t, models.SemesterSummer, ledger.writes[0].Semester)
	assert.Equal(t, models.ProgramSummer, ledger.writes[0].Program)
}
