package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acadset/course-load-api/internal/dto"
	"github.com/acadset/course-load-api/internal/models"
	appErrors "github.com/acadset/course-load-api/pkg/errors"
)

func newRegularAllocator(t *testing.T, courses *allocCoursesStub, instructors *allocInstructorsStub, ledger *ledgerStub, assignments *assignmentsStub) (*RegularAllocatorService, func()) {
	t.Helper()
	db, cleanup := newCommitMock(t)
	svc := NewRegularAllocatorService(courses, instructors, ledger, assignments, db, NewRunLocks(), validator.New(), zap.NewNop(), AllocatorConfig{})
	return svc, cleanup
}

func TestRegularAllocatorManual(t *testing.T) {
	courses := &allocCoursesStub{items: map[string]models.Course{
		"course-1": {ID: "course-1", Lecture: 3, Lab: 3},
		"course-2": {ID: "course-2", Lecture: 2, Lab: 1, Tutorial: 1},
	}}
	instructors := &allocInstructorsStub{items: map[string]models.Instructor{
		"inst-1": {ID: "inst-1"},
		"inst-2": {ID: "inst-2"},
	}}
	ledger := &ledgerStub{}
	assignments := &assignmentsStub{}
	svc, cleanup := newRegularAllocator(t, courses, instructors, ledger, assignments)
	defer cleanup()

	resp, err := svc.AllocateManual(context.Background(), dto.ManualAllocationRequest{
		Year:     2026,
		Semester: models.SemesterRegular1,
		Program:  models.ProgramRegular,
		Assignments: []dto.ManualAssignmentInput{
			{InstructorID: "inst-1", CourseID: "course-1", Section: "A", NoOfSections: 2, LabDivision: true},
			{InstructorID: "inst-2", CourseID: "course-2"},
		},
	}, "admin-1")
	require.NoError(t, err)

	require.Len(t, resp.Lines, 2)
	assert.Equal(t, "record-1", resp.AssignmentID)
	assert.InDelta(t, 7.0, resp.Lines[0].Workload, 1e-9)
	assert.Equal(t, 2, resp.Lines[0].NoOfSections)
	assert.InDelta(t, 3.33, resp.Lines[1].Workload, 1e-9)
	// Omitted section count defaults to one.
	assert.Equal(t, 1, resp.Lines[1].NoOfSections)

	require.Len(t, assignments.created, 1)
	assert.Equal(t, "admin-1", assignments.created[0].AssignedBy)
	require.Len(t, ledger.writes, 2)
	assert.Equal(t, models.ProgramRegular, ledger.writes[0].Program)
	assert.InDelta(t, 7.0, ledger.writes[0].Delta, 1e-9)
}

func TestRegularAllocatorManualEmptyBatch(t *testing.T) {
	svc, cleanup := newRegularAllocator(t, &allocCoursesStub{}, &allocInstructorsStub{}, &ledgerStub{}, &assignmentsStub{})
	defer cleanup()

	_, err := svc.AllocateManual(context.Background(), dto.ManualAllocationRequest{
		Year:     2026,
		Semester: models.SemesterRegular1,
		Program:  models.ProgramRegular,
	}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrEmptyInput.Code, appErrors.FromError(err).Code)
}

func TestRegularAllocatorManualRejectsWholeBatch(t *testing.T) {
	courses := &allocCoursesStub{items: map[string]models.Course{
		"course-1": {ID: "course-1", Lecture: 3},
	}}
	instructors := &allocInstructorsStub{items: map[string]models.Instructor{
		"inst-1": {ID: "inst-1"},
	}}
	ledger := &ledgerStub{}
	assignments := &assignmentsStub{}
	svc, cleanup := newRegularAllocator(t, courses, instructors, ledger, assignments)
	defer cleanup()

	_, err := svc.AllocateManual(context.Background(), dto.ManualAllocationRequest{
		Year:     2026,
		Semester: models.SemesterRegular1,
		Program:  models.ProgramRegular,
		Assignments: []dto.ManualAssignmentInput{
			{InstructorID: "inst-1", CourseID: "course-1"},
			{InstructorID: "inst-ghost", CourseID: "course-1"},
		},
	}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	// One bad id means nothing is written, not even the valid pairing.
	assert.Empty(t, assignments.created)
	assert.Empty(t, ledger.writes)
}

func TestRegularAllocatorCommonPrefersLocation(t *testing.T) {
	courses := &allocCoursesStub{items: map[string]models.Course{
		"course-1": {ID: "course-1", Lecture: 3, Location: "north"},
	}}
	instructors := &allocInstructorsStub{items: map[string]models.Instructor{
		"inst-1": {ID: "inst-1", Location: "south"},
		"inst-2": {ID: "inst-2", Location: "north"},
	}}
	ledger := &ledgerStub{}
	assignments := &assignmentsStub{}
	svc, cleanup := newRegularAllocator(t, courses, instructors, ledger, assignments)
	defer cleanup()

	resp, err := svc.AllocateCommon(context.Background(), dto.AutoAllocationRequest{
		Year:          2026,
		Semester:      models.SemesterRegular1,
		Courses:       []dto.CourseAllocationInput{{CourseID: "course-1"}},
		InstructorIDs: []string{"inst-1", "inst-2"},
	}, "admin-1")
	require.NoError(t, err)

	require.Len(t, resp.Lines, 1)
	assert.Equal(t, "inst-2", resp.Lines[0].InstructorID)
	assert.Equal(t, models.ProgramRegular, resp.Program)
}

func TestRegularAllocatorCommonPicksLeastLoaded(t *testing.T) {
	courses := &allocCoursesStub{items: map[string]models.Course{
		"course-1": {ID: "course-1", Lecture: 3},
		"course-2": {ID: "course-2", Lecture: 3},
	}}
	instructors := &allocInstructorsStub{items: map[string]models.Instructor{
		"inst-1": {ID: "inst-1"},
		"inst-2": {ID: "inst-2"},
	}}
	ledger := &ledgerStub{entries: map[string][]models.WorkloadEntry{
		"inst-1": {{InstructorID: "inst-1", Year: 2026, Semester: models.SemesterRegular1, Program: models.ProgramRegular, Value: 9}},
	}}
	assignments := &assignmentsStub{}
	svc, cleanup := newRegularAllocator(t, courses, instructors, ledger, assignments)
	defer cleanup()

	resp, err := svc.AllocateCommon(context.Background(), dto.AutoAllocationRequest{
		Year:          2026,
		Semester:      models.SemesterRegular1,
		Courses:       []dto.CourseAllocationInput{{CourseID: "course-1"}, {CourseID: "course-2"}},
		InstructorIDs: []string{"inst-1", "inst-2"},
	}, "admin-1")
	require.NoError(t, err)

	require.Len(t, resp.Lines, 2)
	// inst-2 starts empty, takes the first course, then still trails inst-1's
	// nine hours and takes the second too.
	assert.Equal(t, "inst-2", resp.Lines[0].InstructorID)
	assert.Equal(t, "inst-2", resp.Lines[1].InstructorID)
}

func TestRegularAllocatorCommonTieGoesToPoolOrder(t *testing.T) {
	courses := &allocCoursesStub{items: map[string]models.Course{
		"course-1": {ID: "course-1", Lecture: 3},
	}}
	instructors := &allocInstructorsStub{items: map[string]models.Instructor{
		"inst-1": {ID: "inst-1"},
		"inst-2": {ID: "inst-2"},
	}}
	svc, cleanup := newRegularAllocator(t, courses, instructors, &ledgerStub{}, &assignmentsStub{})
	defer cleanup()

	resp, err := svc.AllocateCommon(context.Background(), dto.AutoAllocationRequest{
		Year:          2026,
		Semester:      models.SemesterRegular1,
		Courses:       []dto.CourseAllocationInput{{CourseID: "course-1"}},
		InstructorIDs: []string{"inst-2", "inst-1"},
	}, "admin-1")
	require.NoError(t, err)

	require.Len(t, resp.Lines, 1)
	assert.Equal(t, "inst-2", resp.Lines[0].InstructorID)
}
