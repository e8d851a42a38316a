package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/acadset/course-load-api/internal/dto"
	"github.com/acadset/course-load-api/internal/models"
	appErrors "github.com/acadset/course-load-api/pkg/errors"
)

// Shared consumer interfaces for the four allocator services.

type allocCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.Course, error)
}

type allocInstructorReader interface {
	FindByIDs(ctx context.Context, ids []string) (map[string]models.Instructor, error)
}

type allocPositionReader interface {
	FindByName(ctx context.Context, name string) (*models.Position, error)
}

type ledgerStore interface {
	ListByInstructors(ctx context.Context, instructorIDs []string) (map[string][]models.WorkloadEntry, error)
	UpsertAdd(ctx context.Context, exec sqlx.ExtContext, instructorID string, year int, semester, program string, delta float64) error
}

type assignmentStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, assignment *models.Assignment) error
	AppendLines(ctx context.Context, exec sqlx.ExtContext, assignmentID string, lines []models.AssignmentLine) error
	FindByPeriod(ctx context.Context, year int, semester, program string) (*models.Assignment, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// AllocatorConfig bounds allocator runs.
type AllocatorConfig struct {
	RunTimeout time.Duration
}

func (c AllocatorConfig) timeout() time.Duration {
	if c.RunTimeout <= 0 {
		return 30 * time.Second
	}
	return c.RunTimeout
}

// RunLocks serializes allocator runs touching the same period. Two runs for
// the same (year, semester, program) would otherwise interleave their
// read-compute-write cycles on the ledger and lose updates.
type RunLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRunLocks constructs the lock table shared by all allocators.
func NewRunLocks() *RunLocks {
	return &RunLocks{locks: make(map[string]*sync.Mutex)}
}

// Acquire locks the period key and returns the release function.
func (l *RunLocks) Acquire(year int, semester, program string) func() {
	key := periodKey{Year: year, Semester: semester, Program: program}.String()
	l.mu.Lock()
	lock, ok := l.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[key] = lock
	}
	l.mu.Unlock()
	lock.Lock()
	return lock.Unlock
}

type periodKey struct {
	Year     int
	Semester string
	Program  string
}

func (k periodKey) String() string {
	return k.Semester + "|" + k.Program + "|" + strconv.Itoa(k.Year)
}

// regularEquivalentOf maps an extension semester onto the regular semester
// whose load it stacks on top of.
func regularEquivalentOf(semester string) string {
	switch semester {
	case models.SemesterExtension1:
		return models.SemesterRegular1
	case models.SemesterExtension2:
		return models.SemesterRegular2
	default:
		return semester
	}
}

type ledgerDelta struct {
	InstructorID string
	Key          periodKey
	Value        float64
}

// ledgerView is the in-run picture of the workload ledger. Allocators read
// accumulated values through it, record deltas as they pick winners, and
// flush every delta through the store inside the commit transaction. Keeping
// reads and writes on one view means later courses in a run see the load
// recorded for earlier ones.
type ledgerView struct {
	values map[string]map[periodKey]float64
	deltas []ledgerDelta
}

func newLedgerView(entries map[string][]models.WorkloadEntry) *ledgerView {
	values := make(map[string]map[periodKey]float64, len(entries))
	for instructorID, rows := range entries {
		byKey := make(map[periodKey]float64, len(rows))
		for _, row := range rows {
			byKey[periodKey{Year: row.Year, Semester: row.Semester, Program: row.Program}] = row.Value
		}
		values[instructorID] = byKey
	}
	return &ledgerView{values: values}
}

// get returns the accumulated value for the exact period key, zero when the
// entry does not exist yet.
func (v *ledgerView) get(instructorID string, year int, semester, program string) float64 {
	return v.values[instructorID][periodKey{Year: year, Semester: semester, Program: program}]
}

// sumSemesters totals an instructor's values across semester labels, any
// year and program.
func (v *ledgerView) sumSemesters(instructorID string, semesters ...string) float64 {
	match := make(map[string]struct{}, len(semesters))
	for _, semester := range semesters {
		match[semester] = struct{}{}
	}
	var total float64
	for key, value := range v.values[instructorID] {
		if _, ok := match[key.Semester]; ok {
			total += value
		}
	}
	return total
}

// add accumulates a delta into the view and queues it for the flush.
func (v *ledgerView) add(instructorID string, year int, semester, program string, delta float64) {
	key := periodKey{Year: year, Semester: semester, Program: program}
	if v.values[instructorID] == nil {
		v.values[instructorID] = make(map[periodKey]float64)
	}
	v.values[instructorID][key] += delta
	v.deltas = append(v.deltas, ledgerDelta{InstructorID: instructorID, Key: key, Value: delta})
}

// flush applies the queued deltas through the store, normally inside the
// transaction that also writes the assignment record.
func (v *ledgerView) flush(ctx context.Context, store ledgerStore, exec sqlx.ExtContext) error {
	for _, delta := range v.deltas {
		if err := store.UpsertAdd(ctx, exec, delta.InstructorID, delta.Key.Year, delta.Key.Semester, delta.Key.Program, delta.Value); err != nil {
			return err
		}
	}
	v.deltas = nil
	return nil
}

// loadAllocationPool resolves course and instructor pools, rejecting the run
// on the first unknown id.
func loadAllocationPool(ctx context.Context, courseReader allocCourseReader, instructorReader allocInstructorReader, courseInputs []dto.CourseAllocationInput, instructorIDs []string) (map[string]models.Course, map[string]models.Instructor, error) {
	courseIDs := make([]string, 0, len(courseInputs))
	for _, input := range courseInputs {
		courseIDs = append(courseIDs, input.CourseID)
	}
	courses, err := courseReader.FindByIDs(ctx, courseIDs)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	instructors, err := instructorReader.FindByIDs(ctx, instructorIDs)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructors")
	}
	for _, input := range courseInputs {
		if _, ok := courses[input.CourseID]; !ok {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s not found", input.CourseID))
		}
	}
	for _, id := range instructorIDs {
		if _, ok := instructors[id]; !ok {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("instructor %s not found", id))
		}
	}
	return courses, instructors, nil
}

// loadExemptions resolves each distinct position name to its exemption.
// Instructors whose position has no record teach at the full standard load.
func loadExemptions(ctx context.Context, positions allocPositionReader, instructors map[string]models.Instructor) (map[string]float64, error) {
	exemptions := make(map[string]float64)
	for _, instructor := range instructors {
		if _, ok := exemptions[instructor.Position]; ok {
			continue
		}
		position, err := positions.FindByName(ctx, instructor.Position)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				exemptions[instructor.Position] = 0
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load positions")
		}
		exemptions[instructor.Position] = position.Exemption
	}
	return exemptions, nil
}

// commitAllocation writes the record and flushes the ledger deltas in one
// transaction. When appendTo is set the lines join an existing record instead
// of creating a new one.
func commitAllocation(ctx context.Context, txp txProvider, assignments assignmentStore, ledger ledgerStore, record *models.Assignment, view *ledgerView, appendTo string) error {
	tx, err := txp.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin allocation transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if appendTo != "" {
		record.ID = appendTo
		err = assignments.AppendLines(ctx, tx, appendTo, record.Lines)
	} else {
		err = assignments.Create(ctx, tx, record)
	}
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store assignment record")
	}
	if err = view.flush(ctx, ledger, tx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update workload ledger")
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit allocation")
	}
	return nil
}
