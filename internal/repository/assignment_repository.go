package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadset/course-load-api/internal/models"
)

// AssignmentRepository persists allocator run records and their lines.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Create inserts a run record together with its lines. Allocators pass the
// transaction that also carries their ledger deltas.
func (r *AssignmentRepository) Create(ctx context.Context, exec sqlx.ExtContext, assignment *models.Assignment) error {
	if exec == nil {
		exec = r.db
	}
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now

	const query = `INSERT INTO assignments (id, year, semester, program, assigned_by, created_at, updated_at)
		VALUES (:id, :year, :semester, :program, :assigned_by, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return r.AppendLines(ctx, exec, assignment.ID, assignment.Lines)
}

// AppendLines attaches lines to an existing record.
func (r *AssignmentRepository) AppendLines(ctx context.Context, exec sqlx.ExtContext, assignmentID string, lines []models.AssignmentLine) error {
	if exec == nil {
		exec = r.db
	}
	const query = `INSERT INTO assignment_lines (id, assignment_id, instructor_id, course_id, section, no_of_sections,
		lab_division, workload, score, preference_rank, experience_years, created_at)
		VALUES (:id, :assignment_id, :instructor_id, :course_id, :section, :no_of_sections,
		:lab_division, :workload, :score, :preference_rank, :experience_years, :created_at)`
	for i := range lines {
		if lines[i].ID == "" {
			lines[i].ID = uuid.NewString()
		}
		lines[i].AssignmentID = assignmentID
		if lines[i].CreatedAt.IsZero() {
			lines[i].CreatedAt = time.Now().UTC()
		}
		if _, err := sqlx.NamedExecContext(ctx, exec, query, lines[i]); err != nil {
			return fmt.Errorf("create assignment line: %w", err)
		}
	}
	return nil
}

// FindByPeriod returns the record for an exact period key, or sql.ErrNoRows.
// Extension runs merge-append into an existing record through this lookup.
func (r *AssignmentRepository) FindByPeriod(ctx context.Context, year int, semester, program string) (*models.Assignment, error) {
	const query = `SELECT * FROM assignments WHERE year = $1 AND semester = $2 AND program = $3 LIMIT 1`
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, year, semester, program); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// FindByID returns a record with its lines attached.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	const query = `SELECT * FROM assignments WHERE id = $1`
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	const lineQuery = `SELECT * FROM assignment_lines WHERE assignment_id = $1 ORDER BY created_at ASC`
	if err := r.db.SelectContext(ctx, &assignment.Lines, lineQuery, id); err != nil {
		return nil, fmt.Errorf("list assignment lines: %w", err)
	}
	return &assignment, nil
}

// List returns records matching the optional period filters, newest first.
func (r *AssignmentRepository) List(ctx context.Context, year int, semester, program string) ([]models.Assignment, error) {
	where := "WHERE 1=1"
	args := map[string]interface{}{}
	if year > 0 {
		where += " AND year = :year"
		args["year"] = year
	}
	if semester != "" {
		where += " AND semester = :semester"
		args["semester"] = semester
	}
	if program != "" {
		where += " AND program = :program"
		args["program"] = program
	}
	query := "SELECT * FROM assignments " + where + " ORDER BY created_at DESC"
	rows, err := r.db.NamedQueryContext(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []models.Assignment
	for rows.Next() {
		var assignment models.Assignment
		if err := rows.StructScan(&assignment); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments = append(assignments, assignment)
	}
	return assignments, nil
}

// ListLineDetails joins course and instructor names onto a record's lines.
func (r *AssignmentRepository) ListLineDetails(ctx context.Context, assignmentID string) ([]models.AssignmentLineDetail, error) {
	const query = `
SELECT al.*, c.code AS course_code, c.title AS course_title, i.full_name AS instructor_name
FROM assignment_lines al
JOIN courses c ON c.id = al.course_id
JOIN instructors i ON i.id = al.instructor_id
WHERE al.assignment_id = $1
ORDER BY c.code ASC`
	var details []models.AssignmentLineDetail
	if err := r.db.SelectContext(ctx, &details, query, assignmentID); err != nil {
		return nil, fmt.Errorf("list assignment line details: %w", err)
	}
	return details, nil
}

// FindLine returns a single line verifying record ownership.
func (r *AssignmentRepository) FindLine(ctx context.Context, assignmentID, lineID string) (*models.AssignmentLine, error) {
	const query = `SELECT * FROM assignment_lines WHERE id = $1 AND assignment_id = $2`
	var line models.AssignmentLine
	if err := r.db.GetContext(ctx, &line, query, lineID, assignmentID); err != nil {
		return nil, err
	}
	return &line, nil
}

// UpdateLine overwrites a line's editable fields.
func (r *AssignmentRepository) UpdateLine(ctx context.Context, line *models.AssignmentLine) error {
	const query = `UPDATE assignment_lines SET section = :section, no_of_sections = :no_of_sections, workload = :workload
		WHERE id = :id AND assignment_id = :assignment_id`
	result, err := r.db.NamedExecContext(ctx, query, line)
	if err != nil {
		return fmt.Errorf("update assignment line: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated line rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteLine removes a line verifying record ownership.
func (r *AssignmentRepository) DeleteLine(ctx context.Context, assignmentID, lineID string) error {
	const query = `DELETE FROM assignment_lines WHERE id = $1 AND assignment_id = $2`
	result, err := r.db.ExecContext(ctx, query, lineID, assignmentID)
	if err != nil {
		return fmt.Errorf("delete assignment line: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted line rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountCourseExperience counts how many times an instructor has carried the
// course across all stored records. Feeds the experience weight lookup.
func (r *AssignmentRepository) CountCourseExperience(ctx context.Context, instructorID, courseID string) (int, error) {
	const query = `SELECT COUNT(*) FROM assignment_lines WHERE instructor_id = $1 AND course_id = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, instructorID, courseID); err != nil {
		return 0, fmt.Errorf("count course experience: %w", err)
	}
	return count, nil
}
