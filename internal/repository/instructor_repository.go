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

// InstructorRepository persists instructor profiles.
type InstructorRepository struct {
	db *sqlx.DB
}

// NewInstructorRepository constructs the repository.
func NewInstructorRepository(db *sqlx.DB) *InstructorRepository {
	return &InstructorRepository{db: db}
}

// FindByID returns an instructor by primary key.
func (r *InstructorRepository) FindByID(ctx context.Context, id string) (*models.Instructor, error) {
	const query = `SELECT * FROM instructors WHERE id = $1`
	var instructor models.Instructor
	if err := r.db.GetContext(ctx, &instructor, query, id); err != nil {
		return nil, err
	}
	return &instructor, nil
}

// FindByUserID returns the instructor profile owned by a user account.
func (r *InstructorRepository) FindByUserID(ctx context.Context, userID string) (*models.Instructor, error) {
	const query = `SELECT * FROM instructors WHERE user_id = $1`
	var instructor models.Instructor
	if err := r.db.GetContext(ctx, &instructor, query, userID); err != nil {
		return nil, err
	}
	return &instructor, nil
}

// FindByIDs returns instructors matching the given ids, keyed by id.
func (r *InstructorRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.Instructor, error) {
	if len(ids) == 0 {
		return map[string]models.Instructor{}, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM instructors WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build instructor id query: %w", err)
	}
	query = r.db.Rebind(query)
	var instructors []models.Instructor
	if err := r.db.SelectContext(ctx, &instructors, query, args...); err != nil {
		return nil, fmt.Errorf("list instructors by ids: %w", err)
	}
	result := make(map[string]models.Instructor, len(instructors))
	for _, instructor := range instructors {
		result[instructor.ID] = instructor
	}
	return result, nil
}

// Create inserts a new instructor profile.
func (r *InstructorRepository) Create(ctx context.Context, instructor *models.Instructor) error {
	if instructor.ID == "" {
		instructor.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	instructor.CreatedAt = now
	instructor.UpdatedAt = now
	const query = `INSERT INTO instructors (id, user_id, full_name, location, position, chair, created_at, updated_at)
		VALUES (:id, :user_id, :full_name, :location, :position, :chair, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, instructor); err != nil {
		return fmt.Errorf("create instructor: %w", err)
	}
	return nil
}

// Update overwrites an instructor's profile fields.
func (r *InstructorRepository) Update(ctx context.Context, instructor *models.Instructor) error {
	instructor.UpdatedAt = time.Now().UTC()
	const query = `UPDATE instructors SET full_name = :full_name, location = :location,
		position = :position, chair = :chair, updated_at = :updated_at
		WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, instructor)
	if err != nil {
		return fmt.Errorf("update instructor: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated instructor rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns instructors matching the filter along with the total count.
func (r *InstructorRepository) List(ctx context.Context, filter models.InstructorFilter) ([]models.Instructor, int, error) {
	where := "WHERE 1=1"
	args := map[string]interface{}{}
	if filter.Search != "" {
		where += " AND full_name ILIKE :search"
		args["search"] = "%" + filter.Search + "%"
	}
	if filter.Chair != "" {
		where += " AND chair = :chair"
		args["chair"] = filter.Chair
	}
	if filter.Location != "" {
		where += " AND location = :location"
		args["location"] = filter.Location
	}

	countQuery := "SELECT COUNT(*) FROM instructors " + where
	rows, err := r.db.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, fmt.Errorf("count instructors: %w", err)
	}
	var total int
	if rows.Next() {
		if err := rows.Scan(&total); err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("scan instructor count: %w", err)
		}
	}
	rows.Close()

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	args["limit"] = pageSize
	args["offset"] = (page - 1) * pageSize

	listQuery := "SELECT * FROM instructors " + where + " ORDER BY full_name ASC LIMIT :limit OFFSET :offset"
	listRows, err := r.db.NamedQueryContext(ctx, listQuery, args)
	if err != nil {
		return nil, 0, fmt.Errorf("list instructors: %w", err)
	}
	defer listRows.Close()

	var instructors []models.Instructor
	for listRows.Next() {
		var instructor models.Instructor
		if err := listRows.StructScan(&instructor); err != nil {
			return nil, 0, fmt.Errorf("scan instructor: %w", err)
		}
		instructors = append(instructors, instructor)
	}
	return instructors, total, nil
}
