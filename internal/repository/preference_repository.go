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

// PreferenceRepository persists preference forms and instructor submissions.
type PreferenceRepository struct {
	db *sqlx.DB
}

// NewPreferenceRepository constructs the repository.
func NewPreferenceRepository(db *sqlx.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// CreateForm inserts a form together with its course allowlist.
func (r *PreferenceRepository) CreateForm(ctx context.Context, form *models.PreferenceForm, courseIDs []string) error {
	if form.ID == "" {
		form.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	form.CreatedAt = now
	form.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin form transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const formQuery = `INSERT INTO preference_forms (id, title, chair, year, semester, open, created_at, updated_at)
		VALUES (:id, :title, :chair, :year, :semester, :open, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, formQuery, form); err != nil {
		return fmt.Errorf("create preference form: %w", err)
	}

	const courseQuery = `INSERT INTO preference_form_courses (form_id, course_id, ordinal) VALUES ($1, $2, $3)`
	for i, courseID := range courseIDs {
		if _, err = tx.ExecContext(ctx, courseQuery, form.ID, courseID, i); err != nil {
			return fmt.Errorf("attach form course: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit preference form: %w", err)
	}
	return nil
}

// FindFormByID returns a form by primary key.
func (r *PreferenceRepository) FindFormByID(ctx context.Context, id string) (*models.PreferenceForm, error) {
	const query = `SELECT * FROM preference_forms WHERE id = $1`
	var form models.PreferenceForm
	if err := r.db.GetContext(ctx, &form, query, id); err != nil {
		return nil, err
	}
	return &form, nil
}

// ListForms returns forms for a chair, newest first.
func (r *PreferenceRepository) ListForms(ctx context.Context, chair string) ([]models.PreferenceForm, error) {
	const query = `SELECT * FROM preference_forms WHERE chair = $1 ORDER BY created_at DESC`
	var forms []models.PreferenceForm
	if err := r.db.SelectContext(ctx, &forms, query, chair); err != nil {
		return nil, fmt.Errorf("list preference forms: %w", err)
	}
	return forms, nil
}

// ListFormCourses returns the form's course allowlist in its stored order.
func (r *PreferenceRepository) ListFormCourses(ctx context.Context, formID string) ([]string, error) {
	const query = `SELECT course_id FROM preference_form_courses WHERE form_id = $1 ORDER BY ordinal ASC`
	var courseIDs []string
	if err := r.db.SelectContext(ctx, &courseIDs, query, formID); err != nil {
		return nil, fmt.Errorf("list form courses: %w", err)
	}
	return courseIDs, nil
}

// SetFormOpen toggles whether a form accepts submissions.
func (r *PreferenceRepository) SetFormOpen(ctx context.Context, formID string, open bool) error {
	const query = `UPDATE preference_forms SET open = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, open, time.Now().UTC(), formID)
	if err != nil {
		return fmt.Errorf("toggle preference form: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check toggled form rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Upsert stores one instructor's submission against a form. A resubmission
// replaces the previous choices and refreshes the submitted timestamp.
func (r *PreferenceRepository) Upsert(ctx context.Context, pref *models.Preference) error {
	if pref.ID == "" {
		pref.ID = uuid.NewString()
	}
	if pref.SubmittedAt.IsZero() {
		pref.SubmittedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin preference transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const prefQuery = `INSERT INTO preferences (id, form_id, instructor_id, submitted_at)
		VALUES (:id, :form_id, :instructor_id, :submitted_at)
		ON CONFLICT (form_id, instructor_id)
		DO UPDATE SET submitted_at = EXCLUDED.submitted_at
		RETURNING id`
	rows, err := tx.NamedQuery(prefQuery, pref)
	if err != nil {
		return fmt.Errorf("upsert preference: %w", err)
	}
	if rows.Next() {
		if err = rows.Scan(&pref.ID); err != nil {
			rows.Close()
			return fmt.Errorf("scan preference id: %w", err)
		}
	}
	rows.Close()

	if _, err = tx.ExecContext(ctx, `DELETE FROM preference_choices WHERE preference_id = $1`, pref.ID); err != nil {
		return fmt.Errorf("clear preference choices: %w", err)
	}
	const choiceQuery = `INSERT INTO preference_choices (preference_id, course_id, rank) VALUES ($1, $2, $3)`
	for _, choice := range pref.Choices {
		if _, err = tx.ExecContext(ctx, choiceQuery, pref.ID, choice.CourseID, choice.Rank); err != nil {
			return fmt.Errorf("insert preference choice: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit preference: %w", err)
	}
	return nil
}

// ListByForm returns every submission against a form with choices attached,
// ordered by submission time.
func (r *PreferenceRepository) ListByForm(ctx context.Context, formID string) ([]models.Preference, error) {
	const prefQuery = `SELECT * FROM preferences WHERE form_id = $1 ORDER BY submitted_at ASC`
	var prefs []models.Preference
	if err := r.db.SelectContext(ctx, &prefs, prefQuery, formID); err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	if len(prefs) == 0 {
		return prefs, nil
	}

	ids := make([]string, len(prefs))
	for i, pref := range prefs {
		ids[i] = pref.ID
	}
	query, args, err := sqlx.In(`SELECT preference_id, course_id, rank FROM preference_choices WHERE preference_id IN (?) ORDER BY rank ASC`, ids)
	if err != nil {
		return nil, fmt.Errorf("build choice query: %w", err)
	}
	query = r.db.Rebind(query)
	var choices []models.PreferenceChoice
	if err := r.db.SelectContext(ctx, &choices, query, args...); err != nil {
		return nil, fmt.Errorf("list preference choices: %w", err)
	}

	byPref := make(map[string][]models.PreferenceChoice, len(prefs))
	for _, choice := range choices {
		byPref[choice.PreferenceID] = append(byPref[choice.PreferenceID], choice)
	}
	for i := range prefs {
		prefs[i].Choices = byPref[prefs[i].ID]
	}
	return prefs, nil
}
