package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/acadset/course-load-api/internal/models"
)

// WorkloadRepository persists the per-instructor workload ledger. The table
// carries UNIQUE(instructor_id, year, semester, program), so UpsertAdd is an
// atomic find-and-increment and the one-entry-per-period invariant holds for
// any sequence of calls.
type WorkloadRepository struct {
	db *sqlx.DB
}

// NewWorkloadRepository constructs the repository.
func NewWorkloadRepository(db *sqlx.DB) *WorkloadRepository {
	return &WorkloadRepository{db: db}
}

// Get returns the ledger entry for the exact period key, or sql.ErrNoRows.
func (r *WorkloadRepository) Get(ctx context.Context, instructorID string, year int, semester, program string) (*models.WorkloadEntry, error) {
	const query = `SELECT * FROM workload_entries
		WHERE instructor_id = $1 AND year = $2 AND semester = $3 AND program = $4`
	var entry models.WorkloadEntry
	if err := r.db.GetContext(ctx, &entry, query, instructorID, year, semester, program); err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpsertAdd accumulates delta into the entry for the period key, creating
// the entry when absent. Callers pass a transaction to keep ledger deltas
// and the owning assignment record in one commit.
func (r *WorkloadRepository) UpsertAdd(ctx context.Context, exec sqlx.ExtContext, instructorID string, year int, semester, program string, delta float64) error {
	if exec == nil {
		exec = r.db
	}
	const query = `INSERT INTO workload_entries (id, instructor_id, year, semester, program, value, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (instructor_id, year, semester, program)
		DO UPDATE SET value = workload_entries.value + EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	now := time.Now().UTC()
	if _, err := exec.ExecContext(ctx, query, uuid.NewString(), instructorID, year, semester, program, delta, now); err != nil {
		return fmt.Errorf("upsert workload entry: %w", err)
	}
	return nil
}

// SumBySemesters totals an instructor's ledger values across the given
// semester labels, any year.
func (r *WorkloadRepository) SumBySemesters(ctx context.Context, instructorID string, semesters []string) (float64, error) {
	const query = `SELECT COALESCE(SUM(value), 0) FROM workload_entries
		WHERE instructor_id = $1 AND semester = ANY($2)`
	var total float64
	if err := r.db.GetContext(ctx, &total, query, instructorID, pq.Array(semesters)); err != nil {
		return 0, fmt.Errorf("sum workload entries: %w", err)
	}
	return total, nil
}

// ListByInstructor returns an instructor's full ledger ordered by period.
func (r *WorkloadRepository) ListByInstructor(ctx context.Context, instructorID string) ([]models.WorkloadEntry, error) {
	const query = `SELECT * FROM workload_entries
		WHERE instructor_id = $1
		ORDER BY year ASC, program ASC, semester ASC`
	var entries []models.WorkloadEntry
	if err := r.db.SelectContext(ctx, &entries, query, instructorID); err != nil {
		return nil, fmt.Errorf("list workload entries: %w", err)
	}
	return entries, nil
}

// ListByInstructors returns ledgers for several instructors, keyed by
// instructor id. Allocators seed their in-run ledger view from this.
func (r *WorkloadRepository) ListByInstructors(ctx context.Context, instructorIDs []string) (map[string][]models.WorkloadEntry, error) {
	result := make(map[string][]models.WorkloadEntry, len(instructorIDs))
	if len(instructorIDs) == 0 {
		return result, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM workload_entries WHERE instructor_id IN (?) ORDER BY year ASC`, instructorIDs)
	if err != nil {
		return nil, fmt.Errorf("build workload query: %w", err)
	}
	query = r.db.Rebind(query)
	var entries []models.WorkloadEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list workload entries: %w", err)
	}
	for _, entry := range entries {
		result[entry.InstructorID] = append(result[entry.InstructorID], entry)
	}
	return result, nil
}
