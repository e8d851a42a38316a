package models

import "time"

// Program labels recorded against workload ledger entries.
const (
	ProgramRegular   = "Regular"
	ProgramExtension = "Extension"
	ProgramSummer    = "Summer"
)

// Semester labels used across the allocation engine.
const (
	SemesterRegular1   = "Regular 1"
	SemesterRegular2   = "Regular 2"
	SemesterExtension1 = "Extension 1"
	SemesterExtension2 = "Extension 2"
	SemesterSummer     = "Summer"
)

// Instructor ties a user to a teaching profile. The workload ledger rows
// belonging to an instructor live in workload_entries.
type Instructor struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Location  string    `db:"location" json:"location"`
	Position  string    `db:"position" json:"position"`
	Chair     string    `db:"chair" json:"chair"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// WorkloadEntry is one ledger row: the accumulated teaching load an
// instructor carries for a (year, semester, program) period. At most one row
// exists per instructor and period key.
type WorkloadEntry struct {
	ID           string    `db:"id" json:"id"`
	InstructorID string    `db:"instructor_id" json:"instructor_id"`
	Year         int       `db:"year" json:"year"`
	Semester     string    `db:"semester" json:"semester"`
	Program      string    `db:"program" json:"program"`
	Value        float64   `db:"value" json:"value"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// InstructorFilter captures filtering options for listing instructors.
type InstructorFilter struct {
	Search   string
	Chair    string
	Location string
	Page     int
	PageSize int
}
