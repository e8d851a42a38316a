package models

import "time"

// Assignment is the persisted outcome of a single allocator run. Lines group
// every course/instructor pairing produced by that run and remain
// individually editable afterwards.
type Assignment struct {
	ID         string           `db:"id" json:"id"`
	Year       int              `db:"year" json:"year"`
	Semester   string           `db:"semester" json:"semester"`
	Program    string           `db:"program" json:"program"`
	AssignedBy string           `db:"assigned_by" json:"assigned_by"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updated_at"`
	Lines      []AssignmentLine `db:"-" json:"lines,omitempty"`
}

// AssignmentLine records one course handed to one instructor, with the
// workload charged to the ledger and the scoring context that produced the
// pick (when the run was score-driven).
type AssignmentLine struct {
	ID              string    `db:"id" json:"id"`
	AssignmentID    string    `db:"assignment_id" json:"assignment_id"`
	InstructorID    string    `db:"instructor_id" json:"instructor_id"`
	CourseID        string    `db:"course_id" json:"course_id"`
	Section         string    `db:"section" json:"section"`
	NoOfSections    int       `db:"no_of_sections" json:"no_of_sections"`
	LabDivision     bool      `db:"lab_division" json:"lab_division"`
	Workload        float64   `db:"workload" json:"workload"`
	Score           *float64  `db:"score" json:"score,omitempty"`
	PreferenceRank  *int      `db:"preference_rank" json:"preference_rank,omitempty"`
	ExperienceYears *int      `db:"experience_years" json:"experience_years,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// AssignmentLineDetail joins course and instructor names onto a line for
// list endpoints and exports.
type AssignmentLineDetail struct {
	AssignmentLine
	CourseCode     string `db:"course_code" json:"course_code"`
	CourseTitle    string `db:"course_title" json:"course_title"`
	InstructorName string `db:"instructor_name" json:"instructor_name"`
}
