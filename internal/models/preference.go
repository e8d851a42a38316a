package models

import "time"

// PreferenceForm is a chair-published list of courses instructors may rank.
type PreferenceForm struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Chair     string    `db:"chair" json:"chair"`
	Year      int       `db:"year" json:"year"`
	Semester  string    `db:"semester" json:"semester"`
	Open      bool      `db:"open" json:"open"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// PreferenceFormCourse links a form to one course in its allowlist.
type PreferenceFormCourse struct {
	FormID   string `db:"form_id" json:"form_id"`
	CourseID string `db:"course_id" json:"course_id"`
	Ordinal  int    `db:"ordinal" json:"ordinal"`
}

// Preference is one instructor's submission against a form. A resubmission
// replaces the choices and refreshes SubmittedAt.
type Preference struct {
	ID           string             `db:"id" json:"id"`
	FormID       string             `db:"form_id" json:"form_id"`
	InstructorID string             `db:"instructor_id" json:"instructor_id"`
	SubmittedAt  time.Time          `db:"submitted_at" json:"submitted_at"`
	Choices      []PreferenceChoice `db:"-" json:"choices"`
}

// PreferenceChoice ranks a single course. Rank 1 is the most preferred.
type PreferenceChoice struct {
	PreferenceID string `db:"preference_id" json:"-"`
	CourseID     string `db:"course_id" json:"course_id"`
	Rank         int    `db:"rank" json:"rank"`
}
