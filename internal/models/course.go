package models

import "time"

// Course describes an offered course and its credit structure. Courses are
// configuration data and stay immutable during an allocation run.
type Course struct {
	ID               string    `db:"id" json:"id"`
	Code             string    `db:"code" json:"code"`
	Title            string    `db:"title" json:"title"`
	Lecture          float64   `db:"lecture" json:"lecture"`
	Lab              float64   `db:"lab" json:"lab"`
	Tutorial         float64   `db:"tutorial" json:"tutorial"`
	NumberOfStudents int       `db:"number_of_students" json:"number_of_students"`
	Location         string    `db:"location" json:"location"`
	Chair            string    `db:"chair" json:"chair"`
	Semester         string    `db:"semester" json:"semester"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// CourseFilter captures filtering options for listing courses.
type CourseFilter struct {
	Search   string
	Semester string
	Chair    string
	Page     int
	PageSize int
}
