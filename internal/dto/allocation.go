package dto

import "github.com/acadset/course-load-api/internal/models"

// ManualAssignmentInput is one explicit course/instructor pairing supplied by
// the caller in manual mode.
type ManualAssignmentInput struct {
	InstructorID string `json:"instructorId" validate:"required"`
	CourseID     string `json:"courseId" validate:"required"`
	Section      string `json:"section"`
	NoOfSections int    `json:"noOfSections"`
	LabDivision  bool   `json:"labDivision"`
}

// ManualAllocationRequest assigns a fixed list of pairings in one run.
type ManualAllocationRequest struct {
	Year        int                     `json:"year" validate:"required"`
	Semester    string                  `json:"semester" validate:"required"`
	Program     string                  `json:"program" validate:"required"`
	Assignments []ManualAssignmentInput `json:"assignments" validate:"required,dive"`
}

// CourseAllocationInput selects one course for an automatic run.
type CourseAllocationInput struct {
	CourseID    string `json:"courseId" validate:"required"`
	LabDivision bool   `json:"labDivision"`
}

// AutoAllocationRequest drives the common-course automatic allocator.
// Program is fixed to Regular.
type AutoAllocationRequest struct {
	Year          int                     `json:"year" validate:"required"`
	Semester      string                  `json:"semester" validate:"required"`
	Courses       []CourseAllocationInput `json:"courses" validate:"required,dive"`
	InstructorIDs []string                `json:"instructorIds" validate:"required"`
}

// ExtensionAllocationRequest drives the extension-program allocator.
type ExtensionAllocationRequest struct {
	Year          int                     `json:"year" validate:"required"`
	Semester      string                  `json:"semester" validate:"required,oneof=Extension 'Extension 1' 'Extension 2'"`
	Courses       []CourseAllocationInput `json:"courses" validate:"required,dive"`
	InstructorIDs []string                `json:"instructorIds" validate:"required"`
}

// SummerAllocationRequest drives the summer-program allocator. Semester and
// program are both fixed to Summer.
type SummerAllocationRequest struct {
	Year          int                     `json:"year" validate:"required"`
	Courses       []CourseAllocationInput `json:"courses" validate:"required,dive"`
	InstructorIDs []string                `json:"instructorIds" validate:"required"`
}

// PreferenceAllocationRequest runs the score-based allocator over a
// preference form's submissions.
type PreferenceAllocationRequest struct {
	FormID string `json:"formId" validate:"required"`
}

// AllocationResponse reports the record produced by an allocator run.
type AllocationResponse struct {
	AssignmentID string                  `json:"assignmentId"`
	Year         int                     `json:"year"`
	Semester     string                  `json:"semester"`
	Program      string                  `json:"program"`
	Lines        []models.AssignmentLine `json:"lines"`
	Message      string                  `json:"message"`
}

// UpdateAssignmentLineRequest edits a single line of a stored record.
// Workload edits are not reconciled back into the ledger.
type UpdateAssignmentLineRequest struct {
	Section      *string  `json:"section"`
	NoOfSections *int     `json:"noOfSections" validate:"omitempty,min=1"`
	Workload     *float64 `json:"workload" validate:"omitempty,gte=0"`
}

// AssignmentQuery filters stored assignment records.
type AssignmentQuery struct {
	Year     int    `form:"year"`
	Semester string `form:"semester"`
	Program  string `form:"program"`
}
