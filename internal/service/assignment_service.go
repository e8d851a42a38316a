package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acadset/course-load-api/internal/dto"
	"github.com/acadset/course-load-api/internal/models"
	appErrors "github.com/acadset/course-load-api/pkg/errors"
	"github.com/acadset/course-load-api/pkg/export"
)

type assignmentRepository interface {
	List(ctx context.Context, year int, semester, program string) ([]models.Assignment, error)
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	ListLineDetails(ctx context.Context, assignmentID string) ([]models.AssignmentLineDetail, error)
	FindLine(ctx context.Context, assignmentID, lineID string) (*models.AssignmentLine, error)
	UpdateLine(ctx context.Context, line *models.AssignmentLine) error
	DeleteLine(ctx context.Context, assignmentID, lineID string) error
}

// ExportResult carries rendered export bytes with transport metadata.
type ExportResult struct {
	FileName    string
	ContentType string
	Data        []byte
}

// AssignmentService reads and edits stored allocation records. Edits and
// deletes touch only the record; the workload already charged to the ledger
// stays as booked.
type AssignmentService struct {
	repo      assignmentRepository
	csv       *export.CSVRenderer
	pdf       *export.PDFRenderer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssignmentService creates a new assignment service.
func NewAssignmentService(repo assignmentRepository, csv *export.CSVRenderer, pdf *export.PDFRenderer, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVRenderer()
	}
	if pdf == nil {
		pdf = export.NewPDFRenderer()
	}
	return &AssignmentService{repo: repo, csv: csv, pdf: pdf, validator: validate, logger: logger}
}

// List returns records matching the optional period filters.
func (s *AssignmentService) List(ctx context.Context, query dto.AssignmentQuery) ([]models.Assignment, error) {
	assignments, err := s.repo.List(ctx, query.Year, query.Semester, query.Program)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// Get returns a record with its lines.
func (s *AssignmentService) Get(ctx context.Context, id string) (*models.Assignment, error) {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	return assignment, nil
}

// Details returns a record's lines joined with course and instructor names.
func (s *AssignmentService) Details(ctx context.Context, id string) ([]models.AssignmentLineDetail, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	details, err := s.repo.ListLineDetails(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment details")
	}
	return details, nil
}

// UpdateLine edits a single line. Only set fields change.
func (s *AssignmentService) UpdateLine(ctx context.Context, assignmentID, lineID string, req dto.UpdateAssignmentLineRequest) (*models.AssignmentLine, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment line payload")
	}

	line, err := s.repo.FindLine(ctx, assignmentID, lineID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment line not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment line")
	}

	if req.Section != nil {
		line.Section = *req.Section
	}
	if req.NoOfSections != nil {
		line.NoOfSections = *req.NoOfSections
	}
	if req.Workload != nil {
		line.Workload = *req.Workload
	}

	if err := s.repo.UpdateLine(ctx, line); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment line not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment line")
	}
	return line, nil
}

// DeleteLine removes a single line from a record.
func (s *AssignmentService) DeleteLine(ctx context.Context, assignmentID, lineID string) error {
	if err := s.repo.DeleteLine(ctx, assignmentID, lineID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment line not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment line")
	}
	return nil
}

// Export renders a record's lines as CSV or PDF.
func (s *AssignmentService) Export(ctx context.Context, id, format string) (*ExportResult, error) {
	assignment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	details, err := s.repo.ListLineDetails(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment details")
	}

	sheet := buildAssignmentSheet(assignment, details)
	base := fmt.Sprintf("assignments-%d-%s-%s", assignment.Year,
		strings.ReplaceAll(strings.ToLower(assignment.Semester), " ", "-"),
		strings.ToLower(assignment.Program))

	switch strings.ToLower(format) {
	case "csv", "":
		data, err := s.csv.Render(sheet)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportResult{FileName: base + ".csv", ContentType: "text/csv", Data: data}, nil
	case "pdf":
		data, err := s.pdf.Render(sheet)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportResult{FileName: base + ".pdf", ContentType: "application/pdf", Data: data}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func buildAssignmentSheet(assignment *models.Assignment, details []models.AssignmentLineDetail) export.Sheet {
	sheet := export.Sheet{
		Title:   fmt.Sprintf("Course Assignments %d %s (%s)", assignment.Year, assignment.Semester, assignment.Program),
		Columns: []string{"Course Code", "Course Title", "Instructor", "Section", "Sections", "Lab Division", "Workload", "Score"},
	}
	for _, detail := range details {
		labDivision := "No"
		if detail.LabDivision {
			labDivision = "Yes"
		}
		score := ""
		if detail.Score != nil {
			score = strconv.FormatFloat(*detail.Score, 'f', 2, 64)
		}
		sheet.AddRow(
			detail.CourseCode,
			detail.CourseTitle,
			detail.InstructorName,
			detail.Section,
			strconv.Itoa(detail.NoOfSections),
			labDivision,
			strconv.FormatFloat(detail.Workload, 'f', 2, 64),
			score,
		)
	}
	return sheet
}
