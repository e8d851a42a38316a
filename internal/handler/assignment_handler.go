package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadset/course-load-api/internal/dto"
	"github.com/acadset/course-load-api/internal/service"
	appErrors "github.com/acadset/course-load-api/pkg/errors"
	"github.com/acadset/course-load-api/pkg/response"
)

// AssignmentHandler handles stored allocation record endpoints. The archive
// service is optional; without it exports are served inline only.
type AssignmentHandler struct {
	service *service.AssignmentService
	archive *service.ExportArchiveService
}

// NewAssignmentHandler constructs an assignment handler.
func NewAssignmentHandler(svc *service.AssignmentService, archive *service.ExportArchiveService) *AssignmentHandler {
	return &AssignmentHandler{service: svc, archive: archive}
}

// List godoc
// @Summary List assignment records
// @Tags Assignments
// @Produce json
// @Param year query int false "Filter by year"
// @Param semester query string false "Filter by semester"
// @Param program query string false "Filter by program"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	var query dto.AssignmentQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	assignments, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// Get godoc
// @Summary Get an assignment record with its lines
// @Tags Assignments
// @Produce json
// @Param id path string true "Assignment ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /assignments/{id} [get]
func (h *AssignmentHandler) Get(c *gin.Context) {
	assignment, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// Details godoc
// @Summary Get assignment lines with course and instructor names
// @Tags Assignments
// @Produce json
// @Param id path string true "Assignment ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/details [get]
func (h *AssignmentHandler) Details(c *gin.Context) {
	details, err := h.service.Details(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, details, nil)
}

// UpdateLine godoc
// @Summary Edit a single assignment line
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param lineId path string true "Line ID"
// @Param payload body dto.UpdateAssignmentLineRequest true "Line edits"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/lines/{lineId} [put]
func (h *AssignmentHandler) UpdateLine(c *gin.Context) {
	var req dto.UpdateAssignmentLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	line, err := h.service.UpdateLine(c.Request.Context(), c.Param("id"), c.Param("lineId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, line, nil)
}

// DeleteLine godoc
// @Summary Remove a single assignment line
// @Tags Assignments
// @Param id path string true "Assignment ID"
// @Param lineId path string true "Line ID"
// @Security BearerAuth
// @Success 204
// @Router /assignments/{id}/lines/{lineId} [delete]
func (h *AssignmentHandler) DeleteLine(c *gin.Context) {
	if err := h.service.DeleteLine(c.Request.Context(), c.Param("id"), c.Param("lineId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export an assignment record
// @Tags Assignments
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Assignment ID"
// @Param format query string false "Export format" Enums(csv, pdf) default(csv)
// @Security BearerAuth
// @Success 200 {file} file
// @Router /assignments/{id}/export [get]
func (h *AssignmentHandler) Export(c *gin.Context) {
	result, err := h.service.Export(c.Request.Context(), c.Param("id"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.archive != nil {
		h.archive.Archive(result)
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.FileName+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

// ExportLink godoc
// @Summary Archive an export and return a signed download link
// @Tags Assignments
// @Produce json
// @Param id path string true "Assignment ID"
// @Param format query string false "Export format" Enums(csv, pdf) default(csv)
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /assignments/{id}/export-link [post]
func (h *AssignmentHandler) ExportLink(c *gin.Context) {
	if h.archive == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export archive is disabled"))
		return
	}
	result, err := h.service.Export(c.Request.Context(), c.Param("id"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	link, err := h.archive.ArchiveNow(result)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, link)
}

// DownloadExport godoc
// @Summary Download an archived export via a signed token
// @Tags Assignments
// @Produce text/csv
// @Produce application/pdf
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Router /exports/download [get]
func (h *AssignmentHandler) DownloadExport(c *gin.Context) {
	if h.archive == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export archive is disabled"))
		return
	}
	result, err := h.archive.Download(c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.FileName+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
