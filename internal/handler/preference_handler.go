package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadset/course-load-api/internal/service"
	appErrors "github.com/acadset/course-load-api/pkg/errors"
	"github.com/acadset/course-load-api/pkg/response"
)

// PreferenceHandler handles preference form and submission endpoints.
type PreferenceHandler struct {
	service     *service.PreferenceService
	instructors *service.InstructorService
}

// NewPreferenceHandler constructs a preference handler.
func NewPreferenceHandler(svc *service.PreferenceService, instructors *service.InstructorService) *PreferenceHandler {
	return &PreferenceHandler{service: svc, instructors: instructors}
}

// CreateForm godoc
// @Summary Publish a preference form
// @Tags Preferences
// @Accept json
// @Produce json
// @Param payload body service.CreateFormRequest true "Form payload"
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /preference-forms [post]
func (h *PreferenceHandler) CreateForm(c *gin.Context) {
	var req service.CreateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	form, err := h.service.CreateForm(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, form)
}

// ListForms godoc
// @Summary List preference forms for a chair
// @Tags Preferences
// @Produce json
// @Param chair query string true "Chair"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /preference-forms [get]
func (h *PreferenceHandler) ListForms(c *gin.Context) {
	forms, err := h.service.ListForms(c.Request.Context(), c.Query("chair"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, forms, nil)
}

// GetForm godoc
// @Summary Get a preference form with its courses
// @Tags Preferences
// @Produce json
// @Param id path string true "Form ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /preference-forms/{id} [get]
func (h *PreferenceHandler) GetForm(c *gin.Context) {
	form, err := h.service.GetForm(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, form, nil)
}

type setFormOpenRequest struct {
	Open bool `json:"open"`
}

// SetFormOpen godoc
// @Summary Open or close a preference form
// @Tags Preferences
// @Accept json
// @Param id path string true "Form ID"
// @Param payload body setFormOpenRequest true "Open flag"
// @Security BearerAuth
// @Success 204
// @Router /preference-forms/{id}/open [put]
func (h *PreferenceHandler) SetFormOpen(c *gin.Context) {
	var req setFormOpenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.SetFormOpen(c.Request.Context(), c.Param("id"), req.Open); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Submit godoc
// @Summary Submit ranked preferences against a form
// @Tags Preferences
// @Accept json
// @Produce json
// @Param payload body service.SubmitPreferenceRequest true "Preference payload"
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /preferences [post]
func (h *PreferenceHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	instructor, err := h.instructors.GetByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req service.SubmitPreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	pref, err := h.service.Submit(c.Request.Context(), instructor.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, pref)
}

// ListSubmissions godoc
// @Summary List submissions against a form
// @Tags Preferences
// @Produce json
// @Param id path string true "Form ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /preference-forms/{id}/submissions [get]
func (h *PreferenceHandler) ListSubmissions(c *gin.Context) {
	submissions, err := h.service.ListSubmissions(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submissions, nil)
}
