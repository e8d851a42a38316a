package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadset/course-load-api/internal/service"
	appErrors "github.com/acadset/course-load-api/pkg/errors"
	"github.com/acadset/course-load-api/pkg/response"
)

// PositionHandler handles academic position endpoints.
type PositionHandler struct {
	service *service.PositionService
}

// NewPositionHandler constructs a position handler.
func NewPositionHandler(svc *service.PositionService) *PositionHandler {
	return &PositionHandler{service: svc}
}

// List godoc
// @Summary List positions
// @Tags Positions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /positions [get]
func (h *PositionHandler) List(c *gin.Context) {
	positions, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, positions, nil)
}

// Get godoc
// @Summary Get position by name
// @Tags Positions
// @Produce json
// @Param name path string true "Position name"
// @Success 200 {object} response.Envelope
// @Router /positions/{name} [get]
func (h *PositionHandler) Get(c *gin.Context) {
	position, err := h.service.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, position, nil)
}

// Create godoc
// @Summary Create position
// @Tags Positions
// @Accept json
// @Produce json
// @Param payload body service.PositionRequest true "Position payload"
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /positions [post]
func (h *PositionHandler) Create(c *gin.Context) {
	var req service.PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	position, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, position)
}

// Update godoc
// @Summary Update position
// @Tags Positions
// @Accept json
// @Produce json
// @Param name path string true "Position name"
// @Param payload body service.PositionRequest true "Position payload"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /positions/{name} [put]
func (h *PositionHandler) Update(c *gin.Context) {
	var req service.PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	position, err := h.service.Update(c.Request.Context(), c.Param("name"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, position, nil)
}

// Delete godoc
// @Summary Delete position
// @Tags Positions
// @Param name path string true "Position name"
// @Security BearerAuth
// @Success 204
// @Router /positions/{name} [delete]
func (h *PositionHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("name")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
