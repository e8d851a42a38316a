package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadset/course-load-api/internal/models"
	"github.com/acadset/course-load-api/internal/service"
	appErrors "github.com/acadset/course-load-api/pkg/errors"
	"github.com/acadset/course-load-api/pkg/response"
)

// WeightHandler handles weight table configuration endpoints.
type WeightHandler struct {
	service *service.WeightService
}

// NewWeightHandler constructs a weight handler.
func NewWeightHandler(svc *service.WeightService) *WeightHandler {
	return &WeightHandler{service: svc}
}

// Get godoc
// @Summary Get weight configuration
// @Tags Weights
// @Produce json
// @Param kind path string true "Weight kind" Enums(PREFERENCE_RANK, EXPERIENCE_YEARS)
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /weights/{kind} [get]
func (h *WeightHandler) Get(c *gin.Context) {
	cfg, err := h.service.Get(c.Request.Context(), models.WeightKind(c.Param("kind")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}

// Configure godoc
// @Summary Configure a weight table
// @Tags Weights
// @Accept json
// @Produce json
// @Param payload body service.WeightConfigRequest true "Weight configuration"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /weights [put]
func (h *WeightHandler) Configure(c *gin.Context) {
	var req service.WeightConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	cfg, err := h.service.Configure(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}

// Table godoc
// @Summary Get the generated weight table
// @Tags Weights
// @Produce json
// @Param kind path string true "Weight kind" Enums(PREFERENCE_RANK, EXPERIENCE_YEARS)
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /weights/{kind}/table [get]
func (h *WeightHandler) Table(c *gin.Context) {
	entries, err := h.service.Table(c.Request.Context(), models.WeightKind(c.Param("kind")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
