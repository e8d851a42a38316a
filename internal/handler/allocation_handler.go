package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/acadset/course-load-api/internal/dto"
	"github.com/acadset/course-load-api/internal/service"
	appErrors "github.com/acadset/course-load-api/pkg/errors"
	"github.com/acadset/course-load-api/pkg/response"
)

// AllocationHandler exposes the four allocator runs.
type AllocationHandler struct {
	regular    *service.RegularAllocatorService
	extension  *service.ExtensionAllocatorService
	summer     *service.SummerAllocatorService
	preference *service.PreferenceAllocatorService
	metrics    *service.MetricsService
}

// NewAllocationHandler constructs an allocation handler.
func NewAllocationHandler(
	regular *service.RegularAllocatorService,
	extension *service.ExtensionAllocatorService,
	summer *service.SummerAllocatorService,
	preference *service.PreferenceAllocatorService,
	metrics *service.MetricsService,
) *AllocationHandler {
	return &AllocationHandler{
		regular:    regular,
		extension:  extension,
		summer:     summer,
		preference: preference,
		metrics:    metrics,
	}
}

// Manual godoc
// @Summary Run the manual allocator
// @Tags Allocations
// @Accept json
// @Produce json
// @Param payload body dto.ManualAllocationRequest true "Manual allocation payload"
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /allocations/manual [post]
func (h *AllocationHandler) Manual(c *gin.Context) {
	var req dto.ManualAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	h.run(c, "manual", func(assignedBy string) (*dto.AllocationResponse, error) {
		return h.regular.AllocateManual(c.Request.Context(), req, assignedBy)
	})
}

// Common godoc
// @Summary Run the common-course automatic allocator
// @Tags Allocations
// @Accept json
// @Produce json
// @Param payload body dto.AutoAllocationRequest true "Automatic allocation payload"
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /allocations/common [post]
func (h *AllocationHandler) Common(c *gin.Context) {
	var req dto.AutoAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	h.run(c, "common", func(assignedBy string) (*dto.AllocationResponse, error) {
		return h.regular.AllocateCommon(c.Request.Context(), req, assignedBy)
	})
}

// Extension godoc
// @Summary Run the extension-program allocator
// @Tags Allocations
// @Accept json
// @Produce json
// @Param payload body dto.ExtensionAllocationRequest true "Extension allocation payload"
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /allocations/extension [post]
func (h *AllocationHandler) Extension(c *gin.Context) {
	var req dto.ExtensionAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	h.run(c, "extension", func(assignedBy string) (*dto.AllocationResponse, error) {
		return h.extension.Allocate(c.Request.Context(), req, assignedBy)
	})
}

// Summer godoc
// @Summary Run the summer-program allocator
// @Tags Allocations
// @Accept json
// @Produce json
// @Param payload body dto.SummerAllocationRequest true "Summer allocation payload"
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /allocations/summer [post]
func (h *AllocationHandler) Summer(c *gin.Context) {
	var req dto.SummerAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	h.run(c, "summer", func(assignedBy string) (*dto.AllocationResponse, error) {
		return h.summer.Allocate(c.Request.Context(), req, assignedBy)
	})
}

// Preference godoc
// @Summary Run the preference-score allocator over a form
// @Tags Allocations
// @Accept json
// @Produce json
// @Param payload body dto.PreferenceAllocationRequest true "Preference allocation payload"
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /allocations/preference [post]
func (h *AllocationHandler) Preference(c *gin.Context) {
	var req dto.PreferenceAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	h.run(c, "preference", func(assignedBy string) (*dto.AllocationResponse, error) {
		return h.preference.Allocate(c.Request.Context(), req, assignedBy)
	})
}

func (h *AllocationHandler) run(c *gin.Context, allocator string, fn func(assignedBy string) (*dto.AllocationResponse, error)) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	start := time.Now()
	resp, err := fn(claims.UserID)
	lines := 0
	if resp != nil {
		lines = len(resp.Lines)
	}
	h.metrics.ObserveAllocationRun(allocator, err, lines, time.Since(start))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resp)
}
