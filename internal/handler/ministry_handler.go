package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prohmpiriya/servus/internal/dto"
	"github.com/prohmpiriya/servus/internal/service"
	"github.com/prohmpiriya/servus/pkg/middleware"
	"github.com/prohmpiriya/servus/pkg/response"
)

// MinistryHandler handles ministry HTTP requests
type MinistryHandler struct {
	ministryService service.MinistryService
}

// NewMinistryHandler creates a new MinistryHandler
func NewMinistryHandler(ministryService service.MinistryService) *MinistryHandler {
	return &MinistryHandler{ministryService: ministryService}
}

// List handles GET /ministries
func (h *MinistryHandler) List(c *gin.Context) {
	var query dto.ListQuery
	if !bindQuery(c, &query) {
		return
	}

	result, err := h.ministryService.List(c.Request.Context(), callerIdentity(c), &query)
	if err != nil {
		respondError(c, err)
		return
	}
	paginated(c, result)
}

// GetByID handles GET /ministries/:id
func (h *MinistryHandler) GetByID(c *gin.Context) {
	ministry, err := h.ministryService.Get(c.Request.Context(), callerIdentity(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(ministry))
}

// Create handles POST /ministries
func (h *MinistryHandler) Create(c *gin.Context) {
	var req dto.CreateMinistryRequest
	if !bindJSON(c, &req) {
		return
	}

	ministry, err := h.ministryService.Create(c.Request.Context(), callerIdentity(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	middleware.SetAuditResource(c, "ministry", ministry.ID.Hex())
	c.JSON(http.StatusCreated, response.Success(ministry))
}

// Update handles PATCH /ministries/:id
func (h *MinistryHandler) Update(c *gin.Context) {
	var req dto.UpdateMinistryRequest
	if !bindJSON(c, &req) {
		return
	}

	ministry, err := h.ministryService.Update(c.Request.Context(), callerIdentity(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(ministry))
}

// Delete handles DELETE /ministries/:id
func (h *MinistryHandler) Delete(c *gin.Context) {
	if err := h.ministryService.Delete(c.Request.Context(), callerIdentity(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(gin.H{"message": "Ministry deleted successfully"}))
}
