package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prohmpiriya/servus/internal/dto"
	"github.com/prohmpiriya/servus/internal/service"
	"github.com/prohmpiriya/servus/pkg/middleware"
	"github.com/prohmpiriya/servus/pkg/response"
)

// TemplateHandler handles scale template HTTP requests
type TemplateHandler struct {
	templateService service.TemplateService
}

// NewTemplateHandler creates a new TemplateHandler
func NewTemplateHandler(templateService service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService: templateService}
}

// List handles GET /templates
func (h *TemplateHandler) List(c *gin.Context) {
	var query dto.ListQuery
	if !bindQuery(c, &query) {
		return
	}

	result, err := h.templateService.List(c.Request.Context(), callerIdentity(c), &query)
	if err != nil {
		respondError(c, err)
		return
	}
	paginated(c, result)
}

// GetByID handles GET /templates/:id
func (h *TemplateHandler) GetByID(c *gin.Context) {
	tpl, err := h.templateService.Get(c.Request.Context(), callerIdentity(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(tpl))
}

// Create handles POST /templates
func (h *TemplateHandler) Create(c *gin.Context) {
	var req dto.CreateTemplateRequest
	if !bindJSON(c, &req) {
		return
	}

	tpl, err := h.templateService.Create(c.Request.Context(), callerIdentity(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	middleware.SetAuditResource(c, "template", tpl.ID.Hex())
	c.JSON(http.StatusCreated, response.Success(tpl))
}

// Update handles PATCH /templates/:id
func (h *TemplateHandler) Update(c *gin.Context) {
	var req dto.UpdateTemplateRequest
	if !bindJSON(c, &req) {
		return
	}

	tpl, err := h.templateService.Update(c.Request.Context(), callerIdentity(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(tpl))
}

// Delete handles DELETE /templates/:id
func (h *TemplateHandler) Delete(c *gin.Context) {
	if err := h.templateService.Delete(c.Request.Context(), callerIdentity(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(gin.H{"message": "Template deleted successfully"}))
}

// Schedule handles GET /templates/:id/schedule?from&to&limit
func (h *TemplateHandler) Schedule(c *gin.Context) {
	var window dto.WindowQuery
	if !bindQuery(c, &window) {
		return
	}

	result, err := h.templateService.Schedule(c.Request.Context(), callerIdentity(c), c.Param("id"), &window)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}
