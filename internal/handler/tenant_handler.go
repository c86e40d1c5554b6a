package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prohmpiriya/servus/internal/dto"
	"github.com/prohmpiriya/servus/internal/service"
	"github.com/prohmpiriya/servus/pkg/middleware"
	"github.com/prohmpiriya/servus/pkg/response"
)

// TenantHandler handles tenant management HTTP requests. The :id parameter
// accepts the document id or the external tenant id.
type TenantHandler struct {
	tenantService service.TenantService
}

// NewTenantHandler creates a new TenantHandler
func NewTenantHandler(tenantService service.TenantService) *TenantHandler {
	return &TenantHandler{tenantService: tenantService}
}

// Create handles tenant creation
// POST /tenants
func (h *TenantHandler) Create(c *gin.Context) {
	var req dto.CreateTenantRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.tenantService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	middleware.SetAuditResource(c, "tenant", result.ID)
	c.JSON(http.StatusCreated, response.Success(result))
}

// GetByID handles retrieving a tenant
// GET /tenants/:id
func (h *TenantHandler) GetByID(c *gin.Context) {
	result, err := h.tenantService.Get(c.Request.Context(), callerIdentity(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// List handles retrieving tenants with pagination
// GET /tenants
func (h *TenantHandler) List(c *gin.Context) {
	var query dto.ListTenantsQuery
	if !bindQuery(c, &query) {
		return
	}

	result, err := h.tenantService.List(c.Request.Context(), &query)
	if err != nil {
		respondError(c, err)
		return
	}
	paginated(c, result)
}

// Update handles tenant update
// PATCH /tenants/:id
func (h *TenantHandler) Update(c *gin.Context) {
	var req dto.UpdateTenantRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx, ref := c.Request.Context(), c.Param("id")
	before, err := h.tenantService.Get(ctx, callerIdentity(c), ref)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.tenantService.Update(ctx, ref, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	auditChange(c, "tenant", result.ID, before, result)
	c.JSON(http.StatusOK, response.Success(result))
}

// Delete handles tenant soft deletion
// DELETE /tenants/:id
func (h *TenantHandler) Delete(c *gin.Context) {
	if err := h.tenantService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(gin.H{"message": "Tenant deleted successfully"}))
}

// GetFeatures handles GET /tenants/:id/features
func (h *TenantHandler) GetFeatures(c *gin.Context) {
	features, err := h.tenantService.GetFeatures(c.Request.Context(), callerIdentity(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(features))
}

// UpdateFeatures handles PUT /tenants/:id/features
func (h *TenantHandler) UpdateFeatures(c *gin.Context) {
	var req dto.UpdateFeaturesRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx, ref := c.Request.Context(), c.Param("id")
	before, err := h.tenantService.GetFeatures(ctx, callerIdentity(c), ref)
	if err != nil {
		respondError(c, err)
		return
	}

	features, err := h.tenantService.UpdateFeatures(ctx, ref, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	auditChange(c, "tenant_features", ref, before, features)
	c.JSON(http.StatusOK, response.Success(features))
}
