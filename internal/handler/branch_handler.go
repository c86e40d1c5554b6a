package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prohmpiriya/servus/internal/dto"
	"github.com/prohmpiriya/servus/internal/service"
	"github.com/prohmpiriya/servus/pkg/middleware"
	"github.com/prohmpiriya/servus/pkg/response"
)

// BranchHandler handles branch HTTP requests
type BranchHandler struct {
	branchService service.BranchService
}

// NewBranchHandler creates a new BranchHandler
func NewBranchHandler(branchService service.BranchService) *BranchHandler {
	return &BranchHandler{branchService: branchService}
}

// List handles GET /branches
func (h *BranchHandler) List(c *gin.Context) {
	var query dto.ListQuery
	if !bindQuery(c, &query) {
		return
	}

	result, err := h.branchService.List(c.Request.Context(), callerIdentity(c), &query)
	if err != nil {
		respondError(c, err)
		return
	}
	paginated(c, result)
}

// GetByID handles GET /branches/:id
func (h *BranchHandler) GetByID(c *gin.Context) {
	branch, err := h.branchService.Get(c.Request.Context(), callerIdentity(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(branch))
}

// Create handles POST /branches
func (h *BranchHandler) Create(c *gin.Context) {
	var req dto.CreateBranchRequest
	if !bindJSON(c, &req) {
		return
	}

	branch, err := h.branchService.Create(c.Request.Context(), callerIdentity(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	middleware.SetAuditResource(c, "branch", branch.ID.Hex())
	c.JSON(http.StatusCreated, response.Success(branch))
}

// Update handles PATCH /branches/:id
func (h *BranchHandler) Update(c *gin.Context) {
	var req dto.UpdateBranchRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx, caller, id := c.Request.Context(), callerIdentity(c), c.Param("id")
	before, err := h.branchService.Get(ctx, caller, id)
	if err != nil {
		respondError(c, err)
		return
	}

	branch, err := h.branchService.Update(ctx, caller, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	auditChange(c, "branch", branch.ID.Hex(), before, branch)
	c.JSON(http.StatusOK, response.Success(branch))
}

// Delete handles DELETE /branches/:id
func (h *BranchHandler) Delete(c *gin.Context) {
	if err := h.branchService.Delete(c.Request.Context(), callerIdentity(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(gin.H{"message": "Branch deleted successfully"}))
}
