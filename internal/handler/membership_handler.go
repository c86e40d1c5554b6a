package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prohmpiriya/servus/internal/dto"
	"github.com/prohmpiriya/servus/internal/service"
	"github.com/prohmpiriya/servus/pkg/middleware"
	"github.com/prohmpiriya/servus/pkg/response"
)

// MembershipHandler handles membership HTTP requests
type MembershipHandler struct {
	membershipService service.MembershipService
}

// NewMembershipHandler creates a new MembershipHandler
func NewMembershipHandler(membershipService service.MembershipService) *MembershipHandler {
	return &MembershipHandler{membershipService: membershipService}
}

// List handles GET /memberships
func (h *MembershipHandler) List(c *gin.Context) {
	var query dto.ListMembershipsQuery
	if !bindQuery(c, &query) {
		return
	}

	result, err := h.membershipService.List(c.Request.Context(), callerIdentity(c), &query)
	if err != nil {
		respondError(c, err)
		return
	}
	paginated(c, result)
}

// GetByID handles GET /memberships/:id
func (h *MembershipHandler) GetByID(c *gin.Context) {
	membership, err := h.membershipService.Get(c.Request.Context(), callerIdentity(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(membership))
}

// Create handles POST /memberships
func (h *MembershipHandler) Create(c *gin.Context) {
	var req dto.CreateMembershipRequest
	if !bindJSON(c, &req) {
		return
	}

	membership, err := h.membershipService.Create(c.Request.Context(), callerIdentity(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	middleware.SetAuditResource(c, "membership", membership.ID.Hex())
	c.JSON(http.StatusCreated, response.Success(membership))
}

// Update handles PATCH /memberships/:id
func (h *MembershipHandler) Update(c *gin.Context) {
	var req dto.UpdateMembershipRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx, caller, id := c.Request.Context(), callerIdentity(c), c.Param("id")
	before, err := h.membershipService.Get(ctx, caller, id)
	if err != nil {
		respondError(c, err)
		return
	}

	membership, err := h.membershipService.Update(ctx, caller, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	auditChange(c, "membership", membership.ID.Hex(), before, membership)
	c.JSON(http.StatusOK, response.Success(membership))
}

// Deactivate handles DELETE /memberships/:id
func (h *MembershipHandler) Deactivate(c *gin.Context) {
	if err := h.membershipService.Deactivate(c.Request.Context(), callerIdentity(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(gin.H{"message": "Membership deactivated successfully"}))
}
