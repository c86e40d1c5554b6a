package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prohmpiriya/servus/internal/dto"
	"github.com/prohmpiriya/servus/internal/service"
	"github.com/prohmpiriya/servus/pkg/middleware"
	"github.com/prohmpiriya/servus/pkg/response"
)

// UserHandler handles user HTTP requests
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// List handles GET /users
func (h *UserHandler) List(c *gin.Context) {
	var query dto.ListUsersQuery
	if !bindQuery(c, &query) {
		return
	}

	result, err := h.userService.List(c.Request.Context(), callerIdentity(c), &query)
	if err != nil {
		respondError(c, err)
		return
	}
	paginated(c, result)
}

// GetByID handles GET /users/:id
func (h *UserHandler) GetByID(c *gin.Context) {
	user, err := h.userService.GetByID(c.Request.Context(), callerIdentity(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(user))
}

// Create handles POST /users
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Create(c.Request.Context(), callerIdentity(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	middleware.SetAuditResource(c, "user", user.ID)
	c.JSON(http.StatusCreated, response.Success(user))
}

// Update handles PATCH /users/:id
func (h *UserHandler) Update(c *gin.Context) {
	var req dto.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx, caller, id := c.Request.Context(), callerIdentity(c), c.Param("id")
	before, err := h.userService.GetByID(ctx, caller, id)
	if err != nil {
		respondError(c, err)
		return
	}

	user, err := h.userService.Update(ctx, caller, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	auditChange(c, "user", user.ID, before, user)
	c.JSON(http.StatusOK, response.Success(user))
}

// Deactivate handles DELETE /users/:id
func (h *UserHandler) Deactivate(c *gin.Context) {
	if err := h.userService.Deactivate(c.Request.Context(), callerIdentity(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(gin.H{"message": "User deactivated successfully"}))
}

// ChangePassword handles POST /users/:id/password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	caller, id := callerIdentity(c), c.Param("id")
	if err := h.userService.ChangePassword(c.Request.Context(), caller, id, &req); err != nil {
		respondError(c, err)
		return
	}
	middleware.SetAuditResource(c, "user", id)
	middleware.SetAuditMetadata(c, map[string]interface{}{"admin_reset": caller.UserID != id})
	c.JSON(http.StatusOK, response.Success(gin.H{"message": "Password updated successfully"}))
}
