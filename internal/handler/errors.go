package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/prohmpiriya/servus/internal/domain"
	"github.com/prohmpiriya/servus/internal/dto"
	"github.com/prohmpiriya/servus/internal/repository"
	"github.com/prohmpiriya/servus/internal/scope"
	"github.com/prohmpiriya/servus/internal/service"
	"github.com/prohmpiriya/servus/pkg/logger"
	"github.com/prohmpiriya/servus/pkg/middleware"
	"github.com/prohmpiriya/servus/pkg/response"
)

// errorCodes maps service errors to response codes, first match wins
var errorCodes = []struct {
	err  error
	code string
}{
	{service.ErrInvalidCredentials, response.ErrCodeInvalidCredentials},
	{service.ErrInvalidToken, response.ErrCodeUnauthorized},
	{service.ErrUserInactive, response.ErrCodeAccountInactive},
	{service.ErrTenantInactive, response.ErrCodeAccountInactive},
	{service.ErrRoleNotAssignable, response.ErrCodeRoleNotAssignable},
	{service.ErrForbidden, response.ErrCodeForbidden},
	{service.ErrInvalidInput, response.ErrCodeBadRequest},
	{service.ErrNoFieldsToUpdate, response.ErrCodeBadRequest},
	{service.ErrPasswordMismatch, response.ErrCodeBadRequest},
	{service.ErrTenantNotFound, response.ErrCodeTenantNotFound},
	{service.ErrUserNotFound, response.ErrCodeNotFound},
	{service.ErrBranchNotFound, response.ErrCodeNotFound},
	{service.ErrMinistryNotFound, response.ErrCodeNotFound},
	{service.ErrEventNotFound, response.ErrCodeNotFound},
	{service.ErrTemplateNotFound, response.ErrCodeNotFound},
	{service.ErrMembershipNotFound, response.ErrCodeNotFound},
	{repository.ErrNotFound, response.ErrCodeNotFound},
	{service.ErrEmailTaken, response.ErrCodeDuplicateEntry},
	{service.ErrTenantAlreadyExists, response.ErrCodeDuplicateEntry},
	{service.ErrMembershipExists, response.ErrCodeDuplicateEntry},
	{repository.ErrDuplicate, response.ErrCodeDuplicateEntry},
}

// respondError writes the envelope for a service error. Unknown errors are
// logged and reported without detail.
func respondError(c *gin.Context, err error) {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			c.JSON(response.GetHTTPStatus(e.code), response.Error(e.code, err.Error()))
			return
		}
	}
	logger.ErrorCtx(c.Request.Context(), "request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, response.InternalError(""))
}

// respondBindError reports a binding failure, with per-field details for
// validation errors
func respondBindError(c *gin.Context, err error) {
	if details, ok := dto.ValidationDetails(err); ok {
		c.JSON(http.StatusBadRequest, response.ValidationFailed(details))
		return
	}
	if errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, response.BadRequest("Request body is required"))
		return
	}
	c.JSON(http.StatusBadRequest, response.BadRequest(err.Error()))
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondBindError(c, err)
		return false
	}
	return true
}

func bindQuery(c *gin.Context, query interface{}) bool {
	if err := c.ShouldBindQuery(query); err != nil {
		respondBindError(c, err)
		return false
	}
	return true
}

// callerIdentity builds the scope identity from the verified token claims
func callerIdentity(c *gin.Context) scope.Identity {
	userID, _ := middleware.GetUserID(c)
	role, _ := middleware.GetRole(c)
	tenantID, _ := middleware.GetTenantID(c)
	branchID, _ := middleware.GetBranchID(c)
	return scope.Identity{
		UserID:   userID,
		Role:     domain.Role(role),
		TenantID: tenantID,
		BranchID: branchID,
	}
}

// paginated writes a list page with response metadata
func paginated[T any](c *gin.Context, page *dto.ListResponse[T]) {
	c.JSON(http.StatusOK, response.Paginated(page.Items, page.Page, page.Limit, page.TotalCount))
}
