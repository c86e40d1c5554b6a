package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccess_JSONFormat(t *testing.T) {
	raw, err := json.Marshal(Success(map[string]string{"id": "123"}))
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &parsed))

	assert.Equal(t, true, parsed["success"])
	assert.NotContains(t, parsed, "error")
	assert.NotContains(t, parsed, "meta")
}

func TestError(t *testing.T) {
	resp := Error(ErrCodeNotFound, "User not found")

	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "User not found", resp.Error.Message)
}

func TestValidationFailed(t *testing.T) {
	resp := ValidationFailed(map[string]string{"email": "must be a valid email"})

	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidationFailed, resp.Error.Code)
	assert.Equal(t, "must be a valid email", resp.Error.Details["email"])
	assert.Equal(t, http.StatusBadRequest, GetHTTPStatus(resp.Error.Code))
}

func TestPaginated_TotalPages(t *testing.T) {
	tests := []struct {
		name     string
		total    int64
		perPage  int
		expected int
	}{
		{"exact", 40, 20, 2},
		{"remainder", 41, 20, 3},
		{"empty", 0, 20, 0},
		{"zero per page", 10, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := Paginated([]string{}, 1, tt.perPage, tt.total)
			require.NotNil(t, resp.Meta)
			assert.Equal(t, tt.expected, resp.Meta.TotalPages)
		})
	}
}

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeInvalidCredentials, http.StatusUnauthorized},
		{ErrCodeAccountInactive, http.StatusForbidden},
		{ErrCodeDuplicateEntry, http.StatusConflict},
		{ErrCodeTooManyRequests, http.StatusTooManyRequests},
		{"UNKNOWN", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestDefaultMessages(t *testing.T) {
	assert.Equal(t, "Authentication required", Unauthorized("").Error.Message)
	assert.Equal(t, "Access denied", Forbidden("").Error.Message)
	assert.Equal(t, "Resource not found", NotFound("").Error.Message)
	assert.Equal(t, "custom", NotFound("custom").Error.Message)
}

func TestAbort(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Abort(c, ErrCodeForbidden, "nope")

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"FORBIDDEN"`)
}
