package handler

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/prohmpiriya/servus/pkg/middleware"
)

// auditChange records the state of a resource before and after an update.
// The audit middleware diffs the two.
func auditChange(c *gin.Context, resourceType, id string, before, after interface{}) {
	middleware.SetAuditResource(c, resourceType, id)
	if old := auditValues(before); old != nil {
		middleware.SetAuditOldValues(c, old)
	}
	if updated := auditValues(after); updated != nil {
		middleware.SetAuditNewValues(c, updated)
	}
}

// auditValues flattens a response value into its JSON field map
func auditValues(v interface{}) map[string]interface{} {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}
