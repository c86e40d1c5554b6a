package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prohmpiriya/servus/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AuditAction represents the type of action being audited
type AuditAction string

const (
	AuditActionCreate         AuditAction = "create"
	AuditActionUpdate         AuditAction = "update"
	AuditActionDelete         AuditAction = "delete"
	AuditActionLogin          AuditAction = "login"
	AuditActionRefresh        AuditAction = "refresh"
	AuditActionPasswordChange AuditAction = "password_change"
	AuditActionFeatures       AuditAction = "features_update"
	AuditActionView           AuditAction = "view"
)

// Context keys for audit data
const (
	ContextKeyAuditResourceType = "audit_resource_type"
	ContextKeyAuditResourceID   = "audit_resource_id"
	ContextKeyAuditOldValues    = "audit_old_values"
	ContextKeyAuditNewValues    = "audit_new_values"
	ContextKeyAuditMetadata     = "audit_metadata"
	contextKeyAuditSkip         = "audit_skip"
)

// AuditEntry represents a single audit log entry
type AuditEntry struct {
	ID           string                 `json:"id" bson:"_id"`
	TenantID     *string                `json:"tenant_id,omitempty" bson:"tenantId,omitempty"`
	BranchID     *string                `json:"branch_id,omitempty" bson:"branchId,omitempty"`
	UserID       *string                `json:"user_id,omitempty" bson:"userId,omitempty"`
	UserEmail    string                 `json:"user_email,omitempty" bson:"userEmail,omitempty"`
	UserRole     string                 `json:"user_role,omitempty" bson:"userRole,omitempty"`
	Action       AuditAction            `json:"action" bson:"action"`
	ResourceType string                 `json:"resource_type" bson:"resourceType"`
	ResourceID   *string                `json:"resource_id,omitempty" bson:"resourceId,omitempty"`
	Status       int                    `json:"status" bson:"status"`
	IPAddress    string                 `json:"ip_address,omitempty" bson:"ipAddress,omitempty"`
	UserAgent    string                 `json:"user_agent,omitempty" bson:"userAgent,omitempty"`
	RequestID    string                 `json:"request_id,omitempty" bson:"requestId,omitempty"`
	OldValues    map[string]interface{} `json:"old_values,omitempty" bson:"oldValues,omitempty"`
	NewValues    map[string]interface{} `json:"new_values,omitempty" bson:"newValues,omitempty"`
	Changes      map[string]interface{} `json:"changes,omitempty" bson:"changes,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt    time.Time              `json:"created_at" bson:"createdAt"`
}

// AuditSink persists flushed batches of audit entries
type AuditSink interface {
	Write(ctx context.Context, entries []*AuditEntry) error
}

// AuditConfig holds configuration for the audit middleware
type AuditConfig struct {
	// Sink receives flushed batches; nil discards entries
	Sink AuditSink
	// BufferSize is the size of the async audit buffer (default: 1000)
	BufferSize int
	// FlushInterval is how often to flush the buffer (default: 5 seconds)
	FlushInterval time.Duration
	// BatchSize is the maximum number of entries written in one batch (default: 100)
	BatchSize int
	// SkipPaths is a list of paths to skip auditing
	SkipPaths []string
	// SkipMethods is a list of HTTP methods to skip (default: GET, HEAD, OPTIONS)
	SkipMethods []string
	// ActionMapper maps HTTP method + path to audit action
	ActionMapper func(method, path string) AuditAction
	// ResourceExtractor extracts resource type and ID from path
	ResourceExtractor func(path string) (resourceType string, resourceID string)
	// EnableRequestBody captures the (masked) request body as new values
	EnableRequestBody bool
	// MaxBodySize limits the size of captured body (default: 10KB)
	MaxBodySize int
	// SensitiveFields are field names that should be masked
	SensitiveFields []string
}

// DefaultAuditConfig returns default configuration
func DefaultAuditConfig(sink AuditSink) *AuditConfig {
	return &AuditConfig{
		Sink:              sink,
		BufferSize:        1000,
		FlushInterval:     5 * time.Second,
		BatchSize:         100,
		SkipPaths:         []string{"/health", "/ready"},
		SkipMethods:       []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		ActionMapper:      defaultActionMapper,
		ResourceExtractor: defaultResourceExtractor,
		EnableRequestBody: true,
		MaxBodySize:       10 * 1024,
		SensitiveFields:   []string{"password", "token", "secret"},
	}
}

// AuditLogger buffers audit entries and writes them to the sink from a
// background worker
type AuditLogger struct {
	config    *AuditConfig
	buffer    chan *AuditEntry
	wg        sync.WaitGroup
	closeOnce sync.Once
	dropped   int64
	mu        sync.Mutex
}

// NewAuditLogger creates a new audit logger and starts its worker
func NewAuditLogger(config *AuditConfig) *AuditLogger {
	if config.BufferSize <= 0 {
		config.BufferSize = 1000
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = 5 * time.Second
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = 10 * 1024
	}

	al := &AuditLogger{
		config: config,
		buffer: make(chan *AuditEntry, config.BufferSize),
	}

	al.wg.Add(1)
	go al.worker()

	return al
}

// Log adds an audit entry to the buffer without blocking. Entries are
// dropped when the buffer is full.
func (al *AuditLogger) Log(entry *AuditEntry) {
	select {
	case al.buffer <- entry:
	default:
		al.mu.Lock()
		al.dropped++
		al.mu.Unlock()
	}
}

// Dropped returns how many entries were discarded on a full buffer
func (al *AuditLogger) Dropped() int64 {
	al.mu.Lock()
	defer al.mu.Unlock()
	return al.dropped
}

// Close drains the buffer, flushes and stops the worker
func (al *AuditLogger) Close() error {
	al.closeOnce.Do(func() {
		close(al.buffer)
		al.wg.Wait()
	})
	return nil
}

func (al *AuditLogger) worker() {
	defer al.wg.Done()

	ticker := time.NewTicker(al.config.FlushInterval)
	defer ticker.Stop()

	batch := make([]*AuditEntry, 0, al.config.BatchSize)

	for {
		select {
		case entry, ok := <-al.buffer:
			if !ok {
				al.flush(batch)
				return
			}
			batch = append(batch, entry)
			if len(batch) >= al.config.BatchSize {
				al.flush(batch)
				batch = make([]*AuditEntry, 0, al.config.BatchSize)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				al.flush(batch)
				batch = make([]*AuditEntry, 0, al.config.BatchSize)
			}
		}
	}
}

func (al *AuditLogger) flush(entries []*AuditEntry) {
	if len(entries) == 0 {
		return
	}

	if al.config.Sink == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Audit writes never fail the request that produced them.
	if err := al.config.Sink.Write(ctx, entries); err != nil {
		logger.Get().Error("failed to write audit entries",
			zap.Int("count", len(entries)),
			zap.Error(err),
		)
	}
}

// AuditMiddleware records mutating requests through the audit logger
func AuditMiddleware(al *AuditLogger) gin.HandlerFunc {
	config := al.config

	return func(c *gin.Context) {
		for _, path := range config.SkipPaths {
			if c.Request.URL.Path == path {
				c.Next()
				return
			}
		}
		for _, method := range config.SkipMethods {
			if c.Request.Method == method {
				c.Next()
				return
			}
		}

		var requestBody map[string]interface{}
		if config.EnableRequestBody && c.Request.Body != nil {
			bodyBytes, err := io.ReadAll(io.LimitReader(c.Request.Body, int64(config.MaxBodySize)))
			if err == nil && len(bodyBytes) > 0 {
				c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
				_ = json.Unmarshal(bodyBytes, &requestBody)
				requestBody = maskSensitiveFields(requestBody, config.SensitiveFields)
			}
		}

		startTime := time.Now()

		c.Next()

		if skip, ok := c.Get(contextKeyAuditSkip); ok {
			if b, _ := skip.(bool); b {
				return
			}
		}

		entry := &AuditEntry{
			ID:        uuid.New().String(),
			Status:    c.Writer.Status(),
			CreatedAt: startTime.UTC(),
		}

		if userID, ok := GetUserID(c); ok && userID != "" {
			entry.UserID = &userID
		}
		if email, ok := GetEmail(c); ok {
			entry.UserEmail = email
		}
		if role, ok := GetRole(c); ok {
			entry.UserRole = role
		}
		if tenantID, ok := GetTenantID(c); ok && tenantID != "" {
			entry.TenantID = &tenantID
		}
		if branchID, ok := GetBranchID(c); ok && branchID != "" {
			entry.BranchID = &branchID
		}

		if config.ActionMapper != nil {
			entry.Action = config.ActionMapper(c.Request.Method, c.Request.URL.Path)
		}
		if config.ResourceExtractor != nil {
			resourceType, resourceID := config.ResourceExtractor(c.Request.URL.Path)
			entry.ResourceType = resourceType
			if resourceID != "" {
				entry.ResourceID = &resourceID
			}
		}

		// Handler-provided values win over path-derived ones.
		if rt, ok := c.Get(ContextKeyAuditResourceType); ok {
			if s, ok := rt.(string); ok {
				entry.ResourceType = s
			}
		}
		if rid, ok := c.Get(ContextKeyAuditResourceID); ok {
			if s, ok := rid.(string); ok && s != "" {
				entry.ResourceID = &s
			}
		}
		entry.OldValues = getMap(c, ContextKeyAuditOldValues)
		entry.NewValues = getMap(c, ContextKeyAuditNewValues)
		entry.Metadata = getMap(c, ContextKeyAuditMetadata)

		if entry.OldValues != nil && entry.NewValues != nil {
			entry.Changes = computeChanges(entry.OldValues, entry.NewValues)
		}
		if requestBody != nil && entry.NewValues == nil {
			entry.NewValues = requestBody
		}

		entry.IPAddress = getClientIP(c)
		entry.UserAgent = c.GetHeader("User-Agent")
		entry.RequestID = GetRequestID(c)

		al.Log(entry)
	}
}

func getMap(c *gin.Context, key string) map[string]interface{} {
	v, ok := c.Get(key)
	if !ok {
		return nil
	}
	m, _ := v.(map[string]interface{})
	return m
}

// defaultActionMapper maps HTTP method and path to an audit action
func defaultActionMapper(method, path string) AuditAction {
	pathLower := strings.ToLower(path)

	switch {
	case strings.HasSuffix(pathLower, "/auth/login"):
		return AuditActionLogin
	case strings.HasSuffix(pathLower, "/auth/refresh"):
		return AuditActionRefresh
	case strings.HasSuffix(pathLower, "/password"):
		return AuditActionPasswordChange
	case strings.HasSuffix(pathLower, "/features"):
		return AuditActionFeatures
	}

	switch method {
	case http.MethodPost:
		return AuditActionCreate
	case http.MethodPut, http.MethodPatch:
		return AuditActionUpdate
	case http.MethodDelete:
		return AuditActionDelete
	default:
		return AuditActionView
	}
}

// defaultResourceExtractor extracts resource type and ID from path
// Example: /api/v1/branches/64b7f0c2e4b0a1a2b3c4d5e6 -> ("branch", "64b7f0c2e4b0a1a2b3c4d5e6")
func defaultResourceExtractor(path string) (resourceType string, resourceID string) {
	parts := strings.Split(strings.Trim(path, "/"), "/")

	startIdx := -1
	for i, part := range parts {
		if part == "api" || isVersionSegment(part) {
			continue
		}
		startIdx = i
		break
	}
	if startIdx < 0 || parts[startIdx] == "" {
		return "unknown", ""
	}

	resourceType = singular(parts[startIdx])

	if startIdx+1 < len(parts) && isValidID(parts[startIdx+1]) {
		resourceID = parts[startIdx+1]
	}

	return resourceType, resourceID
}

func isVersionSegment(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, c := range s[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func singular(s string) string {
	switch {
	case strings.HasSuffix(s, "ies"):
		return s[:len(s)-3] + "y"
	case strings.HasSuffix(s, "ches"):
		return s[:len(s)-2]
	case strings.HasSuffix(s, "s"):
		return s[:len(s)-1]
	}
	return s
}

// isValidID accepts Mongo ObjectID hex strings and UUIDs
func isValidID(s string) bool {
	if primitive.IsValidObjectID(s) {
		return true
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// getClientIP extracts the client IP address
func getClientIP(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}
	if xri := c.GetHeader("X-Real-IP"); xri != "" {
		return xri
	}
	ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return ip
}

// maskSensitiveFields masks sensitive data in a map
func maskSensitiveFields(data map[string]interface{}, sensitiveFields []string) map[string]interface{} {
	if data == nil {
		return nil
	}

	result := make(map[string]interface{}, len(data))
	for k, v := range data {
		lowKey := strings.ToLower(k)
		masked := false
		for _, sf := range sensitiveFields {
			if strings.Contains(lowKey, strings.ToLower(sf)) {
				result[k] = "[REDACTED]"
				masked = true
				break
			}
		}
		if masked {
			continue
		}
		if nested, ok := v.(map[string]interface{}); ok {
			result[k] = maskSensitiveFields(nested, sensitiveFields)
		} else {
			result[k] = v
		}
	}
	return result
}

// computeChanges computes the differences between old and new values
func computeChanges(oldVals, newVals map[string]interface{}) map[string]interface{} {
	changes := make(map[string]interface{})

	for k, newV := range newVals {
		oldV, exists := oldVals[k]
		if exists && jsonEqual(oldV, newV) {
			continue
		}
		changes[k] = map[string]interface{}{"old": oldV, "new": newV}
	}
	for k, oldV := range oldVals {
		if _, exists := newVals[k]; !exists {
			changes[k] = map[string]interface{}{"old": oldV, "new": nil}
		}
	}

	return changes
}

func jsonEqual(a, b interface{}) bool {
	aJSON, err1 := json.Marshal(a)
	bJSON, err2 := json.Marshal(b)
	if err1 != nil || err2 != nil {
		return false
	}
	return bytes.Equal(aJSON, bJSON)
}

// SetAuditResource sets the resource type and ID for audit logging
func SetAuditResource(c *gin.Context, resourceType, resourceID string) {
	c.Set(ContextKeyAuditResourceType, resourceType)
	c.Set(ContextKeyAuditResourceID, resourceID)
}

// SetAuditOldValues sets the old values for audit logging (before update/delete)
func SetAuditOldValues(c *gin.Context, oldValues map[string]interface{}) {
	c.Set(ContextKeyAuditOldValues, oldValues)
}

// SetAuditNewValues sets the new values for audit logging (after create/update)
func SetAuditNewValues(c *gin.Context, newValues map[string]interface{}) {
	c.Set(ContextKeyAuditNewValues, newValues)
}

// SetAuditMetadata sets additional metadata for audit logging
func SetAuditMetadata(c *gin.Context, metadata map[string]interface{}) {
	c.Set(ContextKeyAuditMetadata, metadata)
}

// SkipAudit marks the current request to skip audit logging
func SkipAudit(c *gin.Context) {
	c.Set(contextKeyAuditSkip, true)
}
