package handler

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/prohmpiriya/servus/internal/domain"
	"github.com/prohmpiriya/servus/pkg/logger"
	"github.com/prohmpiriya/servus/pkg/middleware"
)

// Handlers groups every HTTP handler served by the router
type Handlers struct {
	Health     *HealthHandler
	Auth       *AuthHandler
	User       *UserHandler
	Tenant     *TenantHandler
	Branch     *BranchHandler
	Ministry   *MinistryHandler
	Membership *MembershipHandler
	Event      *EventHandler
	Template   *TemplateHandler
}

// RouterConfig holds the middleware settings of the router
type RouterConfig struct {
	ServiceName string
	JWTSecret   string
	CORS        middleware.CORSConfig
	// AccessLog writes one line per request; nil uses the global logger
	AccessLog *logger.Logger
	// Audit records mutating requests; nil disables auditing
	Audit *middleware.AuditLogger
	// LoginLimiter throttles POST /auth/login; nil disables throttling
	LoginLimiter middleware.Limiter
	// StaticDir serves a bundled front-end under /app when set
	StaticDir string
	// Tracing enables the otelgin middleware
	Tracing bool
}

// NewRouter builds the gin engine with all Servus routes
func NewRouter(h *Handlers, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Tracing {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	accessLog := cfg.AccessLog
	if accessLog == nil {
		accessLog = logger.Get()
	}
	r.Use(middleware.RequestID(), middleware.AccessLog(accessLog), middleware.CORS(cfg.CORS))

	r.GET("/health", h.Health.Health)
	r.GET("/ready", h.Health.Ready)
	if cfg.StaticDir != "" {
		r.Static("/app", cfg.StaticDir)
	}

	auth := r.Group("/auth")
	{
		login := []gin.HandlerFunc{h.Auth.Login}
		if cfg.LoginLimiter != nil {
			login = append([]gin.HandlerFunc{middleware.RateLimit(cfg.LoginLimiter)}, login...)
		}
		auth.POST("/login", login...)
		auth.POST("/refresh", h.Auth.Refresh)
	}

	protected := []gin.HandlerFunc{middleware.JWTMiddleware(&middleware.JWTConfig{Secret: cfg.JWTSecret})}
	if cfg.Audit != nil {
		protected = append(protected, middleware.AuditMiddleware(cfg.Audit))
	}
	api := r.Group("", protected...)

	api.GET("/auth/me", h.Auth.Me)

	users := api.Group("/users")
	{
		users.GET("", h.User.List)
		users.POST("", h.User.Create)
		users.GET("/:id", h.User.GetByID)
		users.PATCH("/:id", h.User.Update)
		users.DELETE("/:id", h.User.Deactivate)
		users.POST("/:id/password", h.User.ChangePassword)
	}

	superAdmin := middleware.RequireRole(string(domain.RoleServusAdmin))
	tenants := api.Group("/tenants")
	{
		tenants.GET("", superAdmin, h.Tenant.List)
		tenants.POST("", superAdmin, h.Tenant.Create)
		tenants.GET("/:id", h.Tenant.GetByID)
		tenants.PATCH("/:id", superAdmin, h.Tenant.Update)
		tenants.DELETE("/:id", superAdmin, h.Tenant.Delete)
		tenants.GET("/:id/features", h.Tenant.GetFeatures)
		tenants.PUT("/:id/features", superAdmin, h.Tenant.UpdateFeatures)
	}

	branches := api.Group("/branches")
	{
		branches.GET("", h.Branch.List)
		branches.POST("", h.Branch.Create)
		branches.GET("/:id", h.Branch.GetByID)
		branches.PATCH("/:id", h.Branch.Update)
		branches.DELETE("/:id", h.Branch.Delete)
	}

	ministries := api.Group("/ministries")
	{
		ministries.GET("", h.Ministry.List)
		ministries.POST("", h.Ministry.Create)
		ministries.GET("/:id", h.Ministry.GetByID)
		ministries.PATCH("/:id", h.Ministry.Update)
		ministries.DELETE("/:id", h.Ministry.Delete)
	}

	memberships := api.Group("/memberships")
	{
		memberships.GET("", h.Membership.List)
		memberships.POST("", h.Membership.Create)
		memberships.GET("/:id", h.Membership.GetByID)
		memberships.PATCH("/:id", h.Membership.Update)
		memberships.DELETE("/:id", h.Membership.Deactivate)
	}

	events := api.Group("/events")
	{
		events.GET("", h.Event.List)
		events.POST("", h.Event.Create)
		events.GET("/:id", h.Event.GetByID)
		events.PATCH("/:id", h.Event.Update)
		events.DELETE("/:id", h.Event.Delete)
		events.GET("/:id/occurrences", h.Event.Occurrences)
	}

	templates := api.Group("/templates")
	{
		templates.GET("", h.Template.List)
		templates.POST("", h.Template.Create)
		templates.GET("/:id", h.Template.GetByID)
		templates.PATCH("/:id", h.Template.Update)
		templates.DELETE("/:id", h.Template.Delete)
		templates.GET("/:id/schedule", h.Template.Schedule)
	}

	return r
}
