package di

import (
	"time"

	"github.com/prohmpiriya/servus/internal/handler"
	"github.com/prohmpiriya/servus/internal/repository"
	"github.com/prohmpiriya/servus/internal/service"
	"github.com/prohmpiriya/servus/pkg/database"
	"github.com/prohmpiriya/servus/pkg/redis"
	"github.com/prohmpiriya/servus/pkg/security"
	"github.com/prohmpiriya/servus/pkg/telemetry"
)

// Container holds all dependencies of the Servus API
type Container struct {
	// Infrastructure
	Mongo *database.MongoDB
	Redis *redis.Client

	// Repositories
	UserRepo       repository.UserRepository
	TenantRepo     repository.TenantRepository
	BranchRepo     repository.BranchRepository
	MinistryRepo   repository.MinistryRepository
	MembershipRepo repository.MembershipRepository
	EventRepo      repository.EventRepository
	TemplateRepo   repository.TemplateRepository
	TenantResolver *repository.TenantResolver

	// Services
	Publisher         service.EventPublisher
	AuthService       service.AuthService
	UserService       service.UserService
	TenantService     service.TenantService
	BranchService     service.BranchService
	MinistryService   service.MinistryService
	MembershipService service.MembershipService
	EventService      service.EventService
	TemplateService   service.TemplateService

	// Handlers
	Handlers *handler.Handlers
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	Mongo *database.MongoDB
	// Redis caches tenant lookups; nil disables the cache
	Redis          *redis.Client
	TenantCacheTTL time.Duration
	// Producer publishes domain events to EventsTopic; nil logs them instead
	Producer    service.MessagePublisher
	EventsTopic string
	Hasher      *security.Hasher
	Tokens      service.TokenConfig
	Metrics     *telemetry.Metrics
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	db := cfg.Mongo.Database()
	c := &Container{
		Mongo:          cfg.Mongo,
		Redis:          cfg.Redis,
		UserRepo:       repository.NewMongoUserRepository(db),
		BranchRepo:     repository.NewMongoBranchRepository(db),
		MinistryRepo:   repository.NewMongoMinistryRepository(db),
		MembershipRepo: repository.NewMongoMembershipRepository(db),
		EventRepo:      repository.NewMongoEventRepository(db),
		TemplateRepo:   repository.NewMongoTemplateRepository(db),
	}

	var tenants repository.TenantRepository = repository.NewMongoTenantRepository(db)
	if cfg.Redis != nil {
		tenants = repository.NewCachedTenantRepository(tenants, cfg.Redis, cfg.TenantCacheTTL)
	}
	c.TenantRepo = tenants
	c.TenantResolver = repository.NewTenantResolver(tenants)

	if cfg.Producer != nil {
		c.Publisher = service.NewTopicEventPublisher(cfg.Producer, cfg.EventsTopic, cfg.Metrics)
	} else {
		c.Publisher = service.NewLogEventPublisher()
	}

	// Initialize services
	c.AuthService = service.NewAuthService(c.UserRepo, c.TenantResolver, cfg.Hasher,
		service.NewTokenIssuer(cfg.Tokens), cfg.Metrics)
	c.UserService = service.NewUserService(c.UserRepo, c.BranchRepo, c.TenantResolver, cfg.Hasher, c.Publisher, cfg.Metrics)
	c.TenantService = service.NewTenantService(c.TenantRepo, c.TenantResolver)
	c.BranchService = service.NewBranchService(c.BranchRepo, c.TenantResolver, cfg.Metrics)
	c.MinistryService = service.NewMinistryService(c.MinistryRepo, c.BranchRepo, c.TenantResolver, cfg.Metrics)
	c.MembershipService = service.NewMembershipService(c.MembershipRepo, c.UserRepo, c.BranchRepo, c.MinistryRepo,
		c.TenantResolver, c.Publisher, cfg.Metrics)
	c.EventService = service.NewEventService(c.EventRepo, c.BranchRepo, c.MinistryRepo, c.TenantResolver, cfg.Metrics)
	c.TemplateService = service.NewTemplateService(c.TemplateRepo, c.EventRepo, c.BranchRepo, c.MinistryRepo,
		c.TenantResolver, cfg.Metrics)

	// Initialize handlers
	var redisHealth handler.HealthChecker
	if cfg.Redis != nil {
		redisHealth = cfg.Redis
	}
	c.Handlers = &handler.Handlers{
		Health:     handler.NewHealthHandler(cfg.Mongo, redisHealth),
		Auth:       handler.NewAuthHandler(c.AuthService),
		User:       handler.NewUserHandler(c.UserService),
		Tenant:     handler.NewTenantHandler(c.TenantService),
		Branch:     handler.NewBranchHandler(c.BranchService),
		Ministry:   handler.NewMinistryHandler(c.MinistryService),
		Membership: handler.NewMembershipHandler(c.MembershipService),
		Event:      handler.NewEventHandler(c.EventService),
		Template:   handler.NewTemplateHandler(c.TemplateService),
	}

	return c
}
