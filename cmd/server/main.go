// Command server runs the Servus HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/prohmpiriya/servus/internal/di"
	"github.com/prohmpiriya/servus/internal/dto"
	"github.com/prohmpiriya/servus/internal/handler"
	"github.com/prohmpiriya/servus/internal/repository"
	"github.com/prohmpiriya/servus/internal/service"
	"github.com/prohmpiriya/servus/pkg/config"
	"github.com/prohmpiriya/servus/pkg/database"
	"github.com/prohmpiriya/servus/pkg/kafka"
	"github.com/prohmpiriya/servus/pkg/logger"
	"github.com/prohmpiriya/servus/pkg/middleware"
	"github.com/prohmpiriya/servus/pkg/redis"
	"github.com/prohmpiriya/servus/pkg/security"
	"github.com/prohmpiriya/servus/pkg/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Error("server stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := logger.Init(&logger.Config{
		Level:       cfg.App.LogLevel,
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
		OutputPath:  "stdout",
	}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log := logger.Get()

	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}); err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			log.Warn("telemetry shutdown", zap.Error(err))
		}
	}()

	metrics, err := telemetry.NewMetrics()
	if err != nil {
		log.Warn("metrics disabled", zap.Error(err))
		metrics = nil
	}

	if err := dto.RegisterValidators(); err != nil {
		return fmt.Errorf("register validators: %w", err)
	}

	// MongoDB
	mongoCfg := database.DefaultMongoConfig()
	mongoCfg.URI = cfg.MongoDB.URI
	mongoCfg.Database = cfg.MongoDB.Database
	if cfg.MongoDB.MaxPoolSize > 0 {
		mongoCfg.MaxPoolSize = cfg.MongoDB.MaxPoolSize
	}
	if cfg.MongoDB.ConnectTimeout > 0 {
		mongoCfg.ConnectTimeout = cfg.MongoDB.ConnectTimeout
	}
	mongoCfg.MaxRetries = cfg.MongoDB.MaxRetries
	if cfg.MongoDB.RetryInterval > 0 {
		mongoCfg.RetryInterval = cfg.MongoDB.RetryInterval
	}
	mongo, err := database.NewMongo(ctx, mongoCfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongo.Close(closeCtx)
	}()
	if err := mongo.EnsureIndexes(ctx, repository.Indexes()); err != nil {
		return err
	}
	log.Info("connected to mongodb", zap.String("database", cfg.MongoDB.Database))

	// Redis is optional: without it tenant lookups are uncached and the
	// login limiter is per process
	redisCfg := redis.DefaultConfig()
	redisCfg.Addr = cfg.Redis.Addr()
	redisCfg.Password = cfg.Redis.Password
	redisCfg.DB = cfg.Redis.DB
	if cfg.Redis.PoolSize > 0 {
		redisCfg.PoolSize = cfg.Redis.PoolSize
	}
	redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
	redisCfg.MaxRetries = 1
	redisCfg.Tracing = cfg.OTel.Enabled
	redisClient, err := redis.NewClient(ctx, redisCfg)
	if err != nil {
		log.Warn("redis unavailable, continuing without cache", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	// Kafka
	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer, err = kafka.NewProducer(ctx, kafka.ProducerConfig{
			Brokers:  cfg.Kafka.Brokers,
			ClientID: cfg.Kafka.ClientID,
		})
		if err != nil {
			return err
		}
		defer producer.Close()
	}

	auditSink, closeSink, err := newAuditSink(ctx, cfg, mongo, producer)
	if err != nil {
		return err
	}
	defer closeSink()
	var auditLogger *middleware.AuditLogger
	if auditSink != nil {
		auditCfg := middleware.DefaultAuditConfig(auditSink)
		auditCfg.BufferSize = cfg.Audit.BufferSize
		auditCfg.BatchSize = cfg.Audit.BatchSize
		auditCfg.FlushInterval = cfg.Audit.FlushInterval
		auditLogger = middleware.NewAuditLogger(auditCfg)
		defer auditLogger.Close()
	}

	limitCfg := middleware.RateLimitConfig{
		Attempts:  cfg.RateLimit.LoginAttempts,
		Window:    cfg.RateLimit.LoginWindow,
		KeyPrefix: "servus:ratelimit:login:",
	}
	var limiter middleware.Limiter = middleware.NewLocalLimiter(limitCfg)
	if redisClient != nil {
		limiter = middleware.NewRedisLimiter(redisClient, limitCfg)
	}

	containerCfg := &di.ContainerConfig{
		Mongo:          mongo,
		Redis:          redisClient,
		TenantCacheTTL: cfg.Cache.TenantTTL,
		EventsTopic:    cfg.Kafka.EventsTopic,
		Hasher:         security.NewHasher(cfg.Security.BcryptCost),
		Tokens: service.TokenConfig{
			Secret:     cfg.JWT.Secret,
			Issuer:     cfg.JWT.Issuer,
			AccessTTL:  cfg.JWT.AccessTokenTTL,
			RefreshTTL: cfg.JWT.RefreshTokenTTL,
		},
		Metrics: metrics,
	}
	if producer != nil {
		containerCfg.Producer = producer
	}
	container := di.NewContainer(containerCfg)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handler.NewRouter(container.Handlers, handler.RouterConfig{
		ServiceName:  cfg.App.Name,
		JWTSecret:    cfg.JWT.Secret,
		CORS:         middleware.DefaultCORSConfig(cfg.CORS.AllowOrigins),
		AccessLog:    log,
		Audit:        auditLogger,
		LoginLimiter: limiter,
		StaticDir:    cfg.Server.StaticDir,
		Tracing:      cfg.OTel.Enabled,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newAuditSink selects the audit store named by AUDIT_SINK. A nil sink
// disables auditing.
func newAuditSink(ctx context.Context, cfg *config.Config, mongo *database.MongoDB, producer *kafka.Producer) (middleware.AuditSink, func(), error) {
	noop := func() {}
	switch cfg.Audit.Sink {
	case config.AuditSinkNone:
		return nil, noop, nil
	case config.AuditSinkPostgres:
		if err := cfg.ValidateAuditDatabase(); err != nil {
			return nil, noop, err
		}
		pgCfg := database.DefaultPostgresConfig()
		pgCfg.Host = cfg.AuditDB.Host
		pgCfg.Port = cfg.AuditDB.Port
		pgCfg.User = cfg.AuditDB.User
		pgCfg.Password = cfg.AuditDB.Password
		pgCfg.Database = cfg.AuditDB.DBName
		pgCfg.SSLMode = cfg.AuditDB.SSLMode
		if cfg.AuditDB.MaxConns > 0 {
			pgCfg.MaxConns = cfg.AuditDB.MaxConns
		}
		pg, err := database.NewPostgres(ctx, pgCfg)
		if err != nil {
			return nil, noop, err
		}
		if err := pg.Exec(ctx, middleware.AuditLogsSchema); err != nil {
			pg.Close()
			return nil, noop, fmt.Errorf("create audit schema: %w", err)
		}
		return middleware.NewPostgresAuditSink(pg.Pool()), pg.Close, nil
	case config.AuditSinkKafka:
		if producer == nil {
			return nil, noop, errors.New("audit sink kafka requires a kafka producer")
		}
		return middleware.NewKafkaAuditSink(producer, cfg.Kafka.AuditTopic), noop, nil
	default:
		return middleware.NewMongoAuditSink(mongo.Collection(repository.AuditCollection)), noop, nil
	}
}
