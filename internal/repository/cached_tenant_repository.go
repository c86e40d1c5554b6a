package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/prohmpiriya/servus/internal/domain"
	"github.com/prohmpiriya/servus/pkg/logger"
	"github.com/prohmpiriya/servus/pkg/redis"
)

const tenantCachePrefix = "servus:tenant:"

// Cache is the byte cache the tenant repository reads through
type Cache interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CachedTenantRepository caches single-tenant lookups in Redis. Cache
// failures fall back to the underlying repository.
type CachedTenantRepository struct {
	TenantRepository
	cache Cache
	ttl   time.Duration
}

// NewCachedTenantRepository wraps repo with a read-through cache
func NewCachedTenantRepository(repo TenantRepository, cache Cache, ttl time.Duration) *CachedTenantRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedTenantRepository{TenantRepository: repo, cache: cache, ttl: ttl}
}

func idKey(id string) string             { return tenantCachePrefix + "id:" + id }
func tenantIDKey(tenantID string) string { return tenantCachePrefix + "tid:" + tenantID }

// GetByID retrieves a tenant by ID
func (r *CachedTenantRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	return r.readThrough(ctx, idKey(id), func() (*domain.Tenant, error) {
		return r.TenantRepository.GetByID(ctx, id)
	})
}

// GetByTenantID retrieves a tenant by its external id
func (r *CachedTenantRepository) GetByTenantID(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	return r.readThrough(ctx, tenantIDKey(tenantID), func() (*domain.Tenant, error) {
		return r.TenantRepository.GetByTenantID(ctx, tenantID)
	})
}

// Update updates a tenant and drops its cache entries
func (r *CachedTenantRepository) Update(ctx context.Context, tenant *domain.Tenant) error {
	if err := r.TenantRepository.Update(ctx, tenant); err != nil {
		return err
	}
	r.invalidate(ctx, tenant.ID.Hex(), tenant.TenantID)
	return nil
}

// SoftDelete soft deletes a tenant and drops its cache entries
func (r *CachedTenantRepository) SoftDelete(ctx context.Context, id string) error {
	tenant, err := r.TenantRepository.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := r.TenantRepository.SoftDelete(ctx, id); err != nil {
		return err
	}
	tenantID := ""
	if tenant != nil {
		tenantID = tenant.TenantID
	}
	r.invalidate(ctx, id, tenantID)
	return nil
}

func (r *CachedTenantRepository) readThrough(ctx context.Context, key string, load func() (*domain.Tenant, error)) (*domain.Tenant, error) {
	raw, err := r.cache.GetBytes(ctx, key)
	if err == nil {
		var tenant domain.Tenant
		if err := bson.Unmarshal(raw, &tenant); err == nil {
			return &tenant, nil
		}
	} else if !errors.Is(err, redis.ErrCacheMiss) {
		logger.WarnCtx(ctx, "tenant cache read failed", zap.String("key", key), zap.Error(err))
	}

	tenant, err := load()
	if err != nil || tenant == nil {
		return tenant, err
	}

	raw, err = bson.Marshal(tenant)
	if err == nil {
		for _, k := range []string{idKey(tenant.ID.Hex()), tenantIDKey(tenant.TenantID)} {
			if err := r.cache.SetBytes(ctx, k, raw, r.ttl); err != nil {
				logger.WarnCtx(ctx, "tenant cache write failed", zap.String("key", k), zap.Error(err))
				break
			}
		}
	}
	return tenant, nil
}

func (r *CachedTenantRepository) invalidate(ctx context.Context, id, tenantID string) {
	keys := []string{idKey(id)}
	if tenantID != "" {
		keys = append(keys, tenantIDKey(tenantID))
	}
	if err := r.cache.Delete(ctx, keys...); err != nil {
		logger.WarnCtx(ctx, "tenant cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
